package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"

	"quiz-client/internal/logger"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000/api"

	refreshPath = "user/auth/refresh/"
	authPrefix  = "user/auth/"
)

type Options struct {
	HTTPClient *http.Client
	Logger     *logger.Logger
	// OnForcedLogout runs after a failed refresh has cleared the session.
	OnForcedLogout func()
}

// Client talks to the quiz REST API. Authentication rides on cookies, so
// every request shares one jar.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	jar            *resettableJar
	log            *logger.Logger
	onForcedLogout func()

	refreshGroup singleflight.Group

	mu   sync.RWMutex
	user *User
}

func NewHTTPClient(baseURL string, opts Options) *Client {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	jar := newResettableJar()
	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		httpClient = &copied
	}
	httpClient.Jar = jar

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		jar:            jar,
		log:            log.With("component", "apiclient"),
		onForcedLogout: opts.OnForcedLogout,
	}
}

// CurrentUser returns the user from the last successful login or Me call.
func (c *Client) CurrentUser() (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return User{}, false
	}
	return *c.user, true
}

func (c *Client) setUser(user *User) {
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
}

func (c *Client) clearSession() {
	c.jar.Reset()
	c.setUser(nil)
}

// doJSON sends one request and, on a 401 from a non-auth endpoint, refreshes
// the session once and retries.
func (c *Client) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	err := c.send(ctx, method, path, requestBody, responseBody)
	if !isUnauthorized(err) || strings.HasPrefix(path, authPrefix) {
		return err
	}

	if refreshErr := c.refresh(ctx); refreshErr != nil {
		if errors.Is(refreshErr, ErrServiceUnavailable) || ctx.Err() != nil ||
			errors.Is(refreshErr, context.Canceled) || errors.Is(refreshErr, context.DeadlineExceeded) {
			return refreshErr
		}
		c.forceLogout(refreshErr)
		return fmt.Errorf("%w: %v", ErrUnauthorized, refreshErr)
	}

	err = c.send(ctx, method, path, requestBody, responseBody)
	if isUnauthorized(err) {
		c.forceLogout(err)
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return err
}

// refresh is shared by every request that hit a 401 at the same time.
func (c *Client) refresh(ctx context.Context) error {
	_, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		return nil, c.send(ctx, http.MethodPost, refreshPath, nil, nil)
	})
	c.log.Debug("session refresh", "shared", shared, "ok", err == nil)
	return err
}

func (c *Client) forceLogout(cause error) {
	c.log.Warn("forcing logout after failed refresh", "error", cause)
	c.clearSession()
	if c.onForcedLogout != nil {
		c.onForcedLogout()
	}
}

func (c *Client) send(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(response.Body, 64<<10))
		apiErr := decodeAPIError(response.StatusCode, response.Status, raw)
		c.log.Debug("api error", "method", method, "path", path, "status", response.StatusCode)
		return apiErr
	}

	if responseBody == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func pageQuery(key string, page int) string {
	if page <= 1 {
		return ""
	}
	query := url.Values{}
	query.Set(key, strconv.Itoa(page))
	return "?" + query.Encode()
}

// resettableJar lets logout drop every cookie without swapping the jar
// out from under in-flight requests.
type resettableJar struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
}

func newResettableJar() *resettableJar {
	j := &resettableJar{}
	j.Reset()
	return j
}

func (j *resettableJar) Reset() {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		// cookiejar.New never fails with a non-nil options value.
		panic(err)
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}

func (j *resettableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	jar := j.jar
	j.mu.Unlock()
	jar.SetCookies(u, cookies)
}

func (j *resettableJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	jar := j.jar
	j.mu.Unlock()
	return jar.Cookies(u)
}
