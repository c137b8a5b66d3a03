package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"quiz-client/internal/apiclient"
	"quiz-client/internal/logger"
	"quiz-client/internal/session"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultPage        = 1
)

type Config struct {
	ServerURL   string
	HTTPTimeout time.Duration
	// HTTPClient overrides the default client; its Jar is replaced.
	HTTPClient *http.Client
	Sessions   *session.Repository
	Logger     *logger.Logger
}

type app struct {
	client    *apiclient.Client
	sessions  *session.Repository
	log       *logger.Logger
	serverURL string
	input     *lineSource
	out       io.Writer

	forcedLogout atomic.Bool
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	serverURL := strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	if serverURL == "" {
		serverURL = apiclient.DefaultBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NewRepository(session.NewMemoryBackend(), log)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	a := &app{
		sessions:  sessions,
		log:       log,
		serverURL: serverURL,
		input:     newLineSource(in),
		out:       out,
	}
	a.client = apiclient.NewHTTPClient(serverURL, apiclient.Options{
		HTTPClient:     httpClient,
		Logger:         log,
		OnForcedLogout: func() { a.forcedLogout.Store(true) },
	})

	fmt.Fprintf(out, "quiz-client\nserver=%s\n\n", serverURL)
	printHelp(out)

	for {
		a.reportForcedLogout()
		fmt.Fprint(out, "\n> ")
		line, err := a.input.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		switch command {
		case "help":
			printHelp(out)
		case "exit", "quit":
			return nil
		case "login":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: login <username>")
				continue
			}
			a.report(a.runLogin(ctx, args[1]))
		case "register":
			if len(args) != 3 {
				fmt.Fprintln(out, "usage: register <username> <email>")
				continue
			}
			a.report(a.runRegister(ctx, args[1], args[2]))
		case "logout":
			a.report(a.runLogout(ctx))
		case "whoami":
			a.report(a.runWhoAmI(ctx))
		case "categories":
			a.report(a.runCategories(ctx))
		case "quizzes":
			page, category, parseErr := parseBrowseArgs(args[1:])
			if parseErr != nil {
				fmt.Fprintf(out, "invalid quizzes page: %v\n", parseErr)
				continue
			}
			a.report(a.runBrowse(ctx, page, category))
		case "mine":
			page, parseErr := parsePositiveLimit(args, 1, defaultPage)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid page: %v\n", parseErr)
				continue
			}
			a.report(a.runOwnQuizzes(ctx, page))
		case "quiz":
			quizID, ok := a.idArg(args, "usage: quiz <quiz_id>")
			if ok {
				a.report(a.runShowQuiz(ctx, quizID))
			}
		case "import":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: import <file.yaml>")
				continue
			}
			a.report(a.runImport(ctx, args[1]))
		case "edit-quiz":
			if len(args) != 3 {
				fmt.Fprintln(out, "usage: edit-quiz <quiz_id> <file.yaml>")
				continue
			}
			quizID, parseErr := parseID(args[1])
			if parseErr != nil {
				fmt.Fprintf(out, "invalid quiz id: %v\n", parseErr)
				continue
			}
			a.report(a.runEditQuiz(ctx, quizID, args[2]))
		case "delete-quiz":
			quizID, ok := a.idArg(args, "usage: delete-quiz <quiz_id>")
			if ok {
				a.report(a.runDeleteQuiz(ctx, quizID))
			}
		case "delete-question":
			questionID, ok := a.idArg(args, "usage: delete-question <question_id>")
			if ok {
				a.report(a.runDeleteQuestion(ctx, questionID))
			}
		case "delete-option":
			optionID, ok := a.idArg(args, "usage: delete-option <option_id>")
			if ok {
				a.report(a.runDeleteOption(ctx, optionID))
			}
		case "take":
			quizID, ok := a.idArg(args, "usage: take <quiz_id>")
			if ok {
				a.report(a.runTake(ctx, quizID))
			}
		case "review":
			if len(args) < 2 || len(args) > 3 {
				fmt.Fprintln(out, "usage: review <attempt_id> [page]")
				continue
			}
			page, parseErr := parsePositiveLimit(args, 2, defaultPage)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid page: %v\n", parseErr)
				continue
			}
			a.report(a.runReview(ctx, args[1], page))
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

func (a *app) idArg(args []string, usage string) (int64, bool) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, usage)
		return 0, false
	}
	id, err := parseID(args[1])
	if err != nil {
		fmt.Fprintf(a.out, "invalid id: %v\n", err)
		return 0, false
	}
	return id, true
}

func (a *app) report(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return
	}
	fmt.Fprintf(a.out, "error: %v\n", describeClientError(err, a.serverURL))
}

func (a *app) reportForcedLogout() {
	if a.forcedLogout.Swap(false) {
		fmt.Fprintln(a.out, "You have been logged out. Use 'login <username>' to sign in again.")
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  login <username>")
	fmt.Fprintln(out, "  register <username> <email>")
	fmt.Fprintln(out, "  logout")
	fmt.Fprintln(out, "  whoami")
	fmt.Fprintln(out, "  categories")
	fmt.Fprintln(out, "  quizzes [page] [category]")
	fmt.Fprintln(out, "  mine [page]")
	fmt.Fprintln(out, "  quiz <quiz_id>")
	fmt.Fprintln(out, "  import <file.yaml>")
	fmt.Fprintln(out, "  edit-quiz <quiz_id> <file.yaml>")
	fmt.Fprintln(out, "  delete-quiz <quiz_id>")
	fmt.Fprintln(out, "  delete-question <question_id>")
	fmt.Fprintln(out, "  delete-option <option_id>")
	fmt.Fprintln(out, "  take <quiz_id>")
	fmt.Fprintln(out, "  review <attempt_id> [page]")
	fmt.Fprintln(out, "  exit")
}
