package apiclient

import (
	"context"
	"net/http"
)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts the credentials and then loads the current user, mirroring
// what the server expects of a browser session.
func (c *Client) Login(ctx context.Context, credentials Credentials) (User, error) {
	if err := c.doJSON(ctx, http.MethodPost, "user/auth/login/", credentials, nil); err != nil {
		return User{}, err
	}
	return c.Me(ctx)
}

// Register creates an account and returns the server's confirmation
// message, if any.
func (c *Client) Register(ctx context.Context, registration Registration) (string, error) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "user/auth/register/", registration, &payload); err != nil {
		return "", err
	}
	if payload.Message == "" {
		payload.Message = "Account created"
	}
	return payload.Message, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "user/me/", nil, &user); err != nil {
		return User{}, err
	}
	c.setUser(&user)
	return user, nil
}

// Logout clears local auth state even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "user/auth/logout/", nil, nil)
	c.clearSession()
	return err
}
