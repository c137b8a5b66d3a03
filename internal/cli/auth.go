package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quiz-client/internal/apiclient"
)

func (a *app) readPassword(ctx context.Context) (string, error) {
	fmt.Fprint(a.out, "password: ")
	password, err := a.input.Next(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

func (a *app) runLogin(ctx context.Context, username string) error {
	password, err := a.readPassword(ctx)
	if err != nil {
		return err
	}
	user, err := a.client.Login(ctx, apiclient.Credentials{Username: username, Password: password})
	if err != nil {
		return err
	}
	a.forcedLogout.Store(false)
	a.log.Info("logged in", "username", user.Username)
	fmt.Fprintf(a.out, "Logged in as %s.\n", user.Username)
	return nil
}

func (a *app) runRegister(ctx context.Context, username, email string) error {
	password, err := a.readPassword(ctx)
	if err != nil {
		return err
	}
	message, err := a.client.Register(ctx, apiclient.Registration{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, message)
	return nil
}

func (a *app) runLogout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	if err != nil {
		a.log.Warn("logout request failed", "error", err)
	}
	return nil
}

func (a *app) runWhoAmI(ctx context.Context) error {
	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	if user.Email != "" {
		fmt.Fprintf(a.out, "%s <%s> (id %d)\n", user.Username, user.Email, user.ID)
		return nil
	}
	fmt.Fprintf(a.out, "%s (id %d)\n", user.Username, user.ID)
	return nil
}
