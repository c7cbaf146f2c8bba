package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// AppFunc returns the wired client stack, building it on first use
type AppFunc func() (*app.App, error)

// passwordReader reads a secret without echoing it
type passwordReader func(prompt string) (string, error)

var (
	errNotLoggedIn    = errors.New("not logged in. Please run 'sundayschool login' first")
	errNonInteractive = errors.New("cannot prompt in non-interactive mode")
)

// readTerminalPassword prompts on stderr and reads from the terminal
func readTerminalPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNonInteractive
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// requireSession syncs with the backend and returns the signed-in user
func requireSession(ctx context.Context, a *app.App) (*models.User, error) {
	state, err := a.Auth.Sync(ctx)
	if err != nil {
		return nil, err
	}
	if !state.IsAuthenticated {
		return nil, errNotLoggedIn
	}
	return state.User, nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
