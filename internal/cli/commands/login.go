package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/authctx"
	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
	"github.com/sundayschool-dev/sundayschool/internal/cli/client"
	"github.com/sundayschool-dev/sundayschool/internal/guard"
)

// NewLoginCmd creates the login command
func NewLoginCmd(getApp AppFunc) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the Sunday-school API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runLogin(cmd.Context(), a, email, password, cmd.OutOrStdout(), readTerminalPassword)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SUNDAYSCHOOL_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SUNDAYSCHOOL_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, a *app.App, email, password string, out io.Writer, readPassword passwordReader) error {
	// Environment variables are handy in scripts
	if email == "" {
		email = os.Getenv("SUNDAYSCHOOL_EMAIL")
	}
	if password == "" {
		password = os.Getenv("SUNDAYSCHOOL_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or SUNDAYSCHOOL_EMAIL env var)")
	}

	if password == "" {
		p, err := readPassword("Password: ")
		if errors.Is(err, errNonInteractive) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or SUNDAYSCHOOL_PASSWORD env var)")
		}
		if err != nil {
			return err
		}
		password = p
	}

	fmt.Fprintf(out, "Logging in to %s...\n", a.API.BaseURL())

	res, err := a.Auth.Login(ctx, email, password)
	switch {
	case errors.Is(err, authctx.ErrInvalidCredentials):
		return fmt.Errorf("login failed: %s", client.Message(err))
	case errors.Is(err, authctx.ErrSessionConfirmationFailed):
		return fmt.Errorf("login was accepted but the session could not be confirmed, try again shortly: %w", err)
	case err != nil:
		return fmt.Errorf("login failed: %w", err)
	}

	nav := a.Navigator()
	defer nav.Close()
	steps := nav.Navigate(guard.RootPath)

	fmt.Fprintln(out, "✓ Login successful!")
	fmt.Fprintf(out, "  User: %s (%s)\n", res.User.FullName(), res.User.Email)
	fmt.Fprintf(out, "  Role: %s\n", res.User.Role)
	fmt.Fprintf(out, "  Home: %s\n", steps[len(steps)-1].Path)

	return nil
}
