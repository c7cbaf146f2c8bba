package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
)

// NewPasswordCmd creates the password command
func NewPasswordCmd(getApp AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runPassword(cmd.Context(), a, cmd.OutOrStdout(), readTerminalPassword)
		},
	}
}

func runPassword(ctx context.Context, a *app.App, out io.Writer, readPassword passwordReader) error {
	if _, err := requireSession(ctx, a); err != nil {
		return err
	}

	current, err := readPassword("Current password: ")
	if err != nil {
		return err
	}
	next, err := readPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword("Confirm new password: ")
	if err != nil {
		return err
	}

	if len(next) < 6 {
		return errors.New("new password must be at least 6 characters")
	}
	if next != confirm {
		return errors.New("passwords do not match")
	}

	if err := a.Auth.ChangePassword(ctx, current, next); err != nil {
		return fmt.Errorf("password change failed: %w", err)
	}

	fmt.Fprintln(out, "✓ Password updated")
	return nil
}
