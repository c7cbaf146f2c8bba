package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(getApp AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runLogout(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

func runLogout(ctx context.Context, a *app.App, out io.Writer) error {
	if err := a.Auth.Logout(ctx); err != nil {
		fmt.Fprintln(out, "Local session cleared.")
		return err
	}

	fmt.Fprintln(out, "✓ Logged out")
	return nil
}
