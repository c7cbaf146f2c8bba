package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(getApp AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runWhoami(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

func runWhoami(ctx context.Context, a *app.App, out io.Writer) error {
	user, err := requireSession(ctx, a)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", user.FullName())
	fmt.Fprintf(w, "Email:\t%s\n", user.Email)
	fmt.Fprintf(w, "Role:\t%s\n", user.Role)
	fmt.Fprintf(w, "Student ID:\t%s\n", orDash(user.StudentID))
	fmt.Fprintf(w, "Phone:\t%s\n", orDash(user.PhoneNumber))
	fmt.Fprintf(w, "Church:\t%s\n", orDash(user.Church))
	fmt.Fprintf(w, "Status:\t%s\n", orDash(user.Status))
	fmt.Fprintf(w, "Home:\t%s\n", user.Role.LandingPath())
	if user.LastLogin != nil {
		fmt.Fprintf(w, "Last login:\t%s\n", user.LastLogin.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
