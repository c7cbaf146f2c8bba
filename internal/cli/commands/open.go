package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
	"github.com/sundayschool-dev/sundayschool/internal/guard"
)

// NewOpenCmd creates the open command
func NewOpenCmd(getApp AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Show where the app would take you for a page",
		Long: `Resolve a page of the web app against the current session and print
every redirect the route guard applies on the way.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runOpen(cmd.Context(), a, args[0], cmd.OutOrStdout())
		},
	}
}

func runOpen(ctx context.Context, a *app.App, path string, out io.Writer) error {
	if _, err := a.Auth.Sync(ctx); err != nil {
		// Treated as signed out, same as the app does
		a.Logger.Warn().Err(err).Msg("Could not read session")
	}

	nav := a.Navigator()
	defer nav.Close()
	steps := nav.Navigate(path)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tOUTCOME\tTARGET")
	fmt.Fprintln(w, "────\t───────\t──────")
	for _, step := range steps {
		fmt.Fprintf(w, "%s\t%s\t%s\n", step.Path, step.Decision.Outcome, orDash(step.Decision.Target))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if from := nav.ReturnTo(); from != "" && nav.Location() == guard.LoginPath {
		fmt.Fprintf(out, "\nAfter login you will be returned to %s\n", from)
	}
	return nil
}
