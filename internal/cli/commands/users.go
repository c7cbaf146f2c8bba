package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
	"github.com/sundayschool-dev/sundayschool/internal/guard"
	"github.com/sundayschool-dev/sundayschool/internal/models"
	"github.com/sundayschool-dev/sundayschool/internal/store"
)

// NewUsersCmd creates the users command group
func NewUsersCmd(getApp AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage member accounts (admin only)",
	}

	var role string
	list := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runUsersList(cmd.Context(), a, models.Role(role), cmd.OutOrStdout())
		},
	}
	list.Flags().StringVar(&role, "role", "", "Only show accounts with this role (admin or user)")

	var file string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an account for someone else",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			data, err := loadRegistration(file, promptRegistration)
			if err != nil {
				return err
			}
			return runUsersAdd(cmd.Context(), a, data, cmd.OutOrStdout())
		},
	}
	add.Flags().StringVarP(&file, "file", "f", "", "Read the registration form from a JSON file")

	cmd.AddCommand(list, add)
	return cmd
}

// requireAdmin checks the session against the admin users page the same way
// the web app does
func requireAdmin(ctx context.Context, a *app.App, page string) error {
	if _, err := requireSession(ctx, a); err != nil {
		return err
	}
	if d := guard.Decide(a.Auth.State(), page, models.RoleAdmin); d.Outcome != guard.Render {
		return fmt.Errorf("admin access required")
	}
	return nil
}

func runUsersList(ctx context.Context, a *app.App, role models.Role, out io.Writer) error {
	if err := requireAdmin(ctx, a, "/admin/users"); err != nil {
		return err
	}

	users, err := a.API.ListUsers(ctx)
	if err != nil {
		return err
	}

	s := store.NewUsers()
	s.Dispatch(store.LoadUsers{Users: users})

	var shown []models.User
	for _, u := range s.State() {
		if role == "" || u.Role == role {
			shown = append(shown, u)
		}
	}

	if len(shown) == 0 {
		fmt.Fprintln(out, "No users found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tSTATUS\tCHURCH")
	fmt.Fprintln(w, "────\t─────\t────\t──────\t──────")
	for _, u := range shown {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.FullName(), u.Email, u.Role, orDash(u.Status), orDash(u.Church))
	}
	return w.Flush()
}

func runUsersAdd(ctx context.Context, a *app.App, data models.RegisterData, out io.Writer) error {
	if err := data.Validate(); err != nil {
		return err
	}
	if err := requireAdmin(ctx, a, "/admin/users/new"); err != nil {
		return err
	}

	// Straight to the API: the admin's own session must stay as it is
	res, err := a.API.Register(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(out, "✓ Created %s (%s) as %s\n", res.User.FullName(), res.User.Email, res.User.Role)
	return nil
}
