package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// profileFlags maps CLI flags to patch fields
var profileFlags = []struct {
	name  string
	usage string
	field func(*models.UserPatch) **string
}{
	{"first-name", "First name", func(p *models.UserPatch) **string { return &p.FirstName }},
	{"middle-name", "Middle name", func(p *models.UserPatch) **string { return &p.MiddleName }},
	{"last-name", "Last name", func(p *models.UserPatch) **string { return &p.LastName }},
	{"phone", "Phone number", func(p *models.UserPatch) **string { return &p.PhoneNumber }},
	{"occupation", "Occupation", func(p *models.UserPatch) **string { return &p.Occupation }},
	{"marriage-status", "single, married, divorced or widowed", func(p *models.UserPatch) **string { return &p.MarriageStatus }},
	{"country", "Country", func(p *models.UserPatch) **string { return &p.Country }},
	{"region", "Region", func(p *models.UserPatch) **string { return &p.Region }},
	{"zone", "Zone", func(p *models.UserPatch) **string { return &p.Zone }},
	{"woreda", "Woreda", func(p *models.UserPatch) **string { return &p.Woreda }},
	{"church", "Church", func(p *models.UserPatch) **string { return &p.Church }},
	{"parent-name", "Parent full name", func(p *models.UserPatch) **string { return &p.ParentFullName }},
	{"parent-phone", "Parent phone number", func(p *models.UserPatch) **string { return &p.ParentPhoneNumber }},
	{"parent-email", "Parent email", func(p *models.UserPatch) **string { return &p.ParentEmail }},
	{"avatar", "Avatar URL", func(p *models.UserPatch) **string { return &p.Avatar }},
}

// NewProfileCmd creates the profile command group
func NewProfileCmd(getApp AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View or update your profile",
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Update fields of your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := patchFromFlags(cmd.Flags())

			a, err := getApp()
			if err != nil {
				return err
			}
			return runProfileUpdate(cmd.Context(), a, patch, cmd.OutOrStdout())
		},
	}
	for _, f := range profileFlags {
		update.Flags().String(f.name, "", f.usage)
	}

	cmd.AddCommand(update)
	return cmd
}

// patchFromFlags builds a patch from the flags that were actually set
func patchFromFlags(flags *pflag.FlagSet) models.UserPatch {
	var patch models.UserPatch
	for _, f := range profileFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, _ := flags.GetString(f.name)
		*f.field(&patch) = models.Ptr(v)
	}
	return patch
}

func runProfileUpdate(ctx context.Context, a *app.App, patch models.UserPatch, out io.Writer) error {
	if patch.IsEmpty() {
		return errors.New("nothing to update, pass at least one field flag")
	}
	if patch.PhoneNumber != nil && !models.IsValidPhone(*patch.PhoneNumber) {
		return fmt.Errorf("invalid phone number %q", *patch.PhoneNumber)
	}

	if _, err := requireSession(ctx, a); err != nil {
		return err
	}

	user, err := a.Auth.UpdateProfile(ctx, patch)
	if err != nil {
		return fmt.Errorf("profile update failed: %w", err)
	}

	fmt.Fprintln(out, "✓ Profile updated")
	fmt.Fprintf(out, "  User: %s (%s)\n", user.FullName(), user.Email)
	return nil
}
