package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(getApp AppFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Create a Sunday-school account and sign in with it.

The registration form is prompted for interactively unless --file points to a
JSON document with the same fields.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}

			data, err := loadRegistration(file, promptRegistration)
			if err != nil {
				return err
			}
			return runRegister(cmd.Context(), a, data, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the registration form from a JSON file")

	return cmd
}

func runRegister(ctx context.Context, a *app.App, data models.RegisterData, out io.Writer) error {
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := a.Auth.Register(ctx, data)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintf(out, "✓ %s\n", orDefault(res.Message, "Registered"))
	fmt.Fprintf(out, "  User: %s (%s)\n", res.User.FullName(), res.User.Email)

	if state := a.Auth.State(); state.IsAuthenticated {
		fmt.Fprintf(out, "  Signed in as %s\n", state.User.Email)
	} else {
		fmt.Fprintln(out, "  Run 'sundayschool login' to sign in.")
	}
	return nil
}

// loadRegistration reads the form from path, or prompts when path is empty
func loadRegistration(path string, prompt func() (models.RegisterData, error)) (models.RegisterData, error) {
	if path == "" {
		return prompt()
	}

	var data models.RegisterData
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("failed to read registration file: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("failed to parse registration file: %w", err)
	}
	return data, nil
}

// promptRegistration walks through the form field by field
func promptRegistration() (models.RegisterData, error) {
	var d models.RegisterData

	text := func(label string, required bool, validate promptui.ValidateFunc) func(*string) error {
		return func(dst *string) error {
			p := promptui.Prompt{Label: label, Validate: validate}
			if validate == nil && required {
				p.Validate = func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("required")
					}
					return nil
				}
			}
			v, err := p.Run()
			if err != nil {
				return err
			}
			*dst = strings.TrimSpace(v)
			return nil
		}
	}
	choose := func(label string, items ...string) func(*string) error {
		return func(dst *string) error {
			s := promptui.Select{Label: label, Items: items}
			_, v, err := s.Run()
			if err != nil {
				return err
			}
			*dst = v
			return nil
		}
	}
	phone := func(s string) error {
		if !models.IsValidPhone(s) {
			return errors.New("expected +2519XXXXXXXX or 09XXXXXXXX")
		}
		return nil
	}

	steps := []struct {
		dst *string
		ask func(*string) error
	}{
		{&d.Email, text("Email", true, nil)},
		{&d.FirstName, text("First name", true, nil)},
		{&d.MiddleName, text("Middle name", false, nil)},
		{&d.LastName, text("Last name", true, nil)},
		{&d.Sex, choose("Sex", "male", "female")},
		{&d.PhoneNumber, text("Phone number", true, phone)},
		{&d.DateOfBirth, text("Date of birth (YYYY-MM-DD)", true, nil)},
		{&d.NationalID, text("National ID", true, nil)},
		{&d.MarriageStatus, choose("Marriage status", "single", "married", "divorced", "widowed")},
		{&d.Country, text("Country", true, nil)},
		{&d.Region, text("Region", true, nil)},
		{&d.Church, text("Church", true, nil)},
		{&d.ParentStatus, choose("Parent status", "both", "mother", "father", "guardian")},
		{&d.ParentFullName, text("Parent full name", true, nil)},
		{&d.ParentPhoneNumber, text("Parent phone number", true, phone)},
	}
	for _, step := range steps {
		if err := step.ask(step.dst); err != nil {
			return d, fmt.Errorf("registration cancelled: %w", err)
		}
	}

	password, err := (&promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(s string) error {
			if len(s) < 6 {
				return errors.New("at least 6 characters")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return d, fmt.Errorf("registration cancelled: %w", err)
	}
	d.Password = password

	return d, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
