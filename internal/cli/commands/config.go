package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/cli/client"
	"github.com/sundayschool-dev/sundayschool/internal/cli/config"
)

// NewConfigCmd creates the config command group. pathFn resolves the config
// file the root command was pointed at.
func NewConfigCmd(pathFn func() (string, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the local configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pathFn()
			if err != nil {
				return err
			}
			return runConfigShow(path, cmd.OutOrStdout())
		},
	}

	var baseURL, transport string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file pointing at a backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pathFn()
			if err != nil {
				return err
			}
			return runConfigInit(path, baseURL, transport, cmd.OutOrStdout())
		},
	}
	initCmd.Flags().StringVar(&baseURL, "base-url", "", "API root, e.g. https://school.example.org/api/sunday-school")
	initCmd.Flags().StringVar(&transport, "transport", "", "Session transport: bearer or cookie")
	_ = initCmd.MarkFlagRequired("base-url")

	cmd.AddCommand(show, initCmd)
	return cmd
}

func runConfigShow(path string, out io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# %s\n%s\n", path, data)
	return nil
}

func runConfigInit(path, baseURL, transport string, out io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		// A broken file is replaced rather than merged
		cfg = config.Defaults()
	}

	cfg.BaseURL = baseURL
	if transport != "" {
		var t client.Transport
		if err := t.UnmarshalText([]byte(transport)); err != nil {
			return err
		}
		cfg.Transport = t
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Wrote %s\n", path)
	return nil
}
