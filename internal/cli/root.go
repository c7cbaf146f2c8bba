package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
	"github.com/sundayschool-dev/sundayschool/internal/cli/commands"
	"github.com/sundayschool-dev/sundayschool/internal/cli/config"
	"github.com/sundayschool-dev/sundayschool/internal/logger"
)

var version = "dev" // Will be set during build

type globalFlags struct {
	configPath string
	baseURL    string
	transport  string
	logLevel   string
}

// NewRootCmd builds the command tree. opts are passed to every App the
// commands build.
func NewRootCmd(opts ...app.Option) *cobra.Command {
	var flags globalFlags
	var built *app.App

	configPath := func() (string, error) {
		if flags.configPath != "" {
			return flags.configPath, nil
		}
		return config.DefaultPath()
	}

	getApp := func() (*app.App, error) {
		if built != nil {
			return built, nil
		}

		path, err := configPath()
		if err != nil {
			return nil, err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w\nRun 'sundayschool config init' to create one", err)
		}

		if flags.baseURL != "" {
			cfg.BaseURL = flags.baseURL
		}
		if flags.transport != "" {
			if err := cfg.Transport.UnmarshalText([]byte(flags.transport)); err != nil {
				return nil, err
			}
		}
		if flags.logLevel != "" {
			cfg.LogLevel = flags.logLevel
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		log := logger.InitWriter(os.Stderr, cfg.LogLevel, "console")
		built, err = app.New(cfg, log, opts...)
		return built, err
	}

	rootCmd := &cobra.Command{
		Use:   "sundayschool",
		Short: "Sunday-school admin from the command line",
		Long: `sundayschool signs you in to the Sunday-school admin API and lets you manage
your profile, member accounts and assets.

The session is kept in the OS keyring (bearer transport) so later commands
reuse it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default ~/.config/sundayschool/config.json)")
	pf.StringVar(&flags.baseURL, "base-url", "", "API root, overrides the config file")
	pf.StringVar(&flags.transport, "transport", "", "Session transport: bearer or cookie")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sundayschool version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(getApp))
	rootCmd.AddCommand(commands.NewLogoutCmd(getApp))
	rootCmd.AddCommand(commands.NewRegisterCmd(getApp))
	rootCmd.AddCommand(commands.NewWhoamiCmd(getApp))
	rootCmd.AddCommand(commands.NewProfileCmd(getApp))
	rootCmd.AddCommand(commands.NewPasswordCmd(getApp))
	rootCmd.AddCommand(commands.NewOpenCmd(getApp))
	rootCmd.AddCommand(commands.NewUsersCmd(getApp))
	rootCmd.AddCommand(commands.NewAssetsCmd(getApp))
	rootCmd.AddCommand(commands.NewPostsCmd(getApp))
	rootCmd.AddCommand(commands.NewConfigCmd(configPath))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
