package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/mcp"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/runtime/bootstrap"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/config"
)

var (
	version = "dev"
	opts    bootstrap.Options
	debug   bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "appstore-connect-mcp",
		Short:        "Serve App Store Connect reports as tools over stdio",
		SilenceUsage: true,
		RunE:         runServer,
	}

	rootCmd.Flags().StringVarP(&opts.ProfilesPath, "profiles", "c", config.DefaultProfilesPath(),
		"Path to the credentials profiles file (default is $HOME/.appstoreconnect)")
	rootCmd.Flags().StringVarP(&opts.Profile, "profile", "p", "", "Credentials profile (default from ASC_PROFILE or \"default\")")
	rootCmd.Flags().StringVarP(&opts.SettingsPath, "settings", "s", "", "Optional YAML settings file")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	// stdout carries protocol frames only
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "mcp").Logger()
	if !debug {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("no .env file loaded")
	}
	if opts.Profile == "" {
		opts.Profile = os.Getenv("ASC_PROFILE")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	app, err := bootstrap.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	server := mcp.NewServer(app.Tools, mcp.ServerInfo{Name: "appstore-connect", Version: version})
	err = server.Serve(ctx, os.Stdin, os.Stdout)
	if err != nil && ctx.Err() != nil {
		logger.Info().Msg("shutdown initiated")
		return nil
	}
	return err
}
