package main

import (
	"fmt"
	"net"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/runtime/bootstrap"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/server"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/config"
)

var opts bootstrap.Options

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for App Store Connect reports",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&opts.ProfilesPath, "config", "c", config.DefaultProfilesPath(),
		"Path to the credentials profiles file (default is $HOME/.appstoreconnect)")
	rootCmd.Flags().StringVarP(&opts.Profile, "profile", "p", "", "Credentials profile (default from ASC_PROFILE or \"default\")")
	rootCmd.Flags().StringVarP(&opts.SettingsPath, "settings", "s", "", "Optional YAML settings file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	if opts.Profile == "" {
		opts.Profile = os.Getenv("ASC_PROFILE")
	}

	app, err := bootstrap.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	logger.Info().Msgf("Credentials profile `%s` loaded.", app.Credentials.Profile)
	logger.Info().Msgf("Serving %d tools", len(app.Tools.List()))

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	api := server.NewWebAPI(server.Config{
		Addr: net.JoinHostPort(host, port),
		Dependencies: server.Dependencies{
			Tools:  app.Tools,
			Logger: logger,
		},
	})

	return api.Start()
}
