package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/config"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/finance"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/tools"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/store/client"
)

// Options select where settings and credentials come from.
type Options struct {
	// SettingsPath is an optional YAML settings file.
	SettingsPath string
	// ProfilesPath is the credentials ini file; when it does not exist ASC_* variables are used.
	ProfilesPath string
	Profile      string
}

type App struct {
	Settings    *config.Settings
	Credentials *config.Credentials
	Service     finance.Service
	Tools       tools.Registry
}

// New wires settings, credentials, the upstream client, the finance service and the tool registry.
func New(ctx context.Context, opts Options) (*App, error) {
	logger := zerolog.Ctx(ctx)

	settings, err := config.LoadSettings(opts.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	creds, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("profile", creds.Profile).Str("key_id", creds.KeyID).Msg("credentials loaded")
	if creds.VendorNumber == "" {
		logger.Warn().Str("profile", creds.Profile).Msg("no vendor number configured, report operations will fail")
	}

	key, err := client.LoadPrivateKey(creds.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	tokens, err := client.NewTokenProvider(client.TokenConfig{
		KeyID:      creds.KeyID,
		IssuerID:   creds.IssuerID,
		PrivateKey: key,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	apiClient, err := client.NewClient(client.Config{
		BaseURL:         settings.BaseURL,
		RequestsPerHour: settings.RequestsPerHour,
		Timeout:         settings.RequestTimeout,
		Tokens:          tokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	svc, err := finance.NewService(finance.Dependencies{Client: apiClient}, settings, creds.VendorNumber)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterFinanceTools(registry, svc); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return &App{
		Settings:    settings,
		Credentials: creds,
		Service:     svc,
		Tools:       registry,
	}, nil
}

func loadCredentials(ctx context.Context, opts Options) (*config.Credentials, error) {
	path := opts.ProfilesPath
	if path == "" {
		path = config.DefaultProfilesPath()
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no profiles file, reading credentials from environment")
		creds := config.CredentialsFromEnv()
		if err := creds.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		return creds, nil
	}

	registry, err := config.NewRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read profiles file %s: %v", domain.ErrConfiguration, path, err)
	}
	creds, err := registry.GetCredentials(ctx, opts.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return creds, nil
}
