package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

const DefaultProfile = "default"

// Credentials identify one App Store Connect API key and the vendor it reports for.
type Credentials struct {
	Profile        string
	KeyID          string
	IssuerID       string
	PrivateKeyPath string
	VendorNumber   string
}

func (c Credentials) Validate() error {
	var missing []string
	if c.KeyID == "" {
		missing = append(missing, "key_id")
	}
	if c.IssuerID == "" {
		missing = append(missing, "issuer_id")
	}
	if c.PrivateKeyPath == "" {
		missing = append(missing, "private_key_path")
	}
	if len(missing) > 0 {
		return fmt.Errorf("profile %s is missing %s", c.Profile, strings.Join(missing, ", "))
	}
	return nil
}

// Registry gives access to the credential profiles of an ini file such as ~/.appstoreconnect
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetCredentials(ctx context.Context, profile string) (*Credentials, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func DefaultProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".appstoreconnect"
	}
	return filepath.Join(home, ".appstoreconnect")
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetCredentials(_ context.Context, profile string) (*Credentials, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found: %w", profile, err)
	}

	creds := &Credentials{
		Profile:        profile,
		KeyID:          section.Key("key_id").String(),
		IssuerID:       section.Key("issuer_id").String(),
		PrivateKeyPath: expandHome(section.Key("private_key_path").String()),
		VendorNumber:   section.Key("vendor_number").String(),
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

// CredentialsFromEnv builds credentials from ASC_* variables, used when no profile file exists.
func CredentialsFromEnv() *Credentials {
	return &Credentials{
		Profile:        "env",
		KeyID:          os.Getenv("ASC_KEY_ID"),
		IssuerID:       os.Getenv("ASC_ISSUER_ID"),
		PrivateKeyPath: expandHome(os.Getenv("ASC_PRIVATE_KEY_PATH")),
		VendorNumber:   os.Getenv("ASC_VENDOR_NUMBER"),
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
