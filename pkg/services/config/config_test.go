package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	// When
	s, err := LoadSettings("")

	// Then
	require.NoError(t, err)
	assert.Equal(t, "https://api.appstoreconnect.apple.com", s.BaseURL)
	assert.Equal(t, 3500, s.RequestsPerHour)
	assert.Equal(t, 30*time.Second, s.RequestTimeout)
	assert.Equal(t, float64(1_000_000), s.SanityCeiling)
	assert.Equal(t, 10, s.TopN)
	assert.Equal(t, int(time.October), s.FiscalYearStartMonth)
	assert.Equal(t, DefaultRegionCodes, s.RegionCodes)
	assert.NotContains(t, s.RegionCodes, "Z1")

	version, ok := s.ReportVersion("subscription")
	assert.True(t, ok)
	assert.Equal(t, "1_3", version)
	assert.Equal(t, 1.0, s.CurrencyRates["USD"])
}

func TestLoadSettings_ValidYAML_OverridesDefaults(t *testing.T) {
	// Given
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	content := `sanity_ceiling: 5000
top_n: 3
fiscal_year_start_month: 1
region_codes: ["us", "eu"]
report_versions:
  SALES: "1_1"
currency_rates:
  EUR: 1.5`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// When
	s, err := LoadSettings(path)

	// Then
	require.NoError(t, err)
	assert.Equal(t, float64(5000), s.SanityCeiling)
	assert.Equal(t, 3, s.TopN)
	assert.Equal(t, 1, s.FiscalYearStartMonth)
	assert.Equal(t, []string{"US", "EU"}, s.RegionCodes)

	version, ok := s.ReportVersion("SALES")
	assert.True(t, ok)
	assert.Equal(t, "1_1", version)
	assert.Equal(t, 1.5, s.CurrencyRates["EUR"])
}

func TestLoadSettings_InvalidFiscalMonth_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fiscal_year_start_month: 13"), 0o644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestLoadSettings_MissingFile_ReturnsError(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRegistry_Profiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".appstoreconnect")
	content := `[default]
key_id = KEY1
issuer_id = issuer-1
private_key_path = /keys/AuthKey_KEY1.p8
vendor_number = 8812345

[staging]
key_id = KEY2
issuer_id = issuer-2
private_key_path = /keys/AuthKey_KEY2.p8

[broken]
key_id = KEY3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	registry, err := NewRegistry(path)
	require.NoError(t, err)

	profiles, err := registry.GetProfiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "staging", "broken"}, profiles)

	tests := []struct {
		name        string
		profile     string
		expected    *Credentials
		expectError bool
	}{
		{
			name:    "default profile",
			profile: "",
			expected: &Credentials{
				Profile:        "default",
				KeyID:          "KEY1",
				IssuerID:       "issuer-1",
				PrivateKeyPath: "/keys/AuthKey_KEY1.p8",
				VendorNumber:   "8812345",
			},
		},
		{
			name:    "profile without vendor number",
			profile: "staging",
			expected: &Credentials{
				Profile:        "staging",
				KeyID:          "KEY2",
				IssuerID:       "issuer-2",
				PrivateKeyPath: "/keys/AuthKey_KEY2.p8",
			},
		},
		{
			name:        "incomplete profile",
			profile:     "broken",
			expectError: true,
		},
		{
			name:        "unknown profile",
			profile:     "prod",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := registry.GetCredentials(context.Background(), tt.profile)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, creds)
		})
	}
}
