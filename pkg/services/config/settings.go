package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "ASC"

type Settings struct {
	BaseURL         string        `mapstructure:"base_url"`
	RequestsPerHour int           `mapstructure:"requests_per_hour"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`

	// SanityCeiling rejects any single row contributing more than this many USD.
	SanityCeiling           float64 `mapstructure:"sanity_ceiling"`
	HighRevenueDayThreshold float64 `mapstructure:"high_revenue_day_threshold"`
	TopN                    int     `mapstructure:"top_n"`

	FiscalYearStartMonth int `mapstructure:"fiscal_year_start_month"`
	LatestProbeDepth     int `mapstructure:"latest_probe_depth"`
	SalesReportLagDays   int `mapstructure:"sales_report_lag_days"`

	RegionCodes    []string           `mapstructure:"region_codes"`
	ReportVersions map[string]string  `mapstructure:"report_versions"`
	CurrencyRates  map[string]float64 `mapstructure:"currency_rates"`
}

// DefaultRegionCodes lists the financial report regions fetched one by one.
// The upstream "all regions" code (Z1) is not used because it does not return data reliably.
var DefaultRegionCodes = []string{
	"US", "CA", "MX", "LL", "BR", "CL", "CO", "PE",
	"EU", "GB", "CH", "NO", "SE", "DK", "PL", "CZ", "HU", "RO", "BG", "RU", "TR",
	"JP", "AU", "NZ", "CN", "HK", "TW", "KR", "SG", "ID", "TH", "MY", "PH", "VN", "IN", "PK", "KZ",
	"IL", "SA", "AE", "QA", "EG", "ZA", "NG", "TZ",
	"WW",
}

var DefaultReportVersions = map[string]string{
	"SALES":              "1_0",
	"SUBSCRIPTION":       "1_3",
	"SUBSCRIPTION_EVENT": "1_3",
	"SUBSCRIBER":         "1_3",
	"FINANCIAL":          "",
}

// DefaultCurrencyRates are USD per one unit of currency. They are meant to be overridden
// from the settings file; currencies missing here are converted 1:1 and flagged.
var DefaultCurrencyRates = map[string]float64{
	"USD": 1, "EUR": 1.08, "GBP": 1.27, "JPY": 0.0067, "CAD": 0.73, "AUD": 0.66,
	"CHF": 1.13, "CNY": 0.14, "MXN": 0.058, "INR": 0.012, "BRL": 0.18, "KRW": 0.00073,
	"RUB": 0.011, "TRY": 0.029, "SGD": 0.74, "HKD": 0.128, "TWD": 0.031, "IDR": 0.000064,
	"THB": 0.028, "MYR": 0.22, "PHP": 0.018, "VND": 0.00004, "ILS": 0.27, "SAR": 0.267,
	"AED": 0.272, "ZAR": 0.054, "NGN": 0.00065, "EGP": 0.02, "PKR": 0.0036, "QAR": 0.27,
	"KZT": 0.0021, "TZS": 0.00039, "NZD": 0.6, "NOK": 0.093, "SEK": 0.095, "DKK": 0.145,
	"PLN": 0.25, "CZK": 0.043, "HUF": 0.0027, "RON": 0.22, "BGN": 0.55, "CLP": 0.0011,
	"COP": 0.00025, "PEN": 0.27,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "https://api.appstoreconnect.apple.com")
	v.SetDefault("requests_per_hour", 3500)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("sanity_ceiling", 1_000_000)
	v.SetDefault("high_revenue_day_threshold", 10_000)
	v.SetDefault("top_n", 10)
	v.SetDefault("fiscal_year_start_month", int(time.October))
	v.SetDefault("latest_probe_depth", 6)
	v.SetDefault("sales_report_lag_days", 1)
	v.SetDefault("region_codes", DefaultRegionCodes)
	v.SetDefault("report_versions", DefaultReportVersions)
	v.SetDefault("currency_rates", DefaultCurrencyRates)
}

// LoadSettings reads the optional settings file at path and overlays ASC_* environment variables.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	// viper lower-cases map keys
	s.ReportVersions = upperKeys(s.ReportVersions)
	s.CurrencyRates = upperKeys(s.CurrencyRates)
	for i, code := range s.RegionCodes {
		s.RegionCodes[i] = strings.ToUpper(strings.TrimSpace(code))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	if s.FiscalYearStartMonth < 1 || s.FiscalYearStartMonth > 12 {
		return fmt.Errorf("fiscal_year_start_month must be within 1..12, got %d", s.FiscalYearStartMonth)
	}
	if s.RequestsPerHour <= 0 {
		return fmt.Errorf("requests_per_hour must be positive, got %d", s.RequestsPerHour)
	}
	if s.SanityCeiling <= 0 {
		return fmt.Errorf("sanity_ceiling must be positive, got %v", s.SanityCeiling)
	}
	if len(s.RegionCodes) == 0 {
		return fmt.Errorf("region_codes must not be empty")
	}
	if s.TopN <= 0 {
		s.TopN = 10
	}
	return nil
}

// ReportVersion returns the configured version for a report type.
func (s *Settings) ReportVersion(reportType string) (string, bool) {
	v, ok := s.ReportVersions[strings.ToUpper(reportType)]
	return v, ok
}

func upperKeys[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[strings.ToUpper(k)] = v
	}
	return out
}
