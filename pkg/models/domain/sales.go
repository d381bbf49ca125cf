package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ReportType string

const (
	ReportTypeSales             ReportType = "SALES"
	ReportTypeSubscription      ReportType = "SUBSCRIPTION"
	ReportTypeSubscriptionEvent ReportType = "SUBSCRIPTION_EVENT"
	ReportTypeSubscriber        ReportType = "SUBSCRIBER"
	ReportTypeFinancial         ReportType = "FINANCIAL"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

const (
	ReportSubTypeSummary  = "SUMMARY"
	ReportSubTypeDetailed = "DETAILED"
)

// ReportRequest fully determines one upstream fetch (a slice).
type ReportRequest struct {
	ReportType    ReportType
	ReportSubType string
	Frequency     Frequency
	Date          string // YYYY-MM-DD for sales families, fiscal YYYY-MM for financial
	Version       string
	RegionCode    string
	VendorID      string
}

func (r ReportRequest) IsFinancial() bool {
	return r.ReportType == ReportTypeFinancial
}

func (r ReportRequest) String() string {
	parts := []string{string(r.ReportType), r.Date}
	if r.RegionCode != "" {
		parts = append(parts, r.RegionCode)
	}
	if r.Version != "" {
		parts = append(parts, "v"+r.Version)
	}
	return strings.Join(parts, "/")
}

type RowFlag string

const (
	RowFlagUnknownCurrency RowFlag = "unknown_currency"
	RowFlagSanityCeiling   RowFlag = "sanity_ceiling"
)

// ParsedReportRow maps column names to raw values. The derived money fields are
// zero until the row went through currency normalization.
type ParsedReportRow struct {
	Fields map[string]string

	CustomerCurrency string
	CustomerPriceRaw decimal.Decimal
	ProceedsCurrency string
	ProceedsRaw      decimal.Decimal
	ProceedsUSD      decimal.Decimal
	Units            decimal.Decimal
	IsReturn         bool
	// PerUnit marks families whose proceeds column is a per-unit figure.
	PerUnit bool
	Flags   []RowFlag
}

// Contribution is the amount this row adds to revenue totals, derived from ProceedsUSD only.
func (r ParsedReportRow) Contribution() decimal.Decimal {
	if r.PerUnit && !r.Units.IsZero() {
		return r.ProceedsUSD.Mul(r.Units)
	}
	return r.ProceedsUSD
}

// Get returns the raw value of a column, or an empty string when the column is absent.
func (r ParsedReportRow) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

func (r ParsedReportRow) Has(column string) bool {
	_, ok := r.Fields[column]
	return ok
}

func (r ParsedReportRow) HasFlag(flag RowFlag) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

type ParsedReport struct {
	ReportType ReportType
	Headers    []string
	Rows       []ParsedReportRow
	RowCount   int
	// Malformed is set when the payload could not be framed as a tab separated report.
	Malformed bool
}

func (p ParsedReport) HasColumn(column string) bool {
	for _, h := range p.Headers {
		if h == column {
			return true
		}
	}
	return false
}

type FlaggedRow struct {
	Slice    string
	Flag     RowFlag
	Product  string
	Currency string
	Amount   decimal.Decimal
}

func (f FlaggedRow) String() string {
	return fmt.Sprintf("%s: %s %s %s (%s)", f.Slice, f.Flag, f.Amount.String(), f.Currency, f.Product)
}
