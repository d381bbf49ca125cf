package currency

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

// Normalizer derives ProceedsUSD for report rows. The conversion policy is picked
// once per report family, never per row.
type Normalizer struct {
	rates *RateTable
}

func NewNormalizer(rates *RateTable) *Normalizer {
	return &Normalizer{rates: rates}
}

// NormalizeReport returns a copy of report whose rows carry the derived money fields.
func (n *Normalizer) NormalizeReport(report domain.ParsedReport) (domain.ParsedReport, error) {
	policy, err := PolicyFor(report.ReportType)
	if err != nil {
		return report, err
	}

	out := report
	out.Rows = make([]domain.ParsedReportRow, 0, len(report.Rows))
	for _, row := range report.Rows {
		out.Rows = append(out.Rows, n.apply(policy, row))
	}
	return out, nil
}

func (n *Normalizer) Normalize(reportType domain.ReportType, row domain.ParsedReportRow) (domain.ParsedReportRow, error) {
	policy, err := PolicyFor(reportType)
	if err != nil {
		return row, err
	}
	return n.apply(policy, row), nil
}

func (n *Normalizer) apply(policy Policy, row domain.ParsedReportRow) domain.ParsedReportRow {
	out := domain.ParsedReportRow{
		Fields:           row.Fields,
		CustomerCurrency: strings.ToUpper(row.Get(domain.ColCustomerCurrency)),
		CustomerPriceRaw: ParseAmount(row.Get(domain.ColCustomerPrice)),
	}

	switch policy {
	case PolicyConvertWithSign:
		n.convertWithSign(row, &out)
	default:
		alreadyUSD(row, &out)
	}
	return out
}

func alreadyUSD(row domain.ParsedReportRow, out *domain.ParsedReportRow) {
	out.ProceedsRaw = ParseAmount(row.Get(domain.ColDeveloperProceeds))
	out.ProceedsUSD = out.ProceedsRaw
	out.ProceedsCurrency = firstNonEmpty(row.Get(domain.ColCurrencyOfProceeds), row.Get(domain.ColProceedsCurrency))

	if row.Has(domain.ColUnits) {
		out.Units = ParseAmount(row.Get(domain.ColUnits))
		out.PerUnit = true
		out.IsReturn = out.Units.IsNegative()
	}
}

func (n *Normalizer) convertWithSign(row domain.ParsedReportRow, out *domain.ParsedReportRow) {
	quantity := ParseAmount(row.Get(domain.ColQuantity)).Abs()

	raw := row.Get(domain.ColExtendedPartnerShare)
	if raw != "" {
		out.ProceedsRaw = ParseAmount(raw)
	} else {
		out.ProceedsRaw = ParseAmount(row.Get(domain.ColPartnerShare))
		if !quantity.IsZero() {
			out.ProceedsRaw = out.ProceedsRaw.Mul(quantity)
		}
	}

	out.ProceedsCurrency = strings.ToUpper(row.Get(domain.ColPartnerShareCurrency))
	rate, known := n.rates.Rate(out.ProceedsCurrency)
	if !known {
		out.Flags = append(out.Flags, domain.RowFlagUnknownCurrency)
	}

	magnitude := out.ProceedsRaw.Abs().Mul(rate)
	out.IsReturn = strings.EqualFold(row.Get(domain.ColSalesOrReturn), domain.SalesOrReturnReturnMarker)
	if out.IsReturn {
		magnitude = magnitude.Neg()
	}
	out.ProceedsUSD = magnitude
	out.Units = quantity
}

// ParseAmount reads a report number; anything unparseable is zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
