package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

var testRates = map[string]float64{
	"USD": 1,
	"EUR": 1.1,
	"IDR": 0.000064,
	"JPY": 0.0067,
}

func row(fields map[string]string) domain.ParsedReportRow {
	return domain.ParsedReportRow{Fields: fields}
}

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		reportType domain.ReportType
		expected   Policy
	}{
		{domain.ReportTypeSales, PolicyAlreadyUSD},
		{domain.ReportTypeSubscription, PolicyAlreadyUSD},
		{domain.ReportTypeSubscriptionEvent, PolicyAlreadyUSD},
		{domain.ReportTypeFinancial, PolicyConvertWithSign},
	}
	for _, tt := range tests {
		t.Run(string(tt.reportType), func(t *testing.T) {
			p, err := PolicyFor(tt.reportType)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}

	_, err := PolicyFor("PRE_ORDER")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNormalize_SalesProceedsAreNotConvertedAgain(t *testing.T) {
	n := NewNormalizer(NewRateTable(testRates))

	out, err := n.Normalize(domain.ReportTypeSales, row(map[string]string{
		"Developer Proceeds": "3.62",
		"Customer Currency":  "IDR",
		"Customer Price":     "56126",
	}))

	require.NoError(t, err)
	assert.True(t, out.ProceedsUSD.Equal(decimal.RequireFromString("3.62")), out.ProceedsUSD.String())
	assert.True(t, out.ProceedsRaw.Equal(out.ProceedsUSD))
	assert.Equal(t, "IDR", out.CustomerCurrency)
	assert.True(t, out.CustomerPriceRaw.Equal(decimal.NewFromInt(56126)))
	assert.Empty(t, out.Flags)
}

func TestNormalize_IdentityForEveryCurrency(t *testing.T) {
	n := NewNormalizer(NewRateTable(testRates))

	for _, family := range []domain.ReportType{domain.ReportTypeSales, domain.ReportTypeSubscription} {
		for _, code := range []string{"USD", "EUR", "IDR", "JPY", "XYZ", ""} {
			out, err := n.Normalize(family, row(map[string]string{
				"Developer Proceeds": "12.34",
				"Customer Currency":  code,
				"Proceeds Currency":  code,
			}))
			require.NoError(t, err)
			assert.Truef(t, out.ProceedsUSD.Equal(out.ProceedsRaw), "%s/%s", family, code)
			assert.Truef(t, out.ProceedsUSD.Equal(decimal.RequireFromString("12.34")), "%s/%s", family, code)
			assert.Empty(t, out.Flags)
		}
	}
}

func TestNormalize_SalesUnits(t *testing.T) {
	n := NewNormalizer(NewRateTable(testRates))

	out, err := n.Normalize(domain.ReportTypeSales, row(map[string]string{
		"Developer Proceeds": "0.70",
		"Units":              "-2",
	}))

	require.NoError(t, err)
	assert.True(t, out.PerUnit)
	assert.True(t, out.IsReturn)
	assert.True(t, out.Contribution().Equal(decimal.RequireFromString("-1.4")), out.Contribution().String())
}

func TestNormalize_FinancialSignAndConversion(t *testing.T) {
	n := NewNormalizer(NewRateTable(testRates))

	tests := []struct {
		name     string
		fields   map[string]string
		expected string
		flags    []domain.RowFlag
	}{
		{
			name:     "sale in USD",
			fields:   map[string]string{"Extended Partner Share": "100", "Partner Share Currency": "USD", "Sales or Return": "S"},
			expected: "100",
		},
		{
			name:     "return in USD is negative",
			fields:   map[string]string{"Extended Partner Share": "20", "Partner Share Currency": "USD", "Sales or Return": "R"},
			expected: "-20",
		},
		{
			name:     "return already carrying a minus sign stays negative",
			fields:   map[string]string{"Extended Partner Share": "-20", "Partner Share Currency": "USD", "Sales or Return": "R"},
			expected: "-20",
		},
		{
			name:     "sale in EUR is converted",
			fields:   map[string]string{"Extended Partner Share": "10", "Partner Share Currency": "EUR", "Sales or Return": "S"},
			expected: "11",
		},
		{
			name:     "partner share times quantity when extended share is absent",
			fields:   map[string]string{"Partner Share": "2.5", "Quantity": "4", "Partner Share Currency": "USD", "Sales or Return": "S"},
			expected: "10",
		},
		{
			name:     "unknown currency falls back to parity and is flagged",
			fields:   map[string]string{"Extended Partner Share": "7", "Partner Share Currency": "XAF", "Sales or Return": "S"},
			expected: "7",
			flags:    []domain.RowFlag{domain.RowFlagUnknownCurrency},
		},
		{
			name:     "unparseable amount is zero",
			fields:   map[string]string{"Extended Partner Share": "n/a", "Partner Share Currency": "USD", "Sales or Return": "S"},
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := n.Normalize(domain.ReportTypeFinancial, row(tt.fields))
			require.NoError(t, err)
			assert.True(t, out.ProceedsUSD.Equal(decimal.RequireFromString(tt.expected)), out.ProceedsUSD.String())
			assert.Equal(t, tt.flags, out.Flags)
		})
	}
}

func TestNormalizeReport_DoesNotMutateSource(t *testing.T) {
	n := NewNormalizer(NewRateTable(testRates))
	source := domain.ParsedReport{
		ReportType: domain.ReportTypeSales,
		Rows:       []domain.ParsedReportRow{row(map[string]string{"Developer Proceeds": "1.00"})},
		RowCount:   1,
	}

	out, err := n.NormalizeReport(source)

	require.NoError(t, err)
	assert.True(t, source.Rows[0].ProceedsUSD.IsZero())
	assert.True(t, out.Rows[0].ProceedsUSD.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 1, out.RowCount)
}

func TestRateTable(t *testing.T) {
	table := NewRateTable(map[string]float64{"eur": 1.1, "BAD": 0})

	rate, ok := table.Rate("EUR")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.1")))

	rate, ok = table.Rate("usd")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))

	_, ok = table.Rate("BAD")
	assert.False(t, ok)
}
