package aggregate

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

const unknownKey = "UNKNOWN"

func productOf(row domain.ParsedReportRow) (key, name string) {
	key = firstNonEmpty(
		row.Get(domain.ColSKU),
		row.Get(domain.ColVendorIdentifier),
		row.Get(domain.ColSubscriptionAppleID),
		row.Get(domain.ColAppleIdentifier),
		row.Get(domain.ColTitle),
		unknownKey,
	)
	name = firstNonEmpty(row.Get(domain.ColTitle), row.Get(domain.ColSubscriptionName), row.Get(domain.ColAppName), key)
	return key, name
}

func countryOf(row domain.ParsedReportRow) string {
	return strings.ToUpper(firstNonEmpty(
		row.Get(domain.ColCountryCode),
		row.Get(domain.ColCountryOfSale),
		row.Get(domain.ColCountry),
		unknownKey,
	))
}

func currencyOf(row domain.ParsedReportRow) string {
	if row.Has(domain.ColSalesOrReturn) {
		return firstNonEmpty(row.ProceedsCurrency, unknownKey)
	}
	return firstNonEmpty(row.CustomerCurrency, unknownKey)
}

// MonthlyFactor converts a price charged once per duration into a per-month amount.
// Durations look like "1 Week", "3 Months" or "1 Year"; anything else counts as monthly.
func MonthlyFactor(duration string) decimal.Decimal {
	fields := strings.Fields(strings.ToLower(duration))
	if len(fields) != 2 {
		return decimal.NewFromInt(1)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return decimal.NewFromInt(1)
	}
	count := decimal.NewFromInt(int64(n))

	switch strings.TrimSuffix(fields[1], "s") {
	case "day":
		return decimal.NewFromInt(365).Div(decimal.NewFromInt(12)).Div(count)
	case "week":
		return decimal.NewFromInt(52).Div(decimal.NewFromInt(12)).Div(count)
	case "month":
		return decimal.NewFromInt(1).Div(count)
	case "year":
		return decimal.NewFromInt(1).Div(count.Mul(decimal.NewFromInt(12)))
	default:
		return decimal.NewFromInt(1)
	}
}

func wholeCount(s string) int64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int64(n)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
