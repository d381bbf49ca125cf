package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

// DailyStats returns min/median/max/mean of the given days, or nil for no days.
func DailyStats(days []domain.DailyRevenue) *domain.DailyStats {
	if len(days) == 0 {
		return nil
	}

	values := make([]decimal.Decimal, 0, len(days))
	sum := decimal.Zero
	for _, d := range days {
		values = append(values, d.Revenue)
		sum = sum.Add(d.Revenue)
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })

	mid := len(values) / 2
	median := values[mid]
	if len(values)%2 == 0 {
		median = values[mid-1].Add(values[mid]).Div(decimal.NewFromInt(2))
	}

	return &domain.DailyStats{
		Min:    values[0],
		Median: median,
		Max:    values[len(values)-1],
		Mean:   sum.Div(decimal.NewFromInt(int64(len(values)))),
	}
}

// HighRevenueDays returns the days strictly above threshold, highest first.
func HighRevenueDays(days []domain.DailyRevenue, threshold decimal.Decimal) []domain.DailyRevenue {
	var out []domain.DailyRevenue
	for _, d := range days {
		if d.Revenue.GreaterThan(threshold) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue.GreaterThan(out[j].Revenue) })
	return out
}
