package adapters

import (
	"github.com/shopspring/decimal"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/api"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

const moneyPlaces = 2

// Money rounds a USD amount for presentation.
func Money(d decimal.Decimal) float64 {
	return d.Round(moneyPlaces).InexactFloat64()
}

func MapBreakdownsDomainToApi(items []domain.Breakdown) []api.Breakdown {
	out := make([]api.Breakdown, 0, len(items))
	for _, b := range items {
		out = append(out, api.Breakdown{
			Key:     b.Key,
			Name:    b.Name,
			Amount:  Money(b.Amount),
			Units:   b.Units.InexactFloat64(),
			Percent: Money(b.Percent),
		})
	}
	return out
}

func MapSubscriptionStatsDomainToApi(s *domain.SubscriptionStats) *api.SubscriptionStats {
	if s == nil {
		return nil
	}
	out := &api.SubscriptionStats{
		Active:     s.Active,
		PaidActive: s.PaidActive,
		New:        s.New,
		Renewals:   s.Renewals,
		MRR:        Money(s.MRR),
		ARR:        Money(s.ARR),
	}
	if len(s.ByProduct) > 0 {
		out.ByProduct = MapBreakdownsDomainToApi(s.ByProduct)
	}
	return out
}

func MapDailyRevenueDomainToApi(days []domain.DailyRevenue) []api.DailyRevenue {
	if len(days) == 0 {
		return nil
	}
	out := make([]api.DailyRevenue, 0, len(days))
	for _, d := range days {
		out = append(out, api.DailyRevenue{Date: d.Date, Revenue: Money(d.Revenue), Units: d.Units.InexactFloat64()})
	}
	return out
}

func MapCoverageDomainToApi(c domain.Coverage) api.Coverage {
	out := api.Coverage{
		SlicesRequested: c.SlicesRequested,
		SlicesWithData:  c.SlicesWithData,
		SlicesEmpty:     c.SlicesEmpty,
		SlicesMissing:   c.SlicesMissing,
		SlicesMalformed: c.SlicesMalformed,
		SlicesFailed:    c.SlicesFailed,
		Missing:         c.Missing,
	}
	for _, f := range c.Failures {
		out.Failures = append(out.Failures, api.SliceFailure{Slice: f.Slice, Error: f.Error})
	}
	return out
}

func MapFlaggedRowsDomainToApi(rows []domain.FlaggedRow) []api.FlaggedRow {
	if len(rows) == 0 {
		return nil
	}
	out := make([]api.FlaggedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, api.FlaggedRow{
			Slice:    r.Slice,
			Flag:     string(r.Flag),
			Product:  r.Product,
			Currency: r.Currency,
			Amount:   Money(r.Amount),
		})
	}
	return out
}

func MapRevenueSummaryDomainToApi(s domain.RevenueSummary) api.RevenueSummary {
	out := api.RevenueSummary{
		TotalRevenue:    Money(s.TotalRevenue),
		TotalUnits:      s.TotalUnits.InexactFloat64(),
		ByProduct:       MapBreakdownsDomainToApi(s.ByProduct),
		ByCountry:       MapBreakdownsDomainToApi(s.ByCountry),
		ByCurrency:      MapBreakdownsDomainToApi(s.ByCurrency),
		Subscriptions:   MapSubscriptionStatsDomainToApi(s.Subscriptions),
		Daily:           MapDailyRevenueDomainToApi(s.Daily),
		HighRevenueDays: MapDailyRevenueDomainToApi(s.HighRevenueDays),
		Flagged:         MapFlaggedRowsDomainToApi(s.Flagged),
		Metadata: api.Metadata{
			Period:            s.Metadata.Period,
			FiscalPeriod:      s.Metadata.FiscalPeriod,
			ReportType:        string(s.Metadata.ReportType),
			IsLatestAvailable: s.Metadata.IsLatestAvailable,
			DataAvailable:     s.Metadata.DataAvailable,
			Currency:          s.Metadata.Currency,
		},
	}
	if s.SalesVsReturns != nil {
		out.SalesVsReturns = &api.SalesVsReturns{
			Sales:       Money(s.SalesVsReturns.Sales),
			Returns:     Money(s.SalesVsReturns.Returns),
			SaleUnits:   s.SalesVsReturns.SaleUnits.InexactFloat64(),
			ReturnUnits: s.SalesVsReturns.ReturnUnits.InexactFloat64(),
		}
	}
	if s.DailyStats != nil {
		out.DailyStats = &api.DailyStats{
			Min:    Money(s.DailyStats.Min),
			Median: Money(s.DailyStats.Median),
			Max:    Money(s.DailyStats.Max),
			Mean:   Money(s.DailyStats.Mean),
		}
	}
	// day counts only exist for temporal fan-out
	if s.DaysRequested > 0 {
		requested, fetched, withData := s.DaysRequested, s.DaysFetched, s.DaysWithData
		out.DaysRequested, out.DaysFetched, out.DaysWithData = &requested, &fetched, &withData
	}
	if s.Coverage.SlicesRequested > 0 || s.Coverage.SlicesMalformed > 0 {
		coverage := MapCoverageDomainToApi(s.Coverage)
		out.Coverage = &coverage
	}
	return out
}
