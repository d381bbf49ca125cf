package adapters

import (
	"maps"

	"github.com/shopspring/decimal"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/api"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

// MaxReportRows caps how many raw rows a sales report response carries.
const MaxReportRows = 100

func MapParsedReportDomainToApi(r domain.ParsedReport) api.ParsedReport {
	out := api.ParsedReport{
		ReportType: string(r.ReportType),
		Headers:    r.Headers,
		Rows:       make([]map[string]string, 0, min(len(r.Rows), MaxReportRows)),
		RowCount:   r.RowCount,
		Malformed:  r.Malformed,
	}
	if out.Headers == nil {
		out.Headers = []string{}
	}
	for i, row := range r.Rows {
		if i == MaxReportRows {
			out.Truncated = true
			break
		}
		out.Rows = append(out.Rows, maps.Clone(row.Fields))
	}
	return out
}

func MapSalesReportDomainToApi(r domain.SalesReportResult) api.SalesReport {
	return api.SalesReport{
		Date:          r.Date,
		DataAvailable: r.DataAvailable,
		Report:        MapParsedReportDomainToApi(r.Report),
		Summary:       MapRevenueSummaryDomainToApi(r.Summary),
	}
}

func MapRevenueMetricsDomainToApi(m domain.RevenueMetrics) api.RevenueMetrics {
	out := api.RevenueMetrics{
		Date:          m.Date,
		AppID:         m.AppID,
		DataAvailable: m.DataAvailable,
		DailyRevenue:  Money(m.DailyRevenue),
		Subscriptions: MapSubscriptionStatsDomainToApi(m.Subscriptions),
		ByProduct:     MapBreakdownsDomainToApi(m.ByProduct),
		ByCountry:     MapBreakdownsDomainToApi(m.ByCountry),
		Flagged:       MapFlaggedRowsDomainToApi(m.Flagged),
	}
	if out.Subscriptions != nil {
		out.MRR = out.Subscriptions.MRR
		out.ARR = out.Subscriptions.ARR
	}
	return out
}

func MapSubscriptionMetricsDomainToApi(m domain.SubscriptionMetrics) api.SubscriptionMetrics {
	out := api.SubscriptionMetrics{
		Date:          m.Date,
		DataAvailable: m.DataAvailable,
		Stats:         *MapSubscriptionStatsDomainToApi(&m.Stats),
	}
	if len(m.ByCountry) > 0 {
		out.ByCountry = MapBreakdownsDomainToApi(m.ByCountry)
	}
	return out
}

func MapRenewalSummaryDomainToApi(r domain.RenewalSummary) api.RenewalSummary {
	return api.RenewalSummary{
		Date:            r.Date,
		DataAvailable:   r.DataAvailable,
		New:             r.New,
		Renewals:        r.Renewals,
		NewProceeds:     Money(r.NewProceeds),
		RenewalProceeds: Money(r.RenewalProceeds),
		RenewalRate:     renewalRate(r.New, r.Renewals),
		ByProduct:       mapRenewalBreakdowns(r.ByProduct),
	}
}

func MapSubscriptionAnalyticsDomainToApi(a domain.SubscriptionAnalytics) api.SubscriptionAnalytics {
	out := api.SubscriptionAnalytics{
		Period:          a.Period,
		DataAvailable:   a.DaysWithData > 0,
		New:             a.New,
		Renewals:        a.Renewals,
		NewProceeds:     Money(a.NewProceeds),
		RenewalProceeds: Money(a.RenewalProceeds),
		ByProduct:       mapRenewalBreakdowns(a.ByProduct),
		DaysRequested:   a.DaysRequested,
		DaysFetched:     a.DaysFetched,
		DaysWithData:    a.DaysWithData,
		Coverage:        MapCoverageDomainToApi(a.Coverage),
	}
	for _, d := range a.Daily {
		out.Daily = append(out.Daily, api.DailySubscriptions{
			Date:            d.Date,
			New:             d.New,
			Renewals:        d.Renewals,
			NewProceeds:     Money(d.NewProceeds),
			RenewalProceeds: Money(d.RenewalProceeds),
		})
	}
	if a.Snapshot != nil {
		snapshot := MapSubscriptionMetricsDomainToApi(*a.Snapshot)
		out.Snapshot = &snapshot
	}
	return out
}

func MapAppsDomainToApi(apps []domain.App) []api.App {
	out := make([]api.App, 0, len(apps))
	for _, a := range apps {
		out = append(out, api.App{
			ID:            a.ID,
			Name:          a.Name,
			BundleID:      a.BundleID,
			SKU:           a.SKU,
			PrimaryLocale: a.PrimaryLocale,
		})
	}
	return out
}

func mapRenewalBreakdowns(items []domain.RenewalBreakdown) []api.RenewalBreakdown {
	if len(items) == 0 {
		return nil
	}
	out := make([]api.RenewalBreakdown, 0, len(items))
	for _, b := range items {
		out = append(out, api.RenewalBreakdown{
			Key:             b.Key,
			Name:            b.Name,
			New:             b.New,
			Renewals:        b.Renewals,
			NewProceeds:     Money(b.NewProceeds),
			RenewalProceeds: Money(b.RenewalProceeds),
		})
	}
	return out
}

// renewalRate is the share of renewals among all subscription purchases, in percent.
func renewalRate(newCount, renewals int64) float64 {
	total := newCount + renewals
	if total == 0 {
		return 0
	}
	return Money(decimal.NewFromInt(renewals).Div(decimal.NewFromInt(total)).Mul(decimal.NewFromInt(100)))
}
