package terminal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/adapters"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

const currencyUSD = "USD"

// periodOf turns "2006-01-02" or "2006-01" into the covered date range.
func periodOf(label string) domain.TimePeriod {
	if day, err := time.Parse("2006-01-02", label); err == nil {
		return domain.TimePeriod{Start: day, End: day, Duration: 1}
	}
	if month, err := time.Parse("2006-01", label); err == nil {
		end := month.AddDate(0, 1, -1)
		return domain.TimePeriod{Start: month, End: end, Duration: end.Day()}
	}
	return domain.TimePeriod{}
}

func breakdownSection(title string, items []domain.Breakdown) domain.ReportSection {
	section := domain.ReportSection{Title: title}
	for _, b := range items {
		name := b.Name
		if name == "" {
			name = b.Key
		}
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        name,
			Value:       adapters.Money(b.Amount),
			Unit:        currencyUSD,
			Description: fmt.Sprintf("%s%% of revenue, %s units", b.Percent.StringFixed(1), b.Units.String()),
		})
	}
	return section
}

func dayCounts(requested, fetched, withData int) map[string]interface{} {
	return map[string]interface{}{
		"Days requested": requested,
		"Days fetched":   fetched,
		"Days with data": withData,
	}
}

func coverageSection(c domain.Coverage, flagged []domain.FlaggedRow) domain.ReportSection {
	section := domain.ReportSection{
		Title: "Coverage",
		Summary: map[string]interface{}{
			"Slices requested": c.SlicesRequested,
			"Slices with data": c.SlicesWithData,
			"Slices missing":   c.SlicesMissing,
			"Slices failed":    c.SlicesFailed,
		},
	}
	for _, f := range c.Failures {
		section.Details = append(section.Details, domain.ReportDetail{Name: f.Slice, Value: "failed", Description: f.Error})
	}
	for _, f := range flagged {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        f.Slice,
			Value:       string(f.Flag),
			Unit:        f.Currency,
			Description: fmt.Sprintf("%s %s", f.Product, f.Amount.String()),
		})
	}
	return section
}

func subscriptionSection(s *domain.SubscriptionStats) domain.ReportSection {
	section := breakdownSection("Subscriptions", s.ByProduct)
	section.Summary = map[string]interface{}{
		"Active":      s.Active,
		"Paid active": s.PaidActive,
		"New":         s.New,
		"Renewals":    s.Renewals,
		"MRR":         adapters.Money(s.MRR),
		"ARR":         adapters.Money(s.ARR),
	}
	return section
}

// RevenueReport renders a revenue summary, monthly or financial.
func RevenueReport(title string, s domain.RevenueSummary) *domain.Report {
	report := &domain.Report{
		Title:       title,
		Period:      periodOf(s.Metadata.Period),
		TotalAmount: adapters.Money(s.TotalRevenue),
		Currency:    currencyUSD,
	}

	summary := map[string]interface{}{
		"Period":         s.Metadata.Period,
		"Data available": s.Metadata.DataAvailable,
		"Units":          s.TotalUnits.String(),
	}
	if s.Metadata.FiscalPeriod != "" {
		summary["Fiscal period"] = s.Metadata.FiscalPeriod
	}
	if s.Metadata.IsLatestAvailable != nil {
		summary["Latest available"] = *s.Metadata.IsLatestAvailable
	}
	if s.DaysRequested > 0 {
		for k, v := range dayCounts(s.DaysRequested, s.DaysFetched, s.DaysWithData) {
			summary[k] = v
		}
	}
	report.Sections = append(report.Sections, domain.ReportSection{Title: "Summary", Summary: summary})

	if len(s.ByProduct) > 0 {
		report.Sections = append(report.Sections, breakdownSection("Top products", s.ByProduct))
	}
	if len(s.ByCountry) > 0 {
		report.Sections = append(report.Sections, breakdownSection("Top countries", s.ByCountry))
	}
	if len(s.ByCurrency) > 0 {
		report.Sections = append(report.Sections, breakdownSection("Currencies", s.ByCurrency))
	}
	if sr := s.SalesVsReturns; sr != nil {
		report.Sections = append(report.Sections, domain.ReportSection{
			Title: "Sales vs returns",
			Details: []domain.ReportDetail{
				{Name: "Sales", Value: adapters.Money(sr.Sales), Unit: currencyUSD, Description: sr.SaleUnits.String() + " units"},
				{Name: "Returns", Value: adapters.Money(sr.Returns), Unit: currencyUSD, Description: sr.ReturnUnits.String() + " units"},
			},
		})
	}
	if s.Subscriptions != nil {
		report.Sections = append(report.Sections, subscriptionSection(s.Subscriptions))
	}
	if s.DailyStats != nil {
		section := domain.ReportSection{
			Title: "Daily revenue",
			Summary: map[string]interface{}{
				"Min":    adapters.Money(s.DailyStats.Min),
				"Median": adapters.Money(s.DailyStats.Median),
				"Max":    adapters.Money(s.DailyStats.Max),
				"Mean":   adapters.Money(s.DailyStats.Mean),
			},
		}
		for _, d := range s.HighRevenueDays {
			section.Details = append(section.Details, domain.ReportDetail{
				Name:        d.Date,
				Value:       adapters.Money(d.Revenue),
				Unit:        currencyUSD,
				Description: "high revenue day",
			})
		}
		report.Sections = append(report.Sections, section)
	}
	if s.Coverage.SlicesRequested > 0 || len(s.Flagged) > 0 {
		report.Sections = append(report.Sections, coverageSection(s.Coverage, s.Flagged))
	}
	return report
}

func SalesReport(r domain.SalesReportResult) *domain.Report {
	report := RevenueReport(fmt.Sprintf("%s report %s", r.Report.ReportType, r.Date), r.Summary)
	report.Period = periodOf(r.Date)
	report.Sections = append(report.Sections, domain.ReportSection{
		Title: "Report",
		Summary: map[string]interface{}{
			"Rows":      r.Report.RowCount,
			"Columns":   len(r.Report.Headers),
			"Malformed": r.Report.Malformed,
		},
	})
	return report
}

func RevenueMetricsReport(m domain.RevenueMetrics) *domain.Report {
	title := "Revenue metrics"
	if m.AppID != "" {
		title += " for app " + m.AppID
	}
	report := &domain.Report{
		Title:       title,
		Period:      periodOf(m.Date),
		TotalAmount: adapters.Money(m.DailyRevenue),
		Currency:    currencyUSD,
	}
	report.Sections = append(report.Sections, domain.ReportSection{
		Title:   "Summary",
		Summary: map[string]interface{}{"Date": m.Date, "Data available": m.DataAvailable},
	})
	if m.Subscriptions != nil {
		report.Sections = append(report.Sections, subscriptionSection(m.Subscriptions))
	}
	if len(m.ByProduct) > 0 {
		report.Sections = append(report.Sections, breakdownSection("Top products", m.ByProduct))
	}
	if len(m.ByCountry) > 0 {
		report.Sections = append(report.Sections, breakdownSection("Top countries", m.ByCountry))
	}
	if len(m.Flagged) > 0 {
		report.Sections = append(report.Sections, coverageSection(domain.Coverage{}, m.Flagged))
	}
	return report
}

func SubscriptionMetricsReport(m domain.SubscriptionMetrics) *domain.Report {
	report := &domain.Report{
		Title:       "Subscription snapshot " + m.Date,
		Period:      periodOf(m.Date),
		TotalAmount: adapters.Money(m.Stats.MRR),
		Currency:    currencyUSD,
	}
	report.Sections = append(report.Sections, subscriptionSection(&m.Stats))
	if len(m.ByCountry) > 0 {
		report.Sections = append(report.Sections, breakdownSection("Subscribers by country", m.ByCountry))
	}
	return report
}

func renewalSection(title string, items []domain.RenewalBreakdown) domain.ReportSection {
	section := domain.ReportSection{Title: title}
	for _, b := range items {
		name := b.Name
		if name == "" {
			name = b.Key
		}
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        name,
			Value:       adapters.Money(b.NewProceeds.Add(b.RenewalProceeds)),
			Unit:        currencyUSD,
			Description: fmt.Sprintf("%d new, %d renewals", b.New, b.Renewals),
		})
	}
	return section
}

func renewalTotals(newCount, renewals int64, newProceeds, renewalProceeds decimal.Decimal) map[string]interface{} {
	return map[string]interface{}{
		"New":              newCount,
		"Renewals":         renewals,
		"New proceeds":     adapters.Money(newProceeds),
		"Renewal proceeds": adapters.Money(renewalProceeds),
	}
}

func RenewalsReport(r domain.RenewalSummary) *domain.Report {
	report := &domain.Report{
		Title:       "Subscription renewals " + r.Date,
		Period:      periodOf(r.Date),
		TotalAmount: adapters.Money(r.NewProceeds.Add(r.RenewalProceeds)),
		Currency:    currencyUSD,
	}
	summary := renewalTotals(r.New, r.Renewals, r.NewProceeds, r.RenewalProceeds)
	summary["Data available"] = r.DataAvailable
	report.Sections = append(report.Sections,
		domain.ReportSection{Title: "Summary", Summary: summary},
		renewalSection("By product", r.ByProduct),
	)
	return report
}

func SubscriptionAnalyticsReport(a domain.SubscriptionAnalytics) *domain.Report {
	report := &domain.Report{
		Title:       "Subscription analytics " + a.Period,
		Period:      periodOf(a.Period),
		TotalAmount: adapters.Money(a.NewProceeds.Add(a.RenewalProceeds)),
		Currency:    currencyUSD,
	}
	summary := renewalTotals(a.New, a.Renewals, a.NewProceeds, a.RenewalProceeds)
	for k, v := range dayCounts(a.DaysRequested, a.DaysFetched, a.DaysWithData) {
		summary[k] = v
	}
	report.Sections = append(report.Sections,
		domain.ReportSection{Title: "Summary", Summary: summary},
		renewalSection("By product", a.ByProduct),
	)

	daily := domain.ReportSection{Title: "Daily"}
	for _, d := range a.Daily {
		daily.Details = append(daily.Details, domain.ReportDetail{
			Name:        d.Date,
			Value:       adapters.Money(d.NewProceeds.Add(d.RenewalProceeds)),
			Unit:        currencyUSD,
			Description: fmt.Sprintf("%d new, %d renewals", d.New, d.Renewals),
		})
	}
	report.Sections = append(report.Sections, daily)

	if a.Snapshot != nil {
		snapshot := subscriptionSection(&a.Snapshot.Stats)
		snapshot.Title = "Snapshot " + a.Snapshot.Date
		report.Sections = append(report.Sections, snapshot)
	}
	report.Sections = append(report.Sections, coverageSection(a.Coverage, nil))
	return report
}

func AppsReport(apps []domain.App) *domain.Report {
	section := domain.ReportSection{
		Title:   "Apps",
		Summary: map[string]interface{}{"Count": len(apps)},
	}
	for _, app := range apps {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        app.Name,
			Value:       app.ID,
			Unit:        app.SKU,
			Description: app.BundleID,
		})
	}
	return &domain.Report{Title: "Apps", Sections: []domain.ReportSection{section}}
}
