package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/aggregate"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/config"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/currency"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/report"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/store/client"
)

const (
	currencyUSD = "USD"
	// subscription snapshots are sometimes published a day or two after sales
	snapshotProbeDays = 3
)

type SalesReportArgs struct {
	Date       string
	ReportType string
}

type RevenueMetricsArgs struct {
	AppID string
}

type FinancialArgs struct {
	Year   int
	Month  int
	Latest bool
}

// Service exposes the reporting operations offered as tools.
type Service interface {
	GetSalesReport(ctx context.Context, args SalesReportArgs) (*domain.SalesReportResult, error)
	GetRevenueMetrics(ctx context.Context, args RevenueMetricsArgs) (*domain.RevenueMetrics, error)
	GetMonthlyRevenue(ctx context.Context, year, month int) (*domain.RevenueSummary, error)
	GetFinancialSummary(ctx context.Context, args FinancialArgs) (*domain.RevenueSummary, error)
	GetSubscriptionMetrics(ctx context.Context) (*domain.SubscriptionMetrics, error)
	GetSubscriptionRenewals(ctx context.Context, date string) (*domain.RenewalSummary, error)
	GetMonthlySubscriptionAnalytics(ctx context.Context, year, month int) (*domain.SubscriptionAnalytics, error)
	ListApps(ctx context.Context) ([]domain.App, error)
}

type Dependencies struct {
	Client client.Client
	// Fetcher defaults to a report fetcher over Client.
	Fetcher report.Fetcher
	Now     func() time.Time
}

type service struct {
	client       client.Client
	orchestrator *Orchestrator
	calendar     FiscalCalendar
	settings     *config.Settings
	vendor       string
	highRevenue  decimal.Decimal
}

func NewService(deps Dependencies, settings *config.Settings, vendorNumber string) (Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings are required", domain.ErrConfiguration)
	}
	calendar, err := NewFiscalCalendar(settings.FiscalYearStartMonth)
	if err != nil {
		return nil, err
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		if deps.Client == nil {
			return nil, fmt.Errorf("%w: an upstream client is required", domain.ErrConfiguration)
		}
		fetcher = report.NewFetcher(deps.Client)
	}

	normalizer := currency.NewNormalizer(currency.NewRateTable(settings.CurrencyRates))
	orchestrator := NewOrchestrator(fetcher, normalizer, OrchestratorOptions{
		Aggregate: aggregate.Options{
			Ceiling: decimal.NewFromFloat(settings.SanityCeiling),
			TopN:    settings.TopN,
		},
		Regions:    settings.RegionCodes,
		LagDays:    settings.SalesReportLagDays,
		ProbeDepth: settings.LatestProbeDepth,
		Now:        deps.Now,
	})

	return &service{
		client:       deps.Client,
		orchestrator: orchestrator,
		calendar:     calendar,
		settings:     settings,
		vendor:       strings.TrimSpace(vendorNumber),
		highRevenue:  decimal.NewFromFloat(settings.HighRevenueDayThreshold),
	}, nil
}

func (s *service) GetSalesReport(ctx context.Context, args SalesReportArgs) (*domain.SalesReportResult, error) {
	reportType := domain.ReportTypeSales
	if args.ReportType != "" {
		reportType = domain.ReportType(strings.ToUpper(args.ReportType))
	}
	if reportType == domain.ReportTypeFinancial {
		return nil, fmt.Errorf("%w: use the financial summary for %s reports", domain.ErrInvalidArgument, reportType)
	}

	date, err := s.dateOrLatest(args.Date)
	if err != nil {
		return nil, err
	}
	req, err := s.dailyRequest(reportType, date)
	if err != nil {
		return nil, err
	}

	res, err := s.singleSlice(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	out := &domain.SalesReportResult{Date: date, Report: res.Report, DataAvailable: res.HasData()}
	out.Summary = s.summarize(res.Acc, domain.SummaryMetadata{
		Period:        date,
		ReportType:    reportType,
		DataAvailable: res.HasData(),
		Currency:      currencyUSD,
	})
	if res.Outcome == OutcomeMalformed {
		out.Summary.Coverage.SlicesMalformed = 1
	}
	return out, nil
}

func (s *service) GetRevenueMetrics(ctx context.Context, args RevenueMetricsArgs) (*domain.RevenueMetrics, error) {
	date := s.orchestrator.LatestDate()
	appID := strings.TrimSpace(args.AppID)
	keep := appFilter(appID)

	salesReq, err := s.dailyRequest(domain.ReportTypeSales, date)
	if err != nil {
		return nil, err
	}
	sales, err := s.singleSlice(ctx, salesReq, keep)
	if err != nil {
		return nil, err
	}

	snapshot, _, err := s.latestSnapshot(ctx, date, keep)
	if err != nil {
		return nil, err
	}

	combined := aggregate.NewAccumulator(s.orchestrator.opts.Aggregate)
	combined.Merge(sales.Acc)
	if snapshot != nil {
		combined.Merge(snapshot.Acc)
	}
	summary := combined.Summary()

	return &domain.RevenueMetrics{
		Date:          date,
		AppID:         appID,
		DailyRevenue:  summary.TotalRevenue,
		Subscriptions: summary.Subscriptions,
		ByProduct:     summary.ByProduct,
		ByCountry:     summary.ByCountry,
		Flagged:       summary.Flagged,
		DataAvailable: sales.HasData() || snapshot != nil,
	}, nil
}

func (s *service) GetMonthlyRevenue(ctx context.Context, year, month int) (*domain.RevenueSummary, error) {
	if err := validYearMonth(year, month); err != nil {
		return nil, err
	}
	base, err := s.dailyRequest(domain.ReportTypeSales, "")
	if err != nil {
		return nil, err
	}

	fan, err := s.orchestrator.Days(ctx, base, year, time.Month(month))
	if err != nil {
		return nil, fmt.Errorf("monthly revenue %04d-%02d: %w", year, month, err)
	}

	summary := s.summarize(fan.Total, domain.SummaryMetadata{
		Period:        fmt.Sprintf("%04d-%02d", year, month),
		ReportType:    domain.ReportTypeSales,
		DataAvailable: fan.Coverage.SlicesWithData > 0,
		Currency:      currencyUSD,
	})
	summary.Daily = fan.Daily()
	summary.DailyStats = aggregate.DailyStats(summary.Daily)
	summary.HighRevenueDays = aggregate.HighRevenueDays(summary.Daily, s.highRevenue)
	summary.DaysRequested = len(fan.Slices) + len(fan.Skipped)
	summary.DaysFetched = len(fan.Slices)
	summary.DaysWithData = fan.Coverage.SlicesWithData
	summary.Coverage = fan.Coverage
	return &summary, nil
}

func (s *service) GetFinancialSummary(ctx context.Context, args FinancialArgs) (*domain.RevenueSummary, error) {
	if err := s.requireVendor(domain.ReportTypeFinancial); err != nil {
		return nil, err
	}
	base := domain.ReportRequest{
		ReportType: domain.ReportTypeFinancial,
		Version:    s.version(domain.ReportTypeFinancial),
		VendorID:   s.vendor,
	}

	var (
		period   FiscalPeriod
		isLatest *bool
	)
	if args.Latest || args.Year == 0 {
		p, latest, found, err := s.orchestrator.LatestPeriod(ctx, base, s.calendar)
		if err != nil {
			return nil, fmt.Errorf("latest financial period: %w", err)
		}
		if !found {
			summary := s.summarize(nil, domain.SummaryMetadata{
				ReportType: domain.ReportTypeFinancial,
				Currency:   currencyUSD,
			})
			return &summary, nil
		}
		period, isLatest = p, &latest
	} else {
		if err := validYearMonth(args.Year, args.Month); err != nil {
			return nil, err
		}
		period = s.calendar.Period(args.Year, time.Month(args.Month))
	}

	base.Date = period.Label()
	fan, err := s.orchestrator.Regions(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("financial summary %s: %w", period.Label(), err)
	}

	summary := s.summarize(fan.Total, domain.SummaryMetadata{
		Period:            s.calendar.CalendarLabel(period),
		FiscalPeriod:      period.Label(),
		ReportType:        domain.ReportTypeFinancial,
		IsLatestAvailable: isLatest,
		DataAvailable:     fan.Coverage.SlicesWithData > 0,
		Currency:          currencyUSD,
	})
	summary.Coverage = fan.Coverage
	return &summary, nil
}

func (s *service) GetSubscriptionMetrics(ctx context.Context) (*domain.SubscriptionMetrics, error) {
	res, date, err := s.latestSnapshot(ctx, s.orchestrator.LatestDate(), nil)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &domain.SubscriptionMetrics{Date: date}, nil
	}
	return snapshotMetrics(date, res.Acc), nil
}

func (s *service) GetSubscriptionRenewals(ctx context.Context, date string) (*domain.RenewalSummary, error) {
	date, err := s.dateOrLatest(date)
	if err != nil {
		return nil, err
	}
	req, err := s.dailyRequest(domain.ReportTypeSales, date)
	if err != nil {
		return nil, err
	}
	res, err := s.singleSlice(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	out := domain.RenewalSummary{Date: date}
	if res.HasData() {
		out = res.Acc.RenewalSummary()
		out.Date = date
		out.DataAvailable = true
	}
	return &out, nil
}

func (s *service) GetMonthlySubscriptionAnalytics(ctx context.Context, year, month int) (*domain.SubscriptionAnalytics, error) {
	if err := validYearMonth(year, month); err != nil {
		return nil, err
	}
	base, err := s.dailyRequest(domain.ReportTypeSales, "")
	if err != nil {
		return nil, err
	}

	fan, err := s.orchestrator.Days(ctx, base, year, time.Month(month))
	if err != nil {
		return nil, fmt.Errorf("subscription analytics %04d-%02d: %w", year, month, err)
	}

	renewals := fan.Total.RenewalSummary()
	out := &domain.SubscriptionAnalytics{
		Period:          fmt.Sprintf("%04d-%02d", year, month),
		New:             renewals.New,
		Renewals:        renewals.Renewals,
		NewProceeds:     renewals.NewProceeds,
		RenewalProceeds: renewals.RenewalProceeds,
		ByProduct:       renewals.ByProduct,
		DaysRequested:   len(fan.Slices) + len(fan.Skipped),
		DaysFetched:     len(fan.Slices),
		DaysWithData:    fan.Coverage.SlicesWithData,
		Coverage:        fan.Coverage,
	}
	for _, slice := range fan.Slices {
		if !slice.HasData() {
			continue
		}
		day := slice.Acc.RenewalSummary()
		out.Daily = append(out.Daily, domain.DailySubscriptions{
			Date:            slice.Request.Date,
			New:             day.New,
			Renewals:        day.Renewals,
			NewProceeds:     day.NewProceeds,
			RenewalProceeds: day.RenewalProceeds,
		})
	}

	// snapshot as of the last fetched day of the month
	if len(fan.Slices) > 0 {
		last := fan.Slices[len(fan.Slices)-1].Request.Date
		res, date, err := s.latestSnapshot(ctx, last, nil)
		if err != nil {
			return nil, err
		}
		if res != nil {
			out.Snapshot = snapshotMetrics(date, res.Acc)
		}
	}
	return out, nil
}

// latestSnapshot walks back from date until a subscription snapshot is published.
func (s *service) latestSnapshot(ctx context.Context, date string, keep RowFilter) (*SliceResult, string, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, date, fmt.Errorf("%w: date %q", domain.ErrInvalidArgument, date)
	}

	for i := 0; i < snapshotProbeDays; i++ {
		current := day.AddDate(0, 0, -i).Format(dateLayout)
		req, err := s.dailyRequest(domain.ReportTypeSubscription, current)
		if err != nil {
			return nil, date, err
		}
		res, err := s.singleSlice(ctx, req, keep)
		if err != nil {
			return nil, date, err
		}
		if res.HasData() {
			return &res, current, nil
		}
	}
	zerolog.Ctx(ctx).Info().Str("date", date).Msg("no subscription snapshot published yet")
	return nil, date, nil
}

// singleSlice loads one slice; only fatal errors are returned. A failed upstream
// call on a single slice operation is surfaced too, since there is nothing to fall back on.
func (s *service) singleSlice(ctx context.Context, req domain.ReportRequest, keep RowFilter) (SliceResult, error) {
	res, err := s.orchestrator.Slice(ctx, req, keep)
	if err != nil {
		return res, err
	}
	if res.Outcome == OutcomeFailed {
		return res, res.Err
	}
	return res, nil
}

func (s *service) summarize(acc *aggregate.Accumulator, meta domain.SummaryMetadata) domain.RevenueSummary {
	if acc == nil {
		acc = aggregate.NewAccumulator(s.orchestrator.opts.Aggregate)
	}
	summary := acc.Summary()
	summary.Metadata = meta
	return summary
}

func (s *service) dailyRequest(reportType domain.ReportType, date string) (domain.ReportRequest, error) {
	if err := s.requireVendor(reportType); err != nil {
		return domain.ReportRequest{}, err
	}
	version, ok := s.settings.ReportVersion(string(reportType))
	if !ok {
		return domain.ReportRequest{}, fmt.Errorf("%w: no report version configured for %s", domain.ErrConfiguration, reportType)
	}

	subType := domain.ReportSubTypeSummary
	if reportType == domain.ReportTypeSubscriber {
		subType = domain.ReportSubTypeDetailed
	}
	return domain.ReportRequest{
		ReportType:    reportType,
		ReportSubType: subType,
		Frequency:     domain.FrequencyDaily,
		Date:          date,
		Version:       version,
		VendorID:      s.vendor,
	}, nil
}

func (s *service) version(reportType domain.ReportType) string {
	v, _ := s.settings.ReportVersion(string(reportType))
	return v
}

func (s *service) requireVendor(reportType domain.ReportType) error {
	if s.vendor == "" {
		return fmt.Errorf("%w: vendor number is required for %s reports", domain.ErrConfiguration, reportType)
	}
	return nil
}

func (s *service) dateOrLatest(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.orchestrator.LatestDate(), nil
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", fmt.Errorf("%w: date %q must look like YYYY-MM-DD", domain.ErrInvalidArgument, date)
	}
	return date, nil
}

func snapshotMetrics(date string, acc *aggregate.Accumulator) *domain.SubscriptionMetrics {
	out := &domain.SubscriptionMetrics{Date: date, DataAvailable: true}
	if stats := acc.Subscriptions(); stats != nil {
		out.Stats = *stats
	}
	out.ByCountry = acc.SubscriptionCountries()
	return out
}

// appFilter keeps rows belonging to appID across the sales and subscription layouts.
func appFilter(appID string) RowFilter {
	if appID == "" {
		return nil
	}
	return func(row domain.ParsedReportRow) bool {
		return row.Get(domain.ColAppleIdentifier) == appID ||
			row.Get(domain.ColParentIdentifier) == appID ||
			row.Get(domain.ColAppAppleID) == appID
	}
}

func validYearMonth(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be within 1..12, got %d", domain.ErrInvalidArgument, month)
	}
	if year < 2008 || year > 9999 {
		return fmt.Errorf("%w: year %d", domain.ErrInvalidArgument, year)
	}
	return nil
}
