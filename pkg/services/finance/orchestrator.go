package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/metrics"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/aggregate"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/currency"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/report"
)

const dateLayout = "2006-01-02"

type Outcome string

const (
	OutcomeData      Outcome = "data"
	OutcomeEmpty     Outcome = "empty"
	OutcomeMissing   Outcome = "missing"
	OutcomeMalformed Outcome = "malformed"
	OutcomeFailed    Outcome = "failed"
)

// RowFilter selects which normalized rows take part in aggregation. Nil keeps all rows.
type RowFilter func(row domain.ParsedReportRow) bool

// SliceResult is the outcome of pushing one slice through fetch, decode, parse,
// normalize and aggregate.
type SliceResult struct {
	Key     string
	Request domain.ReportRequest
	Report  domain.ParsedReport
	Acc     *aggregate.Accumulator
	Outcome Outcome
	Err     error
}

func (r SliceResult) HasData() bool {
	return r.Outcome == OutcomeData
}

// FanOut is the merged result of a multi-slice operation.
type FanOut struct {
	Total    *aggregate.Accumulator
	Slices   []SliceResult
	Skipped  []string
	Coverage domain.Coverage
}

type OrchestratorOptions struct {
	Aggregate aggregate.Options
	Regions   []string
	// LagDays is how many days behind today the newest daily report is published.
	LagDays    int
	ProbeDepth int
	Now        func() time.Time
}

// Orchestrator enumerates slices and runs them through the report pipeline one after
// another. Slices are never fetched concurrently; the upstream quota is shared.
type Orchestrator struct {
	fetcher    report.Fetcher
	normalizer *currency.Normalizer
	opts       OrchestratorOptions
}

func NewOrchestrator(fetcher report.Fetcher, normalizer *currency.Normalizer, opts OrchestratorOptions) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProbeDepth <= 0 {
		opts.ProbeDepth = 1
	}
	return &Orchestrator{fetcher: fetcher, normalizer: normalizer, opts: opts}
}

// Slice loads a single slice. Only configuration and authentication problems are
// returned as errors; every other failure is reported through the result outcome.
func (o *Orchestrator) Slice(ctx context.Context, req domain.ReportRequest, keep RowFilter) (SliceResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("slice", req.String()).Logger()
	res := SliceResult{Key: req.String(), Request: req}

	parsed, err := report.Load(ctx, o.fetcher, req)
	if err != nil {
		res.Err = err
		switch {
		case fatal(err):
			metrics.RecordSlice(string(req.ReportType), string(OutcomeFailed))
			return res, err
		case errors.Is(err, domain.ErrSliceNotFound):
			res.Outcome = OutcomeMissing
			logger.Debug().Msg("no report for slice")
		default:
			res.Outcome = OutcomeFailed
			logger.Warn().Err(err).Msg("slice skipped")
		}
		metrics.RecordSlice(string(req.ReportType), string(res.Outcome))
		return res, nil
	}

	res.Report = parsed
	switch {
	case parsed.Malformed:
		res.Outcome = OutcomeMalformed
		res.Err = fmt.Errorf("%w: %s", domain.ErrMalformedReport, req)
		logger.Warn().Msg("slice payload is not a tab separated report")
	case len(parsed.Rows) == 0:
		res.Outcome = OutcomeEmpty
	default:
		normalized, err := o.normalizer.NormalizeReport(parsed)
		if err != nil {
			return res, err
		}
		rows := normalized.Rows
		if keep != nil {
			rows = filterRows(rows, keep)
		}
		res.Report = normalized
		res.Acc = aggregate.Aggregate(ctx, req.String(), rows, o.opts.Aggregate)
		res.Outcome = OutcomeData
		logger.Debug().Int("rows", len(rows)).Str("revenue", res.Acc.TotalRevenue().String()).Msg("slice aggregated")
	}
	metrics.RecordSlice(string(req.ReportType), string(res.Outcome))
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, reqs []domain.ReportRequest) (*FanOut, error) {
	out := &FanOut{Total: aggregate.NewAccumulator(o.opts.Aggregate)}
	for _, req := range reqs {
		res, err := o.Slice(ctx, req, nil)
		if err != nil {
			return nil, err
		}
		record(&out.Coverage, res)
		if res.Acc != nil {
			out.Total.Merge(res.Acc)
		}
		out.Slices = append(out.Slices, res)
	}
	return out, nil
}

// Days fans base out over every calendar day of the month that can already have
// been published. Days past the publication cutoff are listed in Skipped.
func (o *Orchestrator) Days(ctx context.Context, base domain.ReportRequest, year int, month time.Month) (*FanOut, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", domain.ErrInvalidArgument, month)
	}

	cutoff := o.cutoff()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	var (
		reqs    []domain.ReportRequest
		skipped []string
	)
	for day := first; day.Month() == month; day = day.AddDate(0, 0, 1) {
		if day.After(cutoff) {
			skipped = append(skipped, day.Format(dateLayout))
			continue
		}
		req := base
		req.Date = day.Format(dateLayout)
		reqs = append(reqs, req)
	}

	zerolog.Ctx(ctx).Info().
		Str("report_type", string(base.ReportType)).
		Str("month", first.Format("2006-01")).
		Int("days", len(reqs)).
		Int("skipped", len(skipped)).
		Msg("fetching daily slices")

	out, err := o.run(ctx, reqs)
	if err != nil {
		return nil, err
	}
	out.Skipped = skipped
	return out, nil
}

// Regions fans base out over every configured region code.
func (o *Orchestrator) Regions(ctx context.Context, base domain.ReportRequest) (*FanOut, error) {
	reqs := make([]domain.ReportRequest, 0, len(o.opts.Regions))
	for _, region := range o.opts.Regions {
		req := base
		req.RegionCode = region
		reqs = append(reqs, req)
	}

	zerolog.Ctx(ctx).Info().
		Str("report_type", string(base.ReportType)).
		Str("period", base.Date).
		Int("regions", len(reqs)).
		Msg("fetching regional slices")

	return o.run(ctx, reqs)
}

// LatestPeriod probes backward from the last completed fiscal period for the first
// one with data, then probes one period forward to tell whether it is the newest.
func (o *Orchestrator) LatestPeriod(ctx context.Context, base domain.ReportRequest, cal FiscalCalendar) (FiscalPeriod, bool, bool, error) {
	logger := zerolog.Ctx(ctx)
	now := o.opts.Now().UTC()
	current := cal.Period(now.Year(), now.Month())

	probed := make(map[FiscalPeriod]bool)
	exists := func(p FiscalPeriod) (bool, error) {
		if found, ok := probed[p]; ok {
			return found, nil
		}
		found, err := o.periodExists(ctx, base, p)
		if err != nil {
			return false, err
		}
		probed[p] = found
		return found, nil
	}

	candidate := current.Prev()
	for i := 0; i < o.opts.ProbeDepth; i++ {
		found, err := exists(candidate)
		if err != nil {
			return FiscalPeriod{}, false, false, err
		}
		if found {
			later, err := exists(candidate.Next())
			if err != nil {
				return FiscalPeriod{}, false, false, err
			}
			logger.Info().
				Str("period", candidate.Label()).
				Bool("latest", !later).
				Msg("resolved latest financial period")
			return candidate, !later, true, nil
		}
		candidate = candidate.Prev()
	}

	logger.Warn().Int("depth", o.opts.ProbeDepth).Msg("no financial period with data found")
	return FiscalPeriod{}, false, false, nil
}

// periodExists stops at the first region that returns rows.
func (o *Orchestrator) periodExists(ctx context.Context, base domain.ReportRequest, p FiscalPeriod) (bool, error) {
	for _, region := range o.opts.Regions {
		req := base
		req.Date = p.Label()
		req.RegionCode = region
		res, err := o.Slice(ctx, req, nil)
		if err != nil {
			return false, err
		}
		if res.HasData() {
			return true, nil
		}
	}
	return false, nil
}

// cutoff is the newest day whose daily report may exist.
func (o *Orchestrator) cutoff() time.Time {
	now := o.opts.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -o.opts.LagDays)
}

// LatestDate is the newest daily report date expected to be published.
func (o *Orchestrator) LatestDate() string {
	return o.cutoff().Format(dateLayout)
}

// Daily lists revenue per day that had data, in date order.
func (f *FanOut) Daily() []domain.DailyRevenue {
	var out []domain.DailyRevenue
	for _, s := range f.Slices {
		if !s.HasData() {
			continue
		}
		out = append(out, domain.DailyRevenue{
			Date:    s.Request.Date,
			Revenue: s.Acc.TotalRevenue(),
			Units:   s.Acc.TotalUnits(),
		})
	}
	return out
}

func record(c *domain.Coverage, res SliceResult) {
	c.SlicesRequested++
	switch res.Outcome {
	case OutcomeData:
		c.SlicesWithData++
	case OutcomeEmpty:
		c.SlicesEmpty++
	case OutcomeMissing:
		c.SlicesMissing++
		c.Missing = append(c.Missing, res.Key)
	case OutcomeMalformed:
		c.SlicesMalformed++
		c.Failures = append(c.Failures, domain.SliceFailure{Slice: res.Key, Error: res.Err.Error()})
	case OutcomeFailed:
		c.SlicesFailed++
		c.Failures = append(c.Failures, domain.SliceFailure{Slice: res.Key, Error: res.Err.Error()})
	}
}

// fatal errors abort a fan-out since no partial result would be meaningful.
func fatal(err error) bool {
	return errors.Is(err, domain.ErrConfiguration) ||
		errors.Is(err, domain.ErrUpstreamAuth) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func filterRows(rows []domain.ParsedReportRow, keep RowFilter) []domain.ParsedReportRow {
	out := make([]domain.ParsedReportRow, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}
