package aggregate

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/metrics"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

const defaultTopN = 10

var hundred = decimal.NewFromInt(100)

type Options struct {
	// Ceiling is the largest absolute USD amount a single row may contribute.
	Ceiling decimal.Decimal
	TopN    int
}

type bucket struct {
	name   string
	amount decimal.Decimal
	units  decimal.Decimal
}

type renewalBucket struct {
	name            string
	newCount        int64
	renewals        int64
	newProceeds     decimal.Decimal
	renewalProceeds decimal.Decimal
}

// Accumulator holds running totals. It is owned by a single operation and is not safe
// for concurrent use.
type Accumulator struct {
	opts Options

	total      decimal.Decimal
	units      decimal.Decimal
	rows       int
	products   map[string]*bucket
	countries  map[string]*bucket
	currencies map[string]*bucket

	hasSaleFlag bool
	sales       decimal.Decimal
	returns     decimal.Decimal
	saleUnits   decimal.Decimal
	returnUnits decimal.Decimal

	hasSnapshot   bool
	active        int64
	paidActive    int64
	mrr           decimal.Decimal
	subsProducts  map[string]*bucket
	subsCountries map[string]*bucket

	hasRenewals bool
	renewals    map[string]*renewalBucket

	flagged []domain.FlaggedRow
}

func NewAccumulator(opts Options) *Accumulator {
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	return &Accumulator{
		opts:          opts,
		products:      make(map[string]*bucket),
		countries:     make(map[string]*bucket),
		currencies:    make(map[string]*bucket),
		subsProducts:  make(map[string]*bucket),
		subsCountries: make(map[string]*bucket),
		renewals:      make(map[string]*renewalBucket),
	}
}

// Aggregate sums normalized rows of one slice into a fresh accumulator.
func Aggregate(ctx context.Context, slice string, rows []domain.ParsedReportRow, opts Options) *Accumulator {
	acc := NewAccumulator(opts)
	for _, row := range rows {
		acc.Add(ctx, slice, row)
	}
	return acc
}

// Add folds one normalized row in. It reports whether the row was counted.
func (a *Accumulator) Add(ctx context.Context, slice string, row domain.ParsedReportRow) bool {
	if row.Has(domain.ColActiveStandard) {
		return a.addSnapshot(ctx, slice, row)
	}

	contribution := row.Contribution()
	if a.exceedsCeiling(contribution) {
		a.reject(ctx, slice, row, contribution)
		return false
	}
	if row.HasFlag(domain.RowFlagUnknownCurrency) {
		a.flag(slice, domain.RowFlagUnknownCurrency, row, contribution)
	}

	a.rows++
	a.total = a.total.Add(contribution)
	units := row.Units
	a.units = a.units.Add(units)

	productKey, productName := productOf(row)
	addTo(a.products, productKey, productName, contribution, units)
	country := countryOf(row)
	addTo(a.countries, country, country, contribution, units)
	currency := currencyOf(row)
	addTo(a.currencies, currency, currency, contribution, units)

	if row.Has(domain.ColSalesOrReturn) {
		a.hasSaleFlag = true
		if row.IsReturn {
			a.returns = a.returns.Add(contribution.Abs())
			a.returnUnits = a.returnUnits.Add(units.Abs())
		} else {
			a.sales = a.sales.Add(contribution)
			a.saleUnits = a.saleUnits.Add(units)
		}
	}

	if row.Has(domain.ColSubscription) {
		a.addRenewal(row, productKey, productName, contribution)
	}
	return true
}

func (a *Accumulator) addSnapshot(ctx context.Context, slice string, row domain.ParsedReportRow) bool {
	standard := wholeCount(row.Get(domain.ColActiveStandard))
	intro := wholeCount(row.Get(domain.ColActiveFreeTrial)) +
		wholeCount(row.Get(domain.ColActivePayUpFront)) +
		wholeCount(row.Get(domain.ColActivePayAsYouGo))

	monthly := row.ProceedsUSD.Mul(decimal.NewFromInt(standard)).Mul(MonthlyFactor(row.Get(domain.ColSubscriptionDuration)))
	if a.exceedsCeiling(monthly) {
		a.reject(ctx, slice, row, monthly)
		return false
	}

	a.hasSnapshot = true
	a.rows++
	a.active += standard + intro
	a.paidActive += standard
	a.mrr = a.mrr.Add(monthly)

	key := firstNonEmpty(row.Get(domain.ColSubscriptionAppleID), row.Get(domain.ColSubscriptionName))
	name := firstNonEmpty(row.Get(domain.ColSubscriptionName), row.Get(domain.ColAppName), key)
	active := decimal.NewFromInt(standard + intro)
	addTo(a.subsProducts, key, name, monthly, active)
	country := countryOf(row)
	addTo(a.subsCountries, country, country, monthly, active)
	return true
}

func (a *Accumulator) addRenewal(row domain.ParsedReportRow, key, name string, contribution decimal.Decimal) {
	state := row.Get(domain.ColSubscription)
	if state != domain.SubscriptionStateNew && state != domain.SubscriptionStateRenewal {
		return
	}
	a.hasRenewals = true

	count := row.Units.IntPart()
	if !row.PerUnit {
		count = 1
	}

	b, ok := a.renewals[key]
	if !ok {
		b = &renewalBucket{name: name}
		a.renewals[key] = b
	}
	if state == domain.SubscriptionStateNew {
		b.newCount += count
		b.newProceeds = b.newProceeds.Add(contribution)
	} else {
		b.renewals += count
		b.renewalProceeds = b.renewalProceeds.Add(contribution)
	}
}

func (a *Accumulator) exceedsCeiling(amount decimal.Decimal) bool {
	return a.opts.Ceiling.IsPositive() && amount.Abs().GreaterThan(a.opts.Ceiling)
}

func (a *Accumulator) reject(ctx context.Context, slice string, row domain.ParsedReportRow, amount decimal.Decimal) {
	product, _ := productOf(row)
	zerolog.Ctx(ctx).Warn().
		Str("slice", slice).
		Str("product", product).
		Str("amount", amount.String()).
		Str("ceiling", a.opts.Ceiling.String()).
		Msg("row exceeds sanity ceiling, excluded from totals")
	a.flag(slice, domain.RowFlagSanityCeiling, row, amount)
}

func (a *Accumulator) flag(slice string, flag domain.RowFlag, row domain.ParsedReportRow, amount decimal.Decimal) {
	product, _ := productOf(row)
	metrics.RecordFlaggedRow(string(flag))
	a.flagged = append(a.flagged, domain.FlaggedRow{
		Slice:    slice,
		Flag:     flag,
		Product:  product,
		Currency: currencyOf(row),
		Amount:   amount,
	})
}

// Merge adds the totals of other into a.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	a.rows += other.rows
	a.total = a.total.Add(other.total)
	a.units = a.units.Add(other.units)
	mergeBuckets(a.products, other.products)
	mergeBuckets(a.countries, other.countries)
	mergeBuckets(a.currencies, other.currencies)

	a.hasSaleFlag = a.hasSaleFlag || other.hasSaleFlag
	a.sales = a.sales.Add(other.sales)
	a.returns = a.returns.Add(other.returns)
	a.saleUnits = a.saleUnits.Add(other.saleUnits)
	a.returnUnits = a.returnUnits.Add(other.returnUnits)

	a.hasSnapshot = a.hasSnapshot || other.hasSnapshot
	a.active += other.active
	a.paidActive += other.paidActive
	a.mrr = a.mrr.Add(other.mrr)
	mergeBuckets(a.subsProducts, other.subsProducts)
	mergeBuckets(a.subsCountries, other.subsCountries)

	a.hasRenewals = a.hasRenewals || other.hasRenewals
	for key, b := range other.renewals {
		cur, ok := a.renewals[key]
		if !ok {
			cur = &renewalBucket{name: b.name}
			a.renewals[key] = cur
		}
		cur.newCount += b.newCount
		cur.renewals += b.renewals
		cur.newProceeds = cur.newProceeds.Add(b.newProceeds)
		cur.renewalProceeds = cur.renewalProceeds.Add(b.renewalProceeds)
	}

	a.flagged = append(a.flagged, other.flagged...)
}

func (a *Accumulator) TotalRevenue() decimal.Decimal { return a.total }

func (a *Accumulator) TotalUnits() decimal.Decimal { return a.units }

// Rows is the number of rows that contributed to the totals.
func (a *Accumulator) Rows() int { return a.rows }

func (a *Accumulator) Flagged() []domain.FlaggedRow { return a.flagged }

// Summary finalizes the running totals. Nothing is rounded here.
func (a *Accumulator) Summary() domain.RevenueSummary {
	s := domain.RevenueSummary{
		TotalRevenue:  a.total,
		TotalUnits:    a.units,
		ByProduct:     a.top(a.products, a.total),
		ByCountry:     a.top(a.countries, a.total),
		ByCurrency:    a.top(a.currencies, a.total),
		Subscriptions: a.Subscriptions(),
		Flagged:       a.flagged,
	}
	if a.hasSaleFlag {
		s.SalesVsReturns = &domain.SalesVsReturns{
			Sales:       a.sales,
			Returns:     a.returns,
			SaleUnits:   a.saleUnits,
			ReturnUnits: a.returnUnits,
		}
	}
	return s
}

// Subscriptions returns nil unless subscription shaped columns were seen.
func (a *Accumulator) Subscriptions() *domain.SubscriptionStats {
	if !a.hasSnapshot && !a.hasRenewals {
		return nil
	}
	stats := &domain.SubscriptionStats{
		Active:     a.active,
		PaidActive: a.paidActive,
		MRR:        a.mrr,
		ARR:        a.mrr.Mul(decimal.NewFromInt(12)),
		ByProduct:  a.top(a.subsProducts, a.mrr),
	}
	for _, b := range a.renewals {
		stats.New += b.newCount
		stats.Renewals += b.renewals
	}
	return stats
}

func (a *Accumulator) SubscriptionCountries() []domain.Breakdown {
	return a.top(a.subsCountries, a.mrr)
}

// RenewalSummary splits subscription sales into new purchases and renewals.
func (a *Accumulator) RenewalSummary() domain.RenewalSummary {
	var out domain.RenewalSummary
	for key, b := range a.renewals {
		out.New += b.newCount
		out.Renewals += b.renewals
		out.NewProceeds = out.NewProceeds.Add(b.newProceeds)
		out.RenewalProceeds = out.RenewalProceeds.Add(b.renewalProceeds)
		out.ByProduct = append(out.ByProduct, domain.RenewalBreakdown{
			Key:             key,
			Name:            b.name,
			New:             b.newCount,
			Renewals:        b.renewals,
			NewProceeds:     b.newProceeds,
			RenewalProceeds: b.renewalProceeds,
		})
	}
	sort.Slice(out.ByProduct, func(i, j int) bool {
		pi := out.ByProduct[i].NewProceeds.Add(out.ByProduct[i].RenewalProceeds)
		pj := out.ByProduct[j].NewProceeds.Add(out.ByProduct[j].RenewalProceeds)
		if !pi.Equal(pj) {
			return pi.GreaterThan(pj)
		}
		return out.ByProduct[i].Key < out.ByProduct[j].Key
	})
	if len(out.ByProduct) > a.opts.TopN {
		out.ByProduct = out.ByProduct[:a.opts.TopN]
	}
	return out
}

func (a *Accumulator) top(buckets map[string]*bucket, total decimal.Decimal) []domain.Breakdown {
	out := make([]domain.Breakdown, 0, len(buckets))
	for key, b := range buckets {
		item := domain.Breakdown{Key: key, Name: b.name, Amount: b.amount, Units: b.units}
		if !total.IsZero() {
			item.Percent = b.amount.Div(total).Mul(hundred)
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > a.opts.TopN {
		out = out[:a.opts.TopN]
	}
	return out
}

func addTo(buckets map[string]*bucket, key, name string, amount, units decimal.Decimal) {
	b, ok := buckets[key]
	if !ok {
		b = &bucket{name: name}
		buckets[key] = b
	}
	b.amount = b.amount.Add(amount)
	b.units = b.units.Add(units)
}

func mergeBuckets(dst, src map[string]*bucket) {
	for key, b := range src {
		addTo(dst, key, b.name, b.amount, b.units)
	}
}
