package domain

import (
	"github.com/shopspring/decimal"
)

type Breakdown struct {
	Key     string
	Name    string
	Amount  decimal.Decimal
	Units   decimal.Decimal
	Percent decimal.Decimal
}

type SalesVsReturns struct {
	Sales       decimal.Decimal
	Returns     decimal.Decimal
	SaleUnits   decimal.Decimal
	ReturnUnits decimal.Decimal
}

type SubscriptionStats struct {
	Active     int64
	PaidActive int64
	New        int64
	Renewals   int64
	MRR        decimal.Decimal
	ARR        decimal.Decimal
	ByProduct  []Breakdown
}

type DailyRevenue struct {
	Date    string
	Revenue decimal.Decimal
	Units   decimal.Decimal
}

type DailyStats struct {
	Min    decimal.Decimal
	Median decimal.Decimal
	Max    decimal.Decimal
	Mean   decimal.Decimal
}

type SliceFailure struct {
	Slice string
	Error string
}

// Coverage tells the caller which partitions actually contributed to a fan-out result.
type Coverage struct {
	SlicesRequested int
	SlicesWithData  int
	SlicesEmpty     int
	SlicesMissing   int
	SlicesMalformed int
	SlicesFailed    int
	Missing         []string
	Failures        []SliceFailure
}

type SummaryMetadata struct {
	Period       string
	FiscalPeriod string
	ReportType   ReportType
	// IsLatestAvailable is nil unless the period was resolved by probing.
	IsLatestAvailable *bool
	DataAvailable     bool
	Currency          string
}

// RevenueSummary is the terminal result of a revenue operation.
type RevenueSummary struct {
	TotalRevenue    decimal.Decimal
	TotalUnits      decimal.Decimal
	ByProduct       []Breakdown
	ByCountry       []Breakdown
	ByCurrency      []Breakdown
	SalesVsReturns  *SalesVsReturns
	Subscriptions   *SubscriptionStats
	Daily           []DailyRevenue
	DailyStats      *DailyStats
	HighRevenueDays []DailyRevenue
	DaysRequested   int
	DaysFetched     int
	DaysWithData    int
	Coverage        Coverage
	Flagged         []FlaggedRow
	Metadata        SummaryMetadata
}
