package domain

import "github.com/shopspring/decimal"

type SalesReportResult struct {
	Date          string
	Report        ParsedReport
	Summary       RevenueSummary
	DataAvailable bool
}

type RevenueMetrics struct {
	Date          string
	AppID         string
	DailyRevenue  decimal.Decimal
	Subscriptions *SubscriptionStats
	ByProduct     []Breakdown
	ByCountry     []Breakdown
	Flagged       []FlaggedRow
	DataAvailable bool
}

type SubscriptionMetrics struct {
	Date          string
	Stats         SubscriptionStats
	ByCountry     []Breakdown
	DataAvailable bool
}

type RenewalBreakdown struct {
	Key             string
	Name            string
	New             int64
	Renewals        int64
	NewProceeds     decimal.Decimal
	RenewalProceeds decimal.Decimal
}

type RenewalSummary struct {
	Date            string
	New             int64
	Renewals        int64
	NewProceeds     decimal.Decimal
	RenewalProceeds decimal.Decimal
	ByProduct       []RenewalBreakdown
	DataAvailable   bool
}

type DailySubscriptions struct {
	Date            string
	New             int64
	Renewals        int64
	NewProceeds     decimal.Decimal
	RenewalProceeds decimal.Decimal
}

type SubscriptionAnalytics struct {
	Period          string
	New             int64
	Renewals        int64
	NewProceeds     decimal.Decimal
	RenewalProceeds decimal.Decimal
	ByProduct       []RenewalBreakdown
	Daily           []DailySubscriptions
	Snapshot        *SubscriptionMetrics
	DaysRequested   int
	DaysFetched     int
	DaysWithData    int
	Coverage        Coverage
}

type App struct {
	ID            string
	Name          string
	BundleID      string
	SKU           string
	PrimaryLocale string
}
