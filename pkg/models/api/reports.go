package api

type ParsedReport struct {
	ReportType string              `json:"reportType"`
	Headers    []string            `json:"headers"`
	Rows       []map[string]string `json:"rows"`
	RowCount   int                 `json:"rowCount"`
	// Truncated is set when Rows holds fewer rows than RowCount.
	Truncated bool `json:"truncated,omitempty"`
	Malformed bool `json:"malformed,omitempty"`
}

type SalesReport struct {
	Date          string         `json:"date"`
	DataAvailable bool           `json:"dataAvailable"`
	Report        ParsedReport   `json:"report"`
	Summary       RevenueSummary `json:"summary"`
}

type RevenueMetrics struct {
	Date          string             `json:"date"`
	AppID         string             `json:"appId,omitempty"`
	DataAvailable bool               `json:"dataAvailable"`
	DailyRevenue  float64            `json:"dailyRevenue"`
	MRR           float64            `json:"mrr"`
	ARR           float64            `json:"arr"`
	Subscriptions *SubscriptionStats `json:"subscriptions,omitempty"`
	ByProduct     []Breakdown        `json:"byProduct"`
	ByCountry     []Breakdown        `json:"byCountry"`
	Flagged       []FlaggedRow       `json:"flagged,omitempty"`
}

type SubscriptionMetrics struct {
	Date          string            `json:"date"`
	DataAvailable bool              `json:"dataAvailable"`
	Stats         SubscriptionStats `json:"stats"`
	ByCountry     []Breakdown       `json:"byCountry,omitempty"`
}

type RenewalBreakdown struct {
	Key             string  `json:"key"`
	Name            string  `json:"name,omitempty"`
	New             int64   `json:"new"`
	Renewals        int64   `json:"renewals"`
	NewProceeds     float64 `json:"newProceeds"`
	RenewalProceeds float64 `json:"renewalProceeds"`
}

type RenewalSummary struct {
	Date            string             `json:"date"`
	DataAvailable   bool               `json:"dataAvailable"`
	New             int64              `json:"new"`
	Renewals        int64              `json:"renewals"`
	NewProceeds     float64            `json:"newProceeds"`
	RenewalProceeds float64            `json:"renewalProceeds"`
	RenewalRate     float64            `json:"renewalRate"`
	ByProduct       []RenewalBreakdown `json:"byProduct,omitempty"`
}

type DailySubscriptions struct {
	Date            string  `json:"date"`
	New             int64   `json:"new"`
	Renewals        int64   `json:"renewals"`
	NewProceeds     float64 `json:"newProceeds"`
	RenewalProceeds float64 `json:"renewalProceeds"`
}

type SubscriptionAnalytics struct {
	Period          string               `json:"period"`
	DataAvailable   bool                 `json:"dataAvailable"`
	New             int64                `json:"new"`
	Renewals        int64                `json:"renewals"`
	NewProceeds     float64              `json:"newProceeds"`
	RenewalProceeds float64              `json:"renewalProceeds"`
	ByProduct       []RenewalBreakdown   `json:"byProduct,omitempty"`
	Daily           []DailySubscriptions `json:"daily,omitempty"`
	Snapshot        *SubscriptionMetrics `json:"snapshot,omitempty"`
	DaysRequested   int                  `json:"daysRequested"`
	DaysFetched     int                  `json:"daysFetched"`
	DaysWithData    int                  `json:"daysWithData"`
	Coverage        Coverage             `json:"coverage"`
}

type App struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	BundleID      string `json:"bundleId"`
	SKU           string `json:"sku,omitempty"`
	PrimaryLocale string `json:"primaryLocale,omitempty"`
}

// ToolError is the structured failure returned to tool callers.
type ToolError struct {
	Operation string `json:"operation"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}
