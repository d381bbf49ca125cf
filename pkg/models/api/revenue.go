package api

// Money amounts are USD rounded to cents. Nothing upstream of this package rounds.

type Breakdown struct {
	Key     string  `json:"key"`
	Name    string  `json:"name,omitempty"`
	Amount  float64 `json:"amount"`
	Units   float64 `json:"units,omitempty"`
	Percent float64 `json:"percent"`
}

type SalesVsReturns struct {
	Sales       float64 `json:"sales"`
	Returns     float64 `json:"returns"`
	SaleUnits   float64 `json:"saleUnits"`
	ReturnUnits float64 `json:"returnUnits"`
}

type SubscriptionStats struct {
	Active     int64       `json:"active"`
	PaidActive int64       `json:"paidActive"`
	New        int64       `json:"new"`
	Renewals   int64       `json:"renewals"`
	MRR        float64     `json:"mrr"`
	ARR        float64     `json:"arr"`
	ByProduct  []Breakdown `json:"byProduct,omitempty"`
}

type DailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Units   float64 `json:"units"`
}

type DailyStats struct {
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

type SliceFailure struct {
	Slice string `json:"slice"`
	Error string `json:"error"`
}

type Coverage struct {
	SlicesRequested int            `json:"slicesRequested"`
	SlicesWithData  int            `json:"slicesWithData"`
	SlicesEmpty     int            `json:"slicesEmpty"`
	SlicesMissing   int            `json:"slicesMissing"`
	SlicesMalformed int            `json:"slicesMalformed"`
	SlicesFailed    int            `json:"slicesFailed"`
	Missing         []string       `json:"missing,omitempty"`
	Failures        []SliceFailure `json:"failures,omitempty"`
}

type FlaggedRow struct {
	Slice    string  `json:"slice"`
	Flag     string  `json:"flag"`
	Product  string  `json:"product"`
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

type Metadata struct {
	Period            string `json:"period,omitempty"`
	FiscalPeriod      string `json:"fiscalPeriod,omitempty"`
	ReportType        string `json:"reportType"`
	IsLatestAvailable *bool  `json:"isLatestAvailable,omitempty"`
	DataAvailable     bool   `json:"dataAvailable"`
	Currency          string `json:"currency"`
}

type RevenueSummary struct {
	TotalRevenue    float64            `json:"totalRevenue"`
	TotalUnits      float64            `json:"totalUnits"`
	ByProduct       []Breakdown        `json:"byProduct"`
	ByCountry       []Breakdown        `json:"byCountry"`
	ByCurrency      []Breakdown        `json:"byCurrency"`
	SalesVsReturns  *SalesVsReturns    `json:"salesVsReturns,omitempty"`
	Subscriptions   *SubscriptionStats `json:"subscriptions,omitempty"`
	Daily           []DailyRevenue     `json:"daily,omitempty"`
	DailyStats      *DailyStats        `json:"dailyStats,omitempty"`
	HighRevenueDays []DailyRevenue     `json:"highRevenueDays,omitempty"`
	DaysRequested   *int               `json:"daysRequested,omitempty"`
	DaysFetched     *int               `json:"daysFetched,omitempty"`
	DaysWithData    *int               `json:"daysWithData,omitempty"`
	Coverage        *Coverage          `json:"coverage,omitempty"`
	Flagged         []FlaggedRow       `json:"flagged,omitempty"`
	Metadata        Metadata           `json:"metadata"`
}
