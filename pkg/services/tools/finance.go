package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/adapters"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/finance"
)

const (
	datePattern = `^\d{4}-\d{2}-\d{2}$`
	minYear     = 2008
	maxYear     = 2100
)

type salesReportArgs struct {
	Date       string `json:"date"`
	ReportType string `json:"reportType"`
}

type revenueMetricsArgs struct {
	AppID string `json:"appId"`
}

type monthArgs struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
}

type financialArgs struct {
	Year   *int `json:"year"`
	Month  *int `json:"month"`
	Latest bool `json:"latest"`
}

type dateArgs struct {
	Date string `json:"date"`
}

func yearMonthProps() map[string]Schema {
	return map[string]Schema{
		"year":  Integer("Calendar year, e.g. 2025", minYear, maxYear),
		"month": Integer("Calendar month, 1-12", 1, 12),
	}
}

// FinanceTools describes the reporting operations of svc as tools.
func FinanceTools(svc finance.Service) []Tool {
	return []Tool{
		{
			Name: "get_sales_report",
			Description: "Fetch one daily sales or subscription report and summarize it. " +
				"Proceeds are reported in USD. Defaults to the newest published day.",
			InputSchema: Object(map[string]Schema{
				"date": Pattern("Report date YYYY-MM-DD", datePattern),
				"reportType": Enum("Report family",
					string(domain.ReportTypeSales),
					string(domain.ReportTypeSubscription),
					string(domain.ReportTypeSubscriptionEvent),
					string(domain.ReportTypeSubscriber)),
			}),
			Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args salesReportArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				res, err := svc.GetSalesReport(ctx, finance.SalesReportArgs{Date: args.Date, ReportType: args.ReportType})
				if err != nil {
					return nil, err
				}
				return adapters.MapSalesReportDomainToApi(*res), nil
			},
		},
		{
			Name:        "get_revenue_metrics",
			Description: "Revenue of the newest published day with MRR and ARR, optionally for a single app.",
			InputSchema: Object(map[string]Schema{
				"appId": String("Apple ID of the app to restrict to"),
			}),
			Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args revenueMetricsArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				res, err := svc.GetRevenueMetrics(ctx, finance.RevenueMetricsArgs{AppID: args.AppID})
				if err != nil {
					return nil, err
				}
				return adapters.MapRevenueMetricsDomainToApi(*res), nil
			},
		},
		{
			Name: "get_monthly_revenue",
			Description: "Sum the daily sales reports of a calendar month. Reports days with data, " +
				"daily min/median/max and unusually high revenue days.",
			InputSchema: Object(yearMonthProps(), "year", "month"),
			Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				year, month, err := requiredYearMonth(raw)
				if err != nil {
					return nil, err
				}
				res, err := svc.GetMonthlyRevenue(ctx, year, month)
				if err != nil {
					return nil, err
				}
				return adapters.MapRevenueSummaryDomainToApi(*res), nil
			},
		},
		{
			Name: "get_financial_summary",
			Description: "Complete financial report for a calendar month summed over every region. " +
				"Without year and month the newest published period is used.",
			InputSchema: Object(map[string]Schema{
				"year":   Integer("Calendar year", minYear, maxYear),
				"month":  Integer("Calendar month, 1-12", 1, 12),
				"latest": Boolean("Resolve the newest published period"),
			}),
			Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args financialArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				req := finance.FinancialArgs{Latest: args.Latest}
				if !args.Latest {
					if (args.Year == nil) != (args.Month == nil) {
						return nil, fmt.Errorf("%w: year and month go together", domain.ErrInvalidArgument)
					}
					if args.Year != nil {
						if err := checkYearMonth(*args.Year, *args.Month); err != nil {
							return nil, err
						}
						req.Year, req.Month = *args.Year, *args.Month
					}
				}
				res, err := svc.GetFinancialSummary(ctx, req)
				if err != nil {
					return nil, err
				}
				return adapters.MapRevenueSummaryDomainToApi(*res), nil
			},
		},
		{
			Name:        "get_subscription_metrics",
			Description: "Active subscriptions, MRR and ARR from the newest subscription snapshot.",
			InputSchema: Object(nil),
			Handler: func(ctx context.Context, _ json.RawMessage) (any, error) {
				res, err := svc.GetSubscriptionMetrics(ctx)
				if err != nil {
					return nil, err
				}
				return adapters.MapSubscriptionMetricsDomainToApi(*res), nil
			},
		},
		{
			Name:        "get_subscription_renewals",
			Description: "New subscriptions versus renewals for one day.",
			InputSchema: Object(map[string]Schema{
				"date": Pattern("Report date YYYY-MM-DD", datePattern),
			}),
			Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args dateArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				res, err := svc.GetSubscriptionRenewals(ctx, args.Date)
				if err != nil {
					return nil, err
				}
				return adapters.MapRenewalSummaryDomainToApi(*res), nil
			},
		},
		{
			Name:        "get_monthly_subscription_analytics",
			Description: "New subscriptions and renewals per day of a calendar month plus the month end snapshot.",
			InputSchema: Object(yearMonthProps(), "year", "month"),
			Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				year, month, err := requiredYearMonth(raw)
				if err != nil {
					return nil, err
				}
				res, err := svc.GetMonthlySubscriptionAnalytics(ctx, year, month)
				if err != nil {
					return nil, err
				}
				return adapters.MapSubscriptionAnalyticsDomainToApi(*res), nil
			},
		},
		{
			Name:        "list_apps",
			Description: "List the apps of the account.",
			InputSchema: Object(nil),
			Handler: func(ctx context.Context, _ json.RawMessage) (any, error) {
				apps, err := svc.ListApps(ctx)
				if err != nil {
					return nil, err
				}
				return adapters.MapAppsDomainToApi(apps), nil
			},
		},
	}
}

// RegisterFinanceTools adds every finance tool to r.
func RegisterFinanceTools(r Registry, svc finance.Service) error {
	for _, tool := range FinanceTools(svc) {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func decodeArgs(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

func requiredYearMonth(raw json.RawMessage) (int, int, error) {
	var args monthArgs
	if err := decodeArgs(raw, &args); err != nil {
		return 0, 0, err
	}
	if args.Year == nil || args.Month == nil {
		return 0, 0, fmt.Errorf("%w: year and month are required", domain.ErrInvalidArgument)
	}
	if err := checkYearMonth(*args.Year, *args.Month); err != nil {
		return 0, 0, err
	}
	return *args.Year, *args.Month, nil
}

func checkYearMonth(year, month int) error {
	if year < minYear || year > maxYear {
		return fmt.Errorf("%w: year %d outside %d-%d", domain.ErrInvalidArgument, year, minYear, maxYear)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d outside 1-12", domain.ErrInvalidArgument, month)
	}
	return nil
}
