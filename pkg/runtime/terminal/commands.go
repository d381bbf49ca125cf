package terminal

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/adapters"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/finance"
)

func addYearMonthFlags(cmd *cobra.Command, year, month *int) {
	now := time.Now().UTC()
	cmd.Flags().IntVarP(year, "year", "y", now.Year(), "Calendar year")
	cmd.Flags().IntVarP(month, "month", "m", int(now.Month()), "Calendar month, 1-12")
}

func (cli *CLI) newSalesCmd() *cobra.Command {
	var args finance.SalesReportArgs
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Summarize one daily sales or subscription report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := cli.service.GetSalesReport(cmd.Context(), args)
			if err != nil {
				return err
			}
			return cli.emit(SalesReport(*res), adapters.MapSalesReportDomainToApi(*res))
		},
	}
	cmd.Flags().StringVarP(&args.Date, "date", "d", "", "Report date YYYY-MM-DD (default: newest published day)")
	cmd.Flags().StringVarP(&args.ReportType, "type", "t", "SALES", "SALES, SUBSCRIPTION, SUBSCRIPTION_EVENT or SUBSCRIBER")
	return cmd
}

func (cli *CLI) newMetricsCmd() *cobra.Command {
	var args finance.RevenueMetricsArgs
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Revenue, MRR and ARR of the newest published day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := cli.service.GetRevenueMetrics(cmd.Context(), args)
			if err != nil {
				return err
			}
			return cli.emit(RevenueMetricsReport(*res), adapters.MapRevenueMetricsDomainToApi(*res))
		},
	}
	cmd.Flags().StringVarP(&args.AppID, "app", "a", "", "Restrict to one app by Apple ID")
	return cmd
}

func (cli *CLI) newMonthlyCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Sum the daily sales reports of a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := cli.service.GetMonthlyRevenue(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Monthly revenue %04d-%02d", year, month)
			return cli.emit(RevenueReport(title, *res), adapters.MapRevenueSummaryDomainToApi(*res))
		},
	}
	addYearMonthFlags(cmd, &year, &month)
	return cmd
}

func (cli *CLI) newFinancialCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "financial",
		Short: "Financial report of a month over every region; newest period without flags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := finance.FinancialArgs{Latest: true}
			if cmd.Flags().Changed("year") || cmd.Flags().Changed("month") {
				args = finance.FinancialArgs{Year: year, Month: month}
			}
			res, err := cli.service.GetFinancialSummary(cmd.Context(), args)
			if err != nil {
				return err
			}
			title := "Financial summary " + res.Metadata.Period
			return cli.emit(RevenueReport(title, *res), adapters.MapRevenueSummaryDomainToApi(*res))
		},
	}
	addYearMonthFlags(cmd, &year, &month)
	return cmd
}

func (cli *CLI) newSubscriptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscriptions",
		Short: "Active subscriptions, MRR and ARR from the newest snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := cli.service.GetSubscriptionMetrics(cmd.Context())
			if err != nil {
				return err
			}
			return cli.emit(SubscriptionMetricsReport(*res), adapters.MapSubscriptionMetricsDomainToApi(*res))
		},
	}
}

func (cli *CLI) newRenewalsCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "renewals",
		Short: "New subscriptions versus renewals for one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := cli.service.GetSubscriptionRenewals(cmd.Context(), date)
			if err != nil {
				return err
			}
			return cli.emit(RenewalsReport(*res), adapters.MapRenewalSummaryDomainToApi(*res))
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "Report date YYYY-MM-DD (default: newest published day)")
	return cmd
}

func (cli *CLI) newSubscriptionAnalyticsCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "subscription-analytics",
		Short: "Daily new subscriptions and renewals of a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := cli.service.GetMonthlySubscriptionAnalytics(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			return cli.emit(SubscriptionAnalyticsReport(*res), adapters.MapSubscriptionAnalyticsDomainToApi(*res))
		},
	}
	addYearMonthFlags(cmd, &year, &month)
	return cmd
}

func (cli *CLI) newAppsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List the apps of the account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			apps, err := cli.service.ListApps(cmd.Context())
			if err != nil {
				return err
			}
			return cli.emit(AppsReport(apps), adapters.MapAppsDomainToApi(apps))
		},
	}
}
