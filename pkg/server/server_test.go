package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/api"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/finance"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/tools"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) GetSalesReport(ctx context.Context, args finance.SalesReportArgs) (*domain.SalesReportResult, error) {
	a := m.Called(ctx, args)
	res, _ := a.Get(0).(*domain.SalesReportResult)
	return res, a.Error(1)
}

func (m *mockService) GetRevenueMetrics(ctx context.Context, args finance.RevenueMetricsArgs) (*domain.RevenueMetrics, error) {
	a := m.Called(ctx, args)
	res, _ := a.Get(0).(*domain.RevenueMetrics)
	return res, a.Error(1)
}

func (m *mockService) GetMonthlyRevenue(ctx context.Context, year, month int) (*domain.RevenueSummary, error) {
	a := m.Called(ctx, year, month)
	res, _ := a.Get(0).(*domain.RevenueSummary)
	return res, a.Error(1)
}

func (m *mockService) GetFinancialSummary(ctx context.Context, args finance.FinancialArgs) (*domain.RevenueSummary, error) {
	a := m.Called(ctx, args)
	res, _ := a.Get(0).(*domain.RevenueSummary)
	return res, a.Error(1)
}

func (m *mockService) GetSubscriptionMetrics(ctx context.Context) (*domain.SubscriptionMetrics, error) {
	a := m.Called(ctx)
	res, _ := a.Get(0).(*domain.SubscriptionMetrics)
	return res, a.Error(1)
}

func (m *mockService) GetSubscriptionRenewals(ctx context.Context, date string) (*domain.RenewalSummary, error) {
	a := m.Called(ctx, date)
	res, _ := a.Get(0).(*domain.RenewalSummary)
	return res, a.Error(1)
}

func (m *mockService) GetMonthlySubscriptionAnalytics(ctx context.Context, year, month int) (*domain.SubscriptionAnalytics, error) {
	a := m.Called(ctx, year, month)
	res, _ := a.Get(0).(*domain.SubscriptionAnalytics)
	return res, a.Error(1)
}

func (m *mockService) ListApps(ctx context.Context) ([]domain.App, error) {
	a := m.Called(ctx)
	res, _ := a.Get(0).([]domain.App)
	return res, a.Error(1)
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	svc := new(mockService)
	registry := tools.NewRegistry()
	require.NoError(t, tools.RegisterFinanceTools(registry, svc))

	config := Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Tools:  registry,
			Logger: logger,
		},
	}
	router := ConfigureRouter(config)
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		setupMocks     func()
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:   "ListApps",
			method: http.MethodGet,
			path:   "/api/v1/apps",
			setupMocks: func() {
				svc.On("ListApps", mock.Anything).
					Return([]domain.App{{ID: "1", Name: "Tally", BundleID: "com.example.tally", SKU: "TALLY"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expected:       []api.App{{ID: "1", Name: "Tally", BundleID: "com.example.tally", SKU: "TALLY"}},
			parseResponse:  unmarshalResponse[[]api.App](),
		},
		{
			name:   "MonthlyRevenue",
			method: http.MethodGet,
			path:   "/api/v1/revenue/monthly?year=2025&month=7",
			setupMocks: func() {
				svc.On("GetMonthlyRevenue", mock.Anything, 2025, 7).Return(&domain.RevenueSummary{
					TotalRevenue:  decimal.RequireFromString("2900.004"),
					DaysRequested: 31,
					DaysFetched:   31,
					DaysWithData:  29,
					Metadata:      domain.SummaryMetadata{Period: "2025-07", DataAvailable: true},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expected:       2900.0,
			parseResponse: func(data []byte) (interface{}, error) {
				var response api.RevenueSummary
				err := json.Unmarshal(data, &response)
				return response.TotalRevenue, err
			},
		},
		{
			name:           "MonthlyRevenue_InvalidMonth",
			method:         http.MethodGet,
			path:           "/api/v1/revenue/monthly?year=2025&month=13",
			setupMocks:     func() {},
			expectedStatus: http.StatusBadRequest,
			expected:       tools.CodeInvalidArgument,
			parseResponse:  toolErrorCode,
		},
		{
			name:   "ToolCall_Financial",
			method: http.MethodPost,
			path:   "/api/v1/tools/get_financial_summary",
			body:   `{"year":2025,"month":11}`,
			setupMocks: func() {
				svc.On("GetFinancialSummary", mock.Anything, finance.FinancialArgs{Year: 2025, Month: 11}).
					Return(&domain.RevenueSummary{
						TotalRevenue: decimal.NewFromInt(91),
						Metadata:     domain.SummaryMetadata{Period: "2025-11", FiscalPeriod: "2026-02", DataAvailable: true},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expected:       "2026-02",
			parseResponse: func(data []byte) (interface{}, error) {
				var response api.RevenueSummary
				err := json.Unmarshal(data, &response)
				return response.Metadata.FiscalPeriod, err
			},
		},
		{
			name:   "ToolCall_Configuration",
			method: http.MethodPost,
			path:   "/api/v1/tools/get_subscription_metrics",
			setupMocks: func() {
				svc.On("GetSubscriptionMetrics", mock.Anything).Return(nil, domain.ErrConfiguration)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expected:       tools.CodeConfiguration,
			parseResponse:  toolErrorCode,
		},
		{
			name:           "Metrics",
			method:         http.MethodGet,
			path:           "/metrics",
			setupMocks:     func() {},
			expectedStatus: http.StatusOK,
			expected:       true,
			parseResponse: func(data []byte) (interface{}, error) {
				return strings.Contains(string(data), "appstore_connect_tools_calls_total"), nil
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMocks()
			req, err := http.NewRequest(tc.method, testServer.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(body)
			require.NoError(t, err, "Failed to parse response")

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func unmarshalResponse[T any]() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response T
		err := json.Unmarshal(data, &response)
		return response, err
	}
}

func toolErrorCode(data []byte) (interface{}, error) {
	var response api.ToolError
	err := json.Unmarshal(data, &response)
	return response.Code, err
}
