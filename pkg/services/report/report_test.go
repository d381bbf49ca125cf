package report

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/store/client"
)

const salesText = "Provider\tSKU\tTitle\tUnits\tDeveloper Proceeds\tCustomer Currency\tCountry Code\tCustomer Price\n" +
	"APPLE\tpro.yearly\tPro Yearly\t1\t3.62\tIDR\tID\t56126\n" +
	"APPLE\tpro.monthly\tPro Monthly\t2\t6.99\tUSD\tUS\n"

func gzipBytes(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(text))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	compressed := gzipBytes(t, salesText)

	tests := []struct {
		name     string
		payload  []byte
		expected string
	}{
		{name: "gzip payload", payload: compressed, expected: salesText},
		{name: "plain text payload", payload: []byte(salesText), expected: salesText},
		{name: "json error body", payload: []byte(`{"errors":[]}`), expected: `{"errors":[]}`},
		{name: "empty payload", payload: nil, expected: ""},
		{
			name:     "corrupt gzip falls back to raw bytes",
			payload:  []byte{0x1f, 0x8b, 'o', 'o', 'p', 's'},
			expected: string([]byte{0x1f, 0x8b, 'o', 'o', 'p', 's'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decode(tt.payload))
		})
	}
}

func TestDecodeString_HandlesGzipInString(t *testing.T) {
	assert.Equal(t, salesText, DecodeString(string(gzipBytes(t, salesText))))
}

func TestParse_MapsRowsOntoHeaders(t *testing.T) {
	report := Parse(salesText, domain.ReportTypeSales)

	assert.Equal(t, domain.ReportTypeSales, report.ReportType)
	assert.False(t, report.Malformed)
	assert.Len(t, report.Headers, 8)
	require.Equal(t, 2, report.RowCount)
	assert.Equal(t, "3.62", report.Rows[0].Get("Developer Proceeds"))
	assert.Equal(t, "IDR", report.Rows[0].Get("Customer Currency"))

	// short row gets empty trailing fields
	assert.True(t, report.Rows[1].Has("Customer Price"))
	assert.Equal(t, "", report.Rows[1].Get("Customer Price"))
}

func TestParse_IsIdempotent(t *testing.T) {
	first := Parse(salesText, domain.ReportTypeSales)
	second := Parse(salesText, domain.ReportTypeSales)
	assert.Equal(t, first, second)
}

func TestParse_EdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		rows      int
		malformed bool
	}{
		{name: "empty", text: "", rows: 0},
		{name: "blank lines only", text: "\n\n  \n", rows: 0},
		{name: "header only", text: "SKU\tTitle\tUnits\n", rows: 0},
		{name: "crlf and blank lines", text: "SKU\tUnits\r\n\r\na\t1\r\nb\t2\r\n", rows: 2},
		{
			name: "financial footer lines are skipped",
			text: "Start Date\tQuantity\tExtended Partner Share\n01/01/2025\t1\t10.00\n" +
				"Total_Rows\t1\nTotal_Amount\t10.00\nTotal_Units\t1\n",
			rows: 1,
		},
		{name: "json body is malformed", text: `{"errors":[{"status":"500"}]}`, rows: 0, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Parse(tt.text, domain.ReportTypeFinancial)
			assert.Equal(t, tt.rows, report.RowCount)
			assert.Len(t, report.Rows, tt.rows)
			assert.Equal(t, tt.malformed, report.Malformed)
		})
	}
}

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	args := m.Called(ctx, path, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockClient) GetPages(ctx context.Context, path string, query url.Values, fn func([]byte) error) error {
	args := m.Called(ctx, path, query)
	return args.Error(0)
}

func TestFetcher_BuildsSalesQuery(t *testing.T) {
	c := new(mockClient)
	expected := url.Values{
		"filter[vendorNumber]":  {"881"},
		"filter[reportType]":    {"SALES"},
		"filter[reportSubType]": {"SUMMARY"},
		"filter[frequency]":     {"DAILY"},
		"filter[reportDate]":    {"2025-07-01"},
		"filter[version]":       {"1_0"},
	}
	c.On("Get", mock.Anything, "/v1/salesReports", expected).Return(gzipBytes(t, salesText), nil)

	req := domain.ReportRequest{
		ReportType:    domain.ReportTypeSales,
		ReportSubType: domain.ReportSubTypeSummary,
		Frequency:     domain.FrequencyDaily,
		Date:          "2025-07-01",
		Version:       "1_0",
		VendorID:      "881",
	}
	report, err := Load(context.Background(), NewFetcher(c), req)

	require.NoError(t, err)
	assert.Equal(t, 2, report.RowCount)
	c.AssertExpectations(t)
}

func TestFetcher_BuildsFinanceQuery(t *testing.T) {
	c := new(mockClient)
	expected := url.Values{
		"filter[vendorNumber]": {"881"},
		"filter[reportType]":   {"FINANCIAL"},
		"filter[reportDate]":   {"2025-04"},
		"filter[regionCode]":   {"EU"},
	}
	c.On("Get", mock.Anything, "/v1/financeReports", expected).Return([]byte(""), nil)

	req := domain.ReportRequest{
		ReportType: domain.ReportTypeFinancial,
		Date:       "2025-04",
		RegionCode: "EU",
		VendorID:   "881",
	}
	_, err := NewFetcher(c).Fetch(context.Background(), req)

	require.NoError(t, err)
	c.AssertExpectations(t)
}

func TestFetcher_Errors(t *testing.T) {
	tests := []struct {
		name      string
		vendor    string
		clientErr error
		expected  error
	}{
		{
			name:      "missing slice",
			vendor:    "881",
			clientErr: &client.UpstreamError{Status: http.StatusNotFound},
			expected:  domain.ErrSliceNotFound,
		},
		{
			name:   "rejected version is a configuration error",
			vendor: "881",
			clientErr: &client.UpstreamError{
				Status: http.StatusBadRequest,
				Code:   "PARAMETER_ERROR.INVALID",
				Detail: "The version parameter you have specified is invalid.",
			},
			expected: domain.ErrConfiguration,
		},
		{
			name:     "missing vendor number",
			vendor:   "",
			expected: domain.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(mockClient)
			if tt.clientErr != nil {
				c.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.clientErr)
			}

			req := domain.ReportRequest{
				ReportType: domain.ReportTypeSubscription,
				Frequency:  domain.FrequencyDaily,
				Date:       "2025-07-01",
				Version:    "1_9",
				VendorID:   tt.vendor,
			}
			_, err := NewFetcher(c).Fetch(context.Background(), req)

			assert.ErrorIs(t, err, tt.expected)
			c.AssertExpectations(t)
		})
	}
}
