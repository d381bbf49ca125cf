package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/store/client"
)

const (
	salesReportsPath   = "/v1/salesReports"
	financeReportsPath = "/v1/financeReports"
)

// Fetcher retrieves the raw payload of one report slice.
type Fetcher interface {
	Fetch(ctx context.Context, req domain.ReportRequest) ([]byte, error)
}

type fetcher struct {
	client client.Client
}

func NewFetcher(c client.Client) Fetcher {
	return &fetcher{client: c}
}

func (f *fetcher) Fetch(ctx context.Context, req domain.ReportRequest) ([]byte, error) {
	if req.VendorID == "" {
		return nil, fmt.Errorf("%w: vendor number is required for %s reports", domain.ErrConfiguration, req.ReportType)
	}

	path, query := requestQuery(req)
	payload, err := f.client.Get(ctx, path, query)
	if err == nil {
		return payload, nil
	}

	var upstreamErr *client.UpstreamError
	if errors.As(err, &upstreamErr) && rejectedVersion(upstreamErr) {
		zerolog.Ctx(ctx).Error().
			Str("slice", req.String()).
			Str("detail", upstreamErr.Detail).
			Msg("upstream rejected the configured report version")
		return nil, fmt.Errorf("%w: report type %s does not accept version %q: %v",
			domain.ErrConfiguration, req.ReportType, req.Version, err)
	}
	return nil, fmt.Errorf("fetch %s: %w", req, err)
}

// Load fetches, decodes and parses one slice.
func Load(ctx context.Context, f Fetcher, req domain.ReportRequest) (domain.ParsedReport, error) {
	payload, err := f.Fetch(ctx, req)
	if err != nil {
		return domain.ParsedReport{ReportType: req.ReportType}, err
	}
	return Parse(Decode(payload), req.ReportType), nil
}

func requestQuery(req domain.ReportRequest) (string, url.Values) {
	q := url.Values{}
	q.Set("filter[vendorNumber]", req.VendorID)
	q.Set("filter[reportType]", string(req.ReportType))
	q.Set("filter[reportDate]", req.Date)

	if req.IsFinancial() {
		q.Set("filter[regionCode]", req.RegionCode)
		return financeReportsPath, q
	}

	q.Set("filter[frequency]", string(req.Frequency))
	if req.ReportSubType != "" {
		q.Set("filter[reportSubType]", req.ReportSubType)
	}
	if req.Version != "" {
		q.Set("filter[version]", req.Version)
	}
	return salesReportsPath, q
}

func rejectedVersion(e *client.UpstreamError) bool {
	if e.Status != http.StatusBadRequest {
		return false
	}
	detail := strings.ToLower(e.Detail + " " + e.Title)
	return strings.Contains(detail, "version")
}
