package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	defaultBurst   = 20
	acceptHeader   = "application/a-gzip, application/json"
)

// Client performs authenticated GET requests against the App Store Connect API.
type Client interface {
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
	// GetPages walks a JSON:API collection following links.next and hands each page to fn.
	GetPages(ctx context.Context, path string, query url.Values, fn func(page []byte) error) error
}

type Config struct {
	BaseURL         string
	RequestsPerHour int
	Timeout         time.Duration
	Tokens          TokenProvider
	HTTPClient      *http.Client
}

type apiClient struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config) (Client, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token provider is required")
	}
	if cfg.RequestsPerHour <= 0 {
		return nil, fmt.Errorf("requests per hour must be positive")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	burst := defaultBurst
	if cfg.RequestsPerHour < burst {
		burst = cfg.RequestsPerHour
	}

	return &apiClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     cfg.Tokens,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerHour)/3600), burst),
	}, nil
}

func (c *apiClient) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, path, u)
}

func (c *apiClient) GetPages(
	ctx context.Context,
	path string,
	query url.Values,
	fn func(page []byte) error,
) error {
	next := c.baseURL + path
	if len(query) > 0 {
		next += "?" + query.Encode()
	}

	for next != "" {
		body, err := c.do(ctx, path, next)
		if err != nil {
			return err
		}
		if err := fn(body); err != nil {
			return err
		}

		next = gjson.GetBytes(body, "links.next").String()
		if next != "" && !strings.HasPrefix(next, "http") {
			next = c.baseURL + next
		}
	}
	return nil
}

func (c *apiClient) do(ctx context.Context, path, rawURL string) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request quota wait aborted: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain api token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(path, 0)
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	metrics.RecordUpstreamRequest(path, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := newUpstreamError(path, resp.StatusCode, body)
		logger.Debug().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("code", upstreamErr.Code).
			Msg("upstream request unsuccessful")
		return nil, upstreamErr
	}

	return body, nil
}
