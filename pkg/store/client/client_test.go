package client

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

type staticTokens string

func (s staticTokens) Token(_ context.Context) (string, error) {
	return string(s), nil
}

func newTestClient(t *testing.T, server *httptest.Server) Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:         server.URL,
		RequestsPerHour: 3600,
		Tokens:          staticTokens("test-token"),
		HTTPClient:      server.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestClient_Get_SendsCredentialAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Accept"), "application/a-gzip")
		assert.Equal(t, "/v1/salesReports", r.URL.Path)
		assert.Equal(t, "SALES", r.URL.Query().Get("filter[reportType]"))
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	body, err := c.Get(context.Background(), "/v1/salesReports", url.Values{"filter[reportType]": {"SALES"}})

	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
}

func TestClient_Get_ErrorClasses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
		detail   string
	}{
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"errors":[{"status":"404","code":"NOT_FOUND","title":"The specified resource does not exist","detail":"There were no sales for the date specified."}]}`,
			expected: domain.ErrSliceNotFound,
			detail:   "There were no sales for the date specified.",
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"errors":[{"status":"401","code":"NOT_AUTHORIZED","title":"Authentication credentials are missing or invalid."}]}`,
			expected: domain.ErrUpstreamAuth,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"errors":[{"status":"429","code":"RATE_LIMIT_EXCEEDED"}]}`,
			expected: domain.ErrUpstreamRateLimited,
		},
		{
			name:     "server error with non json body",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			expected: domain.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server).Get(context.Background(), "/v1/salesReports", nil)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)

			var upstreamErr *UpstreamError
			require.True(t, errors.As(err, &upstreamErr))
			assert.Equal(t, tt.status, upstreamErr.Status)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, upstreamErr.Detail)
			}
		})
	}
}

func TestClient_GetPages_FollowsNextLinks(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("cursor") {
		case "":
			_, _ = fmt.Fprintf(w, `{"data":[{"id":"1"}],"links":{"next":"%s/v1/apps?cursor=2"}}`, server.URL)
		case "2":
			_, _ = w.Write([]byte(`{"data":[{"id":"2"}],"links":{}}`))
		}
	}))
	defer server.Close()

	var pages int
	err := newTestClient(t, server).GetPages(context.Background(), "/v1/apps", nil, func(page []byte) error {
		pages++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, pages)
}

func TestClient_RequiresTokenProvider(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://localhost", RequestsPerHour: 10})
	assert.Error(t, err)
}

func TestTokenProvider_SignsAndCaches(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	provider, err := NewTokenProvider(TokenConfig{KeyID: "KEY123", IssuerID: "issuer", PrivateKey: key})
	require.NoError(t, err)

	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	p := provider.(*jwtProvider)
	p.now = func() time.Time { return now }

	first, err := provider.Token(context.Background())
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(first, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithAudience("appstoreconnect-v1"))
	require.NoError(t, err)
	assert.Equal(t, "KEY123", parsed.Header["kid"])
	assert.Equal(t, "ES256", parsed.Header["alg"])

	claims := parsed.Claims.(*jwt.RegisteredClaims)
	assert.Equal(t, "issuer", claims.Issuer)
	assert.Equal(t, now.Add(20*time.Minute).Unix(), claims.ExpiresAt.Unix())

	now = now.Add(18 * time.Minute)
	cached, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	now = now.Add(2 * time.Minute)
	renewed, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, renewed)
}
