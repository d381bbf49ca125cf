package client

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

// UpstreamError carries the first JSON:API error object of a non-2xx response.
type UpstreamError struct {
	Status int
	Path   string
	Code   string
	Title  string
	Detail string
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("upstream %s returned %d", e.Path, e.Status)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Title != "" {
		msg += ": " + e.Title
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrSliceNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUpstreamAuth
	case http.StatusTooManyRequests:
		return domain.ErrUpstreamRateLimited
	default:
		return domain.ErrUpstream
	}
}

func newUpstreamError(path string, status int, body []byte) *UpstreamError {
	e := &UpstreamError{Status: status, Path: path}
	if !gjson.ValidBytes(body) {
		return e
	}
	first := gjson.GetBytes(body, "errors.0")
	e.Code = first.Get("code").String()
	e.Title = first.Get("title").String()
	e.Detail = first.Get("detail").String()
	return e
}
