package domain

import "errors"

var (
	// ErrSliceNotFound means the upstream has no report for this exact slice.
	ErrSliceNotFound       = errors.New("no report for this slice")
	ErrUpstreamAuth        = errors.New("upstream credentials rejected")
	ErrUpstreamRateLimited = errors.New("upstream rate limit exceeded")
	ErrUpstream            = errors.New("upstream request failed")
	ErrMalformedReport     = errors.New("malformed report")
	ErrConfiguration       = errors.New("configuration error")
	ErrInvalidArgument     = errors.New("invalid argument")
)
