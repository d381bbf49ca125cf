package tools

import (
	"context"
	"errors"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/api"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

const (
	codeOK                 = "ok"
	CodeNotFound           = "not_found"
	CodeAuth               = "auth_error"
	CodeRateLimited        = "rate_limited"
	CodeConfiguration      = "configuration_error"
	CodeInvalidArgument    = "invalid_argument"
	CodeUpstream           = "upstream_error"
	CodeInternal           = "internal_error"
	CodeTimeout            = "timeout"
	messageCredentialsHint = "check the key id, issuer id and private key of the selected profile"
)

// ToToolError classifies err for the tool caller.
func ToToolError(operation string, err error) *api.ToolError {
	out := &api.ToolError{Operation: operation, Message: err.Error()}
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		out.Code = CodeConfiguration
	case errors.Is(err, domain.ErrInvalidArgument):
		out.Code = CodeInvalidArgument
	case errors.Is(err, domain.ErrUpstreamAuth):
		out.Code = CodeAuth
		out.Message = err.Error() + ": " + messageCredentialsHint
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		out.Code = CodeRateLimited
	case errors.Is(err, domain.ErrSliceNotFound):
		out.Code = CodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		out.Code = CodeTimeout
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrMalformedReport):
		out.Code = CodeUpstream
	default:
		out.Code = CodeInternal
	}
	return out
}
