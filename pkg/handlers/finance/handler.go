package finance

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/api"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/tools"
)

const maxBodySize = 1 << 20

type toolInfo struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	InputSchema tools.Schema `json:"inputSchema"`
}

// Handler exposes the tool registry over HTTP.
type Handler struct {
	registry tools.Registry
}

func NewHandler(registry tools.Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	list := h.registry.List()
	response := make([]toolInfo, 0, len(list))
	for _, tool := range list {
		response = append(response, toolInfo{Name: tool.Name, Description: tool.Description, InputSchema: tool.InputSchema})
	}
	writeJSON(r, w, http.StatusOK, response)
}

// CallTool runs the tool named in the path with the request body as arguments.
func (h *Handler) CallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "tool")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(r, w, http.StatusBadRequest, &api.ToolError{
			Operation: name,
			Code:      tools.CodeInvalidArgument,
			Message:   "failed to read request body",
		})
		return
	}
	h.call(w, r, name, body)
}

func (h *Handler) GetSalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.callWithArgs(w, r, "get_sales_report", map[string]any{
		"date":       optional(q.Get("date")),
		"reportType": optional(q.Get("reportType")),
	})
}

func (h *Handler) GetMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	h.callYearMonth(w, r, "get_monthly_revenue")
}

func (h *Handler) GetFinancialSummary(w http.ResponseWriter, r *http.Request) {
	h.callYearMonth(w, r, "get_financial_summary")
}

func (h *Handler) GetSubscriptionAnalytics(w http.ResponseWriter, r *http.Request) {
	h.callYearMonth(w, r, "get_monthly_subscription_analytics")
}

func (h *Handler) GetSubscriptionMetrics(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, "get_subscription_metrics", nil)
}

func (h *Handler) ListApps(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, "list_apps", nil)
}

func (h *Handler) callYearMonth(w http.ResponseWriter, r *http.Request, tool string) {
	args := map[string]any{}
	for _, key := range []string{"year", "month"} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(r, w, http.StatusBadRequest, &api.ToolError{
				Operation: tool,
				Code:      tools.CodeInvalidArgument,
				Message:   fmt.Sprintf("invalid '%s': expected an integer", key),
			})
			return
		}
		args[key] = n
	}
	h.callWithArgs(w, r, tool, args)
}

func (h *Handler) callWithArgs(w http.ResponseWriter, r *http.Request, tool string, args map[string]any) {
	for k, v := range args {
		if v == nil {
			delete(args, k)
		}
	}
	body, err := json.Marshal(args)
	if err != nil {
		writeJSON(r, w, http.StatusInternalServerError, &api.ToolError{Operation: tool, Code: tools.CodeInternal, Message: err.Error()})
		return
	}
	h.call(w, r, tool, body)
}

func (h *Handler) call(w http.ResponseWriter, r *http.Request, tool string, args json.RawMessage) {
	result, toolErr := h.registry.Call(r.Context(), tool, args)
	if toolErr != nil {
		writeJSON(r, w, statusFor(toolErr.Code), toolErr)
		return
	}
	writeJSON(r, w, http.StatusOK, result)
}

func statusFor(code string) int {
	switch code {
	case tools.CodeInvalidArgument:
		return http.StatusBadRequest
	case tools.CodeNotFound:
		return http.StatusNotFound
	case tools.CodeAuth:
		return http.StatusBadGateway
	case tools.CodeRateLimited:
		return http.StatusTooManyRequests
	case tools.CodeConfiguration:
		return http.StatusServiceUnavailable
	case tools.CodeUpstream:
		return http.StatusBadGateway
	case tools.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func writeJSON(r *http.Request, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("failed to encode response")
	}
}
