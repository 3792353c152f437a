package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/engine"
	"github.com/duggasco/CET/internal/models"
)

// DashboardHandler serves the aggregated dashboard payload.
type DashboardHandler struct {
	svc    *engine.Service
	logger *common.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc *engine.Service, logger *common.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// ServeHTTP handles GET /api/dashboard.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	q := r.URL.Query()
	criteria, ok := parseCriteria(w, r, q)
	if !ok {
		return
	}

	pageSize := 0
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteProblem(w, r, http.StatusBadRequest, "about:blank#invalid-parameter",
				"Invalid parameter", "page_size must be a non-negative integer, got "+strconv.Quote(raw))
			return
		}
		pageSize = n
	}

	req := engine.DashboardRequest{
		Criteria:      criteria,
		Date:          q.Get("date"),
		IncludeCharts: true,
		PageSize:      pageSize,
		ClientCursor:  q.Get("client_cursor"),
		FundCursor:    q.Get("fund_cursor"),
		AccountCursor: q.Get("account_cursor"),
	}

	resp, err := h.svc.GetDashboard(r.Context(), req)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// parseCriteria builds filter criteria from the shared query parameters.
// Returns ok=false after writing a problem response.
func parseCriteria(w http.ResponseWriter, r *http.Request, q url.Values) (models.FilterCriteria, bool) {
	criteria := models.FilterCriteria{
		ClientIDs:         splitCSV(q.Get("client_ids")),
		FundNames:         splitCSV(q.Get("fund_names")),
		AccountIDs:        splitCSV(q.Get("account_ids")),
		ClientNamePattern: strings.TrimSpace(q.Get("client_name")),
		FundTextPattern:   strings.TrimSpace(q.Get("fund_ticker")),
		AccountIDPattern:  strings.TrimSpace(q.Get("account_number")),
	}
	if raw := q.Get("selection_source"); raw != "" {
		dim, ok := models.ParseDimension(raw)
		if !ok {
			WriteProblem(w, r, http.StatusBadRequest, "about:blank#invalid-parameter",
				"Invalid parameter", "selection_source must be client, fund or account, got "+strconv.Quote(raw))
			return criteria, false
		}
		criteria.SelectionSource = dim
	}
	return criteria, true
}

// splitCSV splits a comma-separated parameter, trimming whitespace and
// dropping empty parts.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
