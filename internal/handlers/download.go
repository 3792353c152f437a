package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/engine"
	"github.com/duggasco/CET/internal/models"
)

var csvHeader = []string{
	"account_id", "client_id", "client_name", "fund_name", "fund_ticker",
	"balance_date", "balance", "qtd_delta", "qtd_change_pct", "ytd_delta", "ytd_change_pct",
}

// DownloadHandler serves the export count and CSV stream.
type DownloadHandler struct {
	svc     *engine.Service
	maxRows int
	logger  *common.Logger
}

// NewDownloadHandler creates a new download handler.
func NewDownloadHandler(svc *engine.Service, maxRows int, logger *common.Logger) *DownloadHandler {
	return &DownloadHandler{svc: svc, maxRows: maxRows, logger: logger}
}

// Count handles GET /api/download/count.
func (h *DownloadHandler) Count(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	criteria, ok := parseCriteria(w, r, r.URL.Query())
	if !ok {
		return
	}

	count, err := h.svc.DownloadRowCount(r.Context(), criteria, r.URL.Query().Get("date"))
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{
		"row_count": count,
		"max_rows":  h.maxRows,
	})
}

// Stream handles GET /api/download. The row ceiling and the filter guard are
// enforced before the first byte of CSV is written, so a rejected export is
// a clean problem response.
func (h *DownloadHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	criteria, ok := parseCriteria(w, r, r.URL.Query())
	if !ok {
		return
	}

	started := false
	cw := csv.NewWriter(w)
	err := h.svc.StreamDownload(r.Context(), criteria, r.URL.Query().Get("date"), func(row models.DownloadRow) error {
		if !started {
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="balances.csv"`)
			if err := cw.Write(csvHeader); err != nil {
				return err
			}
			started = true
		}
		return cw.Write(csvRecord(row))
	})
	if err != nil {
		if started {
			// Headers are gone; all we can do is log and truncate.
			h.logger.Error().Str("error", err.Error()).Msg("Download stream aborted")
			return
		}
		writeEngineError(w, r, h.logger, err)
		return
	}
	if !started {
		// Zero matching rows still produce a valid CSV with a header.
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="balances.csv"`)
		cw.Write(csvHeader)
	}
	cw.Flush()
}

func csvRecord(row models.DownloadRow) []string {
	return []string{
		row.AccountID,
		row.ClientID,
		row.ClientName,
		row.FundName,
		row.FundTicker,
		row.BalanceDate.Format(models.DateFormat),
		row.Balance.String(),
		decimalOrEmpty(row.QTDDelta),
		pctOrEmpty(row.QTDChange),
		decimalOrEmpty(row.YTDDelta),
		pctOrEmpty(row.YTDChange),
	}
}

func decimalOrEmpty(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func pctOrEmpty(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 4, 64)
}
