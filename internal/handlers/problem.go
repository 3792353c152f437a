package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/engine"
)

// Problem is an RFC7807-style problem details payload. All 4xx responses on
// the API use this shape.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Status   int    `json:"status"`
	Instance string `json:"instance"`
}

// WriteProblem writes a problem details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, ptype, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Problem{
		Type:     ptype,
		Title:    title,
		Detail:   detail,
		Status:   status,
		Instance: r.URL.Path,
	})
}

// writeEngineError maps engine errors onto HTTP responses. Typed validation
// and export errors become problem JSON; anything else is a generic 500.
func writeEngineError(w http.ResponseWriter, r *http.Request, logger *common.Logger, err error) {
	var invalid *engine.InvalidParameterError
	var tooLarge *engine.DownloadTooLargeError
	switch {
	case errors.As(err, &invalid):
		WriteProblem(w, r, http.StatusBadRequest, "about:blank#invalid-parameter", "Invalid parameter", invalid.Error())
	case errors.Is(err, engine.ErrNoFilter):
		WriteProblem(w, r, http.StatusBadRequest, "about:blank#no-filter", "No filter supplied", err.Error())
	case errors.As(err, &tooLarge):
		WriteProblem(w, r, http.StatusBadRequest, "about:blank#download-too-large", "Download too large", tooLarge.Error())
	default:
		logger.Error().Str("path", r.URL.Path).Str("error", err.Error()).Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
