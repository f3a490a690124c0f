package handlers

import (
	"net/http"

	"github.com/BradenHooton/lockbox/internal/analysis"
	pkghttp "github.com/BradenHooton/lockbox/pkg/http"
)

// AnalyzeRequest is the body of POST /analyze. Both fields are optional.
type AnalyzeRequest struct {
	Email string `json:"email" validate:"max=100000"`
	URL   string `json:"url" validate:"max=8192"`
}

// Analyze handles POST /analyze
func Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, analysis.Analyze(req.Email, req.URL))
}
