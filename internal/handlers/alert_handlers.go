package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/guardianlink/guardianlink360/internal/domain"
)

// TriggerPanic handles the panic button.
// POST /api/alert/panic
func (h *Handlers) TriggerPanic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SeniorPhone string `json:"seniorPhone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	alert, err := h.alertService.TriggerPanic(r.Context(), req.SeniorPhone)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "PANIC alert sent",
		"alert":   alert,
	})
}

// VerifyCaller checks caller details against the oracle and the scam lexicon.
// POST /api/alert/verify-caller
func (h *Handlers) VerifyCaller(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyCallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.alertService.VerifyCaller(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"isVerified": result.IsVerified,
		"riskScore":  result.RiskScore,
		"message":    result.Message,
	})
}

// ScamCheck scores the five-question checklist.
// POST /api/alert/scam-check
func (h *Handlers) ScamCheck(w http.ResponseWriter, r *http.Request) {
	var req domain.ScamCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.alertService.RunScamCheck(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  result.Status,
		"score":   result.Score,
	})
}

// AlertHistory lists a senior's alerts newest-first.
// GET /api/alert/history/{seniorPhone}
func (h *Handlers) AlertHistory(w http.ResponseWriter, r *http.Request) {
	phone, err := url.PathUnescape(chi.URLParam(r, "seniorPhone"))
	if err != nil || phone == "" {
		writeError(w, http.StatusBadRequest, "seniorPhone is required")
		return
	}

	alerts, err := h.alertService.AlertHistory(r.Context(), phone, parseLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"alerts":  alerts,
	})
}
