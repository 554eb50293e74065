package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/guardianlink/guardianlink360/internal/domain"
)

// FlagTransaction freezes a high-risk transfer for the cooling window.
// POST /api/transaction/flag
func (h *Handlers) FlagTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.FlagTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.transactionService.Flag(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := map[string]interface{}{
		"success":          true,
		"frozen":           result.Frozen,
		"message":          result.Message,
		"requiresApproval": result.RequiresApproval,
	}
	if result.CoolingUntil != nil {
		resp["coolingUntil"] = result.CoolingUntil
	}
	writeJSON(w, http.StatusOK, resp)
}

// ApproveTransaction releases a freeze. Guardian only.
// POST /api/transaction/approve
func (h *Handlers) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.ApproveTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	message, err := h.transactionService.Approve(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
	})
}
