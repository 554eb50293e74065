package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/guardianlink/guardianlink360/internal/domain"
)

// Register creates a user record.
// POST /api/auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// RequestOTP sends a login code to a registered phone.
// POST /api/auth/otp/request
func (h *Handlers) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	if err := h.authService.RequestOTP(r.Context(), req.Phone); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "OTP sent successfully",
	})
}

// VerifyOTP exchanges a valid code for a JWT.
// POST /api/auth/otp/verify
func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "phone and otp are required")
		return
	}

	resp, err := h.authService.VerifyOTP(r.Context(), req.Phone, req.OTP)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetUser looks up a user by phone.
// GET /api/auth/user/{phone}
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	phone, err := url.PathUnescape(chi.URLParam(r, "phone"))
	if err != nil || phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	user, err := h.authService.GetUser(r.Context(), phone)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}
