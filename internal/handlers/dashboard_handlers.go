package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// DashboardAlerts lists a guardian's alert feed, newest first.
// GET /api/dashboard/alerts/{guardianPhone}
func (h *Handlers) DashboardAlerts(w http.ResponseWriter, r *http.Request) {
	phone, err := url.PathUnescape(chi.URLParam(r, "guardianPhone"))
	if err != nil || phone == "" {
		writeError(w, http.StatusBadRequest, "guardianPhone is required")
		return
	}

	alerts, err := h.dashboardService.Alerts(r.Context(), phone, parseLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"alerts":  alerts,
	})
}

// DashboardIncidents lists a guardian's incidents, newest first.
// GET /api/dashboard/incidents/{guardianPhone}
func (h *Handlers) DashboardIncidents(w http.ResponseWriter, r *http.Request) {
	phone, err := url.PathUnescape(chi.URLParam(r, "guardianPhone"))
	if err != nil || phone == "" {
		writeError(w, http.StatusBadRequest, "guardianPhone is required")
		return
	}

	incidents, err := h.dashboardService.Incidents(r.Context(), phone, parseLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"incidents": incidents,
	})
}

// DashboardStats returns aggregate counters for the guardian's overview cards.
// GET /api/dashboard/stats/{guardianPhone}
func (h *Handlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	phone, err := url.PathUnescape(chi.URLParam(r, "guardianPhone"))
	if err != nil || phone == "" {
		writeError(w, http.StatusBadRequest, "guardianPhone is required")
		return
	}

	stats, err := h.dashboardService.Stats(r.Context(), phone)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// ResolveIncident marks an incident handled.
// POST /api/dashboard/resolve/{incidentID}
func (h *Handlers) ResolveIncident(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "incidentID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "incidentID must be a positive integer")
		return
	}

	incident, err := h.dashboardService.ResolveIncident(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Incident resolved",
		"incident": incident,
	})
}

// ResolveAlert marks an alert handled and acknowledges the senior.
// POST /api/dashboard/resolve-alert/{alertID}
func (h *Handlers) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "alertID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "alertID must be a positive integer")
		return
	}

	alert, err := h.dashboardService.ResolveAlert(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Alert resolved",
		"alert":   alert,
	})
}
