package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/guardianlink/guardianlink360/internal/service"
	"github.com/guardianlink/guardianlink360/pkg/auth"
	"github.com/guardianlink/guardianlink360/pkg/config"
	"github.com/guardianlink/guardianlink360/pkg/logger"
)

type Handlers struct {
	authService        service.AuthService
	alertService       service.AlertService
	transactionService service.TransactionService
	dashboardService   service.DashboardService
	config             *config.Config
}

func New(
	authService service.AuthService,
	alertService service.AlertService,
	transactionService service.TransactionService,
	dashboardService service.DashboardService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		authService:        authService,
		alertService:       alertService,
		transactionService: transactionService,
		dashboardService:   dashboardService,
		config:             cfg,
	}
}

type claimsKey struct{}

// RequireJWT gates a route group on a valid token, optionally pinned to a role.
func (h *Handlers) RequireJWT(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			if requiredRole != "" && claims.Role != requiredRole {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), logger.PhoneKey, claims.Phone)
			ctx = context.WithValue(ctx, logger.RoleKey, claims.Role)
			ctx = context.WithValue(ctx, claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey{}).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// Helper functions for common response patterns
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]interface{}{"success": false, "message": message})
}

// writeServiceError maps service-layer sentinel errors onto status codes.
// Anything unrecognized is a persistence or programming failure: 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// parseLimit reads ?limit= with the dashboard defaults: 20 rows, capped at 50.
func parseLimit(r *http.Request) int {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	return limit
}
