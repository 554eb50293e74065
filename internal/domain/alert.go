package domain

import "time"

type AlertType string

const (
	AlertPanic           AlertType = "PANIC"
	AlertVerifyCaller    AlertType = "VERIFY_CALLER"
	AlertSuspiciousCall  AlertType = "SUSPICIOUS_CALL"
	AlertTransactionFlag AlertType = "TRANSACTION_FLAG"
)

type AlertStatus string

const (
	AlertActive   AlertStatus = "ACTIVE"
	AlertResolved AlertStatus = "RESOLVED"
)

// Alert is the audit record of a single triggering event. Alerts are never
// deleted; a guardian resolve action flips the status.
type Alert struct {
	ID            int64       `json:"id"`
	SeniorPhone   string      `json:"senior_phone"`
	GuardianPhone string      `json:"guardian_phone"`
	Type          AlertType   `json:"type"`
	Status        AlertStatus `json:"status"`
	RiskScore     int         `json:"risk_score"`
	Details       string      `json:"details"`
	CreatedAt     time.Time   `json:"created_at"`
}

type IncidentStatus string

const (
	IncidentOpen      IncidentStatus = "OPEN"
	IncidentResolved  IncidentStatus = "RESOLVED"
	IncidentEscalated IncidentStatus = "ESCALATED"
)

// Incident is the guardian-facing case record aggregating alerts for a senior.
// TransactionFrozen mirrors the cooling registry: true means a freeze exists
// or existed for this senior.
type Incident struct {
	ID                int64          `json:"id"`
	SeniorPhone       string         `json:"senior_phone"`
	GuardianPhone     string         `json:"guardian_phone"`
	AlertType         AlertType      `json:"alert_type"`
	RiskScore         int            `json:"risk_score"`
	CallerDetails     string         `json:"caller_details"`
	TransactionAmount int64          `json:"transaction_amount"`
	TransactionFrozen bool           `json:"transaction_frozen"`
	ResolvedBy        string         `json:"resolved_by"`
	Status            IncidentStatus `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
}

// DashboardStats is the guardian dashboard summary row.
type DashboardStats struct {
	TotalAlerts        int64 `json:"totalAlerts"`
	ActiveAlerts       int64 `json:"activeAlerts"`
	FrozenTransactions int64 `json:"frozenTransactions"`
	ResolvedIncidents  int64 `json:"resolvedIncidents"`
}
