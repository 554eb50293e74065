package domain

import (
	"fmt"
	"strings"
	"time"
)

type VerifyCallerRequest struct {
	SeniorPhone      string `json:"seniorPhone"`
	CallerName       string `json:"callerName"`
	CallerDepartment string `json:"callerDepartment,omitempty"`
	CallerBadge      string `json:"callerBadge,omitempty"`
}

func (r *VerifyCallerRequest) Validate() error {
	if strings.TrimSpace(r.SeniorPhone) == "" || strings.TrimSpace(r.CallerName) == "" {
		return fmt.Errorf("%w: seniorPhone and callerName required", ErrValidation)
	}
	return nil
}

type VerifyCallerResult struct {
	IsVerified bool   `json:"isVerified"`
	RiskScore  int    `json:"riskScore"`
	Message    string `json:"message"`
}

const ScamCheckAnswers = 5

type ScamCheckRequest struct {
	SeniorPhone string `json:"seniorPhone,omitempty"`
	Answers     []bool `json:"answers"`
}

func (r *ScamCheckRequest) Validate() error {
	if len(r.Answers) != ScamCheckAnswers {
		return fmt.Errorf("%w: exactly %d answers required", ErrValidation, ScamCheckAnswers)
	}
	return nil
}

type ScamCheckResult struct {
	Status string `json:"status"` // safe, caution, high-risk
	Score  int    `json:"score"`
}

type FlagTransactionRequest struct {
	SeniorPhone   string `json:"seniorPhone"`
	Amount        int64  `json:"amount"`
	BankName      string `json:"bankName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
}

func (r *FlagTransactionRequest) Validate() error {
	if strings.TrimSpace(r.SeniorPhone) == "" || r.Amount <= 0 {
		return fmt.Errorf("%w: seniorPhone and a positive amount required", ErrValidation)
	}
	return nil
}

type FlagTransactionResult struct {
	Frozen           bool       `json:"frozen"`
	Message          string     `json:"message"`
	CoolingUntil     *time.Time `json:"coolingUntil,omitempty"`
	RequiresApproval bool       `json:"requiresApproval"`
}

type ApproveTransactionRequest struct {
	SeniorPhone   string `json:"seniorPhone"`
	GuardianPhone string `json:"guardianPhone"`
}

func (r *ApproveTransactionRequest) Validate() error {
	if strings.TrimSpace(r.SeniorPhone) == "" || strings.TrimSpace(r.GuardianPhone) == "" {
		return fmt.Errorf("%w: seniorPhone and guardianPhone required", ErrValidation)
	}
	return nil
}
