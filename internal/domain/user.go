package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Role string

const (
	RoleSenior   Role = "senior"
	RoleGuardian Role = "guardian"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSenior, RoleGuardian:
		return Role(s), true
	default:
		return "", false
	}
}

// User is an identity record keyed by phone number. A senior always carries
// exactly one guardian phone; a guardian may be linked to any number of seniors.
type User struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email,omitempty"`
	Role              Role      `json:"role"`
	GuardianPhone     string    `json:"guardian_phone,omitempty"`
	LinkedSeniorPhone string    `json:"linked_senior_phone,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	Email             string `json:"email,omitempty"`
	Role              string `json:"role"`
	GuardianPhone     string `json:"guardian_phone,omitempty"`
	LinkedSeniorPhone string `json:"linked_senior_phone,omitempty"`
}

var phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.GuardianPhone = strings.TrimSpace(r.GuardianPhone)
	r.LinkedSeniorPhone = strings.TrimSpace(r.LinkedSeniorPhone)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !phoneRe.MatchString(r.Phone) {
		return fmt.Errorf("%w: phone must be a valid number", ErrValidation)
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: email must be a valid address", ErrValidation)
	}
	role, ok := ParseRole(r.Role)
	if !ok {
		return fmt.Errorf("%w: role must be senior or guardian", ErrValidation)
	}
	if role == RoleSenior && !phoneRe.MatchString(r.GuardianPhone) {
		return fmt.Errorf("%w: a senior must carry a guardian phone", ErrValidation)
	}
	return nil
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}
