package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is the account role of an employee record.
type Role string

const (
	RoleEmployee   Role = "employee"
	RoleAdmin      Role = "admin"
	RoleExEmployee Role = "ex-employee"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleAdmin, RoleExEmployee:
		return true
	}
	return false
}

func ParseRoleFromString(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", fmt.Errorf("%w: invalid role %q", ErrValidation, s)
	}
	return role, nil
}

// PushSubscription is an opaque browser push delivery descriptor. Only the
// push provider looks inside it.
type PushSubscription []byte

// IsZero reports whether the descriptor is absent.
func (p PushSubscription) IsZero() bool {
	trimmed := bytes.TrimSpace(p)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// ParsePushSubscription validates a descriptor received from a client. It must
// be a JSON object; its fields are not interpreted.
func ParsePushSubscription(raw []byte) (PushSubscription, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: push subscription is required", ErrValidation)
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: push subscription must be a JSON object", ErrValidation)
	}

	sub := make(PushSubscription, len(trimmed))
	copy(sub, trimmed)
	return sub, nil
}

// Employee is an account known to the directory store.
type Employee struct {
	ID               string
	UserID           string
	Name             string
	Role             Role
	IsActive         bool
	PushSubscription PushSubscription
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsEligibleRecipient reports whether the account may receive WSR notifications.
// Admins, ex-employees and inactive accounts never qualify.
func (e Employee) IsEligibleRecipient() bool {
	return e.Role == RoleEmployee && e.IsActive
}

func (e Employee) HasSubscription() bool {
	return !e.PushSubscription.IsZero()
}

func (e Employee) DisplayName() string {
	if name := strings.TrimSpace(e.Name); name != "" {
		return name
	}
	return strings.TrimSpace(e.UserID)
}
