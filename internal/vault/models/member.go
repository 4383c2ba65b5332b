package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "covault/pkg/domain"
)

// Role is a member's standing within one vault.
type Role string

const (
	RoleFounder Role = "founder"
	RoleAdmin   Role = "admin"
	RoleGuest   Role = "guest"
)

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	switch r {
	case RoleFounder, RoleAdmin, RoleGuest:
		return true
	}
	return false
}

// Member is a participant's relationship to one vault.
type Member struct {
	Identity        id.ParticipantID `json:"identity"`
	Role            Role             `json:"role"`
	JoinedAt        time.Time        `json:"joinedAt"`
	Nickname        string           `json:"nickname,omitempty"`
	DepositedAmount decimal.Decimal  `json:"depositedAmount"`
	WithdrawnAmount decimal.Decimal  `json:"withdrawnAmount"`
}
