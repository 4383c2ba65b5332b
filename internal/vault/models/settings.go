package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	dErrors "covault/pkg/domain-errors"
)

const (
	DefaultMaxMembers   = 10
	DefaultVotingPeriod = 24 * time.Hour
)

// Seconds is a duration serialized as whole seconds.
type Seconds time.Duration

func (s Seconds) Duration() time.Duration { return time.Duration(s) }

func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(time.Duration(s) / time.Second))
}

func (s *Seconds) UnmarshalJSON(b []byte) error {
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = Seconds(time.Duration(n) * time.Second)
	return nil
}

// VotingRules governs whether and how an action is put to a vote.
type VotingRules struct {
	RequiresVoting   bool     `json:"requiresVoting"`
	MinVotesRequired int      `json:"minVotesRequired"`
	VotingPeriod     Seconds  `json:"votingPeriod"`
	QuorumPercentage *float64 `json:"quorumPercentage,omitempty"`
}

func (r VotingRules) validate(field string) error {
	if r.MinVotesRequired < 0 {
		return dErrors.Newf(dErrors.CodeValidation, "%s.minVotesRequired must be non-negative", field)
	}
	if r.RequiresVoting && r.VotingPeriod <= 0 {
		return dErrors.Newf(dErrors.CodeValidation, "%s.votingPeriod must be positive when voting is required", field)
	}
	if r.QuorumPercentage != nil && (*r.QuorumPercentage <= 0 || *r.QuorumPercentage > 100) {
		return dErrors.Newf(dErrors.CodeValidation, "%s.quorumPercentage must be in (0, 100]", field)
	}
	return nil
}

// WithdrawalLimits caps withdrawals. Nil fields are unlimited / disabled.
type WithdrawalLimits struct {
	PerTransaction *decimal.Decimal `json:"perTransaction,omitempty"`
	Daily          *decimal.Decimal `json:"daily,omitempty"`
	// AutoApproveBelow lets withdrawals at or below this amount skip voting.
	AutoApproveBelow *decimal.Decimal `json:"autoApproveBelow,omitempty"`
}

func (l WithdrawalLimits) validate() error {
	limits := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"perTransaction", l.PerTransaction},
		{"daily", l.Daily},
		{"autoApproveBelow", l.AutoApproveBelow},
	}
	for _, lim := range limits {
		if lim.value != nil && lim.value.IsNegative() {
			return dErrors.Newf(dErrors.CodeValidation, "withdrawalLimits.%s must be non-negative", lim.name)
		}
	}
	return nil
}

// Settings are the governance parameters fixed at vault creation.
type Settings struct {
	EntryFee              decimal.Decimal  `json:"entryFee"`
	MaxMembers            int              `json:"maxMembers"`
	AllowGuestDeposits    bool             `json:"allowGuestDeposits"`
	AllowGuestWithdrawals bool             `json:"allowGuestWithdrawals"`
	DepositRules          VotingRules      `json:"depositRules"`
	WithdrawRules         VotingRules      `json:"withdrawRules"`
	AdminPermissions      PermissionSet    `json:"adminPermissions"`
	GuestPermissions      PermissionSet    `json:"guestPermissions"`
	WithdrawalLimits      WithdrawalLimits `json:"withdrawalLimits"`
}

// DefaultSettings returns the settings applied when a creation form omits them.
func DefaultSettings() Settings {
	return Settings{
		EntryFee:              decimal.Zero,
		MaxMembers:            DefaultMaxMembers,
		AllowGuestDeposits:    true,
		AllowGuestWithdrawals: false,
		DepositRules:          VotingRules{RequiresVoting: false},
		WithdrawRules: VotingRules{
			RequiresVoting:   true,
			MinVotesRequired: 1,
			VotingPeriod:     Seconds(DefaultVotingPeriod),
		},
		AdminPermissions: AllCapabilities.Without(CapChangeRules),
		GuestPermissions: NewPermissionSet(CapDeposit, CapVote),
	}
}

// Validate checks the numeric invariants of the settings.
func (s Settings) Validate() error {
	if s.EntryFee.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "entryFee must be non-negative")
	}
	if s.MaxMembers < 1 {
		return dErrors.New(dErrors.CodeValidation, "maxMembers must be at least 1")
	}
	if err := s.DepositRules.validate("depositRules"); err != nil {
		return err
	}
	if err := s.WithdrawRules.validate("withdrawRules"); err != nil {
		return err
	}
	return s.WithdrawalLimits.validate()
}

// Permissions returns the capabilities granted to a role under these settings.
func (s Settings) Permissions(role Role) PermissionSet {
	switch role {
	case RoleFounder:
		return AllCapabilities
	case RoleAdmin:
		return s.AdminPermissions
	case RoleGuest:
		p := s.GuestPermissions
		if !s.AllowGuestDeposits {
			p = p.Without(CapDeposit)
		}
		if !s.AllowGuestWithdrawals {
			p = p.Without(CapWithdrawDirect)
		}
		return p
	}
	return 0
}

// AllowsDirectWithdrawal reports whether amount may bypass the proposal engine.
func (s Settings) AllowsDirectWithdrawal(amount decimal.Decimal) bool {
	if !s.WithdrawRules.RequiresVoting {
		return true
	}
	limit := s.WithdrawalLimits.AutoApproveBelow
	return limit != nil && amount.LessThanOrEqual(*limit)
}

func (s Settings) clone() Settings {
	c := s
	c.DepositRules.QuorumPercentage = cloneFloat(s.DepositRules.QuorumPercentage)
	c.WithdrawRules.QuorumPercentage = cloneFloat(s.WithdrawRules.QuorumPercentage)
	c.WithdrawalLimits = WithdrawalLimits{
		PerTransaction:   cloneDecimal(s.WithdrawalLimits.PerTransaction),
		Daily:            cloneDecimal(s.WithdrawalLimits.Daily),
		AutoApproveBelow: cloneDecimal(s.WithdrawalLimits.AutoApproveBelow),
	}
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
