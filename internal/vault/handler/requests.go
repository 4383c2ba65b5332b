package handler

import (
	"github.com/shopspring/decimal"

	"covault/internal/vault/models"
	dErrors "covault/pkg/domain-errors"
)

// JoinVaultRequest redeems an invite code.
type JoinVaultRequest struct {
	InviteCode string `json:"inviteCode"`
	Nickname   string `json:"nickname,omitempty"`
}

// MoneyRequest is the body of deposits and direct withdrawals.
type MoneyRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Comment string          `json:"comment,omitempty"`
}

// ProposalRequest opens a withdrawal proposal.
type ProposalRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// VoteRequest casts a vote. InFavor is required.
type VoteRequest struct {
	InFavor *bool  `json:"inFavor"`
	Comment string `json:"comment,omitempty"`
}

func (r VoteRequest) Validate() error {
	if r.InFavor == nil {
		return dErrors.New(dErrors.CodeValidation, "inFavor is required")
	}
	return nil
}

// VaultListResponse wraps vault listings.
type VaultListResponse struct {
	Vaults []*models.Vault `json:"vaults"`
}
