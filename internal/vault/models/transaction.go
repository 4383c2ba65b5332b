package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "covault/pkg/domain"
)

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	TransactionDeposit    TransactionKind = "deposit"
	TransactionWithdrawal TransactionKind = "withdrawal"
	TransactionFee        TransactionKind = "fee"
)

// MaxCommentLength bounds transaction comments, proposal descriptions and
// vote comments. Longer input is truncated, not rejected.
const MaxCommentLength = 150

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID          id.TransactionID `json:"id"`
	VaultID     id.VaultID       `json:"vaultId"`
	Kind        TransactionKind  `json:"kind"`
	Amount      decimal.Decimal  `json:"amount"`
	From        id.ParticipantID `json:"from,omitempty"`
	To          id.ParticipantID `json:"to,omitempty"`
	Initiator   id.ParticipantID `json:"initiator"`
	Comment     string           `json:"comment"`
	Timestamp   time.Time        `json:"timestamp"`
	ExternalRef string           `json:"externalRef,omitempty"`
	ProposalID  *id.ProposalID   `json:"proposalId,omitempty"`
}

// signedAmount is the transaction's contribution to the balance.
func (t Transaction) signedAmount() decimal.Decimal {
	if t.Kind == TransactionWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
