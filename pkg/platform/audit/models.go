package audit

import (
	"context"
	"time"

	id "covault/pkg/domain"
)

// Action names a governance event.
type Action string

const (
	// Vault lifecycle
	ActionVaultCreated     Action = "vault_created"
	ActionVaultDeactivated Action = "vault_deactivated"
	ActionMemberJoined     Action = "member_joined"

	// Ledger
	ActionDeposited Action = "deposited"
	ActionWithdrawn Action = "withdrawn"

	// Proposals
	ActionProposalCreated   Action = "proposal_created"
	ActionVoteCast          Action = "vote_cast"
	ActionProposalApproved  Action = "proposal_approved"
	ActionProposalRejected  Action = "proposal_rejected"
	ActionProposalExecuted  Action = "proposal_executed"
	ActionProposalCancelled Action = "proposal_cancelled"
	ActionProposalExpired   Action = "proposal_expired"
)

// Event is emitted after a governance command has been persisted. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action      Action           `json:"action"`
	Participant id.ParticipantID `json:"participant,omitempty"`
	VaultID     string           `json:"vaultId"`
	ProposalID  string           `json:"proposalId,omitempty"`
	Amount      string           `json:"amount,omitempty"`
	Detail      string           `json:"detail,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	// RequestID is the correlation ID of the HTTP request, when there is one.
	RequestID string `json:"requestId,omitempty"`
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher is what services depend on.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
