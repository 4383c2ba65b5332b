package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
)

// ProposalType names the governed action a proposal requests.
// Only withdrawals have an executing command; the others are modelled for
// forward compatibility and cannot be created.
type ProposalType string

const (
	ProposalWithdrawal   ProposalType = "withdrawal"
	ProposalAddMember    ProposalType = "add_member"
	ProposalRemoveMember ProposalType = "remove_member"
	ProposalChangeRules  ProposalType = "change_rules"
)

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalApproved  ProposalStatus = "approved"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalExecuted  ProposalStatus = "executed"
	ProposalCancelled ProposalStatus = "cancelled"
)

// CanTransitionTo encodes the state machine:
//
//	pending → approved → executed
//	pending → rejected
//	pending → cancelled
func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	switch s {
	case ProposalPending:
		return next == ProposalApproved || next == ProposalRejected || next == ProposalCancelled
	case ProposalApproved:
		return next == ProposalExecuted
	}
	return false
}

// IsOpen reports whether the proposal still counts as active.
func (s ProposalStatus) IsOpen() bool {
	return s == ProposalPending || s == ProposalApproved
}

// Vote is one member's decision on a proposal.
type Vote struct {
	Voter     id.ParticipantID `json:"voter"`
	InFavor   bool             `json:"inFavor"`
	Timestamp time.Time        `json:"timestamp"`
	Comment   string           `json:"comment,omitempty"`
}

// Proposal is a request for a governed action.
//
// Invariants:
//   - status only moves along CanTransitionTo
//   - a voter appears at most once in Votes
//   - the proposer never appears in Votes
//   - ExpiresAt = CreatedAt + withdrawRules.votingPeriod
type Proposal struct {
	ID           id.ProposalID    `json:"id"`
	VaultID      id.VaultID       `json:"vaultId"`
	Proposer     id.ParticipantID `json:"proposer"`
	Type         ProposalType     `json:"type"`
	Amount       decimal.Decimal  `json:"amount"`
	TargetMember id.ParticipantID `json:"targetMember,omitempty"`
	Description  string           `json:"description"`
	Votes        []Vote           `json:"votes"`
	Status       ProposalStatus   `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	ExecutedAt   *time.Time       `json:"executedAt,omitempty"`
	ResolvedAt   *time.Time       `json:"resolvedAt,omitempty"`
}

// IsExpired reports whether a pending proposal's voting window has closed.
func (p *Proposal) IsExpired(now time.Time) bool {
	return p.Status == ProposalPending && !now.Before(p.ExpiresAt)
}

// HasVoted reports whether voter already cast a vote.
func (p *Proposal) HasVoted(voter id.ParticipantID) bool {
	for _, v := range p.Votes {
		if v.Voter == voter {
			return true
		}
	}
	return false
}

func (p *Proposal) transition(next ProposalStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidState, "proposal cannot move from %s to %s", p.Status, next)
	}
	p.Status = next
	switch next {
	case ProposalExecuted:
		p.ExecutedAt = &now
	default:
		p.ResolvedAt = &now
	}
	return nil
}

// Tally summarises the votes on a proposal against the current electorate.
// OpenSeats counts members who could still join with the vote capability.
type Tally struct {
	Eligible  int
	Voted     int
	InFavor   int
	OpenSeats int
}

// Outcome applies the approval rule to a tally.
//
// Approved once in-favor votes reach MinVotesRequired and, when a quorum is
// set, the share of eligible voters who voted meets it. Rejected once approval
// is unreachable even if every remaining eligible voter and every open seat
// votes in favor.
func (r VotingRules) Outcome(t Tally) ProposalStatus {
	quorumMet := true
	if r.QuorumPercentage != nil {
		quorumMet = t.Eligible > 0 && float64(t.Voted)*100 >= *r.QuorumPercentage*float64(t.Eligible)
	}
	if t.InFavor >= r.MinVotesRequired && quorumMet {
		return ProposalApproved
	}

	remaining := max(t.Eligible-t.Voted, 0) + max(t.OpenSeats, 0)
	if t.InFavor+remaining < r.MinVotesRequired {
		return ProposalRejected
	}
	if r.QuorumPercentage != nil && t.Eligible == 0 && t.OpenSeats <= 0 {
		return ProposalRejected
	}
	return ProposalPending
}
