package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"covault/internal/vault/models"
	id "covault/pkg/domain"
	"covault/pkg/platform/audit"
	"covault/pkg/requestcontext"
)

// CreateWithdrawalProposal opens a withdrawal for the members to vote on.
func (s *Service) CreateWithdrawalProposal(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, amount decimal.Decimal, description string) (*models.Proposal, error) {
	var proposal models.Proposal
	err := s.run(ctx, "create_proposal", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		return s.update(ctx, &vaultID, func(c *models.Collection) error {
			v, err := c.Find(vaultID)
			if err != nil {
				return err
			}
			opened, err := v.OpenWithdrawalProposal(p, amount, description, now)
			if err != nil {
				return err
			}
			proposal = *opened
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncProposalsCreated()
	s.logAudit(ctx, audit.Event{
		Action:      audit.ActionProposalCreated,
		Participant: p,
		VaultID:     vaultID.String(),
		ProposalID:  proposal.ID.String(),
		Amount:      proposal.Amount.String(),
	}, "expires_at", proposal.ExpiresAt)
	if proposal.Status == models.ProposalApproved {
		s.logProposalResolved(ctx, &proposal)
	}
	return &proposal, nil
}

// CastVote records p's vote. A vote on a proposal past its voting period
// resolves it to rejected, saves that, and still fails the vote.
func (s *Service) CastVote(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, proposalID id.ProposalID, inFavor bool, comment string) (*models.Proposal, error) {
	var (
		proposal models.Proposal
		expired  bool
	)
	err := s.run(ctx, "cast_vote", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		err := s.update(ctx, &vaultID, func(c *models.Collection) error {
			v, err := c.Find(vaultID)
			if err != nil {
				return err
			}
			voted, err := v.CastVote(p, proposalID, inFavor, comment, now)
			if errors.Is(err, models.ErrProposalExpired) {
				expired = true
				proposal = *voted
				return nil
			}
			if err != nil {
				return err
			}
			proposal = *voted
			return nil
		})
		if err != nil {
			expired = false
			return err
		}
		if expired {
			return models.ErrProposalExpired
		}
		return nil
	})
	if expired {
		s.metrics.AddProposalsExpired(1)
		s.logAudit(ctx, audit.Event{
			Action:      audit.ActionProposalExpired,
			Participant: p,
			VaultID:     vaultID.String(),
			ProposalID:  proposalID.String(),
		})
	}
	if err != nil {
		return nil, err
	}

	s.metrics.IncVotesCast(inFavor)
	s.logAudit(ctx, audit.Event{
		Action:      audit.ActionVoteCast,
		Participant: p,
		VaultID:     vaultID.String(),
		ProposalID:  proposalID.String(),
	}, "in_favor", inFavor)
	if proposal.Status != models.ProposalPending {
		s.logProposalResolved(ctx, &proposal)
	}
	return &proposal, nil
}

// ExecuteProposal pays out an approved proposal. It succeeds at most once per
// proposal.
func (s *Service) ExecuteProposal(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, proposalID id.ProposalID) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.run(ctx, "execute_proposal", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		return s.update(ctx, &vaultID, func(c *models.Collection) error {
			v, err := c.Find(vaultID)
			if err != nil {
				return err
			}
			tx, err = v.ExecuteProposal(p, proposalID, now)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncProposalsExecuted()
	s.logAudit(ctx, audit.Event{
		Action:      audit.ActionProposalExecuted,
		Participant: p,
		VaultID:     vaultID.String(),
		ProposalID:  proposalID.String(),
		Amount:      tx.Amount.String(),
	}, "transaction_id", tx.ID.String())
	return &tx, nil
}

// CancelProposal withdraws a pending proposal. Proposer or founder only.
func (s *Service) CancelProposal(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, proposalID id.ProposalID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := s.run(ctx, "cancel_proposal", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		return s.update(ctx, &vaultID, func(c *models.Collection) error {
			v, err := c.Find(vaultID)
			if err != nil {
				return err
			}
			cancelled, err := v.CancelProposal(p, proposalID, now)
			if err != nil {
				return err
			}
			proposal = *cancelled
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Event{
		Action:      audit.ActionProposalCancelled,
		Participant: p,
		VaultID:     vaultID.String(),
		ProposalID:  proposalID.String(),
	})
	return &proposal, nil
}

// ExpiredProposal identifies one proposal rejected by ExpireProposals.
type ExpiredProposal struct {
	VaultID    id.VaultID
	ProposalID id.ProposalID
}

// ExpireProposals rejects every pending proposal whose voting period ended at
// or before now, across every vault including deactivated ones, in one
// transaction. Nothing is
// saved when no proposal expired.
func (s *Service) ExpireProposals(ctx context.Context, now time.Time) ([]ExpiredProposal, error) {
	var expired []ExpiredProposal
	err := s.run(ctx, "expire_proposals", "", func(ctx context.Context) error {
		var vaultID id.VaultID
		return s.update(ctx, &vaultID, func(c *models.Collection) error {
			for _, v := range c.Vaults {
				for _, pid := range v.ExpirePending(now) {
					expired = append(expired, ExpiredProposal{VaultID: v.ID, ProposalID: pid})
				}
			}
			if len(expired) == 0 {
				return errNoChange
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddProposalsExpired(len(expired))
	for _, e := range expired {
		s.logAudit(ctx, audit.Event{
			Action:     audit.ActionProposalExpired,
			VaultID:    e.VaultID.String(),
			ProposalID: e.ProposalID.String(),
			Timestamp:  now,
		})
	}
	return expired, nil
}

func (s *Service) logProposalResolved(ctx context.Context, p *models.Proposal) {
	action := audit.ActionProposalApproved
	if p.Status == models.ProposalRejected {
		action = audit.ActionProposalRejected
	}
	s.logAudit(ctx, audit.Event{
		Action:      action,
		Participant: p.Proposer,
		VaultID:     p.VaultID.String(),
		ProposalID:  p.ID.String(),
		Amount:      p.Amount.String(),
	}, "votes", len(p.Votes))
}
