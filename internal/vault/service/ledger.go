package service

import (
	"context"

	"github.com/shopspring/decimal"

	"covault/internal/vault/models"
	id "covault/pkg/domain"
	"covault/pkg/platform/audit"
	"covault/pkg/requestcontext"
)

// Deposit credits amount from member p.
func (s *Service) Deposit(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, amount decimal.Decimal, comment string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.run(ctx, "deposit", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		return s.update(ctx, &vaultID, func(c *models.Collection) error {
			v, err := c.Find(vaultID)
			if err != nil {
				return err
			}
			tx, err = v.RecordDeposit(p, amount, comment, now)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDeposits()
	s.logAudit(ctx, audit.Event{
		Action:      audit.ActionDeposited,
		Participant: p,
		VaultID:     vaultID.String(),
		Amount:      tx.Amount.String(),
	}, "transaction_id", tx.ID.String())
	return &tx, nil
}

// Withdraw debits amount to p without a proposal, when the vault's withdraw
// rules allow it.
func (s *Service) Withdraw(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, amount decimal.Decimal, comment string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.run(ctx, "withdraw", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		return s.update(ctx, &vaultID, func(c *models.Collection) error {
			v, err := c.Find(vaultID)
			if err != nil {
				return err
			}
			tx, err = v.RecordWithdrawal(p, amount, comment, now)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncWithdrawals()
	s.logAudit(ctx, audit.Event{
		Action:      audit.ActionWithdrawn,
		Participant: p,
		VaultID:     vaultID.String(),
		Amount:      tx.Amount.String(),
	}, "transaction_id", tx.ID.String())
	return &tx, nil
}
