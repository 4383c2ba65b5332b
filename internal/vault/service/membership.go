package service

import (
	"context"

	"covault/internal/vault/invite"
	"covault/internal/vault/models"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/audit"
	"covault/pkg/requestcontext"
)

// JoinVault admits p as a guest of the vault holding code.
func (s *Service) JoinVault(ctx context.Context, p id.ParticipantID, code, nickname string) (*models.Vault, error) {
	var (
		joined *models.Vault
		fee    *models.Transaction
	)
	err := s.run(ctx, "join_vault", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		code = invite.Normalize(code)
		if code == "" {
			return dErrors.New(dErrors.CodeValidation, "invite code is required")
		}

		now := requestcontext.Now(ctx)
		var vaultID id.VaultID
		return s.update(ctx, &vaultID, func(c *models.Collection) error {
			v, err := c.FindByInviteCode(code)
			if err != nil {
				return err
			}
			vaultID = v.ID
			if fee, err = v.Admit(p, models.Truncate(nickname, models.MaxCommentLength), now); err != nil {
				return err
			}
			joined = v
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMembersJoined()
	event := audit.Event{
		Action:      audit.ActionMemberJoined,
		Participant: p,
		VaultID:     joined.ID.String(),
	}
	if fee != nil {
		event.Amount = fee.Amount.String()
	}
	s.logAudit(ctx, event, "member_count", joined.Stats.MemberCount)
	return joined, nil
}
