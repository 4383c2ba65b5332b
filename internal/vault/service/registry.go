package service

import (
	"context"

	"covault/internal/vault/invite"
	"covault/internal/vault/models"
	id "covault/pkg/domain"
	"covault/pkg/platform/audit"
	"covault/pkg/requestcontext"
)

// ListVaults returns the vaults the participant created or belongs to,
// oldest first. It may be served from the read cache.
func (s *Service) ListVaults(ctx context.Context, p id.ParticipantID) ([]*models.Vault, error) {
	var out []*models.Vault
	err := s.run(ctx, "list_vaults", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		c, err := s.gateway.Snapshot(ctx)
		if err != nil {
			return err
		}
		out = c.VisibleTo(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RefreshVaults is ListVaults after re-reading the stored collection.
func (s *Service) RefreshVaults(ctx context.Context, p id.ParticipantID) ([]*models.Vault, error) {
	var out []*models.Vault
	err := s.run(ctx, "refresh_vaults", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		c, err := s.gateway.Reload(ctx)
		if err != nil {
			return err
		}
		out = c.VisibleTo(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetVault returns one vault. Vaults the caller cannot see are reported as
// not found.
func (s *Service) GetVault(ctx context.Context, p id.ParticipantID, vaultID id.VaultID) (*models.Vault, error) {
	var out *models.Vault
	err := s.run(ctx, "get_vault", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		c, err := s.gateway.Snapshot(ctx)
		if err != nil {
			return err
		}
		out, err = c.FindVisible(vaultID, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateVault validates the form and stores a new vault with p as founder.
func (s *Service) CreateVault(ctx context.Context, p id.ParticipantID, form models.CreateVaultForm) (*models.Vault, error) {
	var created *models.Vault
	err := s.run(ctx, "create_vault", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		form.Normalize()
		if err := form.Validate(); err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		var vaultID id.VaultID
		return s.update(ctx, &vaultID, func(c *models.Collection) error {
			code, err := invite.Unique(s.codes, c.InviteCodeTaken)
			if err != nil {
				return err
			}
			created = models.NewVault(p, form, code, now)
			vaultID = created.ID
			c.Add(created)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncVaultsCreated()
	s.logAudit(ctx, audit.Event{
		Action:      audit.ActionVaultCreated,
		Participant: p,
		VaultID:     created.ID.String(),
		Detail:      created.Name,
	}, "category", string(created.Category))
	return created, nil
}

// DeactivateVault closes a vault to further mutation. Founders only.
func (s *Service) DeactivateVault(ctx context.Context, p id.ParticipantID, vaultID id.VaultID) (*models.Vault, error) {
	var out *models.Vault
	err := s.run(ctx, "deactivate_vault", p, func(ctx context.Context) error {
		if err := requireParticipant(p); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		return s.update(ctx, &vaultID, func(c *models.Collection) error {
			v, err := c.Find(vaultID)
			if err != nil {
				return err
			}
			if err := v.Deactivate(p, now); err != nil {
				return err
			}
			out = v
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Event{
		Action:      audit.ActionVaultDeactivated,
		Participant: p,
		VaultID:     vaultID.String(),
	})
	return out, nil
}
