package models

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
)

// Collection is the persisted unit: every vault, saved as one blob.
type Collection struct {
	// Revision counts successful saves. It is used to detect concurrent
	// writers, never to reject a write.
	Revision int64     `json:"revision"`
	SavedAt  time.Time `json:"savedAt"`
	Vaults   []*Vault  `json:"vaults"`
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{Vaults: []*Vault{}}
}

// Find returns the vault with the given id.
func (c *Collection) Find(vaultID id.VaultID) (*Vault, error) {
	for _, v := range c.Vaults {
		if v.ID == vaultID {
			return v, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "vault not found")
}

// FindVisible returns the vault only if p may see it.
func (c *Collection) FindVisible(vaultID id.VaultID, p id.ParticipantID) (*Vault, error) {
	v, err := c.Find(vaultID)
	if err != nil {
		return nil, err
	}
	if !v.IsVisibleTo(p) {
		return nil, dErrors.New(dErrors.CodeNotFound, "vault not found")
	}
	return v, nil
}

// FindByInviteCode matches codes case-insensitively.
func (c *Collection) FindByInviteCode(code string) (*Vault, error) {
	for _, v := range c.Vaults {
		if strings.EqualFold(v.InviteCode, code) {
			return v, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "invite code not found")
}

// InviteCodeTaken reports whether any vault already uses code.
func (c *Collection) InviteCodeTaken(code string) bool {
	_, err := c.FindByInviteCode(code)
	return err == nil
}

// VisibleTo returns the vaults p created or belongs to, oldest first.
func (c *Collection) VisibleTo(p id.ParticipantID) []*Vault {
	out := make([]*Vault, 0)
	for _, v := range c.Vaults {
		if v.IsVisibleTo(p) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (c *Collection) Add(v *Vault) {
	c.Vaults = append(c.Vaults, v)
}

// LedgerFault reports which vaults failed their ledger invariants. It wraps
// an InternalConsistency domain error.
type LedgerFault struct {
	VaultIDs []id.VaultID
	err      error
}

func (f *LedgerFault) Error() string { return f.err.Error() }
func (f *LedgerFault) Unwrap() error { return f.err }

// Validate checks the ledger invariants of every vault.
func (c *Collection) Validate() error {
	return c.ValidateChanged(nil)
}

// ValidateChanged checks only the vaults that are new or differ from their
// copy in before, so a vault broken elsewhere does not block commands on the
// others. A nil before checks every vault.
func (c *Collection) ValidateChanged(before *Collection) error {
	prev := make(map[id.VaultID]*Vault)
	if before != nil {
		for _, v := range before.Vaults {
			prev[v.ID] = v
		}
	}

	var (
		errs []error
		ids  []id.VaultID
	)
	for _, v := range c.Vaults {
		if old, ok := prev[v.ID]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		if err := v.CheckLedger(); err != nil {
			errs = append(errs, err)
			ids = append(ids, v.ID)
		}
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return &LedgerFault{VaultIDs: ids, err: errs[0]}
	}
	return &LedgerFault{
		VaultIDs: ids,
		err:      dErrors.Wrap(errors.Join(errs...), dErrors.CodeInternalConsistency, "collection violates ledger invariants"),
	}
}

// Clone returns a deep copy.
func (c *Collection) Clone() *Collection {
	out := &Collection{
		Revision: c.Revision,
		SavedAt:  c.SavedAt,
		Vaults:   make([]*Vault, len(c.Vaults)),
	}
	for i, v := range c.Vaults {
		out.Vaults[i] = v.Clone()
	}
	return out
}
