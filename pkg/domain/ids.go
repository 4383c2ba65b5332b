// Package domain holds typed identifiers shared across modules.
//
// Vault, proposal and transaction IDs are UUID-backed and distinct types so the
// compiler rejects passing one where another is expected. Participant keys come
// from an external identity provider and are opaque strings: the core compares
// them but never validates their format.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "covault/pkg/domain-errors"
)

type (
	VaultID       uuid.UUID
	ProposalID    uuid.UUID
	TransactionID uuid.UUID
)

// ParticipantID is the stable key supplied by the identity provider.
type ParticipantID string

func NewVaultID() VaultID             { return VaultID(uuid.New()) }
func NewProposalID() ProposalID       { return ProposalID(uuid.New()) }
func NewTransactionID() TransactionID { return TransactionID(uuid.New()) }

func (id VaultID) String() string       { return uuid.UUID(id).String() }
func (id ProposalID) String() string    { return uuid.UUID(id).String() }
func (id TransactionID) String() string { return uuid.UUID(id).String() }

func (id VaultID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ProposalID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id TransactionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id VaultID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id ProposalID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id TransactionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *VaultID) UnmarshalText(b []byte) error       { return unmarshalUUID((*uuid.UUID)(id), b) }
func (id *ProposalID) UnmarshalText(b []byte) error    { return unmarshalUUID((*uuid.UUID)(id), b) }
func (id *TransactionID) UnmarshalText(b []byte) error { return unmarshalUUID((*uuid.UUID)(id), b) }

func unmarshalUUID(dst *uuid.UUID, b []byte) error {
	return dst.UnmarshalText(b)
}

// ParseVaultID parses a vault ID at a trust boundary.
func ParseVaultID(s string) (VaultID, error) {
	return parseUUID[VaultID](s, "vault")
}

// ParseProposalID parses a proposal ID at a trust boundary.
func ParseProposalID(s string) (ProposalID, error) {
	return parseUUID[ProposalID](s, "proposal")
}

// ParseTransactionID parses a transaction ID at a trust boundary.
func ParseTransactionID(s string) (TransactionID, error) {
	return parseUUID[TransactionID](s, "transaction")
}

// parseUUID rejects empty, malformed and nil UUIDs.
func parseUUID[T ~[16]byte](s, kind string) (T, error) {
	var zero T
	if s == "" {
		return zero, dErrors.Newf(dErrors.CodeValidation, "%s ID is required", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return zero, dErrors.Newf(dErrors.CodeValidation, "invalid %s ID", kind)
	}
	if u == uuid.Nil {
		return zero, dErrors.Newf(dErrors.CodeValidation, "%s ID cannot be nil", kind)
	}
	return T(u), nil
}

// ParseParticipantID trims the key and rejects only the empty value.
func ParseParticipantID(s string) (ParticipantID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "participant identity is required")
	}
	return ParticipantID(s), nil
}

func (p ParticipantID) String() string { return string(p) }

func (p ParticipantID) IsZero() bool { return p == "" }
