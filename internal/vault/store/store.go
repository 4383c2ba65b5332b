// Package store persists the vault collection as a single opaque blob.
//
// A BlobStore backend (memory, Postgres, Redis or MinIO) holds the encoded
// collection under one fixed key. The Gateway layers the load, mutate,
// validate and save cycle on top of it.
package store

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks BlobStore

import (
	"context"
	"encoding/json"
	"fmt"

	"covault/internal/vault/models"
)

// DefaultKey is the storage key of the vault collection.
const DefaultKey = "covault.vaults.v1"

// BlobStore loads and saves opaque blobs by key.
// Load returns sentinel.ErrNotFound when nothing is stored under key.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
}

// Encode serializes a collection.
func Encode(c *models.Collection) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode vault collection: %w", err)
	}
	return b, nil
}

// Decode parses a collection. An empty blob decodes to an empty collection.
func Decode(b []byte) (*models.Collection, error) {
	c := models.NewCollection()
	if len(b) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("decode vault collection: %w", err)
	}
	if c.Vaults == nil {
		c.Vaults = []*models.Vault{}
	}
	return c, nil
}
