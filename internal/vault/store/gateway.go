package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"covault/internal/vault/models"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/sentinel"
	"covault/pkg/requestcontext"
)

const defaultTimeout = 5 * time.Second

// Gateway serializes every mutation of the collection through one mutex:
// load, mutate a deep copy, validate, save. A failed mutation leaves the
// stored blob untouched.
//
// Writers in other processes are not reconciled. When the stored revision
// moves between load and save the gateway warns and writes anyway.
type Gateway struct {
	mu      sync.Mutex
	blobs   BlobStore
	key     string
	timeout time.Duration
	logger  *slog.Logger

	onLostUpdate func()

	cache *models.Collection
}

type GatewayOption func(*Gateway)

// WithKey overrides the storage key.
func WithKey(key string) GatewayOption {
	return func(g *Gateway) {
		if key != "" {
			g.key = key
		}
	}
}

// WithTimeout bounds each load/save round trip when the caller's context has
// no deadline.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithLostUpdateObserver registers a callback run whenever a concurrent
// writer is suspected. Used for metrics.
func WithLostUpdateObserver(fn func()) GatewayOption {
	return func(g *Gateway) {
		g.onLostUpdate = fn
	}
}

func NewGateway(blobs BlobStore, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		blobs:   blobs,
		key:     DefaultKey,
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot returns a copy of the collection, served from the read cache when
// one is warm.
func (g *Gateway) Snapshot(ctx context.Context) (*models.Collection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cache != nil {
		return g.cache.Clone(), nil
	}
	c, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	g.cache = c
	return c.Clone(), nil
}

// Reload bypasses the cache and re-reads the stored collection.
func (g *Gateway) Reload(ctx context.Context) (*models.Collection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	g.cache = c
	return c.Clone(), nil
}

// Update runs fn against a deep copy of the stored collection and saves the
// result when fn succeeds and every vault fn changed still balances.
//
// The copy handed to fn is not reused after Update returns, so values taken
// from it may be handed to callers.
func (g *Gateway) Update(ctx context.Context, fn func(*models.Collection) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	current, err := g.load(ctx)
	if err != nil {
		return err
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return err
	}
	if err := working.ValidateChanged(current); err != nil {
		return err
	}

	g.checkRevision(ctx, current.Revision)

	working.Revision = current.Revision + 1
	working.SavedAt = requestcontext.Now(ctx)
	blob, err := Encode(working)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode vaults")
	}
	if err := g.blobs.Save(ctx, g.key, blob); err != nil {
		g.cache = nil
		return dErrors.Wrap(err, dErrors.CodePersistence, "failed to save vaults")
	}
	g.cache = working.Clone()
	return nil
}

// checkRevision re-reads the stored revision right before a save. A moved
// revision means another writer saved since we loaded.
func (g *Gateway) checkRevision(ctx context.Context, loaded int64) {
	stored, err := g.load(ctx)
	if err != nil {
		g.logger.WarnContext(ctx, "could not re-read revision before save", "error", err)
		return
	}
	if stored.Revision == loaded {
		return
	}
	g.logger.WarnContext(ctx, "possible lost update",
		"key", g.key,
		"loaded_revision", loaded,
		"stored_revision", stored.Revision,
	)
	if g.onLostUpdate != nil {
		g.onLostUpdate()
	}
}

func (g *Gateway) load(ctx context.Context) (*models.Collection, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "vault store unavailable: context done")
	}
	blob, err := g.blobs.Load(ctx, g.key)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return models.NewCollection(), nil
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to load vaults")
	}
	c, err := Decode(blob)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "stored vaults are unreadable")
	}
	return c, nil
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}
