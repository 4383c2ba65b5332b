// Package service implements the vault governance commands: the registry,
// membership, the ledger and the proposal engine.
//
// Every mutating command is one gateway transaction. The domain rules live on
// the models; this layer resolves the caller, runs the mutation, and emits
// logs, metrics and audit events after the save succeeds.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"covault/internal/vault/invite"
	"covault/internal/vault/metrics"
	"covault/internal/vault/models"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/audit"
	"covault/pkg/requestcontext"
)

const tracerName = "covault/vault"

// Gateway is the persistence port: a cached read and a serialized
// load-mutate-save transaction.
type Gateway interface {
	Snapshot(ctx context.Context) (*models.Collection, error)
	Reload(ctx context.Context) (*models.Collection, error)
	Update(ctx context.Context, fn func(*models.Collection) error) error
}

type Service struct {
	gateway        Gateway
	codes          invite.Generator
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithInviteGenerator replaces the crypto-random invite code source.
func WithInviteGenerator(gen invite.Generator) Option {
	return func(s *Service) {
		if gen != nil {
			s.codes = gen
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func New(gateway Gateway, opts ...Option) (*Service, error) {
	if gateway == nil {
		return nil, errors.New("vault gateway is required")
	}
	s := &Service{
		gateway: gateway,
		codes:   invite.Random{},
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// errNoChange aborts an Update without saving and without failing the command.
var errNoChange = errors.New("no change")

// run wraps a command in a span and records its latency.
func (s *Service) run(ctx context.Context, command string, p id.ParticipantID, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "vault."+command, trace.WithAttributes(
		attribute.String("covault.participant", p.String()),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	s.metrics.ObserveCommand(command, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	return err
}

// update runs one gateway transaction for a command touching *vaultID. The
// pointer lets commands that discover the vault inside fn report it.
func (s *Service) update(ctx context.Context, vaultID *id.VaultID, fn func(*models.Collection) error) error {
	err := s.gateway.Update(ctx, fn)
	if errors.Is(err, errNoChange) {
		return nil
	}
	if dErrors.HasCode(err, dErrors.CodeInternalConsistency) {
		args := []any{
			"vault_id", vaultID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		}
		var fault *models.LedgerFault
		if errors.As(err, &fault) {
			faulty := make([]string, len(fault.VaultIDs))
			for i, v := range fault.VaultIDs {
				faulty[i] = v.String()
			}
			args = append(args, "faulty_vault_ids", faulty)
		}
		s.logger.ErrorContext(ctx, "ledger invariant violated, command aborted", args...)
	}
	return err
}

func requireParticipant(p id.ParticipantID) error {
	if p.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "participant identity is required")
	}
	return nil
}

// logAudit logs a governance event and forwards it to the audit publisher.
// Publisher failures are logged and never fail the command.
func (s *Service) logAudit(ctx context.Context, event audit.Event, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	event.RequestID = requestID

	args := append(attributes,
		"event", string(event.Action),
		"log_type", "audit",
		"vault_id", event.VaultID,
		"participant", event.Participant.String(),
	)
	if event.ProposalID != "" {
		args = append(args, "proposal_id", event.ProposalID)
	}
	if requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, string(event.Action), args...)

	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event",
			"event", string(event.Action),
			"vault_id", event.VaultID,
			"error", err,
		)
	}
}
