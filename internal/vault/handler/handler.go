package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"covault/internal/identity"
	"covault/internal/platform/metrics"
	"covault/internal/platform/middleware"
	"covault/internal/vault/models"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/httputil"
	"covault/pkg/platform/middleware/metadata"
	"covault/pkg/platform/middleware/requesttime"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the vault commands exposed over HTTP.
type Service interface {
	ListVaults(ctx context.Context, p id.ParticipantID) ([]*models.Vault, error)
	RefreshVaults(ctx context.Context, p id.ParticipantID) ([]*models.Vault, error)
	GetVault(ctx context.Context, p id.ParticipantID, vaultID id.VaultID) (*models.Vault, error)
	CreateVault(ctx context.Context, p id.ParticipantID, form models.CreateVaultForm) (*models.Vault, error)
	DeactivateVault(ctx context.Context, p id.ParticipantID, vaultID id.VaultID) (*models.Vault, error)
	JoinVault(ctx context.Context, p id.ParticipantID, code, nickname string) (*models.Vault, error)
	Deposit(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, amount decimal.Decimal, comment string) (*models.Transaction, error)
	Withdraw(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, amount decimal.Decimal, comment string) (*models.Transaction, error)
	CreateWithdrawalProposal(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, amount decimal.Decimal, description string) (*models.Proposal, error)
	CastVote(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, proposalID id.ProposalID, inFavor bool, comment string) (*models.Proposal, error)
	ExecuteProposal(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, proposalID id.ProposalID) (*models.Transaction, error)
	CancelProposal(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, proposalID id.ProposalID) (*models.Proposal, error)
}

// Handler serves the vault routes.
type Handler struct {
	logger   *slog.Logger
	vaults   Service
	metrics  *metrics.Metrics
	resolver identity.Resolver
}

// New creates a vault Handler.
func New(vaults Service, resolver identity.Resolver, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		vaults:   vaults,
		metrics:  m,
		resolver: resolver,
	}
}

// Register registers the vault routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	vaultRouter := chi.NewRouter()
	vaultRouter.Use(middleware.Recovery(h.logger))
	vaultRouter.Use(middleware.RequestID)
	vaultRouter.Use(metadata.ClientMetadata)
	vaultRouter.Use(requesttime.Middleware)
	vaultRouter.Use(middleware.Logger(h.logger))
	vaultRouter.Use(middleware.LatencyMiddleware(h.metrics))
	vaultRouter.Use(middleware.ContentTypeJSON)
	vaultRouter.Use(middleware.RequireParticipant(h.resolver, h.logger))

	vaultRouter.Get("/vaults", h.handleListVaults)
	vaultRouter.Post("/vaults", h.handleCreateVault)
	vaultRouter.Post("/vaults/join", h.handleJoinVault)
	vaultRouter.Route("/vaults/{vaultID}", func(r chi.Router) {
		r.Get("/", h.handleGetVault)
		r.Post("/deactivate", h.handleDeactivateVault)
		r.Post("/deposits", h.handleDeposit)
		r.Post("/withdrawals", h.handleWithdraw)
		r.Post("/proposals", h.handleCreateProposal)
		r.Post("/proposals/{proposalID}/votes", h.handleCastVote)
		r.Post("/proposals/{proposalID}/execute", h.handleExecuteProposal)
		r.Post("/proposals/{proposalID}/cancel", h.handleCancelProposal)
	})

	r.Mount("/", vaultRouter)
}

func (h *Handler) handleListVaults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := middleware.GetParticipant(r)

	list := h.vaults.ListVaults
	if r.URL.Query().Get("refresh") == "true" {
		list = h.vaults.RefreshVaults
	}
	vaults, err := list(ctx, p)
	if err != nil {
		h.writeError(w, r, "failed to list vaults", err)
		return
	}
	if vaults == nil {
		vaults = []*models.Vault{}
	}
	httputil.WriteJSON(w, http.StatusOK, VaultListResponse{Vaults: vaults})
}

func (h *Handler) handleCreateVault(w http.ResponseWriter, r *http.Request) {
	form := models.NewCreateVaultForm()
	if err := httputil.DecodeJSON(r, &form); err != nil {
		h.writeError(w, r, "invalid create vault request", err)
		return
	}
	v, err := h.vaults.CreateVault(r.Context(), middleware.GetParticipant(r), form)
	if err != nil {
		h.writeError(w, r, "failed to create vault", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleGetVault(w http.ResponseWriter, r *http.Request) {
	vaultID, err := id.ParseVaultID(chi.URLParam(r, "vaultID"))
	if err != nil {
		h.writeError(w, r, "invalid vault id", err)
		return
	}
	v, err := h.vaults.GetVault(r.Context(), middleware.GetParticipant(r), vaultID)
	if err != nil {
		h.writeError(w, r, "failed to get vault", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleDeactivateVault(w http.ResponseWriter, r *http.Request) {
	vaultID, err := id.ParseVaultID(chi.URLParam(r, "vaultID"))
	if err != nil {
		h.writeError(w, r, "invalid vault id", err)
		return
	}
	v, err := h.vaults.DeactivateVault(r.Context(), middleware.GetParticipant(r), vaultID)
	if err != nil {
		h.writeError(w, r, "failed to deactivate vault", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleJoinVault(w http.ResponseWriter, r *http.Request) {
	var req JoinVaultRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "invalid join request", err)
		return
	}
	v, err := h.vaults.JoinVault(r.Context(), middleware.GetParticipant(r), req.InviteCode, req.Nickname)
	if err != nil {
		h.writeError(w, r, "failed to join vault", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	h.handleMoney(w, r, "deposit", h.vaults.Deposit)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleMoney(w, r, "withdrawal", h.vaults.Withdraw)
}

type moneyCommand func(ctx context.Context, p id.ParticipantID, vaultID id.VaultID, amount decimal.Decimal, comment string) (*models.Transaction, error)

func (h *Handler) handleMoney(w http.ResponseWriter, r *http.Request, name string, command moneyCommand) {
	vaultID, err := id.ParseVaultID(chi.URLParam(r, "vaultID"))
	if err != nil {
		h.writeError(w, r, "invalid vault id", err)
		return
	}
	var req MoneyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "invalid "+name+" request", err)
		return
	}
	tx, err := command(r.Context(), middleware.GetParticipant(r), vaultID, req.Amount, req.Comment)
	if err != nil {
		h.writeError(w, r, name+" failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tx)
}

func (h *Handler) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	vaultID, err := id.ParseVaultID(chi.URLParam(r, "vaultID"))
	if err != nil {
		h.writeError(w, r, "invalid vault id", err)
		return
	}
	var req ProposalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "invalid proposal request", err)
		return
	}
	proposal, err := h.vaults.CreateWithdrawalProposal(r.Context(), middleware.GetParticipant(r), vaultID, req.Amount, req.Description)
	if err != nil {
		h.writeError(w, r, "failed to create proposal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, proposal)
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	vaultID, proposalID, err := proposalPath(r)
	if err != nil {
		h.writeError(w, r, "invalid proposal path", err)
		return
	}
	var req VoteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "invalid vote request", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, r, "invalid vote request", err)
		return
	}
	proposal, err := h.vaults.CastVote(r.Context(), middleware.GetParticipant(r), vaultID, proposalID, *req.InFavor, req.Comment)
	if err != nil {
		h.writeError(w, r, "failed to cast vote", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposal)
}

func (h *Handler) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	vaultID, proposalID, err := proposalPath(r)
	if err != nil {
		h.writeError(w, r, "invalid proposal path", err)
		return
	}
	tx, err := h.vaults.ExecuteProposal(r.Context(), middleware.GetParticipant(r), vaultID, proposalID)
	if err != nil {
		h.writeError(w, r, "failed to execute proposal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tx)
}

func (h *Handler) handleCancelProposal(w http.ResponseWriter, r *http.Request) {
	vaultID, proposalID, err := proposalPath(r)
	if err != nil {
		h.writeError(w, r, "invalid proposal path", err)
		return
	}
	proposal, err := h.vaults.CancelProposal(r.Context(), middleware.GetParticipant(r), vaultID, proposalID)
	if err != nil {
		h.writeError(w, r, "failed to cancel proposal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposal)
}

func proposalPath(r *http.Request) (id.VaultID, id.ProposalID, error) {
	vaultID, err := id.ParseVaultID(chi.URLParam(r, "vaultID"))
	if err != nil {
		return id.VaultID{}, id.ProposalID{}, err
	}
	proposalID, err := id.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		return id.VaultID{}, id.ProposalID{}, err
	}
	return vaultID, proposalID, nil
}

// writeError logs at warn for caller mistakes and at error for server-side
// failures, then writes the mapped response.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	args := []any{
		"error", err.Error(),
		"code", string(dErrors.CodeOf(err)),
		"request_id", middleware.GetRequestID(ctx),
	}
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, args...)
	} else {
		h.logger.WarnContext(ctx, msg, args...)
	}
	httputil.WriteError(w, err)
}

// Health reports liveness for load balancers.
func Health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
