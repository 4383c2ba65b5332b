package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"covault/internal/identity"
	"covault/internal/platform/metrics"
	"covault/internal/vault/handler/mocks"
	"covault/internal/vault/models"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
)

type VaultHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestVaultHandlerSuite(t *testing.T) {
	suite.Run(t, new(VaultHandlerSuite))
}

func (s *VaultHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, identity.HeaderResolver{}, logger, metrics.New(prometheus.NewRegistry()))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *VaultHandlerSuite) do(method, path string, body any, participant string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if participant != "" {
		req.Header.Set(identity.HeaderParticipantID, participant)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *VaultHandlerSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func (s *VaultHandlerSuite) TestParticipantRequired() {
	rec := s.do(http.MethodGet, "/vaults", nil, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *VaultHandlerSuite) TestListVaults() {
	s.Run("cached listing", func() {
		s.service.EXPECT().ListVaults(gomock.Any(), id.ParticipantID("alice")).Return(nil, nil)

		rec := s.do(http.MethodGet, "/vaults", nil, "alice")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"vaults":[]}`, rec.Body.String())
	})

	s.Run("refresh bypasses cache", func() {
		s.service.EXPECT().RefreshVaults(gomock.Any(), id.ParticipantID("alice")).Return([]*models.Vault{}, nil)

		rec := s.do(http.MethodGet, "/vaults?refresh=true", nil, "alice")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("persistence failure is 503", func() {
		s.service.EXPECT().ListVaults(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodePersistence, "failed to load vaults"))

		rec := s.do(http.MethodGet, "/vaults", nil, "alice")
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.Equal("persistence_error", s.errorCode(rec))
	})
}

func (s *VaultHandlerSuite) TestCreateVault() {
	s.Run("created", func() {
		form := models.CreateVaultForm{Name: "Trip"}
		form.Normalize()
		vault := models.NewVault("alice", form, "ABC123", testNow)
		want := models.NewCreateVaultForm()
		want.Name = "Trip"
		s.service.EXPECT().CreateVault(gomock.Any(), id.ParticipantID("alice"), want).
			Return(vault, nil)

		rec := s.do(http.MethodPost, "/vaults", map[string]string{"name": "Trip"}, "alice")
		s.Require().Equal(http.StatusCreated, rec.Code)
		var got models.Vault
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal("ABC123", got.InviteCode)
		s.Equal(vault.ID, got.ID)
	})

	s.Run("partial settings keep the defaults for omitted fields", func() {
		var got models.CreateVaultForm
		s.service.EXPECT().CreateVault(gomock.Any(), id.ParticipantID("alice"), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.ParticipantID, form models.CreateVaultForm) (*models.Vault, error) {
				got = form
				return models.NewVault("alice", form, "ABC124", testNow), nil
			})

		body := map[string]any{
			"name":     "Trip",
			"settings": map[string]any{"entryFee": "0.5", "maxMembers": 5},
		}
		rec := s.do(http.MethodPost, "/vaults", body, "alice")
		s.Require().Equal(http.StatusCreated, rec.Code)
		s.Require().NotNil(got.Settings)

		defaults := models.DefaultSettings()
		s.Equal("0.5", got.Settings.EntryFee.String())
		s.Equal(5, got.Settings.MaxMembers)
		s.Equal(defaults.WithdrawRules, got.Settings.WithdrawRules)
		s.Equal(defaults.GuestPermissions, got.Settings.GuestPermissions)
		s.Equal(defaults.AdminPermissions, got.Settings.AdminPermissions)
	})

	s.Run("unknown fields are rejected", func() {
		rec := s.do(http.MethodPost, "/vaults", map[string]string{"title": "Trip"}, "alice")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *VaultHandlerSuite) TestInvalidPathIDs() {
	rec := s.do(http.MethodGet, "/vaults/not-a-uuid", nil, "alice")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_error", s.errorCode(rec))

	rec = s.do(http.MethodPost, "/vaults/"+id.NewVaultID().String()+"/proposals/nope/execute", nil, "alice")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *VaultHandlerSuite) TestJoinVaultErrors() {
	cases := []struct {
		err    error
		status int
	}{
		{dErrors.New(dErrors.CodeNotFound, "invite code not found"), http.StatusNotFound},
		{dErrors.New(dErrors.CodeAlreadyMember, "already a member of this vault"), http.StatusConflict},
		{dErrors.New(dErrors.CodeCapacity, "vault is full"), http.StatusConflict},
	}
	for _, tc := range cases {
		s.service.EXPECT().JoinVault(gomock.Any(), id.ParticipantID("bob"), "abc123", "").Return(nil, tc.err)

		rec := s.do(http.MethodPost, "/vaults/join", JoinVaultRequest{InviteCode: "abc123"}, "bob")
		s.Equal(tc.status, rec.Code, string(dErrors.CodeOf(tc.err)))
	}
}

func (s *VaultHandlerSuite) TestDeposit() {
	vaultID := id.NewVaultID()
	s.service.EXPECT().Deposit(gomock.Any(), id.ParticipantID("alice"), vaultID, decimal.RequireFromString("2.5"), "trip fund").
		Return(&models.Transaction{Kind: models.TransactionDeposit, Amount: decimal.RequireFromString("2.5")}, nil)

	rec := s.do(http.MethodPost, "/vaults/"+vaultID.String()+"/deposits",
		map[string]any{"amount": "2.5", "comment": "trip fund"}, "alice")
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *VaultHandlerSuite) TestCreateProposalInsufficientFunds() {
	vaultID := id.NewVaultID()
	s.service.EXPECT().CreateWithdrawalProposal(gomock.Any(), gomock.Any(), vaultID, gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInsufficientFunds, "amount exceeds vault balance"))

	rec := s.do(http.MethodPost, "/vaults/"+vaultID.String()+"/proposals", map[string]any{"amount": 10}, "alice")
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("insufficient_funds", s.errorCode(rec))
}

func (s *VaultHandlerSuite) TestCastVoteRequiresDecision() {
	path := "/vaults/" + id.NewVaultID().String() + "/proposals/" + id.NewProposalID().String() + "/votes"
	rec := s.do(http.MethodPost, path, map[string]any{"comment": "hmm"}, "bob")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_error", s.errorCode(rec))
}

func (s *VaultHandlerSuite) TestConsistencyFaultIsHidden() {
	vaultID := id.NewVaultID()
	s.service.EXPECT().Withdraw(gomock.Any(), gomock.Any(), vaultID, gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInternalConsistency, "vault x violates ledger invariants"))

	rec := s.do(http.MethodPost, "/vaults/"+vaultID.String()+"/withdrawals", map[string]any{"amount": 1}, "alice")
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "ledger")
}
