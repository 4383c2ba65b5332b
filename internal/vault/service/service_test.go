package service_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"covault/internal/vault/invite"
	"covault/internal/vault/metrics"
	"covault/internal/vault/models"
	"covault/internal/vault/service"
	"covault/internal/vault/store"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/audit"
	auditpublisher "covault/pkg/platform/audit/publisher"
	auditmemory "covault/pkg/platform/audit/store/memory"
	"covault/pkg/requestcontext"
)

const (
	alice id.ParticipantID = "alice"
	bob   id.ParticipantID = "bob"
	carol id.ParticipantID = "carol"
	dave  id.ParticipantID = "dave"
)

var baseTime = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type ServiceSuite struct {
	suite.Suite
	blobs   *store.InMemoryBlobStore
	gateway *store.Gateway
	audit   *auditmemory.InMemoryStore
	metrics *metrics.Metrics
	service *service.Service
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.blobs = store.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.gateway = store.NewGateway(s.blobs,
		store.WithLogger(logger),
		store.WithLostUpdateObserver(s.metrics.IncLostUpdates),
	)
	s.audit = auditmemory.NewInMemoryStore()
	s.now = baseTime

	var err error
	s.service, err = service.New(s.gateway,
		service.WithLogger(logger),
		service.WithAuditPublisher(auditpublisher.NewPublisher(s.audit)),
		service.WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
}

// ctx returns a request context pinned to the suite clock.
func (s *ServiceSuite) ctx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithRequestID(ctx, "req-test")
}

func (s *ServiceSuite) createVault(founder id.ParticipantID, mutate func(*models.Settings)) *models.Vault {
	form := models.CreateVaultForm{Name: "Road trip"}
	form.Normalize()
	if mutate != nil {
		mutate(form.Settings)
	}
	v, err := s.service.CreateVault(s.ctx(), founder, form)
	s.Require().NoError(err)
	return v
}

func (s *ServiceSuite) join(v *models.Vault, p id.ParticipantID) {
	_, err := s.service.JoinVault(s.ctx(), p, v.InviteCode, "")
	s.Require().NoError(err)
}

func (s *ServiceSuite) stored(vaultID id.VaultID) *models.Vault {
	b, err := s.blobs.Load(context.Background(), store.DefaultKey)
	s.Require().NoError(err)
	c, err := store.Decode(b)
	s.Require().NoError(err)
	v, err := c.Find(vaultID)
	s.Require().NoError(err)
	return v
}

func (s *ServiceSuite) auditActions(vaultID id.VaultID) []audit.Action {
	events, err := s.audit.ListByVault(context.Background(), vaultID.String())
	s.Require().NoError(err)
	out := make([]audit.Action, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func (s *ServiceSuite) TestNew() {
	_, err := service.New(nil)
	s.Error(err)
}

func (s *ServiceSuite) TestRequiresParticipant() {
	_, err := s.service.ListVaults(s.ctx(), "")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.CreateVault(s.ctx(), "", models.CreateVaultForm{Name: "x"})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestCreateVault() {
	s.Run("stores vault with founder and invite code", func() {
		v := s.createVault(alice, nil)

		s.Len(v.InviteCode, invite.Length)
		s.Equal(alice, v.Creator)
		s.Equal(s.now, v.CreatedAt)
		stored := s.stored(v.ID)
		s.Equal(v.InviteCode, stored.InviteCode)
		s.Equal([]audit.Action{audit.ActionVaultCreated}, s.auditActions(v.ID))
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.VaultsCreated))
	})

	s.Run("invalid form is validation error and saves nothing", func() {
		s.SetupTest()
		_, err := s.service.CreateVault(s.ctx(), alice, models.CreateVaultForm{Name: "   "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.blobs.Load(context.Background(), store.DefaultKey)
		s.Error(err, "nothing persisted")
	})

	s.Run("regenerates colliding invite codes", func() {
		s.SetupTest()
		codes := []string{"SAME01", "SAME01", "OTHER1"}
		calls := 0
		svc, err := service.New(s.gateway, service.WithInviteGenerator(invite.GeneratorFunc(func() (string, error) {
			c := codes[calls]
			calls++
			return c, nil
		})))
		s.Require().NoError(err)

		first, err := svc.CreateVault(s.ctx(), alice, models.CreateVaultForm{Name: "one"})
		s.Require().NoError(err)
		second, err := svc.CreateVault(s.ctx(), bob, models.CreateVaultForm{Name: "two"})
		s.Require().NoError(err)

		s.Equal("SAME01", first.InviteCode)
		s.Equal("OTHER1", second.InviteCode)
	})

	s.Run("gives up when every code collides", func() {
		s.SetupTest()
		svc, err := service.New(s.gateway, service.WithInviteGenerator(invite.GeneratorFunc(func() (string, error) {
			return "STUCK1", nil
		})))
		s.Require().NoError(err)

		_, err = svc.CreateVault(s.ctx(), alice, models.CreateVaultForm{Name: "one"})
		s.Require().NoError(err)
		_, err = svc.CreateVault(s.ctx(), alice, models.CreateVaultForm{Name: "two"})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestListAndGet() {
	first := s.createVault(alice, nil)
	s.now = s.now.Add(time.Minute)
	second := s.createVault(bob, nil)
	s.join(second, alice)
	s.createVault(carol, nil)

	vaults, err := s.service.ListVaults(s.ctx(), alice)
	s.Require().NoError(err)
	s.Require().Len(vaults, 2)
	s.Equal(first.ID, vaults[0].ID)
	s.Equal(second.ID, vaults[1].ID)

	got, err := s.service.GetVault(s.ctx(), alice, second.ID)
	s.Require().NoError(err)
	s.Equal(2, got.Stats.MemberCount)

	_, err = s.service.GetVault(s.ctx(), dave, second.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "invisible vault reads as not found")

	_, err = s.service.GetVault(s.ctx(), alice, id.NewVaultID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRefreshVaultsBypassesCache() {
	v := s.createVault(alice, nil)
	_, err := s.service.ListVaults(s.ctx(), alice)
	s.Require().NoError(err)

	// Another process stores a new collection behind the gateway's back.
	c, err := s.gateway.Reload(context.Background())
	s.Require().NoError(err)
	other := c.Clone()
	form := models.CreateVaultForm{Name: "from elsewhere"}
	form.Normalize()
	other.Add(models.NewVault(alice, form, "ELSE01", s.now.Add(time.Hour)))
	blob, err := store.Encode(other)
	s.Require().NoError(err)
	s.Require().NoError(s.blobs.Save(context.Background(), store.DefaultKey, blob))

	cached, err := s.service.ListVaults(s.ctx(), alice)
	s.Require().NoError(err)
	s.Len(cached, 1)
	s.Equal(v.ID, cached[0].ID)

	fresh, err := s.service.RefreshVaults(s.ctx(), alice)
	s.Require().NoError(err)
	s.Len(fresh, 2)
}

func (s *ServiceSuite) TestDeactivateVault() {
	v := s.createVault(alice, nil)
	s.join(v, bob)

	_, err := s.service.DeactivateVault(s.ctx(), bob, v.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	out, err := s.service.DeactivateVault(s.ctx(), alice, v.ID)
	s.Require().NoError(err)
	s.False(out.IsActive)

	_, err = s.service.DeactivateVault(s.ctx(), alice, v.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	_, err = s.service.Deposit(s.ctx(), alice, v.ID, dec("1"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	vaults, err := s.service.ListVaults(s.ctx(), alice)
	s.Require().NoError(err)
	s.Len(vaults, 1, "inactive vaults stay listed")
}

func (s *ServiceSuite) TestJoinVault() {
	s.Run("code is case-insensitive and trimmed", func() {
		s.SetupTest()
		v := s.createVault(alice, func(st *models.Settings) { st.EntryFee = dec("3") })

		joined, err := s.service.JoinVault(s.ctx(), bob, "  "+strings.ToLower(v.InviteCode)+" ", "Bobby")
		s.Require().NoError(err)
		s.Equal(2, joined.Stats.MemberCount)
		s.True(joined.Balance.Equal(dec("3")))
		m, ok := joined.Member(bob)
		s.Require().True(ok)
		s.Equal("Bobby", m.Nickname)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.MembersJoined))
	})

	s.Run("unknown code", func() {
		s.SetupTest()
		s.createVault(alice, nil)
		_, err := s.service.JoinVault(s.ctx(), bob, "NOPE00", "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty code", func() {
		s.SetupTest()
		_, err := s.service.JoinVault(s.ctx(), bob, "  ", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("double join", func() {
		s.SetupTest()
		v := s.createVault(alice, nil)
		s.join(v, bob)
		_, err := s.service.JoinVault(s.ctx(), bob, v.InviteCode, "")
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyMember))
	})

	s.Run("capacity is never exceeded", func() {
		s.SetupTest()
		v := s.createVault(alice, func(st *models.Settings) { st.MaxMembers = 3 })
		s.join(v, bob)
		s.join(v, carol)

		_, err := s.service.JoinVault(s.ctx(), dave, v.InviteCode, "")
		s.True(dErrors.HasCode(err, dErrors.CodeCapacity))
		s.Len(s.stored(v.ID).Members, 3)
	})
}

func (s *ServiceSuite) TestLedger() {
	v := s.createVault(alice, func(st *models.Settings) {
		limit := dec("5")
		st.WithdrawalLimits.AutoApproveBelow = &limit
	})
	s.join(v, bob)

	tx, err := s.service.Deposit(s.ctx(), bob, v.ID, dec("20"), "my share")
	s.Require().NoError(err)
	s.Equal(models.TransactionDeposit, tx.Kind)

	_, err = s.service.Deposit(s.ctx(), dave, v.ID, dec("1"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Deposit(s.ctx(), alice, id.NewVaultID(), dec("1"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	out, err := s.service.Withdraw(s.ctx(), alice, v.ID, dec("5"), "snacks")
	s.Require().NoError(err)
	s.Equal(models.TransactionWithdrawal, out.Kind)

	_, err = s.service.Withdraw(s.ctx(), alice, v.ID, dec("6"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Withdraw(s.ctx(), bob, v.ID, dec("1"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "guests lack withdraw_direct by default")

	stored := s.stored(v.ID)
	s.True(stored.Balance.Equal(dec("15")))
	s.NoError(stored.CheckLedger())
	s.Equal([]audit.Action{audit.ActionVaultCreated, audit.ActionMemberJoined, audit.ActionDeposited, audit.ActionWithdrawn},
		s.auditActions(v.ID))
}

func (s *ServiceSuite) TestProposals() {
	setup := func(mutate func(*models.Settings)) *models.Vault {
		s.SetupTest()
		v := s.createVault(alice, mutate)
		s.join(v, bob)
		s.join(v, carol)
		_, err := s.service.Deposit(s.ctx(), alice, v.ID, dec("100"), "")
		s.Require().NoError(err)
		return v
	}

	s.Run("amount over balance creates nothing", func() {
		v := setup(nil)
		_, err := s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("100.5"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
		stored := s.stored(v.ID)
		s.Empty(stored.Proposals)
		s.Zero(stored.Stats.ActiveProposals)
	})

	s.Run("proposer can never vote", func() {
		v := setup(nil)
		p, err := s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("10"), "")
		s.Require().NoError(err)
		for _, inFavor := range []bool{true, false} {
			_, err := s.service.CastVote(s.ctx(), alice, v.ID, p.ID, inFavor, "")
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		}
	})

	s.Run("executes exactly once", func() {
		v := setup(nil)
		p, err := s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("10"), "fuel")
		s.Require().NoError(err)
		voted, err := s.service.CastVote(s.ctx(), bob, v.ID, p.ID, true, "")
		s.Require().NoError(err)
		s.Equal(models.ProposalApproved, voted.Status)

		_, err = s.service.ExecuteProposal(s.ctx(), carol, v.ID, p.ID)
		s.Require().NoError(err)
		_, err = s.service.ExecuteProposal(s.ctx(), carol, v.ID, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		stored := s.stored(v.ID)
		withdrawals := 0
		for _, t := range stored.Transactions {
			if t.Kind == models.TransactionWithdrawal {
				withdrawals++
			}
		}
		s.Equal(1, withdrawals)
		s.True(stored.Balance.Equal(dec("90")))
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.ProposalsExecuted))
	})

	s.Run("later joiner can still approve", func() {
		s.SetupTest()
		v := s.createVault(alice, func(st *models.Settings) {
			st.MaxMembers = 5
			st.WithdrawRules.MinVotesRequired = 2
		})
		s.join(v, bob)
		_, err := s.service.Deposit(s.ctx(), alice, v.ID, dec("20"), "")
		s.Require().NoError(err)
		p, err := s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("10"), "")
		s.Require().NoError(err)

		voted, err := s.service.CastVote(s.ctx(), bob, v.ID, p.ID, true, "")
		s.Require().NoError(err)
		s.Equal(models.ProposalPending, voted.Status)

		s.join(v, carol)
		voted, err = s.service.CastVote(s.ctx(), carol, v.ID, p.ID, true, "")
		s.Require().NoError(err)
		s.Equal(models.ProposalApproved, voted.Status)
	})

	s.Run("vote after expiry rejects and persists", func() {
		v := setup(nil)
		p, err := s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("10"), "")
		s.Require().NoError(err)

		s.now = s.now.Add(models.DefaultVotingPeriod + time.Second)
		_, err = s.service.CastVote(s.ctx(), bob, v.ID, p.ID, true, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		stored, err := s.stored(v.ID).Proposal(p.ID)
		s.Require().NoError(err)
		s.Equal(models.ProposalRejected, stored.Status)
		s.Contains(s.auditActions(v.ID), audit.ActionProposalExpired)
	})

	s.Run("cancel", func() {
		v := setup(nil)
		p, err := s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("10"), "")
		s.Require().NoError(err)

		_, err = s.service.CancelProposal(s.ctx(), bob, v.ID, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		out, err := s.service.CancelProposal(s.ctx(), alice, v.ID, p.ID)
		s.Require().NoError(err)
		s.Equal(models.ProposalCancelled, out.Status)
		s.Equal(1, s.stored(v.ID).Stats.CompletedProposals)
	})
}

func (s *ServiceSuite) TestExpireProposals() {
	v := s.createVault(alice, nil)
	s.join(v, bob)
	_, err := s.service.Deposit(s.ctx(), alice, v.ID, dec("10"), "")
	s.Require().NoError(err)
	p, err := s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("1"), "")
	s.Require().NoError(err)

	expired, err := s.service.ExpireProposals(s.ctx(), s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Empty(expired)
	revisionBefore := s.storedRevision()

	expired, err = s.service.ExpireProposals(s.ctx(), p.ExpiresAt)
	s.Require().NoError(err)
	s.Equal([]service.ExpiredProposal{{VaultID: v.ID, ProposalID: p.ID}}, expired)
	s.Equal(revisionBefore+1, s.storedRevision())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.ProposalsExpired))

	stored := s.stored(v.ID)
	s.Zero(stored.Stats.ActiveProposals)
	s.Equal(1, stored.Stats.CompletedProposals)
}

func (s *ServiceSuite) TestExpireProposalsOnDeactivatedVault() {
	v := s.createVault(alice, nil)
	s.join(v, bob)
	_, err := s.service.Deposit(s.ctx(), alice, v.ID, dec("10"), "")
	s.Require().NoError(err)
	p, err := s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("1"), "")
	s.Require().NoError(err)
	_, err = s.service.DeactivateVault(s.ctx(), alice, v.ID)
	s.Require().NoError(err)

	expired, err := s.service.ExpireProposals(s.ctx(), s.now.Add(48*time.Hour))
	s.Require().NoError(err)
	s.Equal([]service.ExpiredProposal{{VaultID: v.ID, ProposalID: p.ID}}, expired)

	stored := s.stored(v.ID)
	got, err := stored.Proposal(p.ID)
	s.Require().NoError(err)
	s.Equal(models.ProposalRejected, got.Status)
	s.Zero(stored.Stats.ActiveProposals)
	s.False(stored.IsActive)
}

func (s *ServiceSuite) storedRevision() int64 {
	b, err := s.blobs.Load(context.Background(), store.DefaultKey)
	s.Require().NoError(err)
	c, err := store.Decode(b)
	s.Require().NoError(err)
	return c.Revision
}

func ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}
