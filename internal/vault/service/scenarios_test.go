package service_test

import (
	"time"

	"covault/internal/vault/models"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/audit"
)

// TestSharedTripFund walks a vault from creation through an executed
// withdrawal, checking the ledger after every step.
func (s *ServiceSuite) TestSharedTripFund() {
	v := s.createVault(alice, func(st *models.Settings) {
		st.EntryFee = dec("0.5")
		st.MaxMembers = 5
	})
	s.True(v.Balance.IsZero())
	s.Require().Len(v.Members, 1)
	s.Equal(models.RoleFounder, v.Members[0].Role)
	s.Len(v.InviteCode, 6)
	s.Zero(v.Stats.ActiveProposals)

	joined, err := s.service.JoinVault(s.ctx(), bob, v.InviteCode, "")
	s.Require().NoError(err)
	s.True(joined.Balance.Equal(dec("0.5")))
	s.Equal(2, joined.Stats.MemberCount)
	s.Require().Len(joined.Transactions, 1)
	s.Equal(models.TransactionFee, joined.Transactions[0].Kind)
	s.True(joined.Transactions[0].Amount.Equal(dec("0.5")))
	b, ok := joined.Member(bob)
	s.Require().True(ok)
	s.Equal(models.RoleGuest, b.Role)

	_, err = s.service.Deposit(s.ctx(), alice, v.ID, dec("2.0"), "trip fund")
	s.Require().NoError(err)
	stored := s.stored(v.ID)
	s.True(stored.Balance.Equal(dec("2.5")))
	s.True(stored.Stats.TotalDeposited.Equal(dec("2.5")))
	s.Len(stored.Transactions, 2)
	s.Equal("trip fund", stored.Transactions[1].Comment)

	_, err = s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("10.0"), "too much")
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	stored = s.stored(v.ID)
	s.Empty(stored.Proposals)
	s.Zero(stored.Stats.ActiveProposals)

	p, err := s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("2.0"), "fuel")
	s.Require().NoError(err)
	s.Equal(models.ProposalPending, p.Status)
	s.Equal(s.now.Add(86400*time.Second), p.ExpiresAt)
	s.Equal(1, s.stored(v.ID).Stats.ActiveProposals)

	_, err = s.service.CastVote(s.ctx(), alice, v.ID, p.ID, true, "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	voted, err := s.service.CastVote(s.ctx(), bob, v.ID, p.ID, true, "ok")
	s.Require().NoError(err)
	s.Equal(models.ProposalApproved, voted.Status)

	tx, err := s.service.ExecuteProposal(s.ctx(), alice, v.ID, p.ID)
	s.Require().NoError(err)
	s.Equal(models.TransactionWithdrawal, tx.Kind)
	s.True(tx.Amount.Equal(dec("2.0")))
	s.Require().NotNil(tx.ProposalID)
	s.Equal(p.ID, *tx.ProposalID)

	stored = s.stored(v.ID)
	s.True(stored.Balance.Equal(dec("0.5")))
	s.NoError(stored.CheckLedger())
	executed, err := stored.Proposal(p.ID)
	s.Require().NoError(err)
	s.Equal(models.ProposalExecuted, executed.Status)
	s.Zero(stored.Stats.ActiveProposals)

	s.Equal([]audit.Action{
		audit.ActionVaultCreated,
		audit.ActionMemberJoined,
		audit.ActionDeposited,
		audit.ActionProposalCreated,
		audit.ActionVoteCast,
		audit.ActionProposalApproved,
		audit.ActionProposalExecuted,
	}, s.auditActions(v.ID))
}

// TestBalanceIdentityHolds replays a mixed workload and checks the ledger
// identity on the persisted state.
func (s *ServiceSuite) TestBalanceIdentityHolds() {
	v := s.createVault(alice, func(st *models.Settings) {
		st.EntryFee = dec("1.25")
		st.WithdrawRules.RequiresVoting = false
	})
	s.join(v, bob)
	s.join(v, carol)

	for _, amount := range []string{"10", "0.01", "3.333"} {
		_, err := s.service.Deposit(s.ctx(), bob, v.ID, dec(amount), "")
		s.Require().NoError(err)
	}
	_, err := s.service.Withdraw(s.ctx(), alice, v.ID, dec("4.5"), "")
	s.Require().NoError(err)
	_, err = s.service.Withdraw(s.ctx(), alice, v.ID, dec("1000"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

	p, err := s.service.CreateWithdrawalProposal(s.ctx(), alice, v.ID, dec("2"), "")
	s.Require().NoError(err)
	s.Equal(models.ProposalApproved, p.Status, "no voting required")
	_, err = s.service.ExecuteProposal(s.ctx(), alice, v.ID, p.ID)
	s.Require().NoError(err)

	stored := s.stored(v.ID)
	s.NoError(stored.CheckLedger())
	// 2.5 fees + 13.343 deposits - 6.5 withdrawals
	s.True(stored.Balance.Equal(dec("9.343")), stored.Balance.String())
	s.True(stored.Stats.TotalWithdrawn.Equal(dec("6.5")))
}
