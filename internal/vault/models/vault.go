package models

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
)

// Category is a closed enumeration used to group vaults in listings.
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryTravel     Category = "travel"
	CategoryHousehold  Category = "household"
	CategorySavings    Category = "savings"
	CategoryEvent      Category = "event"
	CategoryInvestment Category = "investment"
	CategoryOther      Category = "other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryGeneral, CategoryTravel, CategoryHousehold, CategorySavings,
		CategoryEvent, CategoryInvestment, CategoryOther:
		return true
	}
	return false
}

// ErrProposalExpired is returned by CastVote after it has resolved an expired
// proposal to rejected. The vault has been mutated and should be persisted.
var ErrProposalExpired = dErrors.New(dErrors.CodeInvalidState, "proposal voting period has expired")

// Stats are derived counters kept alongside the ledger.
type Stats struct {
	TotalDeposited     decimal.Decimal `json:"totalDeposited"`
	TotalWithdrawn     decimal.Decimal `json:"totalWithdrawn"`
	MemberCount        int             `json:"memberCount"`
	ActiveProposals    int             `json:"activeProposals"`
	CompletedProposals int             `json:"completedProposals"`
	LastActivity       time.Time       `json:"lastActivity"`
}

// Vault is a named shared pool of funds governed by its members.
//
// Invariants:
//   - Balance == Σ deposits + Σ fees − Σ withdrawals, and Balance >= 0
//   - at least one founder is a member
//   - member identities are unique
//   - Stats.MemberCount == len(Members) <= Settings.MaxMembers
type Vault struct {
	ID           id.VaultID       `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Icon         string           `json:"icon,omitempty"`
	Creator      id.ParticipantID `json:"creator"`
	Balance      decimal.Decimal  `json:"balance"`
	Members      []Member         `json:"members"`
	Settings     Settings         `json:"settings"`
	Proposals    []Proposal       `json:"proposals"`
	Transactions []Transaction    `json:"transactions"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	IsActive     bool             `json:"isActive"`
	InviteCode   string           `json:"inviteCode"`
	Category     Category         `json:"category"`
	Stats        Stats            `json:"stats"`
}

// NewVault builds an active vault with the creator admitted as founder.
// The form must already be normalized and validated.
func NewVault(creator id.ParticipantID, form CreateVaultForm, inviteCode string, now time.Time) *Vault {
	settings := DefaultSettings()
	if form.Settings != nil {
		settings = *form.Settings
	}
	v := &Vault{
		ID:           id.NewVaultID(),
		Name:         form.Name,
		Description:  form.Description,
		Icon:         form.Icon,
		Creator:      creator,
		Balance:      decimal.Zero,
		Settings:     settings,
		Proposals:    []Proposal{},
		Transactions: []Transaction{},
		CreatedAt:    now,
		UpdatedAt:    now,
		IsActive:     true,
		InviteCode:   inviteCode,
		Category:     form.Category,
		Stats: Stats{
			TotalDeposited: decimal.Zero,
			TotalWithdrawn: decimal.Zero,
			LastActivity:   now,
		},
	}
	v.Members = []Member{{
		Identity:        creator,
		Role:            RoleFounder,
		JoinedAt:        now,
		Nickname:        form.Nickname,
		DepositedAmount: decimal.Zero,
		WithdrawnAmount: decimal.Zero,
	}}
	v.Stats.MemberCount = 1
	return v
}

// Member returns the membership record of p.
func (v *Vault) Member(p id.ParticipantID) (*Member, bool) {
	for i := range v.Members {
		if v.Members[i].Identity == p {
			return &v.Members[i], true
		}
	}
	return nil, false
}

func (v *Vault) IsMember(p id.ParticipantID) bool {
	_, ok := v.Member(p)
	return ok
}

// IsVisibleTo reports whether p may see the vault: creators and members only.
func (v *Vault) IsVisibleTo(p id.ParticipantID) bool {
	return v.Creator == p || v.IsMember(p)
}

// Can reports whether member p holds capability c under the vault settings.
func (v *Vault) Can(p id.ParticipantID, c Capability) bool {
	m, ok := v.Member(p)
	if !ok {
		return false
	}
	return v.Settings.Permissions(m.Role).Has(c)
}

// Proposal returns the proposal with the given id.
func (v *Vault) Proposal(pid id.ProposalID) (*Proposal, error) {
	for i := range v.Proposals {
		if v.Proposals[i].ID == pid {
			return &v.Proposals[i], nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "proposal not found")
}

func (v *Vault) ensureActive() error {
	if !v.IsActive {
		return dErrors.New(dErrors.CodeInvalidState, "vault is inactive")
	}
	return nil
}

func (v *Vault) touch(now time.Time) {
	v.UpdatedAt = now
	v.Stats.LastActivity = now
	v.Stats.MemberCount = len(v.Members)
}

func (v *Vault) appendTransaction(t Transaction) Transaction {
	t.ID = id.NewTransactionID()
	t.VaultID = v.ID
	t.Comment = Truncate(t.Comment, MaxCommentLength)
	v.Transactions = append(v.Transactions, t)
	return t
}

// Admit appends p as a guest and settles the entry fee.
func (v *Vault) Admit(p id.ParticipantID, nickname string, now time.Time) (*Transaction, error) {
	if err := v.ensureActive(); err != nil {
		return nil, err
	}
	if v.IsMember(p) {
		return nil, dErrors.New(dErrors.CodeAlreadyMember, "already a member of this vault")
	}
	if len(v.Members) >= v.Settings.MaxMembers {
		return nil, dErrors.Newf(dErrors.CodeCapacity, "vault is full (%d members)", v.Settings.MaxMembers)
	}

	fee := v.Settings.EntryFee
	v.Members = append(v.Members, Member{
		Identity:        p,
		Role:            RoleGuest,
		JoinedAt:        now,
		Nickname:        nickname,
		DepositedAmount: fee,
		WithdrawnAmount: decimal.Zero,
	})

	var tx *Transaction
	if fee.IsPositive() {
		v.Balance = v.Balance.Add(fee)
		v.Stats.TotalDeposited = v.Stats.TotalDeposited.Add(fee)
		t := v.appendTransaction(Transaction{
			Kind:      TransactionFee,
			Amount:    fee,
			From:      p,
			Initiator: p,
			Comment:   "entry fee",
			Timestamp: now,
		})
		tx = &t
	}
	v.touch(now)
	return tx, nil
}

// RecordDeposit credits amount from member p.
func (v *Vault) RecordDeposit(p id.ParticipantID, amount decimal.Decimal, comment string, now time.Time) (Transaction, error) {
	if err := v.ensureActive(); err != nil {
		return Transaction{}, err
	}
	if !amount.IsPositive() {
		return Transaction{}, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	m, ok := v.Member(p)
	if !ok {
		return Transaction{}, dErrors.New(dErrors.CodeForbidden, "only members may deposit")
	}
	if !v.Settings.Permissions(m.Role).Has(CapDeposit) {
		return Transaction{}, dErrors.New(dErrors.CodeForbidden, "deposits are not permitted for this role")
	}

	v.Balance = v.Balance.Add(amount)
	v.Stats.TotalDeposited = v.Stats.TotalDeposited.Add(amount)
	m.DepositedAmount = m.DepositedAmount.Add(amount)
	t := v.appendTransaction(Transaction{
		Kind:      TransactionDeposit,
		Amount:    amount,
		From:      p,
		Initiator: p,
		Comment:   comment,
		Timestamp: now,
	})
	v.touch(now)
	return t, nil
}

// RecordWithdrawal debits amount to member p without a proposal. It is only
// allowed when the withdraw rules do not require voting for this amount.
func (v *Vault) RecordWithdrawal(p id.ParticipantID, amount decimal.Decimal, comment string, now time.Time) (Transaction, error) {
	if err := v.ensureActive(); err != nil {
		return Transaction{}, err
	}
	if !amount.IsPositive() {
		return Transaction{}, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	m, ok := v.Member(p)
	if !ok {
		return Transaction{}, dErrors.New(dErrors.CodeForbidden, "only members may withdraw")
	}
	if !v.Settings.AllowsDirectWithdrawal(amount) {
		return Transaction{}, dErrors.New(dErrors.CodeForbidden, "withdrawal requires an approved proposal")
	}
	if !v.Settings.Permissions(m.Role).Has(CapWithdrawDirect) {
		return Transaction{}, dErrors.New(dErrors.CodeForbidden, "direct withdrawals are not permitted for this role")
	}
	if err := v.checkLimits(amount, now); err != nil {
		return Transaction{}, err
	}
	if amount.GreaterThan(v.Balance) {
		return Transaction{}, dErrors.New(dErrors.CodeInsufficientFunds, "amount exceeds vault balance")
	}

	t := v.debit(m, amount, comment, p, nil, now)
	v.touch(now)
	return t, nil
}

func (v *Vault) debit(to *Member, amount decimal.Decimal, comment string, initiator id.ParticipantID, pid *id.ProposalID, now time.Time) Transaction {
	v.Balance = v.Balance.Sub(amount)
	v.Stats.TotalWithdrawn = v.Stats.TotalWithdrawn.Add(amount)
	to.WithdrawnAmount = to.WithdrawnAmount.Add(amount)
	return v.appendTransaction(Transaction{
		Kind:       TransactionWithdrawal,
		Amount:     amount,
		To:         to.Identity,
		Initiator:  initiator,
		Comment:    comment,
		Timestamp:  now,
		ProposalID: pid,
	})
}

func (v *Vault) checkLimits(amount decimal.Decimal, now time.Time) error {
	limits := v.Settings.WithdrawalLimits
	if limits.PerTransaction != nil && amount.GreaterThan(*limits.PerTransaction) {
		return dErrors.New(dErrors.CodeValidation, "amount exceeds the per-transaction limit")
	}
	if limits.Daily != nil && v.withdrawnOn(now).Add(amount).GreaterThan(*limits.Daily) {
		return dErrors.New(dErrors.CodeValidation, "amount exceeds the daily withdrawal limit")
	}
	return nil
}

// withdrawnOn sums the withdrawals made on the UTC calendar day of now.
func (v *Vault) withdrawnOn(now time.Time) decimal.Decimal {
	y, m, d := now.UTC().Date()
	total := decimal.Zero
	for _, t := range v.Transactions {
		if t.Kind != TransactionWithdrawal {
			continue
		}
		ty, tm, td := t.Timestamp.UTC().Date()
		if ty == y && tm == m && td == d {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// OpenWithdrawalProposal creates a pending withdrawal proposal by p.
// Rules that need no votes approve it immediately.
func (v *Vault) OpenWithdrawalProposal(p id.ParticipantID, amount decimal.Decimal, description string, now time.Time) (*Proposal, error) {
	if err := v.ensureActive(); err != nil {
		return nil, err
	}
	if !v.Can(p, CapProposeWithdrawal) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not permitted to propose withdrawals")
	}
	if !amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if amount.GreaterThan(v.Balance) {
		return nil, dErrors.New(dErrors.CodeInsufficientFunds, "amount exceeds vault balance")
	}
	limit := v.Settings.WithdrawalLimits.PerTransaction
	if limit != nil && amount.GreaterThan(*limit) {
		return nil, dErrors.New(dErrors.CodeValidation, "amount exceeds the per-transaction limit")
	}

	rules := v.Settings.WithdrawRules
	proposal := Proposal{
		ID:          id.NewProposalID(),
		VaultID:     v.ID,
		Proposer:    p,
		Type:        ProposalWithdrawal,
		Amount:      amount,
		Description: Truncate(description, MaxCommentLength),
		Votes:       []Vote{},
		Status:      ProposalPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(rules.VotingPeriod.Duration()),
	}
	if !rules.RequiresVoting || rules.Outcome(v.tally(&proposal)) == ProposalApproved {
		if err := proposal.transition(ProposalApproved, now); err != nil {
			return nil, err
		}
	}
	v.Proposals = append(v.Proposals, proposal)
	v.Stats.ActiveProposals++
	v.touch(now)
	return &v.Proposals[len(v.Proposals)-1], nil
}

// tally counts votes against the live electorate: members holding vote,
// excluding the proposer. New members join as guests, so open seats are
// potential voters only while guests may vote.
func (v *Vault) tally(p *Proposal) Tally {
	var t Tally
	for _, m := range v.Members {
		if m.Identity != p.Proposer && v.Settings.Permissions(m.Role).Has(CapVote) {
			t.Eligible++
		}
	}
	if v.Settings.Permissions(RoleGuest).Has(CapVote) {
		t.OpenSeats = max(v.Settings.MaxMembers-len(v.Members), 0)
	}
	for _, vote := range p.Votes {
		t.Voted++
		if vote.InFavor {
			t.InFavor++
		}
	}
	return t
}

// CastVote records p's vote and resolves the proposal when the outcome is
// decided. A pending proposal past its expiry is rejected first and
// ErrProposalExpired is returned.
func (v *Vault) CastVote(p id.ParticipantID, pid id.ProposalID, inFavor bool, comment string, now time.Time) (*Proposal, error) {
	if err := v.ensureActive(); err != nil {
		return nil, err
	}
	proposal, err := v.Proposal(pid)
	if err != nil {
		return nil, err
	}
	if proposal.Proposer == p {
		return nil, dErrors.New(dErrors.CodeForbidden, "proposers cannot vote on their own proposal")
	}
	if !v.Can(p, CapVote) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not permitted to vote")
	}
	if proposal.IsExpired(now) {
		if err := v.close(proposal, ProposalRejected, now); err != nil {
			return nil, err
		}
		return proposal, ErrProposalExpired
	}
	if proposal.Status != ProposalPending {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "proposal is %s", proposal.Status)
	}
	if proposal.HasVoted(p) {
		return nil, dErrors.New(dErrors.CodeConflict, "vote already cast")
	}

	proposal.Votes = append(proposal.Votes, Vote{
		Voter:     p,
		InFavor:   inFavor,
		Timestamp: now,
		Comment:   Truncate(comment, MaxCommentLength),
	})
	switch v.Settings.WithdrawRules.Outcome(v.tally(proposal)) {
	case ProposalApproved:
		if err := proposal.transition(ProposalApproved, now); err != nil {
			return nil, err
		}
	case ProposalRejected:
		if err := v.close(proposal, ProposalRejected, now); err != nil {
			return nil, err
		}
	}
	v.touch(now)
	return proposal, nil
}

// close moves a pending proposal to a terminal status and updates counters.
func (v *Vault) close(p *Proposal, status ProposalStatus, now time.Time) error {
	if err := p.transition(status, now); err != nil {
		return err
	}
	v.Stats.ActiveProposals--
	v.Stats.CompletedProposals++
	v.touch(now)
	return nil
}

// ExecuteProposal pays out an approved withdrawal proposal to its proposer.
func (v *Vault) ExecuteProposal(p id.ParticipantID, pid id.ProposalID, now time.Time) (Transaction, error) {
	if err := v.ensureActive(); err != nil {
		return Transaction{}, err
	}
	if !v.IsMember(p) {
		return Transaction{}, dErrors.New(dErrors.CodeForbidden, "only members may execute proposals")
	}
	proposal, err := v.Proposal(pid)
	if err != nil {
		return Transaction{}, err
	}
	if proposal.Status != ProposalApproved {
		return Transaction{}, dErrors.Newf(dErrors.CodeInvalidState, "proposal is %s", proposal.Status)
	}
	if proposal.Amount.GreaterThan(v.Balance) {
		return Transaction{}, dErrors.New(dErrors.CodeInsufficientFunds, "amount exceeds vault balance")
	}
	proposer, ok := v.Member(proposal.Proposer)
	if !ok {
		return Transaction{}, dErrors.New(dErrors.CodeInternalConsistency, "proposer is not a member")
	}

	pidCopy := proposal.ID
	t := v.debit(proposer, proposal.Amount, proposal.Description, p, &pidCopy, now)
	if err := proposal.transition(ProposalExecuted, now); err != nil {
		return Transaction{}, err
	}
	v.Stats.ActiveProposals--
	v.Stats.CompletedProposals++
	v.touch(now)
	return t, nil
}

// CancelProposal withdraws a pending proposal. Only its proposer or a founder may.
func (v *Vault) CancelProposal(p id.ParticipantID, pid id.ProposalID, now time.Time) (*Proposal, error) {
	if err := v.ensureActive(); err != nil {
		return nil, err
	}
	proposal, err := v.Proposal(pid)
	if err != nil {
		return nil, err
	}
	m, ok := v.Member(p)
	if !ok || (proposal.Proposer != p && m.Role != RoleFounder) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the proposer or a founder may cancel")
	}
	if proposal.Status != ProposalPending {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "proposal is %s", proposal.Status)
	}
	if err := v.close(proposal, ProposalCancelled, now); err != nil {
		return nil, err
	}
	return proposal, nil
}

// ExpirePending rejects every pending proposal whose voting window has closed
// and returns the ids it rejected. Deactivated vaults are included: their
// pending proposals can no longer be voted on but still expire.
func (v *Vault) ExpirePending(now time.Time) []id.ProposalID {
	var expired []id.ProposalID
	for i := range v.Proposals {
		if !v.Proposals[i].IsExpired(now) {
			continue
		}
		if err := v.close(&v.Proposals[i], ProposalRejected, now); err != nil {
			continue
		}
		expired = append(expired, v.Proposals[i].ID)
	}
	return expired
}

// Deactivate closes the vault to further mutation. Founders only.
func (v *Vault) Deactivate(p id.ParticipantID, now time.Time) error {
	m, ok := v.Member(p)
	if !ok || m.Role != RoleFounder {
		return dErrors.New(dErrors.CodeForbidden, "only a founder may deactivate the vault")
	}
	if err := v.ensureActive(); err != nil {
		return err
	}
	v.IsActive = false
	v.touch(now)
	return nil
}

// CheckLedger verifies the balance identity and membership invariants.
func (v *Vault) CheckLedger() error {
	var errs []error
	sum := decimal.Zero
	for _, t := range v.Transactions {
		if !t.Amount.IsPositive() {
			errs = append(errs, errors.New("non-positive transaction amount"))
		}
		sum = sum.Add(t.signedAmount())
	}
	if !sum.Equal(v.Balance) {
		errs = append(errs, errors.New("balance does not match ledger"))
	}
	if v.Balance.IsNegative() {
		errs = append(errs, errors.New("negative balance"))
	}

	founders := 0
	seen := make(map[id.ParticipantID]struct{}, len(v.Members))
	for _, m := range v.Members {
		if _, dup := seen[m.Identity]; dup {
			errs = append(errs, errors.New("duplicate member identity"))
		}
		seen[m.Identity] = struct{}{}
		if m.Role == RoleFounder {
			founders++
		}
	}
	if founders == 0 {
		errs = append(errs, errors.New("no founder"))
	}
	if v.Stats.MemberCount != len(v.Members) {
		errs = append(errs, errors.New("member count out of sync"))
	}
	if len(v.Members) > v.Settings.MaxMembers {
		errs = append(errs, errors.New("member limit exceeded"))
	}

	if len(errs) > 0 {
		return dErrors.Wrap(errors.Join(errs...), dErrors.CodeInternalConsistency,
			"vault "+v.ID.String()+" violates ledger invariants")
	}
	return nil
}

// Clone returns a deep copy of the vault. Nil and empty slices are kept as
// they are, so an untouched clone is reflect.DeepEqual to the original.
func (v *Vault) Clone() *Vault {
	c := *v
	c.Settings = v.Settings.clone()
	c.Members = slices.Clone(v.Members)
	c.Transactions = slices.Clone(v.Transactions)
	for i, t := range c.Transactions {
		if t.ProposalID != nil {
			pid := *t.ProposalID
			c.Transactions[i].ProposalID = &pid
		}
	}
	c.Proposals = slices.Clone(v.Proposals)
	for i := range c.Proposals {
		p := &c.Proposals[i]
		p.Votes = slices.Clone(p.Votes)
		p.ExecutedAt = cloneTime(p.ExecutedAt)
		p.ResolvedAt = cloneTime(p.ResolvedAt)
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
