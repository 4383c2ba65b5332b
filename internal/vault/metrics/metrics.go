package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for vault governance commands.
// All methods are nil-safe so services can run without metrics.
type Metrics struct {
	VaultsCreated     prometheus.Counter
	MembersJoined     prometheus.Counter
	Deposits          prometheus.Counter
	Withdrawals       prometheus.Counter
	ProposalsCreated  prometheus.Counter
	VotesCast         *prometheus.CounterVec
	ProposalsExecuted prometheus.Counter
	ProposalsExpired  prometheus.Counter

	// Lost updates suspected by the persistence gateway
	LostUpdates prometheus.Counter

	// Command latency including the store round trip
	CommandLatency *prometheus.HistogramVec
}

// New registers the vault metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		VaultsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "covault_vaults_created_total",
			Help: "Total number of vaults created",
		}),
		MembersJoined: f.NewCounter(prometheus.CounterOpts{
			Name: "covault_members_joined_total",
			Help: "Total number of members admitted by invite code",
		}),
		Deposits: f.NewCounter(prometheus.CounterOpts{
			Name: "covault_deposits_total",
			Help: "Total number of deposits recorded",
		}),
		Withdrawals: f.NewCounter(prometheus.CounterOpts{
			Name: "covault_direct_withdrawals_total",
			Help: "Total number of withdrawals made without a proposal",
		}),
		ProposalsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "covault_proposals_created_total",
			Help: "Total number of withdrawal proposals opened",
		}),
		VotesCast: f.NewCounterVec(prometheus.CounterOpts{
			Name: "covault_votes_cast_total",
			Help: "Total votes cast by decision",
		}, []string{"decision"}), // decision: "for", "against"
		ProposalsExecuted: f.NewCounter(prometheus.CounterOpts{
			Name: "covault_proposals_executed_total",
			Help: "Total number of approved proposals paid out",
		}),
		ProposalsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "covault_proposals_expired_total",
			Help: "Total number of pending proposals rejected after their voting period",
		}),
		LostUpdates: f.NewCounter(prometheus.CounterOpts{
			Name: "covault_lost_update_suspected_total",
			Help: "Saves that found the stored revision moved since load",
		}),
		CommandLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "covault_command_duration_seconds",
			Help:    "Duration of vault commands by command and outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"command", "outcome"}),
	}
}

func (m *Metrics) IncVaultsCreated() {
	if m != nil {
		m.VaultsCreated.Inc()
	}
}

func (m *Metrics) IncMembersJoined() {
	if m != nil {
		m.MembersJoined.Inc()
	}
}

func (m *Metrics) IncDeposits() {
	if m != nil {
		m.Deposits.Inc()
	}
}

func (m *Metrics) IncWithdrawals() {
	if m != nil {
		m.Withdrawals.Inc()
	}
}

func (m *Metrics) IncProposalsCreated() {
	if m != nil {
		m.ProposalsCreated.Inc()
	}
}

func (m *Metrics) IncVotesCast(inFavor bool) {
	if m == nil {
		return
	}
	decision := "against"
	if inFavor {
		decision = "for"
	}
	m.VotesCast.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncProposalsExecuted() {
	if m != nil {
		m.ProposalsExecuted.Inc()
	}
}

func (m *Metrics) AddProposalsExpired(n int) {
	if m != nil && n > 0 {
		m.ProposalsExpired.Add(float64(n))
	}
}

func (m *Metrics) IncLostUpdates() {
	if m != nil {
		m.LostUpdates.Inc()
	}
}

// ObserveCommand records how long a command took and whether it failed.
func (m *Metrics) ObserveCommand(command string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CommandLatency.WithLabelValues(command, outcome).Observe(d.Seconds())
}
