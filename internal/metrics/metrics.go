package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the settlement core's prometheus instruments.
type Metrics struct {
	ordersCompleted      prometheus.Counter
	duplicateCompletions prometheus.Counter
	stepFailures         *prometheus.CounterVec
	ledgerEntries        *prometheus.CounterVec
	poolContributedCents prometheus.Counter
	cyclesSettled        prometheus.Counter
	payoutCents          prometheus.Counter
	dustCents            prometheus.Counter
	jobRuns              *prometheus.CounterVec
	jobErrors            *prometheus.CounterVec
	jobDuration          *prometheus.HistogramVec
}

// New registers the settlement metrics against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ordersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "solvent_orders_completed_total",
			Help: "Orders whose completion pipeline created a bill.",
		}),
		duplicateCompletions: factory.NewCounter(prometheus.CounterOpts{
			Name: "solvent_completion_duplicates_total",
			Help: "Completion invocations short-circuited by the bill guard.",
		}),
		stepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solvent_completion_step_failures_total",
			Help: "Completion pipeline step failures surfaced as warnings.",
		}, []string{"step"}),
		ledgerEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solvent_ledger_entries_total",
			Help: "Ledger entries written, by entry type.",
		}, []string{"type"}),
		poolContributedCents: factory.NewCounter(prometheus.CounterOpts{
			Name: "solvent_pool_contributed_cents_total",
			Help: "Minor currency units contributed to bonus cycles.",
		}),
		cyclesSettled: factory.NewCounter(prometheus.CounterOpts{
			Name: "solvent_cycles_settled_total",
			Help: "Bonus cycles settled.",
		}),
		payoutCents: factory.NewCounter(prometheus.CounterOpts{
			Name: "solvent_cycle_payout_cents_total",
			Help: "Minor currency units paid out at settlement.",
		}),
		dustCents: factory.NewCounter(prometheus.CounterOpts{
			Name: "solvent_cycle_dust_cents_total",
			Help: "Rounding remainder carried between cycles.",
		}),
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solvent_scheduler_job_runs_total",
			Help: "Scheduler job executions.",
		}, []string{"job"}),
		jobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solvent_scheduler_job_errors_total",
			Help: "Scheduler job executions that returned an error.",
		}, []string{"job"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solvent_scheduler_job_duration_seconds",
			Help:    "Scheduler job wall time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
}

func (m *Metrics) IncOrderCompleted() {
	if m == nil {
		return
	}
	m.ordersCompleted.Inc()
}

func (m *Metrics) IncDuplicateCompletion() {
	if m == nil {
		return
	}
	m.duplicateCompletions.Inc()
}

func (m *Metrics) IncStepFailure(step string) {
	if m == nil {
		return
	}
	m.stepFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) IncLedgerEntry(entryType string) {
	if m == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(entryType).Inc()
}

func (m *Metrics) AddPoolContribution(cents int64) {
	if m == nil || cents <= 0 {
		return
	}
	m.poolContributedCents.Add(float64(cents))
}

func (m *Metrics) ObserveSettlement(payoutCents, dustCents int64) {
	if m == nil {
		return
	}
	m.cyclesSettled.Inc()
	if payoutCents > 0 {
		m.payoutCents.Add(float64(payoutCents))
	}
	if dustCents > 0 {
		m.dustCents.Add(float64(dustCents))
	}
}

func (m *Metrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *Metrics) IncJobError(job string) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *Metrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}
