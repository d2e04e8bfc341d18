package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	VerificationsTotal    *prometheus.CounterVec
	VerificationDuration  prometheus.Histogram
	DuplicateIdentities   prometheus.Counter
	ClaimsSyncFailures    prometheus.Counter
	ProviderFailuresTotal *prometheus.CounterVec
	ChallengesIssuedTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		VerificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idv_verifications_total",
			Help: "Total verification callbacks processed, by outcome reason",
		}, []string{"outcome"}),
		VerificationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "idv_verification_duration_seconds",
			Help:    "End to end verification callback processing time",
			Buckets: prometheus.DefBuckets,
		}),
		DuplicateIdentities: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idv_duplicate_identities_total",
			Help: "Total verifications rejected because the identity was already bound to another account",
		}),
		ClaimsSyncFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idv_claims_sync_failures_total",
			Help: "Total verifications that committed but failed claims promotion",
		}),
		ProviderFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idv_provider_failures_total",
			Help: "Total provider verify calls that did not approve, by reason",
		}, []string{"reason"}),
		ChallengesIssuedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idv_challenges_issued_total",
			Help: "Total verification challenges issued",
		}),
	}
}

func (m *Metrics) ObserveVerification(outcome string, start time.Time) {
	m.VerificationsTotal.WithLabelValues(outcome).Inc()
	m.VerificationDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementDuplicateIdentity() {
	m.DuplicateIdentities.Inc()
}

func (m *Metrics) IncrementClaimsSyncFailure() {
	m.ClaimsSyncFailures.Inc()
}

func (m *Metrics) IncrementProviderFailure(reason string) {
	m.ProviderFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementChallengeIssued() {
	m.ChallengesIssuedTotal.Inc()
}
