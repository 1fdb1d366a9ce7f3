package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements Recorder backed by a prometheus Registry.
type PrometheusRecorder struct {
	signIns        *prometheus.CounterVec
	accountCache   *prometheus.CounterVec
	invokes        *prometheus.CounterVec
	invokeDuration *prometheus.HistogramVec
	unitsDebited   *prometheus.CounterVec
	creditsCharged prometheus.Counter
	recharges      *prometheus.CounterVec
}

// NewPrometheus registers collectors on reg and returns the recorder.
// Pass prometheus.DefaultRegisterer in production.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		signIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credigate_signins_total",
			Help: "Sign-in calls by outcome (created or existing account).",
		}, []string{"status"}),
		accountCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credigate_account_cache_lookups_total",
			Help: "Account cache lookups by result.",
		}, []string{"result"}),
		invokes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credigate_invokes_total",
			Help: "Metered operation invocations by operation and status.",
		}, []string{"operation", "status"}),
		invokeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credigate_invoke_duration_seconds",
			Help:    "End-to-end metered operation duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		unitsDebited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credigate_units_debited_total",
			Help: "Credits debited by endpoint.",
		}, []string{"endpoint"}),
		creditsCharged: factory.NewCounter(prometheus.CounterOpts{
			Name: "credigate_credits_recharged_total",
			Help: "Credits added through recharge.",
		}),
		recharges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credigate_recharges_total",
			Help: "Recharge calls by outcome.",
		}, []string{"status"}),
	}
}

// IncSignIn increments the sign-in counter for a status.
func (p *PrometheusRecorder) IncSignIn(status string) {
	p.signIns.WithLabelValues(status).Inc()
}

// IncAccountCache increments the account cache counter for a result.
func (p *PrometheusRecorder) IncAccountCache(result string) {
	p.accountCache.WithLabelValues(result).Inc()
}

// IncInvoke increments the invoke counter for an operation/status pair.
func (p *PrometheusRecorder) IncInvoke(operation, status string) {
	p.invokes.WithLabelValues(operation, status).Inc()
}

// ObserveInvokeDuration records one invoke duration.
func (p *PrometheusRecorder) ObserveInvokeDuration(operation string, duration time.Duration) {
	p.invokeDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// AddUnitsDebited accumulates debited units.
func (p *PrometheusRecorder) AddUnitsDebited(endpoint string, units int64) {
	p.unitsDebited.WithLabelValues(endpoint).Add(float64(units))
}

// AddCreditsRecharged accumulates recharged credits.
func (p *PrometheusRecorder) AddCreditsRecharged(credits int64) {
	p.creditsCharged.Add(float64(credits))
}

// IncRecharge increments the recharge counter for a status.
func (p *PrometheusRecorder) IncRecharge(status string) {
	p.recharges.WithLabelValues(status).Inc()
}
