package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of sign-in attempts by method.",
		},
		[]string{"method", "result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of tokens issued or refreshed.",
		},
		[]string{"flow", "result"},
	)

	ProofsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proofs_submitted_total",
			Help: "Total number of proof submissions.",
		},
		[]string{"result"},
	)

	PipelineStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proof_pipeline_steps_total",
			Help: "Proof pipeline step outcomes.",
		},
		[]string{"step", "result"},
	)

	PinsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipfs_pins_total",
			Help: "Total number of IPFS pin requests.",
		},
		[]string{"kind", "result"},
	)

	ChainSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_submissions_total",
			Help: "Total number of on-chain submissions.",
		},
		[]string{"instruction", "result"},
	)

	ChainReconciledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_reconciled_total",
			Help: "Proof chain status transitions applied by the reconciler.",
		},
		[]string{"status"},
	)

	MessagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Total number of portfolio messages created.",
		},
		[]string{"type"},
	)

	WebsocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_websocket_clients",
			Help: "Connected notification websocket clients.",
		},
	)
)

var registerOnce sync.Once

// MustRegister registers every collector on the default registry with a constant
// service label. Calling it more than once is a no-op.
func MustRegister(serviceName string) {
	registerOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer)
		reg.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			AuthLoginsTotal,
			TokensIssuedTotal,
			ProofsSubmittedTotal,
			PipelineStepsTotal,
			PinsTotal,
			ChainSubmissionsTotal,
			ChainReconciledTotal,
			MessagesSentTotal,
			WebsocketClients,
		)
	})
}
