package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stakingagency/delegation-dashboard/internal/delegation"
)

// Recorder exports delegation and chain client metrics. It implements
// chain.Observer.
type Recorder struct {
	registry *prometheus.Registry

	// APRPercent is the last determined APR, per contract
	APRPercent *prometheus.GaugeVec
	// APRDetermined is 1 when the last APR could be computed
	APRDetermined *prometheus.GaugeVec
	// TotalActiveStake is the contract's active stake in whole tokens
	TotalActiveStake *prometheus.GaugeVec
	// ActiveNodes counts staked BLS keys
	ActiveNodes *prometheus.GaugeVec
	// Users counts delegators
	Users *prometheus.GaugeVec
	// Epoch is the network epoch seen in the last snapshot
	Epoch prometheus.Gauge
	// LastSnapshot is the unix time of the last successful fetch
	LastSnapshot *prometheus.GaugeVec

	// ChainRequestsTotal counts API/gateway requests per endpoint and status
	ChainRequestsTotal *prometheus.CounterVec
	// ChainRequestDuration tracks request latency per endpoint
	ChainRequestDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		APRPercent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "delegation_apr_percent",
				Help: "Estimated APR of the delegation contract, in percent",
			},
			[]string{"contract"},
		),
		APRDetermined: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "delegation_apr_determined",
				Help: "1 if the last APR estimate could be computed, 0 otherwise",
			},
			[]string{"contract"},
		),
		TotalActiveStake: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "delegation_total_active_stake",
				Help: "Active stake of the delegation contract, in whole tokens",
			},
			[]string{"contract"},
		),
		ActiveNodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "delegation_active_nodes",
				Help: "Number of staked nodes of the delegation contract",
			},
			[]string{"contract"},
		),
		Users: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "delegation_users",
				Help: "Number of delegators",
			},
			[]string{"contract"},
		),
		Epoch: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "network_epoch",
				Help: "Current network epoch",
			},
		),
		LastSnapshot: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "delegation_last_snapshot_timestamp_seconds",
				Help: "Unix time of the last successful snapshot",
			},
			[]string{"contract"},
		),
		ChainRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chain_requests_total",
				Help: "Total API and gateway requests",
			},
			[]string{"endpoint", "status"},
		),
		ChainRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chain_request_duration_seconds",
				Help:    "API and gateway request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}

	r.registry.MustRegister(
		r.APRPercent,
		r.APRDetermined,
		r.TotalActiveStake,
		r.ActiveNodes,
		r.Users,
		r.Epoch,
		r.LastSnapshot,
		r.ChainRequestsTotal,
		r.ChainRequestDuration,
	)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one API/gateway request
func (r *Recorder) ObserveRequest(endpoint, status string, elapsed time.Duration) {
	r.ChainRequestsTotal.WithLabelValues(endpoint, status).Inc()
	r.ChainRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveSnapshot updates the gauges from a fresh snapshot. An
// undetermined APR leaves the last rate in place and clears the
// determined flag.
func (r *Recorder) ObserveSnapshot(s delegation.Snapshot) {
	c := s.Contract
	if s.APR.Determined() {
		r.APRPercent.WithLabelValues(c).Set(s.APR.Percent)
		r.APRDetermined.WithLabelValues(c).Set(1)
	} else {
		r.APRDetermined.WithLabelValues(c).Set(0)
	}
	if stake, err := strconv.ParseFloat(strings.ReplaceAll(s.TotalActiveStakeDisplay, ",", ""), 64); err == nil {
		r.TotalActiveStake.WithLabelValues(c).Set(stake)
	}
	r.ActiveNodes.WithLabelValues(c).Set(float64(s.NumberOfActiveNodes))
	r.Users.WithLabelValues(c).Set(float64(s.NumUsers))
	r.Epoch.Set(float64(s.Epoch))
	r.LastSnapshot.WithLabelValues(c).Set(float64(s.FetchedAt.Unix()))
}
