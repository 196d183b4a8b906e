package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the connector's Prometheus metrics.
type Metrics struct {
	// Packet metrics
	PacketsForwarded *prometheus.CounterVec
	PacketsRejected  *prometheus.CounterVec
	ForwardDuration  prometheus.Histogram

	// Settlement metrics
	SettlementsTriggered prometheus.Counter
	SettlementsConfirmed *prometheus.CounterVec
	SettlementsFailed    prometheus.Counter
	SettlementAmount     prometheus.Histogram
	OutboxLag            prometheus.Histogram

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsDeleted prometheus.Counter
	AccountBalance  *prometheus.GaugeVec

	// Routing metrics
	RouteLookups *prometheus.CounterVec
	RoutesLoaded prometheus.Gauge
}

// New creates and registers all metrics.
func New() *Metrics {
	return &Metrics{
		PacketsForwarded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ilpnode_packets_forwarded_total",
				Help: "Packets forwarded by outcome",
			},
			[]string{"outcome"},
		),
		PacketsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ilpnode_packets_rejected_total",
				Help: "Packets rejected by ILP code",
			},
			[]string{"code"},
		),
		ForwardDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ilpnode_forward_duration_seconds",
			Help:    "Duration of packet forwarding decisions",
			Buckets: prometheus.DefBuckets,
		}),

		SettlementsTriggered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ilpnode_settlements_triggered_total",
			Help: "Settlement triggers consumed from the outbox",
		}),
		SettlementsConfirmed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ilpnode_settlements_confirmed_total",
				Help: "Confirmed settlements by direction",
			},
			[]string{"direction"},
		),
		SettlementsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ilpnode_settlements_failed_total",
			Help: "Settlement attempts that exhausted their retries",
		}),
		SettlementAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ilpnode_settlement_amount",
			Help:    "Settled amounts in account asset scale",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		OutboxLag: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ilpnode_settlement_outbox_lag_seconds",
			Help:    "Time between trigger emission and processing",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 30, 60, 300},
		}),

		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ilpnode_accounts_created_total",
			Help: "Accounts created",
		}),
		AccountsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ilpnode_accounts_deleted_total",
			Help: "Accounts deleted",
		}),
		AccountBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ilpnode_account_balance",
				Help: "Last observed account balance",
			},
			[]string{"account_id", "asset_code"},
		),

		RouteLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ilpnode_route_lookups_total",
				Help: "Route resolutions by result",
			},
			[]string{"result"},
		),
		RoutesLoaded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ilpnode_routes_loaded",
			Help: "Entries in the merged routing table",
		}),
	}
}
