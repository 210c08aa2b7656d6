package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	CyclesTotal     prometheus.Counter
	LoadsSaved      prometheus.Counter
	LoadsUpgraded   prometheus.Counter
	RecordsRejected *prometheus.CounterVec
	FetchFailures   *prometheus.CounterVec
	StorageErrors   prometheus.Counter
	CycleDuration   prometheus.Histogram
	NextDelay       *prometheus.GaugeVec
}

// NewMetrics creates new prometheus metrics registered on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_cycles_total",
			Help:      "The total number of ingestion cycles run",
		}),
		LoadsSaved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_saved_total",
			Help:      "The total number of departed loads stored",
		}),
		LoadsUpgraded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_upgraded_total",
			Help:      "The total number of unconfirmed loads upgraded to confirmed",
		}),
		RecordsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "The total number of feed records not accepted",
		}, []string{"reason"}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "The total number of failed feed fetches",
		}, []string{"stage"}),
		StorageErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "The total number of cycles aborted by a storage error",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_cycle_duration_seconds",
			Help:      "Time taken by one fetch, classify and persist cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		NextDelay: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "next_poll_delay_seconds",
			Help:      "Delay chosen before the next poll, by schedule phase",
		}, []string{"phase"}),
	}
}
