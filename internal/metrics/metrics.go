// Package metrics Prometheus メトリクス
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "visitcal"

// Metrics アプリケーションのメトリクス一式
type Metrics struct {
	ImportsTotal     *prometheus.CounterVec
	ImportedRows     prometheus.Counter
	UnresolvedStaff  prometheus.Counter
	ResolutionsTotal prometheus.Counter
	ExportsTotal     *prometheus.CounterVec
	ExportDuration   *prometheus.HistogramVec
	ExportedPages    prometheus.Counter
}

var singleton = sync.OnceValue(func() *Metrics {
	return &Metrics{
		ImportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Total number of schedule file imports.",
		}, []string{"result"}),
		ImportedRows: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_rows_total",
			Help:      "Total number of schedule rows read from imported files.",
		}),
		UnresolvedStaff: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_staff_total",
			Help:      "Total number of staff whose job type required manual input.",
		}),
		ResolutionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of confirmed manual job type resolutions.",
		}),
		ExportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of calendar exports.",
		}, []string{"format", "result"}),
		ExportDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Latency distribution for calendar exports.",
			Buckets: []float64{
				0.05, 0.1, 0.2, 0.5,
				1, 2, 5, 10, 30, 60,
			},
		}, []string{"format"}),
		ExportedPages: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exported_pages_total",
			Help:      "Total number of user pages rendered into exports.",
		}),
	}
})

// Get 登録済みのメトリクス
func Get() *Metrics {
	return singleton()
}

// Result 成否のラベル値
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
