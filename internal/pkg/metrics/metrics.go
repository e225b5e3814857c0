// Package metrics exposes Prometheus counters for issuance and quota decisions.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	BatchCompleted = "completed"
	BatchHalted    = "halted"
	BatchFailed    = "failed"
	BatchCanceled  = "canceled"
)

var (
	certificatesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "certfox_certificates_issued_total",
		Help: "Certificates persisted by single or batch issuance.",
	})

	quotaRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certfox_quota_rejections_total",
			Help: "Resource creations rejected by plan limits.",
		},
		[]string{"limit"},
	)

	batches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certfox_batches_total",
			Help: "Finished issuance batches by outcome.",
		},
		[]string{"outcome"},
	)

	registerOnce sync.Once
)

// Init registers the collectors with the default registry. Safe to call repeatedly.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(certificatesIssued, quotaRejections, batches)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func CertificateIssued() {
	certificatesIssued.Inc()
}

func QuotaRejected(limit string) {
	quotaRejections.WithLabelValues(limit).Inc()
}

func BatchFinished(outcome string) {
	batches.WithLabelValues(outcome).Inc()
}
