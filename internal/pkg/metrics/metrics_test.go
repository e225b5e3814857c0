package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestCounters(t *testing.T) {
	Init()
	Init()

	before := value(t, quotaRejections.WithLabelValues("designs"))
	QuotaRejected("designs")
	assert.Equal(t, before+1, value(t, quotaRejections.WithLabelValues("designs")))

	issued := value(t, certificatesIssued)
	CertificateIssued()
	CertificateIssued()
	assert.Equal(t, issued+2, value(t, certificatesIssued))

	halted := value(t, batches.WithLabelValues(BatchHalted))
	BatchFinished(BatchHalted)
	assert.Equal(t, halted+1, value(t, batches.WithLabelValues(BatchHalted)))
}
