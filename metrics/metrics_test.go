// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	Counter("noop_count").Add(1)
	CounterVec("noop_countvec", []string{"kind"}).AddWithLabel(1, map[string]string{"nonsense": "ok"})
	Gauge("noop_gauge").Set(3)
	GaugeVec("noop_gaugevec", []string{"kind"}).SetWithLabel(1, map[string]string{"kind": "x"})
	Histogram("noop_hist", nil).Observe(7)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPromMetrics(t *testing.T) {
	lazy := LazyLoadCounter("lazy_count")

	InitializePrometheusMetrics()
	InitializePrometheusMetrics()

	Counter("count1").Add(1)
	Counter("count1").Add(2)
	lazy().Add(5)
	LazyLoadGauge("gauge1")().Set(11)
	vec := LazyLoadCounterVec("countvec", []string{"kind"})()
	vec.AddWithLabel(2, map[string]string{"kind": "bond"})
	vec.AddWithLabel(3, map[string]string{"kind": "bond"})
	LazyLoadGaugeVec("gaugevec", []string{"kind"})().AddWithLabel(4, map[string]string{"kind": "x"})
	LazyLoadHistogram("hist1", BucketBatchSize)().Observe(10)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	assert.Equal(t, float64(3), byName["eden_count1"].Metric[0].GetCounter().GetValue())
	assert.Equal(t, float64(5), byName["eden_lazy_count"].Metric[0].GetCounter().GetValue())
	assert.Equal(t, float64(11), byName["eden_gauge1"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(5), byName["eden_countvec"].Metric[0].GetCounter().GetValue())
	assert.Equal(t, float64(4), byName["eden_gaugevec"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(10), byName["eden_hist1"].Metric[0].GetHistogram().GetSampleSum())
}
