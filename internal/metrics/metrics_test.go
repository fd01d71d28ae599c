package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObservePipelineRun("regenerate", time.Now(), nil)
	m.ObservePipelineRun("embed", time.Now(), errors.New("boom"))
	m.ObserveLocale("ja", ResultFailure)
	m.AddEmbeddings(4, 1, 0)
	m.ObserveUpstream("chat", time.Now(), nil)
	m.ObserveSearch(nil)

	assert.InDelta(t, 1, testutil.ToFloat64(m.PipelineRuns.WithLabelValues("regenerate", ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PipelineRuns.WithLabelValues("embed", ResultFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LocaleOutcomes.WithLabelValues("ja", ResultFailure)), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.Embeddings.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Embeddings.WithLabelValues(ResultFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamCalls.WithLabelValues("chat", ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SearchRequests.WithLabelValues(ResultSuccess)), 0)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObservePipelineRun("embed", time.Now(), nil)
	m.ObserveLocale("en", ResultSuccess)
	m.AddEmbeddings(1, 0, 0)
	m.ObserveUpstream("chat", time.Now(), nil)
	m.ObserveSearch(nil)
	m.ObserveHTTP("GET", "200")
}

func TestSetup_ServesMetrics(t *testing.T) {
	m, handler := Setup()
	m.ObserveSearch(nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ocms_search_requests_total"))
}
