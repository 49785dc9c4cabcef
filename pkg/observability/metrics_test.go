package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordCacheLookup("orders", true)
		c.RecordBackendOp("memory", "get", "hit")
		c.RecordRESTRetry()
		c.RecordBackendSelected("memory")
		c.ObserveQuery("orders", time.Millisecond, nil)
		c.SetSnapshotAge(12)
		c.RecordRefreshFailure()
		c.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
	})
	assert.Nil(t, c.Registry())
}

func TestCollector_Records(t *testing.T) {
	c := NewCollector("test")

	c.RecordCacheLookup("orders", true)
	c.RecordCacheLookup("orders", false)
	c.RecordCacheLookup("orders", false)
	c.RecordBackendSelected("rest", "memory", "rest", "valkey")
	c.ObserveQuery("users", time.Millisecond, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(c.CacheLookups.WithLabelValues("orders", "hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.CacheLookups.WithLabelValues("orders", "miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.BackendSelected.WithLabelValues("rest")))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.BackendSelected.WithLabelValues("memory")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.QueryTotal.WithLabelValues("users", "error")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test")
	c.RecordRESTRetry()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_cache_rest_retries_total 1")
}

func TestNewCollector_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector("dup")
		NewCollector("dup")
	})
}
