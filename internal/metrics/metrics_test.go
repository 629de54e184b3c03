package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bread-calculator/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "GET /health", http.StatusOK, time.Millisecond)
		m.CalculationRecorded(models.Add)
	})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CalculationsCounter(models.Add)))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCalculationRecorded(t *testing.T) {
	m := New()
	m.CalculationRecorded(models.Multiply)
	m.CalculationRecorded(models.Multiply)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CalculationsCounter(models.Multiply)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CalculationsCounter(models.Divide)))
}
