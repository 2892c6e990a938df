package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelspro/reelspro/internal/infra/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := metrics.New()

	m.IncrementRegistered()
	m.IncrementRegistered()
	m.IncrementRegistrationFailure(metrics.ReasonDuplicate)
	m.IncrementNotificationCreated()

	assert.InDelta(t, 2, testutil.ToFloat64(m.AccountsRegistered), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RegistrationFailures.WithLabelValues(metrics.ReasonDuplicate)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.RegistrationFailures.WithLabelValues(metrics.ReasonValidation)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.NotificationsCreated), 0)
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	t.Parallel()

	a, b := metrics.New(), metrics.New()
	a.IncrementRegistered()

	assert.InDelta(t, 0, testutil.ToFloat64(b.AccountsRegistered), 0)
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.IncrementRegistered()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "reelspro_accounts_registered_total 1")
}
