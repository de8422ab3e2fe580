package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementLoginStarted()
	m.IncrementLoginCompleted("success")
	m.IncrementLoginCompleted("success")
	m.IncrementLoginCompleted("exchange_failed")
	m.IncrementAuthFailure("missing_token")
	m.IncrementUsersCreated()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginCompleted.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginCompleted.WithLabelValues("exchange_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BearerAuthFailures.WithLabelValues("missing_token")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsersCreated))
}

func TestMetrics_StateBindingsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	size := 3
	m.RegisterStateBindings(func() int { return size })

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "usergate_state_bindings" {
			found = true
			assert.Equal(t, 3.0, mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found)
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRequest("GET", "/users/{id}", "200", 0.01)

	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}
