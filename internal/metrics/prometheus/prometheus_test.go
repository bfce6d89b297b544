package prometheus

import (
	"testing"
	"time"

	"ledger/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New("ledger_test")
	reg := prometheus.NewRegistry()
	require.NoError(t, r.Register(reg))

	r.RecordTransaction("TRANSFER", "COMMITTED")
	r.RecordTransaction("TRANSFER", "COMMITTED")
	r.RecordTransaction("WITHDRAW", "CANCELED")
	r.RecordRejected("amount")
	r.RecordAccountCreated()
	r.RecordBalanceLookup(true)
	r.RecordBalanceLookup(false)
	r.RecordBalanceLookup(false)
	r.RecordStorage("save", false, 3*time.Millisecond)
	r.RecordCircuitState("storage", metrics.CircuitOpen)
	r.RecordHTTPRequest("GET", "/accounts", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.transactions.WithLabelValues("TRANSFER", "COMMITTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.transactions.WithLabelValues("WITHDRAW", "CANCELED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejected.WithLabelValues("amount")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.accounts))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.balanceLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.balanceLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.storageOps.WithLabelValues("save", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.circuitState.WithLabelValues("storage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.circuitOpens.WithLabelValues("storage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/accounts", "200")))
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, New("dup").Register(reg))
	assert.Error(t, New("dup").Register(reg))
}
