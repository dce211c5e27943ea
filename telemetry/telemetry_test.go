package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotAggregates(t *testing.T) {
	c := NewCollector("test", false)
	c.Record("exec", 10*time.Millisecond, nil)
	c.Record("exec", 30*time.Millisecond, errors.New("boom"))
	c.Record("query", 5*time.Millisecond, nil)

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "exec", snap[0].Operation)
	assert.Equal(t, 2, snap[0].Count)
	assert.Equal(t, 1, snap[0].Errors)
	assert.Equal(t, 30*time.Millisecond, snap[0].Max)
	assert.Equal(t, 20*time.Millisecond, snap[0].Mean())
	assert.Equal(t, 0, c.Pending())
}

func TestFlushPostsBatches(t *testing.T) {
	t.Setenv("POSDATA_TELEMETRY_DISABLED", "")

	var (
		mu      sync.Mutex
		batches []int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Events []Event `json:"events"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		batches = append(batches, len(body.Events))
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewCollector("test", true, WithEndpoint(srv.URL), WithBatchSize(2), WithProvider("sqlite"))
	for range 5 {
		c.Record("exec", time.Millisecond, nil)
	}
	require.Equal(t, 5, c.Pending())

	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, []int{2, 2, 1}, batches)
	assert.Equal(t, 0, c.Pending())
}

func TestFlushKeepsEventsOnFailure(t *testing.T) {
	t.Setenv("POSDATA_TELEMETRY_DISABLED", "")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewCollector("test", true, WithEndpoint(srv.URL))
	c.Record("exec", time.Millisecond, nil)

	require.Error(t, c.Flush(context.Background()))
	assert.Equal(t, 1, c.Pending())
}

func TestDisabledByEnvironment(t *testing.T) {
	t.Setenv("POSDATA_TELEMETRY_DISABLED", "1")

	c := NewCollector("test", true)
	assert.False(t, c.Enabled())
	c.Record("exec", time.Millisecond, nil)
	assert.Equal(t, 0, c.Pending())
	assert.Len(t, c.Snapshot(), 1)
}
