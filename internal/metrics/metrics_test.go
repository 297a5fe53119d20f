package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveFetch("cache", 10*time.Millisecond)
	m.ObserveFetch("live", time.Second)
	m.ObserveFetch("live", time.Second)
	m.PostsExtracted.Add(7)
	m.ObserveRun("new-items", 3, time.Unix(1_700_000_000, 0))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("cache")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Fetches.WithLabelValues("live")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.PostsExtracted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("new-items")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NewItems))
	assert.Equal(t, 1_700_000_000.0, testutil.ToFloat64(m.LastRun))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRun("no-new-signal", 0, time.Unix(1_700_000_000, 0))

	path := filepath.Join(t.TempDir(), "artifacts", "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `cron_shell_runs_total{decision="no-new-signal"} 1`)
	assert.Contains(t, string(b), "cron_shell_last_run_timestamp_seconds 1.7e+09")
}
