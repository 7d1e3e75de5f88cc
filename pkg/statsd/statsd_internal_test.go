package statsd

import (
	"testing"
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	*ddstatsd.NoOpClient
	counts  map[string]int64
	timings []string
	tags    [][]string
}

func (r *recordingClient) Count(name string, value int64, tags []string, _ float64) error {
	r.counts[name] += value
	r.tags = append(r.tags, tags)
	return nil
}

func (r *recordingClient) Timing(name string, _ time.Duration, tags []string, _ float64) error {
	r.timings = append(r.timings, name)
	r.tags = append(r.tags, tags)
	return nil
}

// Tests in this file swap the package client and must not run in parallel.
func useRecordingClient(t *testing.T) *recordingClient {
	t.Helper()
	rec := &recordingClient{NoOpClient: &ddstatsd.NoOpClient{}, counts: map[string]int64{}}
	prev := client
	client = rec
	t.Cleanup(func() { client = prev })
	return rec
}

func TestEmitReplayStats(t *testing.T) {
	rec := useRecordingClient(t)

	EmitReplayStats(4, 1, 2, []string{"empire:1"})
	EmitReplayStats(1, 0, 0, []string{"empire:2"})

	assert.Equal(t, map[string]int64{
		"orders.executed": 5,
		"orders.skipped":  1,
		"orders.failed":   2,
	}, rec.counts)
	require.Len(t, rec.tags, 6)
	assert.Equal(t, []string{"empire:2"}, rec.tags[5])
}

func TestEmitTurnStat(t *testing.T) {
	rec := useRecordingClient(t)

	EmitTurnStat(time.Now().Add(-time.Second), []string{"game:g1"})

	assert.Equal(t, []string{"turn.process"}, rec.timings)
}

func TestInit(t *testing.T) {
	prev := client
	t.Cleanup(func() { client = prev })

	require.Error(t, Init("", nil))
	assert.Same(t, prev, Client())

	require.NoError(t, Init("127.0.0.1:8125", []string{"env:test"}))
	assert.NotSame(t, prev, Client())
	require.NoError(t, Client().Close())
}
