package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/vigor/internal/config"
	"github.com/lazypower/vigor/internal/energy"
)

func TestNewWithoutURLIsNop(t *testing.T) {
	p, err := New(config.RedisConfig{Stream: "s"})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(context.Background(), energy.Snapshot{}, 0))
	assert.NoError(t, p.Close())
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(config.RedisConfig{URL: "http://not-redis", Stream: "s"})
	assert.Error(t, err)
}

func TestNewRedisPublisher(t *testing.T) {
	p, err := New(config.RedisConfig{URL: "redis://localhost:6379/0", Stream: "vigor_snapshots", MaxLen: 10})
	require.NoError(t, err)
	rp, ok := p.(*RedisPublisher)
	require.True(t, ok)
	assert.Equal(t, "vigor_snapshots", rp.stream)
	assert.Equal(t, int64(10), rp.maxLen)
	assert.NoError(t, rp.Close())
}

func TestFields(t *testing.T) {
	ts := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	snap := energy.Snapshot{
		Timestamp: ts,
		Levels:    energy.Levels{Mental: 74, Physical: 84, Financial: 50, Emotional: 72.5},
		Prime:     70.15,
	}
	got := Fields(snap, 3)
	assert.Equal(t, "2026-10-14T09:30:00Z", got["taken_at"])
	assert.Equal(t, "74.00", got["mental"])
	assert.Equal(t, "72.50", got["emotional"])
	assert.Equal(t, "70.15", got["prime_score"])
	assert.Equal(t, 3, got["events_fired"])
}
