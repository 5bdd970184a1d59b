package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_SleepAdvancesAndRecords(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManual(start)

	require.NoError(t, c.Sleep(context.Background(), 5*time.Second))
	require.NoError(t, c.Sleep(context.Background(), time.Minute))

	assert.Equal(t, start.Add(65*time.Second), c.Now())
	assert.Equal(t, []time.Duration{5 * time.Second, time.Minute}, c.Sleeps())
}

func TestManual_SleepHonoursCancelledContext(t *testing.T) {
	c := NewManual(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Sleep(ctx, time.Second), context.Canceled)
	assert.Empty(t, c.Sleeps())
}

func TestReal_SleepReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Real{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
