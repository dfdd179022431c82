package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigger_FiresWhileMorePagesRemain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	source := newCountingSource(numberedStore(t, 13))
	trigger := NewTrigger(NewCoordinator(source, testCollections.Records, 12, 0))

	page, fired, err := trigger.Visible(ctx)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Len(t, page.Items, 12)

	page, fired, err = trigger.Visible(ctx)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, page.IsLastPage)

	_, fired, err = trigger.Visible(ctx)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, 2, source.scanCount())
}

func TestTrigger_SkipsWhileFetchInFlight(t *testing.T) {
	t.Parallel()
	source := newCountingSource(numberedStore(t, 30))
	source.gate = make(chan struct{})
	trigger := NewTrigger(NewCoordinator(source, testCollections.Records, 12, 0))

	done := make(chan bool, 1)
	go func() {
		_, fired, _ := trigger.Visible(context.Background())
		done <- fired
	}()
	require.Eventually(t, trigger.InFlight, time.Second, time.Millisecond)

	for range 5 {
		_, fired, err := trigger.Visible(context.Background())
		require.NoError(t, err)
		assert.False(t, fired)
	}

	close(source.gate)
	assert.True(t, <-done)
	assert.False(t, trigger.InFlight())
	assert.Equal(t, 1, source.scanCount())
}

func TestTrigger_CloseDeregisters(t *testing.T) {
	t.Parallel()
	source := newCountingSource(numberedStore(t, 30))
	trigger := NewTrigger(NewCoordinator(source, testCollections.Records, 12, 0))

	trigger.Close()
	_, fired, err := trigger.Visible(context.Background())
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Zero(t, source.scanCount())
}
