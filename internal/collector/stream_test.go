package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ALEYI17/InfraSight_rocm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamBuffersAndDrains(t *testing.T) {
	s := NewStream()

	s.AddEvent(types.TraceEvent{Type: types.TraceEventTypeKernel, CorrelationID: 1})
	s.AddEvent(types.TraceEvent{Type: types.TraceEventTypeMemcpyH2D, CorrelationID: 2})

	batch := s.Drain()
	require.Len(t, batch, 2)
	assert.Equal(t, uint64(1), batch[0].CorrelationID)
	assert.Equal(t, uint64(2), batch[1].CorrelationID)

	assert.Empty(t, s.Drain())
}

func TestStreamDropsAfterFlush(t *testing.T) {
	s := NewStream()

	s.AddEvent(types.TraceEvent{CorrelationID: 1})
	s.Flush()
	require.True(t, s.Flushed())

	s.AddEvent(types.TraceEvent{CorrelationID: 2})
	assert.Len(t, s.Drain(), 1)
}

func TestStreamConcurrentAdd(t *testing.T) {
	s := NewStream()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.AddEvent(types.TraceEvent{})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, s.Drain(), 800)
}

func TestStreamRunPumpsBatches(t *testing.T) {
	s := NewStream()
	ctx, cancel := context.WithCancel(context.Background())

	out := s.Run(ctx, 10*time.Millisecond)

	s.AddEvent(types.TraceEvent{CorrelationID: 1})
	batch := <-out
	require.NotEmpty(t, batch)
	assert.Equal(t, uint64(1), batch[0].CorrelationID)

	// Events added after the last tick surface in the final drain.
	s.AddEvent(types.TraceEvent{CorrelationID: 2})
	cancel()

	var rest []types.TraceEvent
	for batch := range out {
		rest = append(rest, batch...)
	}
	for _, ev := range rest {
		assert.Equal(t, uint64(2), ev.CorrelationID)
	}
}
