package collector

import (
	"sync"

	"github.com/ALEYI17/InfraSight_rocm/pkg/logutil"
	"github.com/ALEYI17/InfraSight_rocm/pkg/types"
	"go.uber.org/zap"
)

// Stream is a thread-safe buffering TraceCollector. Events accumulate
// under a mutex and are handed out in batches by Drain or the Run pump;
// Flush marks end-of-session, after which further events are dropped.
type Stream struct {
	mu      sync.Mutex
	events  []types.TraceEvent
	flushed bool
}

func NewStream() *Stream {
	return &Stream{}
}

func (s *Stream) AddEvent(ev types.TraceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flushed {
		logutil.GetLogger().Warn("event received after flush, dropping",
			zap.String("type", ev.Type.String()),
			zap.Uint64("correlation_id", ev.CorrelationID))
		return
	}
	s.events = append(s.events, ev)
}

func (s *Stream) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushed = true
}

// Flushed reports whether end-of-session was signaled.
func (s *Stream) Flushed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushed
}

// Drain returns the buffered events and resets the buffer.
func (s *Stream) Drain() []types.TraceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}
