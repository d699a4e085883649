package collector

import (
	"context"
	"time"

	"github.com/ALEYI17/InfraSight_rocm/pkg/types"
)

// Run pumps drained batches onto the returned channel on every tick
// until ctx is cancelled; a final drain runs before the channel closes
// so events buffered between the last tick and cancellation are not
// lost.
func (s *Stream) Run(ctx context.Context, interval time.Duration) <-chan []types.TraceEvent {
	out := make(chan []types.TraceEvent)

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				if batch := s.Drain(); len(batch) > 0 {
					out <- batch
				}
				return
			case <-ticker.C:
				if batch := s.Drain(); len(batch) > 0 {
					out <- batch
				}
			}
		}
	}()

	return out
}
