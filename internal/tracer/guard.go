package tracer

import "sync"

// tracingDisabler marks threads currently executing the tracer's own
// calls into the instrumented runtime, so those calls are not
// re-captured when the runtime invokes the API callback for them.
// Go has no thread-local storage; the guard keys on the OS thread id
// instead, which holds because runtime callbacks arrive pinned to the
// thread that issued the call.
type tracingDisabler struct {
	mu   sync.Mutex
	tids map[int32]int
}

func newTracingDisabler() *tracingDisabler {
	return &tracingDisabler{tids: make(map[int32]int)}
}

// disable marks tid and returns the matching release. Nests.
func (d *tracingDisabler) disable(tid int32) func() {
	d.mu.Lock()
	d.tids[tid]++
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.tids[tid] <= 1 {
			delete(d.tids, tid)
		} else {
			d.tids[tid]--
		}
	}
}

func (d *tracingDisabler) disabled(tid int32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tids[tid] > 0
}
