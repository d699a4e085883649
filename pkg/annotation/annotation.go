// Package annotation keeps a per-OS-thread contextual label that the
// tracer stitches onto events through correlation ids. Callers that set
// an annotation must be pinned with runtime.LockOSThread so the label
// is visible to runtime callbacks firing on the same thread.
package annotation

import (
	"sync"

	"golang.org/x/sys/unix"
)

var (
	mu      sync.Mutex
	current = make(map[int32]string)
)

// Set makes label the current annotation for the calling thread.
func Set(label string) {
	tid := int32(unix.Gettid())
	mu.Lock()
	defer mu.Unlock()
	if label == "" {
		delete(current, tid)
		return
	}
	current[tid] = label
}

// Clear removes the calling thread's annotation.
func Clear() {
	tid := int32(unix.Gettid())
	mu.Lock()
	defer mu.Unlock()
	delete(current, tid)
}

// Current returns the calling thread's annotation, or "" if none is set.
func Current() string {
	tid := int32(unix.Gettid())
	mu.Lock()
	defer mu.Unlock()
	return current[tid]
}

// Scope sets label and returns a func restoring the previous value.
//
//	defer annotation.Scope("train_step")()
func Scope(label string) func() {
	tid := int32(unix.Gettid())
	mu.Lock()
	prev, had := current[tid]
	current[tid] = label
	mu.Unlock()
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if had {
			current[tid] = prev
		} else {
			delete(current, tid)
		}
	}
}
