package tracer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationMapAddLookUp(t *testing.T) {
	m := NewAnnotationMap(4, 2)

	m.Add(0, 1, "forward")
	m.Add(0, 2, "backward")
	m.Add(1, 1, "optimizer")

	assert.Equal(t, "forward", m.LookUp(0, 1))
	assert.Equal(t, "backward", m.LookUp(0, 2))
	assert.Equal(t, "optimizer", m.LookUp(1, 1))

	// per-device isolation
	assert.Equal(t, "", m.LookUp(1, 2))
}

func TestAnnotationMapUnknownLookUp(t *testing.T) {
	m := NewAnnotationMap(4, 1)

	assert.Equal(t, "", m.LookUp(0, 42))
	assert.Equal(t, "", m.LookUp(5, 1), "out-of-range device never fails")
}

func TestAnnotationMapEmptyAndOutOfRangeAdd(t *testing.T) {
	m := NewAnnotationMap(4, 1)

	m.Add(0, 1, "")
	assert.Equal(t, "", m.LookUp(0, 1))

	m.Add(9, 1, "lost")
	assert.Equal(t, "", m.LookUp(9, 1))
}

func TestAnnotationMapDropOnFull(t *testing.T) {
	m := NewAnnotationMap(2, 1)

	m.Add(0, 1, "a")
	m.Add(0, 2, "b")
	require.Equal(t, "a", m.LookUp(0, 1))
	require.Equal(t, "b", m.LookUp(0, 2))

	// At capacity: new strings are dropped, not evicted.
	m.Add(0, 3, "c")
	assert.Equal(t, "", m.LookUp(0, 3))

	// Existing mappings are untouched.
	assert.Equal(t, "a", m.LookUp(0, 1))
	assert.Equal(t, "b", m.LookUp(0, 2))
}

func TestAnnotationMapConcurrent(t *testing.T) {
	const devices = 4
	const perDevice = 100
	m := NewAnnotationMap(perDevice, devices)

	var wg sync.WaitGroup
	for d := 0; d < devices; d++ {
		wg.Add(1)
		go func(d int) {
			defer wg.Done()
			for c := 0; c < perDevice; c++ {
				m.Add(uint32(d), uint64(c), fmt.Sprintf("dev%d-op%d", d, c))
				m.LookUp(uint32(d), uint64(c))
			}
		}(d)
	}
	wg.Wait()

	for d := 0; d < devices; d++ {
		for c := 0; c < perDevice; c++ {
			assert.Equal(t, fmt.Sprintf("dev%d-op%d", d, c), m.LookUp(uint32(d), uint64(c)))
		}
	}
}
