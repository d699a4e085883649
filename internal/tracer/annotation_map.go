package tracer

import (
	"sync"

	"github.com/ALEYI17/InfraSight_rocm/pkg/logutil"
	"go.uber.org/zap"
)

// AnnotationMap associates correlation ids with the annotation string
// that was current on the calling thread at API exit, so that activity
// records decoded later can recover it. Strings are interned per device
// up to maxSize unique entries; once a device's set is full, further
// additions for that device are dropped. Drop-on-full is deliberate --
// no eviction, no LRU.
type AnnotationMap struct {
	maxSize   int
	perDevice []annotationDeviceMap
}

type annotationDeviceMap struct {
	mu             sync.Mutex
	annotations    map[string]string
	correlationMap map[uint64]string
}

func NewAnnotationMap(maxSize, numDevices int) *AnnotationMap {
	m := &AnnotationMap{
		maxSize:   maxSize,
		perDevice: make([]annotationDeviceMap, numDevices),
	}
	for i := range m.perDevice {
		m.perDevice[i].annotations = make(map[string]string)
		m.perDevice[i].correlationMap = make(map[uint64]string)
	}
	return m
}

// Add is a no-op for empty annotations and out-of-range devices.
func (m *AnnotationMap) Add(deviceID uint32, correlationID uint64, annotation string) {
	if annotation == "" {
		return
	}
	logutil.GetLogger().Debug("add annotation",
		zap.Uint32("device_id", deviceID),
		zap.Uint64("correlation_id", correlationID),
		zap.String("annotation", annotation))
	if int(deviceID) >= len(m.perDevice) {
		return
	}
	pd := &m.perDevice[deviceID]
	pd.mu.Lock()
	defer pd.mu.Unlock()
	if len(pd.annotations) < m.maxSize {
		interned, ok := pd.annotations[annotation]
		if !ok {
			pd.annotations[annotation] = annotation
			interned = annotation
		}
		pd.correlationMap[correlationID] = interned
	}
}

// LookUp returns "" for unknown pairs or out-of-range devices.
func (m *AnnotationMap) LookUp(deviceID uint32, correlationID uint64) string {
	if int(deviceID) >= len(m.perDevice) {
		return ""
	}
	pd := &m.perDevice[deviceID]
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.correlationMap[correlationID]
}
