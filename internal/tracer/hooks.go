package tracer

import (
	"sync"

	"github.com/ALEYI17/InfraSight_rocm/internal/rocrt"
)

// apiHook is the capture strategy selected once at Enable and held for
// the whole session.
type apiHook interface {
	OnApiEnter(deviceID uint32, domain rocrt.Domain, cbid rocrt.CallbackID, data *rocrt.HipApiData) error
	OnApiExit(deviceID uint32, domain rocrt.Domain, cbid rocrt.CallbackID, data *rocrt.HipApiData) error
	Flush() error
}

// callbackApiHook times operations host-side: it reads the runtime
// clock at call entry, keyed by correlation id, and emits the finished
// event at call exit. Used when activity tracing is off.
type callbackApiHook struct {
	tracer *Tracer

	mu        sync.Mutex
	enterTime map[uint64]uint64
}

func newCallbackApiHook(t *Tracer) *callbackApiHook {
	return &callbackApiHook{tracer: t, enterTime: make(map[uint64]uint64)}
}

func (h *callbackApiHook) OnApiEnter(deviceID uint32, domain rocrt.Domain, cbid rocrt.CallbackID, data *rocrt.HipApiData) error {
	ts := h.tracer.timestamp()
	h.mu.Lock()
	h.enterTime[data.CorrelationID] = ts
	h.mu.Unlock()
	return nil
}

func (h *callbackApiHook) OnApiExit(deviceID uint32, domain rocrt.Domain, cbid rocrt.CallbackID, data *rocrt.HipApiData) error {
	end := h.tracer.timestamp()
	h.mu.Lock()
	start := h.enterTime[data.CorrelationID]
	delete(h.enterTime, data.CorrelationID)
	h.mu.Unlock()
	h.tracer.addApiCallbackEvent(deviceID, start, end, domain, cbid, data)
	return nil
}

func (h *callbackApiHook) Flush() error { return nil }

// activityApiHook relies on hardware activity records for timing; the
// callback path only harvests annotations. When callback events were
// explicitly requested, exits additionally emit a zero-timestamp event
// (the timestamps live in the matching activity record).
type activityApiHook struct {
	tracer *Tracer
}

func newActivityApiHook(t *Tracer) *activityApiHook {
	return &activityApiHook{tracer: t}
}

func (h *activityApiHook) OnApiEnter(deviceID uint32, domain rocrt.Domain, cbid rocrt.CallbackID, data *rocrt.HipApiData) error {
	return nil
}

func (h *activityApiHook) OnApiExit(deviceID uint32, domain rocrt.Domain, cbid rocrt.CallbackID, data *rocrt.HipApiData) error {
	if !h.tracer.opts.RequiredCallbackAPIEvents {
		return nil
	}
	h.tracer.addApiCallbackEvent(deviceID, 0, 0, domain, cbid, data)
	return nil
}

func (h *activityApiHook) Flush() error { return nil }
