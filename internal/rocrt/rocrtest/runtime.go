// Package rocrtest provides a scripted in-memory rocrt.Runtime for
// tests: it records registrations and domain toggles, lets tests inject
// a failure status per call site, and synthesizes callback and flush
// deliveries.
package rocrtest

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ALEYI17/InfraSight_rocm/internal/rocrt"
)

type Runtime struct {
	mu sync.Mutex

	// Statuses maps a call-site name ("EnableCallback", "FlushActivity",
	// "NextRecord", ...) to the status it should return. Missing entries
	// return success.
	Statuses map[string]rocrt.Status

	// NumDevices is returned by DeviceCount.
	NumDevices int

	// FailNextRecordAfter makes NextRecord fail once it has advanced
	// that many records in the current buffer. <0 disables.
	FailNextRecordAfter int
	advanced            int

	// Pending is delivered through the pool's buffer callback when
	// FlushActivity is called, then cleared.
	Pending []byte

	// Names overrides OpString per callback id.
	Names map[rocrt.CallbackID]string

	// KernelNames overrides KernelName per handle.
	KernelNames map[rocrt.KernelFunc]string

	apiCb    rocrt.APICallback
	opCbs    map[rocrt.CallbackID]rocrt.APICallback
	pool     rocrt.Properties
	poolOpen bool

	EnabledDomains  []rocrt.Domain
	DisabledDomains []rocrt.Domain
	Flushes         int

	clock atomic.Uint64
}

func New() *Runtime {
	return &Runtime{
		Statuses:            make(map[string]rocrt.Status),
		NumDevices:          1,
		FailNextRecordAfter: -1,
		Names:               make(map[rocrt.CallbackID]string),
		KernelNames:         make(map[rocrt.KernelFunc]string),
		opCbs:               make(map[rocrt.CallbackID]rocrt.APICallback),
	}
}

func (r *Runtime) st(site string) rocrt.Status {
	if s, ok := r.Statuses[site]; ok {
		return s
	}
	return rocrt.ROCTRACER_STATUS_SUCCESS
}

func (r *Runtime) EnableCallback(cb rocrt.APICallback) rocrt.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.st("EnableCallback"); st != rocrt.ROCTRACER_STATUS_SUCCESS {
		return st
	}
	r.apiCb = cb
	return rocrt.ROCTRACER_STATUS_SUCCESS
}

func (r *Runtime) DisableCallback() rocrt.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.st("DisableCallback"); st != rocrt.ROCTRACER_STATUS_SUCCESS {
		return st
	}
	r.apiCb = nil
	return rocrt.ROCTRACER_STATUS_SUCCESS
}

func (r *Runtime) EnableOpCallback(domain rocrt.Domain, cbid rocrt.CallbackID, cb rocrt.APICallback) rocrt.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.st("EnableOpCallback"); st != rocrt.ROCTRACER_STATUS_SUCCESS {
		return st
	}
	r.opCbs[cbid] = cb
	return rocrt.ROCTRACER_STATUS_SUCCESS
}

func (r *Runtime) DisableOpCallback(domain rocrt.Domain, cbid rocrt.CallbackID) rocrt.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.st("DisableOpCallback"); st != rocrt.ROCTRACER_STATUS_SUCCESS {
		return st
	}
	delete(r.opCbs, cbid)
	return rocrt.ROCTRACER_STATUS_SUCCESS
}

func (r *Runtime) DefaultPoolOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.poolOpen
}

func (r *Runtime) OpenPool(props rocrt.Properties) rocrt.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.st("OpenPool"); st != rocrt.ROCTRACER_STATUS_SUCCESS {
		return st
	}
	r.pool = props
	r.poolOpen = true
	return rocrt.ROCTRACER_STATUS_SUCCESS
}

func (r *Runtime) EnableDomainActivity(domain rocrt.Domain) rocrt.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.st("EnableDomainActivity"); st != rocrt.ROCTRACER_STATUS_SUCCESS {
		return st
	}
	r.EnabledDomains = append(r.EnabledDomains, domain)
	return rocrt.ROCTRACER_STATUS_SUCCESS
}

func (r *Runtime) DisableDomainActivity(domain rocrt.Domain) rocrt.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.st("DisableDomainActivity"); st != rocrt.ROCTRACER_STATUS_SUCCESS {
		return st
	}
	r.DisabledDomains = append(r.DisabledDomains, domain)
	return rocrt.ROCTRACER_STATUS_SUCCESS
}

// FlushActivity delivers any Pending buffer through the pool callback
// before returning, mirroring the runtime's force-flush semantics.
func (r *Runtime) FlushActivity() rocrt.Status {
	r.mu.Lock()
	if st := r.st("FlushActivity"); st != rocrt.ROCTRACER_STATUS_SUCCESS {
		r.mu.Unlock()
		return st
	}
	r.Flushes++
	buf := r.Pending
	r.Pending = nil
	cb := r.pool.BufferCallback
	r.mu.Unlock()
	if len(buf) > 0 && cb != nil {
		cb(buf)
	}
	return rocrt.ROCTRACER_STATUS_SUCCESS
}

func (r *Runtime) NextRecord(buf []byte, off int) (int, rocrt.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.st("NextRecord"); st != rocrt.ROCTRACER_STATUS_SUCCESS {
		return 0, st
	}
	if r.FailNextRecordAfter >= 0 && r.advanced >= r.FailNextRecordAfter {
		return 0, rocrt.ROCTRACER_STATUS_ERROR
	}
	r.advanced++
	return off + rocrt.ActivityRecordSize, rocrt.ROCTRACER_STATUS_SUCCESS
}

func (r *Runtime) DeviceCount() (int, rocrt.Status) {
	if st := r.st("DeviceCount"); st != rocrt.ROCTRACER_STATUS_SUCCESS {
		return 0, st
	}
	return r.NumDevices, rocrt.ROCTRACER_STATUS_SUCCESS
}

// Timestamp ticks a fake monotonic clock: every read advances it.
func (r *Runtime) Timestamp() uint64 {
	return r.clock.Add(100)
}

func (r *Runtime) OpString(domain rocrt.Domain, op rocrt.CallbackID, kind uint32) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.Names[op]; ok {
		return name
	}
	return fmt.Sprintf("HIP_API_%d", op)
}

func (r *Runtime) KernelName(f rocrt.KernelFunc) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.KernelNames[f]; ok {
		return name
	}
	return ""
}

func (r *Runtime) ErrorString() string { return "injected failure" }

// EmitAPI drives the registered callback the way the runtime would:
// op-specific registration wins over the global one. Returns false if
// nothing is registered for cbid.
func (r *Runtime) EmitAPI(domain rocrt.Domain, cbid rocrt.CallbackID, data *rocrt.HipApiData) bool {
	r.mu.Lock()
	cb := r.opCbs[cbid]
	if cb == nil {
		cb = r.apiCb
	}
	r.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(domain, cbid, data)
	return true
}

// EmitCall synthesizes the enter/exit callback pair for one logical call.
func (r *Runtime) EmitCall(domain rocrt.Domain, cbid rocrt.CallbackID, data rocrt.HipApiData) bool {
	enter := data
	enter.Phase = rocrt.ACTIVITY_API_PHASE_ENTER
	if !r.EmitAPI(domain, cbid, &enter) {
		return false
	}
	exit := data
	exit.Phase = rocrt.ACTIVITY_API_PHASE_EXIT
	return r.EmitAPI(domain, cbid, &exit)
}

// CallbackRegistered reports whether any API callback is registered.
func (r *Runtime) CallbackRegistered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apiCb != nil || len(r.opCbs) > 0
}

// ResetAdvance clears the NextRecord failure counter between buffers.
func (r *Runtime) ResetAdvance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanced = 0
}
