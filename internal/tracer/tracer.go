// Package tracer implements the capture core of the GPU-operation
// tracer: it registers with the runtime's interception API, normalizes
// synchronous API callbacks and asynchronously flushed activity records
// into trace events, stitches thread-scoped annotations onto them via
// correlation ids, and forwards finished events to a collector.
package tracer

import (
	"sync"
	"sync/atomic"

	"github.com/ALEYI17/InfraSight_rocm/internal/rocrt"
	"github.com/ALEYI17/InfraSight_rocm/pkg/annotation"
	"github.com/ALEYI17/InfraSight_rocm/pkg/logutil"
	"github.com/ALEYI17/InfraSight_rocm/pkg/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Options is the immutable configuration for one tracing session,
// supplied at Enable and discarded at Disable.
type Options struct {
	// RequiredCallbackAPIEvents also emits host-side callback events
	// when activity tracing carries the timing.
	RequiredCallbackAPIEvents bool

	// EnableActivityAPI selects the activity-buffer capture strategy.
	EnableActivityAPI bool

	// ActivitiesSelected lists the activity domains to enable.
	ActivitiesSelected []rocrt.Domain

	// CbidsSelected restricts interception to these callback ids; empty
	// means the global callback is registered instead.
	CbidsSelected []rocrt.CallbackID

	// MaxAnnotationStrings caps unique annotation strings per device.
	MaxAnnotationStrings int
}

// Tracer owns one tracing session at a time. Enable and Disable must be
// serialized by the caller against each other; HandleCallback and
// ProcessActivityRecord arrive concurrently on the runtime's threads.
type Tracer struct {
	rt rocrt.Runtime

	// ThreadID stamps callback-path events; defaults to the OS thread id.
	ThreadID func() int32
	// CurrentAnnotation is queried once per callback exit; defaults to
	// the annotation package's per-thread registry.
	CurrentAnnotation func() string

	apiTracingEnabled      atomic.Bool
	activityTracingEnabled atomic.Bool

	opts        *Options
	collector   types.TraceCollector
	annotations *AnnotationMap
	hook        apiHook

	disabler *tracingDisabler

	devOnce  sync.Once
	devCount int
}

func New(rt rocrt.Runtime) *Tracer {
	return &Tracer{
		rt:                rt,
		ThreadID:          func() int32 { return int32(unix.Gettid()) },
		CurrentAnnotation: annotation.Current,
		disabler:          newTracingDisabler(),
	}
}

// IsAvailable reports that no session is active.
func (t *Tracer) IsAvailable() bool {
	return !t.apiTracingEnabled.Load() && !t.activityTracingEnabled.Load()
}

// NumGpus queries the device count once and caches it; a failed query
// caches 0, which disables annotation capture for the session.
func (t *Tracer) NumGpus() int {
	t.devOnce.Do(func() {
		release := t.internalCall()
		defer release()
		n, st := t.rt.DeviceCount()
		if err := rocrt.StatusErr(t.rt, st); err != nil {
			logutil.GetLogger().Error("device count query failed", zap.Error(err))
			return
		}
		logutil.GetLogger().Info("profiler found GPUs", zap.Int("count", n))
		t.devCount = n
	})
	return t.devCount
}

// Enable starts a session. Calling Enable on an enabled tracer is a
// logged no-op rather than an error.
func (t *Tracer) Enable(opts Options, collector types.TraceCollector) {
	logger := logutil.GetLogger()
	if !t.IsAvailable() {
		logger.Warn("tracer already enabled, ignoring Enable")
		return
	}
	t.opts = &opts
	t.collector = collector
	t.annotations = NewAnnotationMap(opts.MaxAnnotationStrings, t.NumGpus())

	if opts.EnableActivityAPI {
		t.hook = newActivityApiHook(t)
	} else {
		t.hook = newCallbackApiHook(t)
	}

	if err := t.enableApiTracing(); err != nil {
		logger.Error("enabling api tracing", zap.Error(err))
	}
	if opts.EnableActivityAPI {
		if err := t.enableActivityTracing(); err != nil {
			logger.Error("enabling activity tracing", zap.Error(err))
		}
	}
}

// Disable tears the session down. Every step is best-effort so a failed
// step never prevents later ones; in particular the collector's Flush
// always runs, exactly once. Must not be called from inside a callback.
func (t *Tracer) Disable() {
	if t.IsAvailable() {
		return
	}
	logger := logutil.GetLogger()

	var errs error
	errs = multierr.Append(errs, t.disableApiTracing())
	if t.opts.EnableActivityAPI {
		errs = multierr.Append(errs, t.disableActivityTracing())
	}
	errs = multierr.Append(errs, t.hook.Flush())
	t.collector.Flush()
	if errs != nil {
		logger.Error("tracer teardown completed with errors", zap.Error(errs))
	}

	t.collector = nil
	t.opts = nil
	t.hook = nil
	t.annotations = nil
}

func (t *Tracer) enableApiTracing() error {
	if t.apiTracingEnabled.Load() {
		return nil
	}
	t.apiTracingEnabled.Store(true)

	release := t.internalCall()
	defer release()
	if len(t.opts.CbidsSelected) > 0 {
		for _, cbid := range t.opts.CbidsSelected {
			st := t.rt.EnableOpCallback(rocrt.ACTIVITY_DOMAIN_HIP_API, cbid, apiCallback(t))
			if err := rocrt.StatusErr(t.rt, st); err != nil {
				return err
			}
		}
		return nil
	}
	return rocrt.StatusErr(t.rt, t.rt.EnableCallback(apiCallback(t)))
}

func (t *Tracer) disableApiTracing() error {
	if !t.apiTracingEnabled.Load() {
		return nil
	}
	t.apiTracingEnabled.Store(false)

	release := t.internalCall()
	defer release()
	if len(t.opts.CbidsSelected) > 0 {
		var errs error
		for _, cbid := range t.opts.CbidsSelected {
			st := t.rt.DisableOpCallback(rocrt.ACTIVITY_DOMAIN_HIP_API, cbid)
			errs = multierr.Append(errs, rocrt.StatusErr(t.rt, st))
		}
		return errs
	}
	return rocrt.StatusErr(t.rt, t.rt.DisableCallback())
}

func (t *Tracer) enableActivityTracing() error {
	logger := logutil.GetLogger()
	if len(t.opts.ActivitiesSelected) > 0 {
		release := t.internalCall()
		defer release()

		if !t.rt.DefaultPoolOpen() {
			props := rocrt.Properties{
				BufferSize:     0x1000,
				BufferCallback: activityCallback(t),
			}
			if err := rocrt.StatusErr(t.rt, t.rt.OpenPool(props)); err != nil {
				return err
			}
		}

		logger.Info("enabling activity tracing",
			zap.Int("domains", len(t.opts.ActivitiesSelected)))
		for _, domain := range t.opts.ActivitiesSelected {
			st := t.rt.EnableDomainActivity(domain)
			if err := rocrt.StatusErr(t.rt, st); err != nil {
				return err
			}
		}
	}
	t.activityTracingEnabled.Store(true)
	return nil
}

// disableActivityTracing turns each domain off and forces a flush so
// already-captured records are delivered before the buffer goes away.
// The enabled flag drops only after the flush, otherwise the flush
// delivery itself would be refused.
func (t *Tracer) disableActivityTracing() error {
	var errs error
	if t.activityTracingEnabled.Load() {
		logger := logutil.GetLogger()
		release := t.internalCall()

		logger.Info("disabling activity tracing",
			zap.Int("domains", len(t.opts.ActivitiesSelected)))
		for _, domain := range t.opts.ActivitiesSelected {
			st := t.rt.DisableDomainActivity(domain)
			errs = multierr.Append(errs, rocrt.StatusErr(t.rt, st))
		}

		// The flush delivers any buffered records synchronously through
		// ProcessActivityRecord before it returns.
		errs = multierr.Append(errs, rocrt.StatusErr(t.rt, t.rt.FlushActivity()))
		release()
		logger.Info("activity buffer flushed")
	}
	t.activityTracingEnabled.Store(false)
	return errs
}

// HandleCallback is invoked by the runtime once at entry and once at
// exit of every intercepted call, on arbitrary concurrent threads. It
// drops the callback if the session raced Disable, if the domain is not
// traced, or if the call was issued by the tracer itself.
func (t *Tracer) HandleCallback(domain rocrt.Domain, cbid rocrt.CallbackID, data *rocrt.HipApiData) error {
	if !t.apiTracingEnabled.Load() {
		return nil
	}
	if domain != rocrt.ACTIVITY_DOMAIN_HIP_API {
		return nil
	}
	if t.disabler.disabled(t.ThreadID()) {
		return nil
	}

	// TODO: derive the device id from the callback payload once the
	// runtime exposes it there; until then annotations and callback
	// events are keyed to device 0.
	deviceID := uint32(0)

	logutil.GetLogger().Debug("hip api callback",
		zap.String("op", t.opString(domain, cbid)),
		zap.Uint32("cbid", uint32(cbid)),
		zap.Uint64("correlation_id", data.CorrelationID))

	switch data.Phase {
	case rocrt.ACTIVITY_API_PHASE_ENTER:
		return t.hook.OnApiEnter(deviceID, domain, cbid, data)
	case rocrt.ACTIVITY_API_PHASE_EXIT:
		// The annotation goes in before the exit hook so a later
		// activity-record decode for this correlation id can find it.
		if ann := t.CurrentAnnotation(); ann != "" {
			t.annotations.Add(deviceID, data.CorrelationID, ann)
		}
		return t.hook.OnApiExit(deviceID, domain, cbid, data)
	}
	return nil
}

// ProcessActivityRecord decodes one flushed buffer of activity records.
// Unrecognized operation codes are skipped; a failure advancing to the
// next record aborts the rest of the buffer but leaves the session up.
func (t *Tracer) ProcessActivityRecord(buf []byte) error {
	logger := logutil.GetLogger()
	if !t.activityTracingEnabled.Load() {
		logger.Warn("activity buffer flushed after tracing was disabled")
		return nil
	}

	off := 0
	for off+rocrt.ActivityRecordSize <= len(buf) {
		rec, err := rocrt.DecodeActivityRecord(buf[off:])
		if err != nil {
			return err
		}
		logger.Debug("activity record",
			zap.String("op", t.opString(rec.Domain, rec.Op)),
			zap.Uint64("correlation_id", rec.CorrelationID),
			zap.Uint64("begin_ns", rec.BeginNs),
			zap.Uint64("end_ns", rec.EndNs))

		switch rec.Op {
		case rocrt.HIP_API_ID_hipModuleLaunchKernel:
			t.addKernelActivityEvent(rec)
		case rocrt.HIP_API_ID_hipMemcpyDtoH,
			rocrt.HIP_API_ID_hipMemcpyHtoD,
			rocrt.HIP_API_ID_hipMemcpyDtoD,
			rocrt.HIP_API_ID_hipMemcpyDtoHAsync,
			rocrt.HIP_API_ID_hipMemcpyHtoDAsync,
			rocrt.HIP_API_ID_hipMemcpyDtoDAsync:
			t.addMemcpyActivityEvent(rec)
		}

		next, st := t.nextRecord(buf, off)
		if err := rocrt.InternalErr(t.rt, st); err != nil {
			return err
		}
		off = next
	}
	return nil
}

// internalCall marks the current thread so runtime calls the tracer
// issues are not re-captured. Returns the release func.
func (t *Tracer) internalCall() func() {
	return t.disabler.disable(t.ThreadID())
}

func (t *Tracer) timestamp() uint64 {
	release := t.internalCall()
	defer release()
	return t.rt.Timestamp()
}

func (t *Tracer) opString(domain rocrt.Domain, op rocrt.CallbackID) string {
	release := t.internalCall()
	defer release()
	return t.rt.OpString(domain, op, 0)
}

func (t *Tracer) kernelName(f rocrt.KernelFunc) string {
	release := t.internalCall()
	defer release()
	return t.rt.KernelName(f)
}

func (t *Tracer) nextRecord(buf []byte, off int) (int, rocrt.Status) {
	release := t.internalCall()
	defer release()
	return t.rt.NextRecord(buf, off)
}

// apiCallback binds t into the function registered with the runtime.
// All logic lives in HandleCallback; errors never cross the foreign
// callback boundary.
func apiCallback(t *Tracer) rocrt.APICallback {
	return func(domain rocrt.Domain, cbid rocrt.CallbackID, data *rocrt.HipApiData) {
		if err := t.HandleCallback(domain, cbid, data); err != nil {
			logutil.GetLogger().Error("handling api callback", zap.Error(err))
		}
	}
}

func activityCallback(t *Tracer) rocrt.BufferCallback {
	return func(buf []byte) {
		if err := t.ProcessActivityRecord(buf); err != nil {
			logutil.GetLogger().Error("processing activity records", zap.Error(err))
		}
	}
}
