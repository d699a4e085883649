// Package rocrt models the roctracer/HIP surface the capture core
// consumes: domain and callback-id enumerations, the per-call payload
// delivered to API callbacks, the fixed-layout activity record, and the
// Runtime interface a real binding (or a test fake) implements.
package rocrt

// Domain is a logical grouping of interceptable runtime operations.
type Domain uint32

const (
	ACTIVITY_DOMAIN_HSA_API Domain = 0
	ACTIVITY_DOMAIN_HSA_OPS Domain = 1
	ACTIVITY_DOMAIN_HIP_OPS Domain = 2
	ACTIVITY_DOMAIN_HIP_API Domain = 4
	ACTIVITY_DOMAIN_KFD_API Domain = 5
	ACTIVITY_DOMAIN_EXT_API Domain = 6
	ACTIVITY_DOMAIN_ROCTX   Domain = 7
)

// CallbackID identifies one HIP API entry point. Values follow the
// generated profiler string header's alphabetical id table; only the ids
// the tracer dispatches on are spelled out here.
type CallbackID uint32

const (
	HIP_API_ID_hipFree               CallbackID = 30
	HIP_API_ID_hipMalloc             CallbackID = 73
	HIP_API_ID_hipMemcpyDtoD         CallbackID = 86
	HIP_API_ID_hipMemcpyDtoDAsync    CallbackID = 87
	HIP_API_ID_hipMemcpyDtoH         CallbackID = 88
	HIP_API_ID_hipMemcpyDtoHAsync    CallbackID = 89
	HIP_API_ID_hipMemcpyHtoD         CallbackID = 93
	HIP_API_ID_hipMemcpyHtoDAsync    CallbackID = 94
	HIP_API_ID_hipModuleLaunchKernel CallbackID = 103
	HIP_API_ID_hipStreamSynchronize  CallbackID = 134
)

// Phase says whether an API callback fired at call entry or call exit.
type Phase uint32

const (
	ACTIVITY_API_PHASE_ENTER Phase = 0
	ACTIVITY_API_PHASE_EXIT  Phase = 1
)

// KernelFunc is an opaque kernel function handle; 0 means absent. The
// kernel's demangled name is resolved through Runtime.KernelName.
type KernelFunc uintptr

type KernelLaunchArgs struct {
	Func           KernelFunc
	GridDimX       uint32
	GridDimY       uint32
	GridDimZ       uint32
	BlockDimX      uint32
	BlockDimY      uint32
	BlockDimZ      uint32
	SharedMemBytes uint32
	Stream         uint64
}

type MemcpyArgs struct {
	SizeBytes uint64
}

type MallocArgs struct {
	Size uint64
}

// ApiArgs is the Go rendering of the runtime's type-punned per-call
// argument union; only the view matching the callback id is populated.
type ApiArgs struct {
	ModuleLaunchKernel KernelLaunchArgs
	Memcpy             MemcpyArgs
	Malloc             MallocArgs
}

// HipApiData is the payload handed to an API callback, once at entry and
// once at exit of every intercepted call. The runtime guarantees it is
// safe to read from the callback thread for the callback's duration.
type HipApiData struct {
	CorrelationID uint64
	Phase         Phase
	Args          ApiArgs
}

// APICallback is invoked synchronously on the runtime's calling thread.
type APICallback func(domain Domain, cbid CallbackID, data *HipApiData)

// BufferCallback receives one flushed range of activity records.
type BufferCallback func(buf []byte)

// Properties configures the activity buffer pool.
type Properties struct {
	BufferSize     int
	BufferCallback BufferCallback
}

// Runtime is the registration/query API of the instrumented runtime.
//
// Contract notes carried from the native library: DisableCallback does
// not return while callbacks are in flight, and a call's exit callback
// always fires before any activity record for that call is flushed.
type Runtime interface {
	EnableCallback(cb APICallback) Status
	DisableCallback() Status
	EnableOpCallback(domain Domain, cbid CallbackID, cb APICallback) Status
	DisableOpCallback(domain Domain, cbid CallbackID) Status

	// DefaultPoolOpen reports whether an activity pool already exists.
	DefaultPoolOpen() bool
	OpenPool(props Properties) Status
	EnableDomainActivity(domain Domain) Status
	DisableDomainActivity(domain Domain) Status
	FlushActivity() Status

	// NextRecord returns the offset of the record following the one at
	// off within a flushed buffer.
	NextRecord(buf []byte, off int) (int, Status)

	DeviceCount() (int, Status)

	// Timestamp returns the runtime's monotonic clock in nanoseconds;
	// 0 means the clock is unavailable and the event will be dropped
	// downstream during time normalization.
	Timestamp() uint64

	OpString(domain Domain, op CallbackID, kind uint32) string
	KernelName(f KernelFunc) string
	ErrorString() string
}
