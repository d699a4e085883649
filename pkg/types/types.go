package types

const (
	DIR_HTOD = 0
	DIR_DTOH = 1
	DIR_DTOD = 2

	EVENT_GPU_KERNEL_LAUNCH = 1
	EVENT_GPU_MALLOC        = 2
	EVENT_GPU_MEMCPY        = 3
	EVENT_GPU_STREAM_SYNC   = 4
	EVENT_GPU_FREE          = 5
)

const LoaderHiptrace = "hiptrace"

// TraceEventType classifies one traced GPU operation.
type TraceEventType int

const (
	TraceEventTypeUnsupported TraceEventType = iota
	TraceEventTypeKernel
	TraceEventTypeMemcpyH2D
	TraceEventTypeMemcpyD2H
	TraceEventTypeMemcpyD2D
	TraceEventTypeMemcpyP2P
	TraceEventTypeMemcpyOther
	TraceEventTypeMemoryAlloc
	TraceEventTypeGeneric
)

func GetTraceEventTypeName(t TraceEventType) string {
	switch t {
	case TraceEventTypeMemcpyH2D:
		return "MemcpyH2D"
	case TraceEventTypeMemcpyD2H:
		return "MemcpyD2H"
	case TraceEventTypeMemcpyD2D:
		return "MemcpyD2D"
	case TraceEventTypeMemcpyP2P:
		return "MemcpyP2P"
	case TraceEventTypeMemcpyOther:
		return "MemcpyOther"
	case TraceEventTypeKernel:
		return "Compute"
	case TraceEventTypeMemoryAlloc:
		return "MemoryAlloc"
	case TraceEventTypeGeneric:
		return "Generic"
	default:
		return ""
	}
}

func (t TraceEventType) String() string { return GetTraceEventTypeName(t) }

// TraceEventSource says which capture path produced an event: the
// synchronous API callback or the asynchronous activity buffer.
type TraceEventSource int

const (
	TraceEventSourceApiCallback TraceEventSource = iota
	TraceEventSourceActivity
)

type KernelInfo struct {
	DynamicSharedMemoryUsage uint64
	BlockX                   uint32
	BlockY                   uint32
	BlockZ                   uint32
	GridX                    uint32
	GridY                    uint32
	GridZ                    uint32
}

type MemcpyInfo struct {
	NumBytes    uint64
	Destination uint32
	Async       bool
}

// MemallocInfo carries 0 bytes for a free operation.
type MemallocInfo struct {
	NumBytes uint64
}

// TraceEvent is the normalized unit handed to a collector. Once passed to
// AddEvent it belongs to the collector and must not be mutated.
type TraceEvent struct {
	Type          TraceEventType
	Source        TraceEventSource
	Name          string
	Annotation    string
	StartTimeNs   uint64
	EndTimeNs     uint64
	DeviceID      uint32
	CorrelationID uint64
	ThreadID      int32
	StreamID      uint64
	KernelInfo    KernelInfo
	MemcpyInfo    MemcpyInfo
	MemallocInfo  MemallocInfo
}
