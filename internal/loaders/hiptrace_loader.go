package loaders

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"

	"github.com/ALEYI17/InfraSight_rocm/pkg/logutil"
	"github.com/ALEYI17/InfraSight_rocm/pkg/types"
	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/ringbuf"
	"github.com/cilium/ebpf/rlimit"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Fixed-layout ring buffer records produced by bpf/hiptrace. Layouts
// must stay in sync with hiptrace.bpf.c.

type hipKernelLaunchEvent struct {
	Flag           uint8
	_              [3]uint8
	Pid            uint32
	Comm           [16]byte
	BlockX         uint32
	BlockY         uint32
	BlockZ         uint32
	GridX          uint32
	GridY          uint32
	GridZ          uint32
	SharedMemBytes uint64
	TsNs           uint64
}

type hipMemallocEvent struct {
	Flag     uint8
	_        [3]uint8
	Pid      uint32
	Comm     [16]byte
	ByteSize uint64
	TsNs     uint64
}

type hipMemcpyEvent struct {
	Flag     uint8
	Kind     uint8
	Async    uint8
	_        uint8
	Pid      uint32
	Comm     [16]byte
	ByteSize uint64
	TsNs     uint64
}

type hipStreamSyncEvent struct {
	Flag    uint8
	_       [3]uint8
	Pid     uint32
	Comm    [16]byte
	DeltaNs uint64
	TsNs    uint64
}

// HiptraceLoader attaches uprobes to the HIP runtime library and turns
// ring buffer records into normalized trace events for the registered
// collectors. Host-side timestamps only; no correlation ids on this
// path.
type HiptraceLoader struct {
	Coll       *ebpf.Collection
	Up         []link.Link
	Rb         *ringbuf.Reader
	collectors []types.TraceCollector
}

func NewHiptraceLoader(objPath, libPath string, collectors ...types.TraceCollector) (*HiptraceLoader, error) {

	logger := logutil.GetLogger()
	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, err
	}

	spec, err := ebpf.LoadCollectionSpec(objPath)
	if err != nil {
		logger.Error("error", zap.Error(err))
		return nil, err
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		logger.Error("error", zap.Error(err))
		return nil, err
	}

	hipt := &HiptraceLoader{
		Coll: coll,
	}

	ex, err := link.OpenExecutable(libPath)
	if err != nil {
		logger.Error("error", zap.Error(err))
		hipt.Close()
		return nil, err
	}

	functions_entry := []struct {
		name string
		prog string
	}{
		// kernel launch
		{"hipModuleLaunchKernel", "handle_hip_launch_kernel"},
		{"hipLaunchKernel", "handle_hip_launch_kernel"},
		// hipMalloc / hipFree
		{"hipMalloc", "handle_hip_malloc"},
		{"hipFree", "handle_hip_free"},
		// hipMemcpy HtoD
		{"hipMemcpyHtoD", "handle_hip_memcpy_htod"},
		{"hipMemcpyHtoDAsync", "handle_hip_memcpy_htod_async"},
		// hipMemcpy DtoH
		{"hipMemcpyDtoH", "handle_hip_memcpy_dtoh"},
		{"hipMemcpyDtoHAsync", "handle_hip_memcpy_dtoh_async"},
		// hipMemcpy DtoD
		{"hipMemcpyDtoD", "handle_hip_memcpy_dtod"},
		{"hipMemcpyDtoDAsync", "handle_hip_memcpy_dtod_async"},
		// stream sync
		{"hipStreamSynchronize", "handle_hip_stream_sync"},
		{"hipDeviceSynchronize", "handle_hip_stream_sync"},
	}

	functions_exit := []struct {
		name string
		prog string
	}{
		{"hipStreamSynchronize", "handle_hip_stream_sync_ret"},
		{"hipDeviceSynchronize", "handle_hip_stream_sync_ret"},
	}

	for _, fn := range functions_entry {
		prog, ok := coll.Programs[fn.prog]
		if !ok {
			logger.Warn("program missing from object", zap.String("program", fn.prog))
			continue
		}
		up, err := ex.Uprobe(fn.name, prog, nil)
		if err != nil {
			logger.Warn("failed to attach uprobe", zap.String("function", fn.name), zap.Error(err))
			continue // skip this one but keep others
		}
		hipt.Up = append(hipt.Up, up)
		logger.Info("attached uprobe", zap.String("function", fn.name))
	}

	for _, fn := range functions_exit {
		prog, ok := coll.Programs[fn.prog]
		if !ok {
			logger.Warn("program missing from object", zap.String("program", fn.prog))
			continue
		}
		up, err := ex.Uretprobe(fn.name, prog, nil)
		if err != nil {
			logger.Warn("failed to attach uretprobe", zap.String("function", fn.name), zap.Error(err))
			continue // skip this one but keep others
		}
		hipt.Up = append(hipt.Up, up)
		logger.Info("attached uretprobe", zap.String("function", fn.name))
	}

	rbMap, ok := coll.Maps["hip_ringbuf"]
	if !ok {
		hipt.Close()
		return nil, errors.New("hip_ringbuf map missing from object")
	}
	rb, err := ringbuf.NewReader(rbMap)
	if err != nil {
		logger.Error("error", zap.Error(err))
		hipt.Close()
		return nil, err
	}

	hipt.Rb = rb

	hipt.collectors = append(hipt.collectors, collectors...)

	return hipt, nil
}

func (ht *HiptraceLoader) Close() {
	if ht.Rb != nil {
		ht.Rb.Close()
	}
	for _, up := range ht.Up {
		if up != nil {
			up.Close()
		}
	}
	if ht.Coll != nil {
		ht.Coll.Close()
	}
}

func (ht *HiptraceLoader) Run(ctx context.Context) {

	logger := logutil.GetLogger()

	go func() {

		for {
			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, stopping loader...")
				return
			default:
				record, err := ht.Rb.Read()
				if err != nil {
					if errors.Is(err, ringbuf.ErrClosed) {
						logger.Info("Ring buffer closed, exiting...")
						return
					}
					logger.Error("Reading error", zap.Error(err))
					continue
				}

				if len(record.RawSample) < 1 {
					logger.Warn("Empty record")
					continue
				}

				flag := record.RawSample[0]

				switch flag {
				case types.EVENT_GPU_KERNEL_LAUNCH:
					var e hipKernelLaunchEvent
					if err := binary.Read(bytes.NewBuffer(record.RawSample), binary.LittleEndian, &e); err != nil {
						logger.Error("Parsing kernel launch event", zap.Error(err))
						continue
					}
					logger.Debug("hip kernel launch",
						zap.Uint32("pid", e.Pid),
						zap.String("comm", unix.ByteSliceToString(e.Comm[:])))
					ht.sendToCollectors(types.TraceEvent{
						Type:        types.TraceEventTypeKernel,
						Source:      types.TraceEventSourceApiCallback,
						Name:        "hipModuleLaunchKernel",
						StartTimeNs: e.TsNs,
						EndTimeNs:   e.TsNs,
						ThreadID:    int32(e.Pid),
						KernelInfo: types.KernelInfo{
							DynamicSharedMemoryUsage: e.SharedMemBytes,
							BlockX:                   e.BlockX,
							BlockY:                   e.BlockY,
							BlockZ:                   e.BlockZ,
							GridX:                    e.GridX,
							GridY:                    e.GridY,
							GridZ:                    e.GridZ,
						},
					})

				case types.EVENT_GPU_MALLOC, types.EVENT_GPU_FREE:
					var e hipMemallocEvent
					if err := binary.Read(bytes.NewBuffer(record.RawSample), binary.LittleEndian, &e); err != nil {
						logger.Error("Parsing memalloc event", zap.Error(err))
						continue
					}
					name := "hipMalloc"
					numBytes := e.ByteSize
					if flag == types.EVENT_GPU_FREE {
						name = "hipFree"
						numBytes = 0
					}
					ht.sendToCollectors(types.TraceEvent{
						Type:         types.TraceEventTypeMemoryAlloc,
						Source:       types.TraceEventSourceApiCallback,
						Name:         name,
						StartTimeNs:  e.TsNs,
						EndTimeNs:    e.TsNs,
						ThreadID:     int32(e.Pid),
						MemallocInfo: types.MemallocInfo{NumBytes: numBytes},
					})

				case types.EVENT_GPU_MEMCPY:
					var e hipMemcpyEvent
					if err := binary.Read(bytes.NewBuffer(record.RawSample), binary.LittleEndian, &e); err != nil {
						logger.Error("Parsing memcpy event", zap.Error(err))
						continue
					}
					typ := types.TraceEventTypeMemcpyOther
					switch e.Kind {
					case types.DIR_HTOD:
						typ = types.TraceEventTypeMemcpyH2D
					case types.DIR_DTOH:
						typ = types.TraceEventTypeMemcpyD2H
					case types.DIR_DTOD:
						typ = types.TraceEventTypeMemcpyD2D
					}
					ht.sendToCollectors(types.TraceEvent{
						Type:        typ,
						Source:      types.TraceEventSourceApiCallback,
						Name:        typ.String(),
						StartTimeNs: e.TsNs,
						EndTimeNs:   e.TsNs,
						ThreadID:    int32(e.Pid),
						MemcpyInfo: types.MemcpyInfo{
							NumBytes: e.ByteSize,
							Async:    e.Async != 0,
						},
					})

				case types.EVENT_GPU_STREAM_SYNC:
					var e hipStreamSyncEvent
					if err := binary.Read(bytes.NewBuffer(record.RawSample), binary.LittleEndian, &e); err != nil {
						logger.Error("Parsing stream sync event", zap.Error(err))
						continue
					}
					ht.sendToCollectors(types.TraceEvent{
						Type:        types.TraceEventTypeGeneric,
						Source:      types.TraceEventSourceApiCallback,
						Name:        "hipStreamSynchronize",
						StartTimeNs: e.TsNs,
						EndTimeNs:   e.TsNs + e.DeltaNs,
						ThreadID:    int32(e.Pid),
					})

				default:
					logger.Warn("Unknown event flag", zap.Uint8("flag", flag))
					continue
				}
			}
		}

	}()
}

func (ht *HiptraceLoader) sendToCollectors(ev types.TraceEvent) {
	for _, c := range ht.collectors {
		c.AddEvent(ev)
	}
}
