package tracer

import (
	"testing"

	"github.com/ALEYI17/InfraSight_rocm/internal/rocrt"
	"github.com/ALEYI17/InfraSight_rocm/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestDecodeHipMemcpy(t *testing.T) {
	tests := []struct {
		name      string
		cbid      rocrt.CallbackID
		sizeBytes uint64
		wantBytes uint64
		wantType  types.TraceEventType
		wantAsync bool
	}{
		{"dtoh async", rocrt.HIP_API_ID_hipMemcpyDtoHAsync, 4096, 4096, types.TraceEventTypeMemcpyD2H, true},
		{"htod sync", rocrt.HIP_API_ID_hipMemcpyHtoD, 128, 128, types.TraceEventTypeMemcpyH2D, false},
		{"dtoh sync", rocrt.HIP_API_ID_hipMemcpyDtoH, 1, 1, types.TraceEventTypeMemcpyD2H, false},
		{"htod async", rocrt.HIP_API_ID_hipMemcpyHtoDAsync, 7, 7, types.TraceEventTypeMemcpyH2D, true},
		{"dtod sync", rocrt.HIP_API_ID_hipMemcpyDtoD, 512, 512, types.TraceEventTypeMemcpyD2D, false},
		{"dtod async", rocrt.HIP_API_ID_hipMemcpyDtoDAsync, 512, 512, types.TraceEventTypeMemcpyD2D, true},
		{"unrecognized id", rocrt.HIP_API_ID_hipMalloc, 4096, 0, types.TraceEventTypeUnsupported, false},
		{"unknown id", rocrt.CallbackID(9999), 4096, 0, types.TraceEventTypeUnsupported, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := &rocrt.HipApiData{}
			data.Args.Memcpy.SizeBytes = tt.sizeBytes

			gotBytes, gotType, gotAsync := decodeHipMemcpy(tt.cbid, data)
			assert.Equal(t, tt.wantBytes, gotBytes)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantAsync, gotAsync)
		})
	}
}

func TestDecodeHipMemcpyDeterministic(t *testing.T) {
	data := &rocrt.HipApiData{}
	data.Args.Memcpy.SizeBytes = 4096
	for i := 0; i < 3; i++ {
		b, typ, async := decodeHipMemcpy(rocrt.HIP_API_ID_hipMemcpyDtoHAsync, data)
		assert.Equal(t, uint64(4096), b)
		assert.Equal(t, types.TraceEventTypeMemcpyD2H, typ)
		assert.True(t, async)
	}
}
