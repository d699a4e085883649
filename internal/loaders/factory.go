package loaders

import (
	"errors"

	"github.com/ALEYI17/InfraSight_rocm/pkg/types"
)

func NewEbpfGpuLoaders(program, objPath, libPath string, collectors ...types.TraceCollector) (types.Gpu_loaders, error) {

	switch program {
	case types.LoaderHiptrace:
		return NewHiptraceLoader(objPath, libPath, collectors...)
	default:
		return nil, errors.New("Unsuported or unknow program")
	}
}
