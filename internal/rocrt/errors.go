package rocrt

import (
	"errors"
	"fmt"
)

// Status is the runtime's native result code.
type Status int32

const (
	ROCTRACER_STATUS_SUCCESS       Status = 0
	ROCTRACER_STATUS_ERROR         Status = -1
	ROCTRACER_STATUS_UNINIT        Status = -2
	ROCTRACER_STATUS_BREAK         Status = -3
	ROCTRACER_STATUS_BAD_DOMAIN    Status = -4
	ROCTRACER_STATUS_BAD_PARAMETER Status = -5
)

// ErrUnavailable covers failed runtime calls during setup/teardown;
// ErrInternal covers record-buffer iteration failures. The two are the
// error taxonomy's only categories for runtime faults.
var (
	ErrUnavailable = errors.New("roctracer unavailable")
	ErrInternal    = errors.New("roctracer internal error")
)

// StatusErr wraps a failed runtime call into ErrUnavailable, carrying
// the runtime's own error string. Returns nil on success.
func StatusErr(rt Runtime, st Status) error {
	if st == ROCTRACER_STATUS_SUCCESS {
		return nil
	}
	return fmt.Errorf("%w: %s (status %d)", ErrUnavailable, errorString(rt), st)
}

// InternalErr wraps a record-iteration failure into ErrInternal.
func InternalErr(rt Runtime, st Status) error {
	if st == ROCTRACER_STATUS_SUCCESS {
		return nil
	}
	return fmt.Errorf("%w: %s (status %d)", ErrInternal, errorString(rt), st)
}

func errorString(rt Runtime) string {
	if s := rt.ErrorString(); s != "" {
		return s
	}
	return "<unknown>"
}
