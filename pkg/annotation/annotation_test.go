package annotation

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetCurrentClear(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	assert.Equal(t, "", Current())

	Set("forward_pass")
	assert.Equal(t, "forward_pass", Current())

	Set("backward_pass")
	assert.Equal(t, "backward_pass", Current())

	Clear()
	assert.Equal(t, "", Current())
}

func TestSetEmptyClears(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	Set("x")
	Set("")
	assert.Equal(t, "", Current())
}

func TestScopeRestoresPrevious(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer Clear()

	Set("outer")
	done := Scope("inner")
	assert.Equal(t, "inner", Current())
	done()
	assert.Equal(t, "outer", Current())
}

func TestScopeWithoutPrevious(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	Clear()
	done := Scope("only")
	assert.Equal(t, "only", Current())
	done()
	assert.Equal(t, "", Current())
}

func TestThreadIsolation(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer Clear()

	Set("main-thread")

	got := make(chan string, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		got <- Current()
	}()
	assert.Equal(t, "", <-got)
	assert.Equal(t, "main-thread", Current())
}
