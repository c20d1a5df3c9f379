//go:build linux

package negotio

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCore pins the calling OS thread to cpuID, mirroring the hot-loop
// scheduling the supervisor requires for the control listener and the
// UDP receive loop. The caller must have already called
// runtime.LockOSThread.
func pinToCore(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	return unix.SchedSetaffinity(0, &set)
}

// lockAndPin locks the calling goroutine to its OS thread and pins that
// thread to cpuID before invoking fn. fn should run for the lifetime of
// the pinned loop.
func lockAndPin(cpuID int, fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := pinToCore(cpuID); err != nil {
		// Non-fatal: scheduling still proceeds without pinning on
		// platforms or containers that restrict affinity changes.
	}
	fn()
}

func lockMemory() error {
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}
