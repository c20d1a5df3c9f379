//go:build !linux

package negotio

// lockAndPin runs fn without core pinning on platforms where affinity
// control isn't available through golang.org/x/sys/unix.
func lockAndPin(cpuID int, fn func()) {
	fn()
}

func lockMemory() error {
	return nil
}
