//go:build !windows

package fsreader

// checkRawDeviceAccess is a no-op off Windows: raw block devices and
// disk images open fine through the ordinary os.Open path there.
func checkRawDeviceAccess(path string) error { return nil }
