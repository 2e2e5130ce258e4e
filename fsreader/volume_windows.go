//go:build windows

package fsreader

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// checkRawDeviceAccess verifies path names a raw device/volume this
// process can actually open for sequential reads before OpenVolume
// hands back a Volume backed by it — opening a live \\.\C: handle
// through os.Open silently succeeds but later reads at arbitrary
// offsets fail with access-denied on some Windows configurations
// unless FILE_FLAG_BACKUP_SEMANTICS was set at CreateFile time, so
// this probes with the real Windows API instead of relying on the
// generic os.File path Open uses.
func checkRawDeviceAccess(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fmt.Errorf("fsreader: %w", err)
	}
	handle, err := windows.CreateFile(
		p,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return fmt.Errorf("fsreader: opening raw device %s: %w", path, err)
	}
	windows.CloseHandle(handle)
	return nil
}
