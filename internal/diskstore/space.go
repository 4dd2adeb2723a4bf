package diskstore

import (
	"fmt"

	"github.com/shirou/gopsutil/disk"
)

// checkFreeSpace verifies that the filesystem behind path has at least
// minFreeGB gigabytes available. A zero minimum disables the check.
func checkFreeSpace(path string, minFreeGB uint) error {
	if minFreeGB == 0 {
		return nil
	}
	usage, err := disk.Usage(path)
	if err != nil {
		return fmt.Errorf("free space check for %s: %w: %v", path, ErrWrite, err)
	}
	minBytes := uint64(minFreeGB) * 1024 * 1024 * 1024
	if usage.Free < minBytes {
		return fmt.Errorf("%w: %s has %d bytes free, need %d", ErrWrite, path, usage.Free, minBytes)
	}
	return nil
}
