package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

var (
	// ErrLowDiskSpace is returned when a file system has less room than required
	ErrLowDiskSpace = errors.New("not enough disk space")

	// ErrNotWritable is returned when files cannot be created in a directory
	ErrNotWritable = errors.New("directory is not writable")
)

// DiskUsage contains disk space information for the file system holding Path
type DiskUsage struct {
	Path      string
	Total     uint64 // Total space in bytes
	Free      uint64 // Free space in bytes
	Available uint64 // Space available to the current user in bytes
}

// Used returns the number of bytes in use
func (d *DiskUsage) Used() uint64 {
	return d.Total - d.Free
}

// UsedPercent returns the used share of the file system
func (d *DiskUsage) UsedPercent() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Used()) / float64(d.Total) * 100
}

func (d *DiskUsage) String() string {
	return fmt.Sprintf("%s available of %s (%.1f%% used)",
		humanize.Bytes(d.Available), humanize.Bytes(d.Total), d.UsedPercent())
}

// CheckDiskSpace reports the usage of the file system holding path. When
// less than min bytes are available the usage is returned together with
// ErrLowDiskSpace.
func CheckDiskSpace(path string, min uint64) (*DiskUsage, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	usage, err := getDiskUsage(absPath)
	if err != nil {
		return nil, err
	}
	usage.Path = absPath

	if usage.Available < min {
		return usage, fmt.Errorf("%w: %s available, %s required", ErrLowDiskSpace,
			humanize.Bytes(usage.Available), humanize.Bytes(min))
	}
	return usage, nil
}

// CheckWritable verifies that dir exists and that files can be created in it
func CheckWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotWritable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNotWritable, dir)
	}

	f, err := os.CreateTemp(dir, ".mia-write-test-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotWritable, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
