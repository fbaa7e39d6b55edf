package utils

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatFileSize renders a byte count for humans, e.g. "1.2 MB"
func FormatFileSize(size int64) string {
	if size <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(size))
}

// TransferStats tracks download statistics for a run
type TransferStats struct {
	Files     int
	Bytes     int64
	Verified  int
	StartTime time.Time
}

// NewTransferStats creates a new transfer tracker
func NewTransferStats() *TransferStats {
	return &TransferStats{StartTime: time.Now()}
}

// AddFile records a completed download
func (ts *TransferStats) AddFile(size int64) {
	ts.Files++
	ts.Bytes += size
}

// AddVerified records a verified package
func (ts *TransferStats) AddVerified() {
	ts.Verified++
}

// Summary returns a one-line summary of the run
func (ts *TransferStats) Summary() string {
	elapsed := time.Since(ts.StartTime).Round(time.Millisecond)
	summary := fmt.Sprintf("Downloaded %d file(s), %s in %v", ts.Files, FormatFileSize(ts.Bytes), elapsed)
	if ts.Verified > 0 {
		summary += fmt.Sprintf(", %d verified", ts.Verified)
	}
	return summary
}
