package crawler

import (
	"encoding/hex"
	"time"

	"lukechampine.com/blake3"
)

// NewScanID returns an opaque, unique token for one scan: a BLAKE3 hash
// of the seed URL and the scan's start time, hex-encoded and truncated
// to a short, still-effectively-unique prefix.
func NewScanID(seedURL string, startTime time.Time) string {
	sum := blake3.Sum256([]byte(seedURL + "|" + startTime.Format(time.RFC3339Nano)))
	return "scan_" + hex.EncodeToString(sum[:])[:16]
}
