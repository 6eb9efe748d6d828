package netserver

import (
	"time"

	"github.com/lestrrat-go/strftime"
)

// formatTimestamp renders now using an optional strftime pattern, mirroring
// the source's per-line "timestamp_format" config option: an empty pattern
// means no timestamp field is attached to connection log lines at all. A
// pattern that fails to compile is treated the same as empty, since a
// malformed config value shouldn't take down logging.
func formatTimestamp(pattern string, now time.Time) string {
	if pattern == "" {
		return ""
	}
	formatted, err := strftime.Format(pattern, now)
	if err != nil {
		return ""
	}
	return formatted
}
