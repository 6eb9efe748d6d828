package dmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// diagnosticsDump optionally writes every Nth emitted RGB24 buffer to disk
// for offline inspection, named via an strftime pattern plus a monotonic
// frame counter to keep same-second dumps distinct. Off by default —
// mirrors the source's own habit of dumping timestamped artifacts to disk
// for later analysis, not a display-state persistence feature.
type diagnosticsDump struct {
	dir     string
	pattern string
	everyN  int
	count   int
}

func newDiagnosticsDump(dir, pattern string, everyN int) diagnosticsDump {
	if everyN <= 0 {
		everyN = 1
	}
	return diagnosticsDump{dir: dir, pattern: pattern, everyN: everyN}
}

func (d *diagnosticsDump) enabled() bool {
	return d.dir != ""
}

// maybeDump increments the frame counter and, every Nth call, writes rgb24
// to DIR/<strftime(pattern)>-<counter>.rgb. Failures are logged, not
// returned — a diagnostics aid must never interrupt frame delivery.
func (d *diagnosticsDump) maybeDump(rgb24 []byte, logger *log.Logger) {
	if !d.enabled() {
		return
	}
	d.count++
	if d.count%d.everyN != 0 {
		return
	}

	stamp, err := strftime.Format(d.pattern, time.Now())
	if err != nil {
		logger.Warn("diagnostics dump: bad pattern", "pattern", d.pattern, "err", err)
		return
	}

	name := fmt.Sprintf("%s-%06d.rgb", stamp, d.count)
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, rgb24, 0o644); err != nil {
		logger.Warn("diagnostics dump: write failed", "path", path, "err", err)
	}
}
