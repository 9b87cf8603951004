package memory

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// String renders a Stats snapshot in the same human-readable-size style
// the teacher used for its memory diagnostics (formerly
// internal/memory/memory.go's GetMemoryStats, which read runtime.MemStats
// directly; this renders the managed pool's own counters instead).
func (s Stats) String() string {
	return fmt.Sprintf("gc: cycle %d live %d->%d reclaimed %d charged %s",
		s.CyclesRun, s.LiveBefore, s.LiveAfter, s.Reclaimed, humanize.Bytes(uint64(s.BytesCharged)))
}
