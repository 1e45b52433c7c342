package store

import "github.com/corvidlabs/marsha/internal/earley"

// ChartSnapshot is a rezi-encodable record of a chart built by a single
// Recognize call: the summary counts plus the rosed-formatted dump text
// (earley.Recognizer.Dump), so GET .../recognitions/{id} (SPEC_FULL.md
// §11.4) can return the actual chart dump rather than just its shape.
type ChartSnapshot struct {
	EarlemeCount      int
	PartialParseCount int
	LeoItemCount      int
	Dump              string
}

// SnapshotChart summarizes rec's most recently built chart for persistence.
func SnapshotChart(rec *earley.Recognizer) ChartSnapshot {
	if rec == nil {
		return ChartSnapshot{}
	}
	c := rec.Chart()
	if c == nil {
		return ChartSnapshot{}
	}

	snap := ChartSnapshot{EarlemeCount: c.EarlemeCount(), Dump: rec.Dump()}
	for e := 0; e < c.EarlemeCount(); e++ {
		snap.PartialParseCount += len(c.EarleyAt(e))
		snap.LeoItemCount += len(c.LeoAt(e))
	}
	return snap
}
