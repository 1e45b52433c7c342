package earley

import (
	"fmt"

	"github.com/dekarrin/rosed"
)

// Dump renders the most recently built chart as a table, one row per
// earleme, columns for its Earley items and Leo items. Intended for the
// verbose mode of cmd/marsharec and for trace-log attachments, not for
// machine parsing.
func (rec *Recognizer) Dump() string {
	if rec.chart == nil {
		return "(no chart; Recognize has not been called)"
	}

	headers := []string{"earleme", "partial parses", "leo items"}
	data := [][]string{headers}

	for e := 0; e < rec.chart.EarlemeCount(); e++ {
		var parses, leos string
		for i, p := range rec.chart.EarleyAt(e) {
			if i > 0 {
				parses += "\n"
			}
			parses += p.String()
		}
		for i, l := range rec.chart.LeoAt(e) {
			if i > 0 {
				leos += "\n"
			}
			leos += l.String()
		}
		data = append(data, []string{fmt.Sprintf("%d", e), parses, leos})
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 100, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
