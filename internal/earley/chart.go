// Package earley implements THE CORE of a MARPA-family Earley/Leo
// recognizer: the chart, its per-earleme grouping, and the recognizer
// driver that advances it earleme by earleme. Grammar representation and
// preprocessing live in the separate internal/grammar package and are
// consumed here only through the Grammar interface (see recognizer.go).
package earley

import (
	"fmt"
	"strings"

	"github.com/corvidlabs/marsha/internal/grammar"
	"github.com/corvidlabs/marsha/internal/rerrors"
)

// PartialParse is an Earley item: a dotted rule paired with the earleme at
// which recognition of that rule began.
type PartialParse struct {
	Expected grammar.DottedRule
	Start    int
}

// Equal reports whether two partial parses are the same dotted rule begun at
// the same position.
func (p PartialParse) Equal(o PartialParse) bool {
	return p.Start == o.Start && p.Expected.Equal(o.Expected)
}

func (p PartialParse) String() string {
	return fmt.Sprintf("%s (%d)", p.Expected, p.Start)
}

// LeoItem is a memoized shortcut: a transition symbol paired with the
// partial parse it shortcuts to, associated with a particular earleme.
type LeoItem struct {
	Transition grammar.Symbol
	Parse      PartialParse
}

func (l LeoItem) String() string {
	return fmt.Sprintf("Leo %s: %s", l.Transition, l.Parse)
}

// earlemeBound demarcates where earleme i's slice of partialParses/leoItems
// begins. earlemeStart[i] gives the first index belonging to earleme i;
// earlemeStart[i+1] (or the current length, for the last earleme) gives the
// exclusive end.
type earlemeBound struct {
	Earley int
	Leo    int
}

// Chart is the append-only Earley/Leo chart described in spec §3. All state
// is built monotonically during a single recognize call and is never mutated
// or removed once appended.
type Chart struct {
	partialParses []PartialParse
	leoItems      []LeoItem
	earlemeStart  []earlemeBound
}

// NewChart returns an empty Chart with capacity reserved for roughly
// capacityHint items, to avoid reallocation in the hot path of a parse whose
// input length is already known.
func NewChart(capacityHint int) *Chart {
	if capacityHint < 1 {
		capacityHint = 1
	}
	return &Chart{
		partialParses: make([]PartialParse, 0, capacityHint*2),
		leoItems:      make([]LeoItem, 0, capacityHint),
		earlemeStart:  make([]earlemeBound, 0, capacityHint),
	}
}

// EarlemeCount returns the number of earlemes opened so far (currentEarleme + 1).
func (c *Chart) EarlemeCount() int {
	return len(c.earlemeStart)
}

// CurrentEarleme returns the index of the earleme currently being built.
// Panics if no earleme has been opened yet.
func (c *Chart) CurrentEarleme() int {
	rerrors.Assert(len(c.earlemeStart) > 0, "Chart.CurrentEarleme called before any earleme was opened")
	return len(c.earlemeStart) - 1
}

// OpenEarleme appends a new earleme boundary at the chart's current length,
// making it the new current earleme.
func (c *Chart) OpenEarleme() {
	c.earlemeStart = append(c.earlemeStart, earlemeBound{
		Earley: len(c.partialParses),
		Leo:    len(c.leoItems),
	})
}

// EarleyBounds returns the half-open index range into the backing
// partialParses slice occupied by earleme. If earleme is the current
// (last) earleme, the end bound is the slice's present length rather than a
// value baked in at OpenEarleme time, since partialParses may still be
// growing in the current earleme (see spec §4.2's "scan grows the array we
// are iterating" note).
func (c *Chart) EarleyBounds(earleme int) (start, end int) {
	start = c.earlemeStart[earleme].Earley
	if earleme == c.CurrentEarleme() {
		end = len(c.partialParses)
	} else {
		end = c.earlemeStart[earleme+1].Earley
	}
	return start, end
}

// LeoBounds is EarleyBounds' counterpart for the leoItems arena.
func (c *Chart) LeoBounds(earleme int) (start, end int) {
	start = c.earlemeStart[earleme].Leo
	if earleme == c.CurrentEarleme() {
		end = len(c.leoItems)
	} else {
		end = c.earlemeStart[earleme+1].Leo
	}
	return start, end
}

// EarleyAt returns a snapshot slice of the partial parses belonging to
// earleme, taken at the moment of the call.
func (c *Chart) EarleyAt(earleme int) []PartialParse {
	start, end := c.EarleyBounds(earleme)
	return c.partialParses[start:end]
}

// LeoAt returns a snapshot slice of the Leo items belonging to earleme,
// taken at the moment of the call.
func (c *Chart) LeoAt(earleme int) []LeoItem {
	start, end := c.LeoBounds(earleme)
	return c.leoItems[start:end]
}

// InsertEarley appends p to the current earleme unless an equal item is
// already present there (spec invariant 1: no duplicates within an earleme
// slice). Reports whether it was inserted.
func (c *Chart) InsertEarley(p PartialParse) bool {
	start, end := c.EarleyBounds(c.CurrentEarleme())
	for i := start; i < end; i++ {
		if c.partialParses[i].Equal(p) {
			return false
		}
	}
	c.partialParses = append(c.partialParses, p)
	return true
}

// FindLeo returns the Leo item at earleme whose transition equals sym, if
// one exists.
func (c *Chart) FindLeo(earleme int, sym grammar.Symbol) (LeoItem, bool) {
	start, end := c.LeoBounds(earleme)
	for i := start; i < end; i++ {
		if c.leoItems[i].Transition == sym {
			return c.leoItems[i], true
		}
	}
	return LeoItem{}, false
}

// InsertLeo appends (transition, p) to the current earleme's Leo items
// unless one with the same transition is already present there (spec
// invariant 2: at most one Leo item per transition symbol per earleme). If
// one is already present, its parse must equal p; violation panics via
// rerrors.Assertion, since it indicates either a recognizer bug or an
// inconsistent Grammar collaborator, not a user-facing error (spec §7, §9).
func (c *Chart) InsertLeo(transition grammar.Symbol, p PartialParse) {
	if existing, ok := c.FindLeo(c.CurrentEarleme(), transition); ok {
		rerrors.Assert(existing.Parse.Equal(p), fmt.Sprintf(
			"Leo item duplicate transition %s disagrees on parse: %s vs %s", transition, existing.Parse, p))
		return
	}
	c.leoItems = append(c.leoItems, LeoItem{Transition: transition, Parse: p})
}

// String renders the chart for debugging: each earleme's Leo items followed
// by its Earley items, in insertion order. Precise formatting is
// implementation-defined; see internal/earley.Recognizer.Dump for a
// rosed-formatted variant intended for terminal/log output.
func (c *Chart) String() string {
	var sb strings.Builder
	for e := 0; e < c.EarlemeCount(); e++ {
		fmt.Fprintf(&sb, "=== earleme %d ===\n", e)
		for _, l := range c.LeoAt(e) {
			fmt.Fprintf(&sb, "%s\n", l)
		}
		for _, p := range c.EarleyAt(e) {
			fmt.Fprintf(&sb, "%s\n", p)
		}
	}
	return sb.String()
}
