package earley

import (
	"fmt"

	"github.com/corvidlabs/marsha/internal/grammar"
	"github.com/corvidlabs/marsha/internal/rerrors"
)

// Grammar is the collaborator a Recognizer consumes. It is never mutated by
// the recognizer: every method is pure and may be called any number of
// times for the same arguments. A concrete implementation lives in
// internal/grammar; this interface exists so internal/earley stays ignorant
// of how alternatives, nullability and right-recursion are derived.
type Grammar interface {
	// Alternatives returns one DottedRule, dot at position 0, per RHS
	// alternative of s. Returns nil for terminals or undeclared symbols.
	Alternatives(s grammar.Symbol) []grammar.DottedRule

	// Postdot returns the symbol immediately after r's dot, or NoSymbol if
	// r is complete.
	Postdot(r grammar.DottedRule) grammar.Symbol

	// LHS returns r's left-hand-side nonterminal.
	LHS(r grammar.DottedRule) grammar.Symbol

	// Penult returns the symbol immediately before the final RHS position
	// of r's rule, or NoSymbol if that rule has fewer than two symbols.
	Penult(r grammar.DottedRule) grammar.Symbol

	// IsRightRecursive reports whether r's rule is right-recursive.
	IsRightRecursive(r grammar.DottedRule) bool

	// IsNulling reports whether s can derive the empty string. The
	// internal/grammar implementation also reports true for a nonterminal
	// that can derive non-empty strings as well.
	IsNulling(s grammar.Symbol) bool
}

// Recognizer drives a Chart to completion earleme by earleme, per spec.md
// §4.2. It holds no grammar-analysis logic of its own: prediction,
// reduction and Leo bookkeeping all delegate to the Grammar collaborator.
type Recognizer struct {
	gram  Grammar
	chart *Chart
	trace func(s string)
}

// New returns a Recognizer that will consume gram to drive future
// Recognize calls. gram must have been compiled (internal/grammar.Grammar's
// Compile, if that is the concrete implementation in use) before Recognize
// is called.
func New(gram Grammar) *Recognizer {
	return &Recognizer{gram: gram}
}

// RegisterTraceListener installs fn to receive a line of human-readable
// trace for each predict/scan/reduce/Leo-bookkeeping step of the next
// Recognize call. Pass nil to disable tracing. Trace strings are built
// lazily (via notifyTraceFn) so a nil listener costs nothing.
func (rec *Recognizer) RegisterTraceListener(fn func(s string)) {
	rec.trace = fn
}

func (rec *Recognizer) notifyTraceFn(fn func() string) {
	if rec.trace != nil {
		rec.trace(fn())
	}
}

func (rec *Recognizer) notifyTrace(fmtStr string, args ...interface{}) {
	rec.notifyTraceFn(func() string { return fmt.Sprintf(fmtStr, args...) })
}

// Chart returns the chart built by the most recent Recognize call, or nil if
// Recognize has not yet been called. Intended for diagnostics (see Dump) and
// for tests asserting on chart invariants.
func (rec *Recognizer) Chart() *Chart {
	return rec.chart
}

// Recognize reports whether source is a member of the language start
// generates, per gram. It builds a fresh chart on every call; Recognizer
// instances may be reused across calls to the same or different input.
func (rec *Recognizer) Recognize(source []grammar.Symbol, start grammar.Symbol) bool {
	rec.chart = NewChart(len(source) + 1)
	rec.chart.OpenEarleme()

	for _, alt := range rec.gram.Alternatives(start) {
		rec.chart.InsertEarley(PartialParse{Expected: alt, Start: 0})
	}
	rec.notifyTrace("seeded earleme 0 with %d alternative(s) of %s", len(rec.gram.Alternatives(start)), start)

	consumed := 0
	i := 0
	for i < rec.chart.EarlemeCount() {
		rec.processEarleme(i)

		if i < len(source) {
			before := rec.chart.EarlemeCount()
			rec.scan(source[i])
			if rec.chart.EarlemeCount() > before {
				consumed++
			} else {
				rec.notifyTrace("scan(%s) at earleme %d matched nothing; recognition fails", source[i], i)
			}
		}
		i++
	}

	if consumed != len(source) {
		return false
	}

	final := rec.chart.EarlemeCount() - 1
	for _, p := range rec.chart.EarleyAt(final) {
		if p.Start == 0 && p.Expected.IsComplete() && rec.gram.LHS(p.Expected) == start {
			rec.notifyTrace("accepted: %s spans the whole input", p)
			return true
		}
	}
	return false
}

// processEarleme dispatches every partial parse belonging to earleme through
// predict/reduce and Leo-item scheduling, re-reading the slice's length on
// every step since predict, reduce and addAnyLeoItem can all append further
// items to this same earleme while it is being walked.
func (rec *Recognizer) processEarleme(earleme int) {
	start, _ := rec.chart.EarleyBounds(earleme)
	for j := start; j < len(rec.chart.partialParses); j++ {
		p := rec.chart.partialParses[j]
		if p.Expected.IsComplete() {
			rec.reduce(p)
		} else {
			rec.predict(p)
		}
		rec.addAnyLeoItem(p)
	}
}

// predict adds, for an incomplete item p expecting nonterminal s next, one
// new item per alternative of s; if the grammar reports s as nulling (see
// Grammar.IsNulling), it also adds p advanced past s directly, per spec.md
// §4.2. A p with no postdot symbol panics via rerrors.Assertion.
func (rec *Recognizer) predict(p PartialParse) {
	s := rec.gram.Postdot(p.Expected)
	rerrors.Assert(s != grammar.NoSymbol, fmt.Sprintf("predict called on complete item %s", p))

	for _, alt := range rec.gram.Alternatives(s) {
		if rec.chart.InsertEarley(PartialParse{Expected: alt, Start: rec.chart.CurrentEarleme()}) {
			rec.notifyTrace("predict: %s", alt)
		}
	}

	if rec.gram.IsNulling(s) {
		advanced := PartialParse{Expected: p.Expected.Advanced(), Start: p.Start}
		if rec.chart.InsertEarley(advanced) {
			rec.notifyTrace("predict (nulling %s): %s", s, advanced)
		}
	}
}

// reduce handles a completed item p. It first attempts the Leo shortcut: if
// a Leo item exists at earleme p.Start whose transition equals p's LHS, the
// predecessor's recorded parse is inserted directly, short-circuiting what
// would otherwise be a chain of earleyReduce calls. Otherwise it falls back
// to earleyReduce.
func (rec *Recognizer) reduce(p PartialParse) {
	s0 := rec.gram.LHS(p.Expected)
	if leo, ok := rec.chart.FindLeo(p.Start, s0); ok {
		q := leo.Parse
		shortcut := PartialParse{Expected: q.Expected, Start: q.Start}
		if rec.chart.InsertEarley(shortcut) {
			rec.notifyTrace("reduce via Leo shortcut (%s): %s", s0, shortcut)
		}
		return
	}
	rec.earleyReduce(p)
}

// earleyReduce advances every item at earleme p.Start that was waiting on
// p's LHS, inserting each result into the current earleme. When p.Start is
// the current earleme, the scanned range must be re-read on every step
// (the same growing-array hazard processEarleme handles), since earlier
// predictions in this same earleme may still be producing the very items
// this reduction needs to see.
func (rec *Recognizer) earleyReduce(p PartialParse) {
	s0 := rec.gram.LHS(p.Expected)
	current := rec.chart.CurrentEarleme()

	start := rec.chart.earlemeStart[p.Start].Earley
	for j := start; ; j++ {
		var end int
		if p.Start == current {
			end = len(rec.chart.partialParses)
		} else {
			end = rec.chart.earlemeStart[p.Start+1].Earley
		}
		if j >= end {
			break
		}

		p0 := rec.chart.partialParses[j]
		if rec.gram.Postdot(p0.Expected) == s0 {
			advanced := PartialParse{Expected: p0.Expected.Advanced(), Start: p0.Start}
			if rec.chart.InsertEarley(advanced) {
				rec.notifyTrace("reduce: %s", advanced)
			}
		}
	}
}

// scan consumes one token t against every item in the current earleme that
// is waiting on t, opening a new earleme only if at least one such item
// exists. The range scanned is fixed at the length the current earleme had
// when scan was called: items appended to the newly-opened earleme are
// never themselves rescanned against t.
func (rec *Recognizer) scan(t grammar.Symbol) {
	start, end := rec.chart.EarleyBounds(rec.chart.CurrentEarleme())
	opened := false
	for j := start; j < end; j++ {
		p := rec.chart.partialParses[j]
		if rec.gram.Postdot(p.Expected) != t {
			continue
		}
		if !opened {
			rec.chart.OpenEarleme()
			opened = true
		}
		advanced := PartialParse{Expected: p.Expected.Advanced(), Start: p.Start}
		if rec.chart.InsertEarley(advanced) {
			rec.notifyTrace("scan(%s): %s", t, advanced)
		}
	}
}

// isLeoEligible implements the eligibility test of spec.md §4.3: r's rule
// must be right-recursive, its penult symbol must be defined, and it must
// be the only partial parse in the current earleme (snapshot at call time)
// whose own rule shares that penult symbol.
func (rec *Recognizer) isLeoEligible(r grammar.DottedRule) bool {
	if !rec.gram.IsRightRecursive(r) {
		return false
	}
	penult := rec.gram.Penult(r)
	if penult == grammar.NoSymbol {
		return false
	}

	matches := 0
	for _, p := range rec.chart.EarleyAt(rec.chart.CurrentEarleme()) {
		if rec.gram.Penult(p.Expected) == penult {
			matches++
			if matches > 1 {
				return false
			}
		}
	}
	return matches == 1
}

// addAnyLeoItem schedules a Leo shortcut for p if it is eligible. If a Leo
// item already exists at earleme p.Start for p's own LHS, that predecessor
// is chained forward under p's (new) transition symbol, carrying its parse
// along unchanged; otherwise a fresh Leo item is seeded pointing at p
// advanced one position. Seeding is skipped when p is already complete,
// since there is no further position to advance to; the recognizer still
// functions correctly without it; earleyReduce remains the fallback path
// for any rule whose Leo item was never seeded or whose transition never
// lines up with a later reduce's lookup key.
func (rec *Recognizer) addAnyLeoItem(p PartialParse) {
	if !rec.isLeoEligible(p.Expected) {
		return
	}

	s := rec.gram.Penult(p.Expected)
	lhs := rec.gram.LHS(p.Expected)

	if predecessor, ok := rec.chart.FindLeo(p.Start, lhs); ok {
		rec.chart.InsertLeo(s, predecessor.Parse)
		rec.notifyTrace("Leo chain under %s: %s", s, predecessor.Parse)
		return
	}

	if p.Expected.IsComplete() {
		return
	}
	advanced := PartialParse{Expected: p.Expected.Advanced(), Start: p.Start}
	rec.chart.InsertLeo(s, advanced)
	rec.notifyTrace("Leo seed under %s: %s", s, advanced)
}
