package earley

import (
	"testing"

	"github.com/corvidlabs/marsha/internal/grammar"
	"github.com/stretchr/testify/assert"
)

func compile(t *testing.T, g *grammar.Grammar) *grammar.Grammar {
	t.Helper()
	assert.NoError(t, g.Compile())
	return g
}

func syms(lits ...string) []grammar.Symbol {
	out := make([]grammar.Symbol, len(lits))
	for i, l := range lits {
		out[i] = grammar.Symbol(l)
	}
	return out
}

func Test_Recognize_SingleTerminal(t *testing.T) {
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"a"})
	g.AddTerm("a")
	compile(t, g)

	rec := New(g)
	assert.True(t, rec.Recognize(syms("a"), "S"))
	assert.False(t, rec.Recognize(syms("b"), "S"))
	assert.False(t, rec.Recognize(syms("a", "a"), "S"))
}

func Test_Recognize_EmptyGrammarEmptyInput(t *testing.T) {
	// S -> ε
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{})
	compile(t, g)

	rec := New(g)
	assert.True(t, rec.Recognize(nil, "S"))
	assert.False(t, rec.Recognize(syms("a"), "S"))
}

func Test_Recognize_RightRecursion(t *testing.T) {
	// S -> a S | a
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"a", "S"})
	g.AddRule("S", grammar.Production{"a"})
	g.AddTerm("a")
	compile(t, g)

	rec := New(g)
	assert.True(t, rec.Recognize(syms("a"), "S"))
	assert.True(t, rec.Recognize(syms("a", "a"), "S"))
	assert.True(t, rec.Recognize(syms("a", "a", "a", "a", "a"), "S"))
	assert.False(t, rec.Recognize(syms("a", "b"), "S"))
	assert.False(t, rec.Recognize(nil, "S"))
}

func Test_Recognize_LeftRecursion(t *testing.T) {
	// S -> S a | a
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"S", "a"})
	g.AddRule("S", grammar.Production{"a"})
	g.AddTerm("a")
	compile(t, g)

	rec := New(g)
	for n := 1; n <= 6; n++ {
		input := make([]grammar.Symbol, n)
		for i := range input {
			input[i] = "a"
		}
		assert.True(t, rec.Recognize(input, "S"), "n=%d", n)
	}
	assert.False(t, rec.Recognize(nil, "S"))
}

func Test_Recognize_Ambiguity(t *testing.T) {
	// E -> E + E | n, accepts "n+n+n" via more than one derivation but still
	// a single Boolean accept/reject answer.
	g := grammar.New("E")
	g.AddRule("E", grammar.Production{"E", "+", "E"})
	g.AddRule("E", grammar.Production{"n"})
	g.AddTerm("+")
	g.AddTerm("n")
	compile(t, g)

	rec := New(g)
	assert.True(t, rec.Recognize(syms("n"), "E"))
	assert.True(t, rec.Recognize(syms("n", "+", "n"), "E"))
	assert.True(t, rec.Recognize(syms("n", "+", "n", "+", "n"), "E"))
	assert.False(t, rec.Recognize(syms("n", "+"), "E"))
	assert.False(t, rec.Recognize(syms("+", "n"), "E"))
}

func Test_Recognize_NullingSymbolPropagation(t *testing.T) {
	// S -> A B, A -> ε | a, B -> b
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"A", "B"})
	g.AddRule("A", grammar.Production{})
	g.AddRule("A", grammar.Production{"a"})
	g.AddRule("B", grammar.Production{"b"})
	g.AddTerm("a")
	g.AddTerm("b")
	compile(t, g)

	rec := New(g)
	assert.True(t, rec.Recognize(syms("b"), "S"), "A nulls away, leaving just b")
	assert.True(t, rec.Recognize(syms("a", "b"), "S"), "A matches a, then B matches b")
	assert.False(t, rec.Recognize(syms("a"), "S"))
	assert.False(t, rec.Recognize(nil, "S"))
}

func Test_Recognize_Deterministic(t *testing.T) {
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"a", "S"})
	g.AddRule("S", grammar.Production{"a"})
	g.AddTerm("a")
	compile(t, g)

	rec := New(g)
	input := syms("a", "a", "a")
	first := rec.Recognize(input, "S")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, rec.Recognize(input, "S"))
	}
}

func Test_Recognize_AlternativeReorderingInvariance(t *testing.T) {
	g1 := grammar.New("S")
	g1.AddRule("S", grammar.Production{"a", "S"})
	g1.AddRule("S", grammar.Production{"a"})
	g1.AddTerm("a")
	compile(t, g1)

	g2 := grammar.New("S")
	g2.AddRule("S", grammar.Production{"a"})
	g2.AddRule("S", grammar.Production{"a", "S"})
	g2.AddTerm("a")
	compile(t, g2)

	input := syms("a", "a", "a", "a")
	assert.Equal(t, New(g1).Recognize(input, "S"), New(g2).Recognize(input, "S"))
}

func Test_Chart_NoDuplicatePartialParses(t *testing.T) {
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"a", "S"})
	g.AddRule("S", grammar.Production{"a"})
	g.AddTerm("a")
	compile(t, g)

	rec := New(g)
	rec.Recognize(syms("a", "a", "a"), "S")

	chart := rec.Chart()
	for e := 0; e < chart.EarlemeCount(); e++ {
		items := chart.EarleyAt(e)
		for i := range items {
			for j := i + 1; j < len(items); j++ {
				assert.False(t, items[i].Equal(items[j]), "duplicate partial parse in earleme %d: %s", e, items[i])
			}
		}
	}
}

func Test_Chart_NoDuplicateLeoTransitions(t *testing.T) {
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"a", "S"})
	g.AddRule("S", grammar.Production{"a"})
	g.AddTerm("a")
	compile(t, g)

	rec := New(g)
	rec.Recognize(syms("a", "a", "a", "a"), "S")

	chart := rec.Chart()
	for e := 0; e < chart.EarlemeCount(); e++ {
		items := chart.LeoAt(e)
		for i := range items {
			for j := i + 1; j < len(items); j++ {
				assert.NotEqual(t, items[i].Transition, items[j].Transition,
					"duplicate Leo transition in earleme %d", e)
			}
		}
	}
}

func Test_Chart_EarlemeStartNonDecreasing(t *testing.T) {
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"a", "S"})
	g.AddRule("S", grammar.Production{"a"})
	g.AddTerm("a")
	compile(t, g)

	rec := New(g)
	rec.Recognize(syms("a", "a", "a", "a", "a"), "S")

	chart := rec.Chart()
	for e := 1; e < chart.EarlemeCount(); e++ {
		assert.GreaterOrEqual(t, chart.earlemeStart[e].Earley, chart.earlemeStart[e-1].Earley)
		assert.GreaterOrEqual(t, chart.earlemeStart[e].Leo, chart.earlemeStart[e-1].Leo)
	}
}

func Test_Chart_StartNeverExceedsCurrentEarleme(t *testing.T) {
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"S", "a"})
	g.AddRule("S", grammar.Production{"a"})
	g.AddTerm("a")
	compile(t, g)

	rec := New(g)
	rec.Recognize(syms("a", "a", "a"), "S")

	chart := rec.Chart()
	for e := 0; e < chart.EarlemeCount(); e++ {
		for _, p := range chart.EarleyAt(e) {
			assert.LessOrEqual(t, p.Start, e)
		}
		for _, l := range chart.LeoAt(e) {
			assert.LessOrEqual(t, l.Parse.Start, e)
		}
	}
}

func Test_Recognize_TraceListenerReceivesSteps(t *testing.T) {
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"a"})
	g.AddTerm("a")
	compile(t, g)

	var lines []string
	rec := New(g)
	rec.RegisterTraceListener(func(s string) { lines = append(lines, s) })
	rec.Recognize(syms("a"), "S")

	assert.NotEmpty(t, lines)
}

func Test_Dump_ReflectsLastChart(t *testing.T) {
	g := grammar.New("S")
	g.AddRule("S", grammar.Production{"a"})
	g.AddTerm("a")
	compile(t, g)

	rec := New(g)
	assert.Contains(t, rec.Dump(), "no chart")

	rec.Recognize(syms("a"), "S")
	out := rec.Dump()
	assert.Contains(t, out, "earleme")
}
