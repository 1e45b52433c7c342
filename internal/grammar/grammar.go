// Package grammar implements the Grammar collaborator consumed by the
// recognizer (internal/earley): dotted-rule and symbol abstractions, rule
// storage, and the static analyses (nullability, right-recursion, penults)
// that spec.md treats as the collaborator's responsibility rather than the
// recognizer's.
package grammar

import (
	"fmt"
	"sort"

	"github.com/corvidlabs/marsha/internal/rerrors"
)

// Production is one right-hand-side alternative of a rule. An empty
// Production denotes an epsilon production.
type Production []Symbol

// Rule is a nonterminal together with all of its RHS alternatives, used for
// bulk grammar construction (see Grammar.AddRule for incremental use).
type Rule struct {
	NonTerminal Symbol
	Productions []Production
}

type productionEntry struct {
	nonTerminal Symbol
	production  Production
}

// Grammar is a concrete implementation of the Grammar collaborator contract
// described in spec.md §4.1. Rules are added with AddRule, after which
// Compile must be called once before the grammar is used to drive a
// recognizer; Compile performs the nullability and right-recursion analyses
// that back IsNulling and IsRightRecursive. Penult reads the rule directly.
type Grammar struct {
	start Symbol

	// order preserves the sequence nonterminals were first declared in, so
	// NonTerminals returns them deterministically.
	order []Symbol
	rules map[Symbol][]Production
	terms map[Symbol]bool

	compiled       bool
	nullable       map[Symbol]bool
	rightRecursive map[productionKey]bool
}

type productionKey struct {
	nonTerminal Symbol
	index       int
}

// New returns an empty Grammar for the given start symbol.
func New(start Symbol) *Grammar {
	return &Grammar{
		start: start,
		rules: make(map[Symbol][]Production),
		terms: make(map[Symbol]bool),
	}
}

// Start returns the grammar's designated start symbol.
func (g *Grammar) Start() Symbol { return g.start }

// AddTerm declares sym as a terminal of the grammar. Terminals referenced in
// a production but never declared are still accepted (the casing convention
// alone identifies them). Validate and Compile do not consult the declared
// terminals: a declared terminal that no production uses is not reported.
func (g *Grammar) AddTerm(sym Symbol) {
	g.terms[sym] = true
	g.compiled = false
}

// AddRule appends one RHS alternative to nonTerm's rule, creating the rule if
// this is its first alternative.
func (g *Grammar) AddRule(nonTerm Symbol, prod Production) {
	if _, ok := g.rules[nonTerm]; !ok {
		g.order = append(g.order, nonTerm)
	}
	g.rules[nonTerm] = append(g.rules[nonTerm], prod)
	g.compiled = false
}

// NonTerminals returns the grammar's nonterminals in declaration order.
func (g *Grammar) NonTerminals() []Symbol {
	out := make([]Symbol, len(g.order))
	copy(out, g.order)
	return out
}

// Validate reports whether the grammar is well-formed: it must have at least
// one rule, a start symbol with at least one production, no rule whose
// left-hand side is empty or spelled as a terminal, and no NoSymbol inside a
// production. Terminals in productions are not checked against AddTerm.
func (g *Grammar) Validate() error {
	if len(g.rules) == 0 {
		return rerrors.New("grammar has no rules", rerrors.ErrInvalidGrammar)
	}
	if _, ok := g.rules[g.start]; !ok {
		return rerrors.New(fmt.Sprintf("start symbol %q has no productions", g.start), rerrors.ErrInvalidGrammar)
	}
	for nt, prods := range g.rules {
		if nt == NoSymbol {
			return rerrors.New("empty nonterminal name not allowed", rerrors.ErrInvalidGrammar)
		}
		if nt.IsTerminal() {
			return rerrors.New(fmt.Sprintf("%q used as a nonterminal but is spelled as a terminal", nt), rerrors.ErrInvalidGrammar)
		}
		for _, p := range prods {
			for _, s := range p {
				if s == NoSymbol {
					return rerrors.New("epsilon symbol may only appear as an empty production, not a member of one", rerrors.ErrInvalidGrammar)
				}
			}
		}
	}
	return nil
}

// Compile runs the grammar's static analyses (nullability, right-recursion).
// It must be called after all AddRule/AddTerm calls and before the grammar is
// used to drive a recognizer. It re-validates the grammar first.
func (g *Grammar) Compile() error {
	if err := g.Validate(); err != nil {
		return err
	}

	g.nullable = computeNullable(g.rules)
	g.rightRecursive = computeRightRecursive(g.rules, g.nullable)
	g.compiled = true
	return nil
}

func (g *Grammar) requireCompiled() {
	rerrors.Assert(g.compiled, "grammar.Grammar: Compile must be called before use")
}

// Alternatives returns, for nonterminal s, one DottedRule per RHS
// alternative with the dot at position 0. Terminals and undeclared symbols
// yield an empty (nil) slice, matching spec.md's "possibly empty sequence".
func (g *Grammar) Alternatives(s Symbol) []DottedRule {
	g.requireCompiled()

	prods := g.rules[s]
	if len(prods) == 0 {
		return nil
	}

	out := make([]DottedRule, len(prods))
	for i, p := range prods {
		right := make([]Symbol, len(p))
		copy(right, p)
		out[i] = DottedRule{
			NonTerminal: s,
			Right:       right,
			ruleIndex:   i,
		}
	}
	return out
}

// Postdot returns the symbol immediately after the dot in r, or NoSymbol if
// r.IsComplete().
func (g *Grammar) Postdot(r DottedRule) Symbol {
	if r.IsComplete() {
		return NoSymbol
	}
	return r.Right[0]
}

// LHS returns the left-hand-side symbol of r's rule.
func (g *Grammar) LHS(r DottedRule) Symbol {
	return r.NonTerminal
}

// Penult returns the symbol immediately before the final RHS position of r's
// rule (not r's current dot position), or NoSymbol if the rule has fewer
// than two RHS symbols.
func (g *Grammar) Penult(r DottedRule) Symbol {
	full := g.fullProduction(r)
	if len(full) < 2 {
		return NoSymbol
	}
	return full[len(full)-2]
}

// IsRightRecursive reports whether r's rule is right-recursive: its rightmost
// RHS symbol derives, directly or transitively, a string ending in the
// rule's own LHS.
func (g *Grammar) IsRightRecursive(r DottedRule) bool {
	g.requireCompiled()
	return g.rightRecursive[productionKey{nonTerminal: r.NonTerminal, index: r.ruleIndex}]
}

// IsNulling reports whether s can derive the empty string. It returns true
// for every nullable nonterminal, including one that can also derive a
// non-empty string (A in A -> ε | a). Terminals are never nulling.
func (g *Grammar) IsNulling(s Symbol) bool {
	g.requireCompiled()
	if s.IsTerminal() || s == NoSymbol {
		return false
	}
	return g.nullable[s]
}

func (g *Grammar) fullProduction(r DottedRule) []Symbol {
	full := make([]Symbol, 0, len(r.Left)+len(r.Right))
	full = append(full, r.Left...)
	full = append(full, r.Right...)
	return full
}

// computeNullable computes, by worklist fixpoint, the set of nonterminals
// that can derive the empty string: a nonterminal is nullable if it has an
// epsilon production, or a production all of whose symbols are nullable.
func computeNullable(rules map[Symbol][]Production) map[Symbol]bool {
	nullable := make(map[Symbol]bool)

	changed := true
	for changed {
		changed = false
		for nt, prods := range rules {
			if nullable[nt] {
				continue
			}
			for _, p := range prods {
				allNullable := true
				for _, s := range p {
					if s.IsTerminal() || !nullable[s] {
						allNullable = false
						break
					}
				}
				if allNullable {
					nullable[nt] = true
					changed = true
					break
				}
			}
		}
	}

	return nullable
}

// effectiveRightmostNonterminals walks a production from the end, collecting
// the nonterminals that could be "exposed" as the rightmost symbol once any
// nullable trailing symbols vanish. It stops as soon as it reaches a symbol
// that cannot vanish (a terminal, or a non-nullable nonterminal), since
// anything further left can never become rightmost.
func effectiveRightmostNonterminals(p Production, nullable map[Symbol]bool) []Symbol {
	var out []Symbol
	for i := len(p) - 1; i >= 0; i-- {
		s := p[i]
		if s.IsNonTerminal() {
			out = append(out, s)
		}
		if !(s.IsNonTerminal() && nullable[s]) {
			break
		}
	}
	return out
}

// computeRightRecursive computes, for every (nonterminal, production index)
// pair, whether that specific production is right-recursive.
//
// The graph has an edge A -> Y whenever Y is one of A's effective-rightmost
// nonterminals (see effectiveRightmostNonterminals); a production A -> ...X
// (simple rightmost symbol X, no nullable-skipping) is right-recursive iff X
// is a nonterminal and A is reachable from X in that graph, i.e. X derives,
// through zero or more productions, a sentential form whose rightmost
// exposed nonterminal is A again.
func computeRightRecursive(rules map[Symbol][]Production, nullable map[Symbol]bool) map[productionKey]bool {
	adjacency := make(map[Symbol][]Symbol)
	for nt, prods := range rules {
		for _, p := range prods {
			adjacency[nt] = append(adjacency[nt], effectiveRightmostNonterminals(p, nullable)...)
		}
	}

	closureCache := make(map[Symbol]map[Symbol]bool)
	closureOf := func(start Symbol) map[Symbol]bool {
		if c, ok := closureCache[start]; ok {
			return c
		}
		seen := map[Symbol]bool{start: true}
		queue := []Symbol{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range adjacency[cur] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		closureCache[start] = seen
		return seen
	}

	result := make(map[productionKey]bool)
	for nt, prods := range rules {
		for i, p := range prods {
			if len(p) == 0 {
				continue
			}
			rightmost := p[len(p)-1]
			if !rightmost.IsNonTerminal() {
				continue
			}
			result[productionKey{nonTerminal: nt, index: i}] = closureOf(rightmost)[nt]
		}
	}
	return result
}

// sortedTerms returns the grammar's declared terminals in a stable order,
// for use by diagnostics/Dump code paths that want deterministic output.
func (g *Grammar) sortedTerms() []Symbol {
	out := make([]Symbol, 0, len(g.terms))
	for t := range g.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
