package grammar

import (
	"fmt"
	"strings"
)

// DottedRule is a grammar rule paired with a cursor ("dot") position on its
// right-hand side. It generalizes ictiobus's LR0Item: Left holds the RHS
// symbols already recognized (before the dot), Right holds the symbols not
// yet recognized (after the dot).
type DottedRule struct {
	NonTerminal Symbol
	Left        []Symbol
	Right       []Symbol

	// ruleIndex identifies which of NonTerminal's productions this dotted
	// rule walks, so IsRightRecursive can look up its per-production result.
	// Penult does not use it; it rebuilds the production from Left+Right.
	ruleIndex int
}

// IsComplete reports whether the dot has moved past the last RHS symbol.
func (r DottedRule) IsComplete() bool {
	return len(r.Right) == 0
}

// Advanced returns the same rule with the dot moved one position right. It
// panics if r is already complete; callers must check IsComplete (or rely on
// Postdot returning NoSymbol) first.
func (r DottedRule) Advanced() DottedRule {
	if r.IsComplete() {
		panic("grammar: Advanced called on a complete dotted rule")
	}
	next := DottedRule{
		NonTerminal: r.NonTerminal,
		Left:        make([]Symbol, len(r.Left)+1),
		Right:       make([]Symbol, len(r.Right)-1),
		ruleIndex:   r.ruleIndex,
	}
	copy(next.Left, r.Left)
	next.Left[len(r.Left)] = r.Right[0]
	copy(next.Right, r.Right[1:])
	return next
}

// Equal reports whether two dotted rules are the same rule at the same dot
// position. Two DottedRules with the same NonTerminal/Left/Right are equal
// regardless of which production index produced them (a grammar in which two
// distinct productions are textually identical is degenerate but not
// forbidden by this type).
func (r DottedRule) Equal(o DottedRule) bool {
	if r.NonTerminal != o.NonTerminal {
		return false
	}
	if len(r.Left) != len(o.Left) || len(r.Right) != len(o.Right) {
		return false
	}
	for i := range r.Left {
		if r.Left[i] != o.Left[i] {
			return false
		}
	}
	for i := range r.Right {
		if r.Right[i] != o.Right[i] {
			return false
		}
	}
	return true
}

func (r DottedRule) String() string {
	var left, right []string
	for _, s := range r.Left {
		left = append(left, string(s))
	}
	for _, s := range r.Right {
		right = append(right, string(s))
	}

	leftStr := strings.Join(left, " ")
	rightStr := strings.Join(right, " ")
	if leftStr != "" {
		leftStr += " "
	}
	if rightStr != "" {
		rightStr = " " + rightStr
	}

	return fmt.Sprintf("%s ->%s.%s", r.NonTerminal, leftStr, rightStr)
}
