package grammar

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/corvidlabs/marsha/internal/rerrors"
	"golang.org/x/text/width"
)

// tomlDoc mirrors internal/tqw's FileInfo-then-body decoding idiom, adapted
// to the flat grammar format documented in SPEC_FULL.md §11.2.
type tomlDoc struct {
	Start string     `toml:"start"`
	Rules []tomlRule `toml:"rule"`
	Terms []string   `toml:"terminals"`
}

type tomlRule struct {
	LHS string     `toml:"lhs"`
	RHS [][]string `toml:"rhs"`
}

// normalizeSymbolLiteral folds fullwidth forms to their narrow equivalent, so
// a grammar file authored with fullwidth Unicode variants of a symbol name
// (e.g. pasted from a CJK input method) is accepted identically to its ASCII
// spelling. It deliberately does not touch case: the terminal/nonterminal
// convention (Symbol.IsTerminal) is exactly the casing a grammar author
// chooses, and folding it here would silently turn every nonterminal into a
// terminal.
func normalizeSymbolLiteral(lit string) string {
	return width.Narrow.String(lit)
}

// Load parses a grammar document from r in the format documented in
// SPEC_FULL.md §11.2 and returns a compiled Grammar.
func Load(r io.Reader) (*Grammar, error) {
	var doc tomlDoc
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, rerrors.New("malformed grammar document", rerrors.ErrInvalidGrammar, err)
	}

	if doc.Start == "" {
		return nil, rerrors.New("grammar document has no start symbol", rerrors.ErrInvalidGrammar)
	}

	g := New(Symbol(doc.Start))

	for _, t := range doc.Terms {
		g.AddTerm(Symbol(normalizeSymbolLiteral(t)))
	}

	for _, rule := range doc.Rules {
		if rule.LHS == "" {
			return nil, rerrors.New("grammar rule missing lhs", rerrors.ErrInvalidGrammar)
		}
		lhs := Symbol(normalizeSymbolLiteral(rule.LHS))

		if len(rule.RHS) == 0 {
			return nil, rerrors.New(fmt.Sprintf("rule %q has no productions", lhs), rerrors.ErrInvalidGrammar)
		}

		for _, alt := range rule.RHS {
			prod := make(Production, 0, len(alt))
			for _, sym := range alt {
				prod = append(prod, Symbol(normalizeSymbolLiteral(sym)))
			}
			g.AddRule(lhs, prod)
		}
	}

	if err := g.Compile(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadFile opens path and parses it as a grammar document.
func LoadFile(path string) (*Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rerrors.New(fmt.Sprintf("opening grammar file %q", path), err)
	}
	defer f.Close()
	return Load(f)
}
