/*
Marsharec loads a grammar and runs marsha's recognizer against input symbols
typed interactively or given on the command line.

Usage:

	marsharec -g FILE [flags]
	marsharec -g FILE -i "a b a" [flags]

The flags are:

	-v, --version
		Give the current version of marsha and then exit.

	-g, --grammar FILE
		Load the grammar document at FILE (see SPEC_FULL.md §11.2 for its
		format). Required.

	-i, --input INPUT
		Run a single recognize call against the whitespace-separated symbols
		in INPUT and print the verdict, then exit, instead of starting an
		interactive session.

	-d, --direct
		Force reading directly from stdin instead of going through
		readline where possible.

	--trace
		Print a trace line to stderr for every predict/scan/reduce/Leo step
		of each recognize call.

	-V, --verbose
		After each recognize call, print the rosed-formatted chart dump.

Once a session has started, each line of input is split on whitespace into a
sequence of input symbols and run through recognize against the loaded
grammar's start symbol. Type "QUIT" to exit the interpreter.
*/
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/corvidlabs/marsha/internal/earley"
	"github.com/corvidlabs/marsha/internal/grammar"
	"github.com/corvidlabs/marsha/internal/version"
	"github.com/spf13/pflag"
)

const (
	exitSuccess = iota
	exitInitError
	exitRunError
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Gives the version info")
	flagGrammar = pflag.StringP("grammar", "g", "", "The grammar document to load")
	flagInput   = pflag.StringP("input", "i", "", "Run a single recognize call against this input and exit")
	flagDirect  = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of readline")
	flagTrace   = pflag.Bool("trace", false, "Print a trace line to stderr for every recognizer step")
	flagVerbose = pflag.BoolP("verbose", "V", false, "Print the chart dump after each recognize call")
)

func main() {
	returnCode := exitSuccess
	defer func() {
		if p := recover(); p != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", p))
		}
		os.Exit(returnCode)
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if *flagGrammar == "" {
		fmt.Fprintln(os.Stderr, "ERROR: -g/--grammar is required")
		returnCode = exitInitError
		return
	}

	gram, err := grammar.LoadFile(*flagGrammar)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = exitInitError
		return
	}

	rec := earley.New(gram)
	if *flagTrace {
		rec.RegisterTraceListener(func(s string) {
			fmt.Fprintf(os.Stderr, "TRACE %s\n", s)
		})
	}

	if *flagInput != "" {
		runOne(rec, gram, *flagInput, *flagVerbose)
		return
	}

	if err := runLoop(rec, gram, *flagDirect, *flagVerbose); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = exitRunError
		return
	}
}

func runOne(rec *earley.Recognizer, gram *grammar.Grammar, input string, verbose bool) {
	source := symbolsOf(input)
	accepted := rec.Recognize(source, gram.Start())
	fmt.Println(verdict(accepted))
	if verbose {
		fmt.Println(rec.Dump())
	}
}

// runLoop drives an interactive session, reading lines either via
// chzyer/readline (the default for an interactive terminal) or directly from
// stdin, mirroring cmd/tqi's readline-vs-direct switch.
func runLoop(rec *earley.Recognizer, gram *grammar.Grammar, forceDirect, verbose bool) error {
	useReadline := !forceDirect && isTerminal(os.Stdin) && isTerminal(os.Stdout)

	if useReadline {
		return runReadlineLoop(rec, gram, verbose)
	}
	return runDirectLoop(rec, gram, verbose)
}

func runReadlineLoop(rec *earley.Recognizer, gram *grammar.Grammar, verbose bool) error {
	rl, err := readline.NewEx(&readline.Config{Prompt: "marsha> "})
	if err != nil {
		return fmt.Errorf("create readline config: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}
		if quit := handleLine(rec, gram, line, verbose); quit {
			return nil
		}
	}
}

func runDirectLoop(rec *earley.Recognizer, gram *grammar.Grammar, verbose bool) error {
	in := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("marsha> ")
		line, err := in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if quit := handleLine(rec, gram, line, verbose); quit {
			return nil
		}
	}
}

func handleLine(rec *earley.Recognizer, gram *grammar.Grammar, line string, verbose bool) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.EqualFold(line, "quit") {
		return true
	}

	runOne(rec, gram, line, verbose)
	return false
}

func symbolsOf(input string) []grammar.Symbol {
	fields := strings.Fields(input)
	out := make([]grammar.Symbol, len(fields))
	for i, f := range fields {
		out[i] = grammar.Symbol(f)
	}
	return out
}

func verdict(accepted bool) string {
	if accepted {
		return "ACCEPT"
	}
	return "REJECT"
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
