package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/mattn/go-isatty"
)

// Chroma settings for terminal output.
const (
	highlightFormatter = "terminal256"
	highlightStyle     = "monokai"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// shouldColor resolves a --color mode for stdout.
// auto colors only on a terminal and honors NO_COLOR.
func shouldColor(mode string, env *Environment) bool {
	switch mode {
	case colorAlways:
		return true
	case colorNever:
		return false
	}
	if env.Getenv("NO_COLOR") != "" {
		return false
	}
	return env.IsTerminal != nil && env.IsTerminal(env.Stdout)
}

// writeOutput writes src to w, highlighted with the chroma lexer for lang
// when color is set. Highlighting errors fall back to plain output.
func writeOutput(w io.Writer, src, lang string, color bool) error {
	src = strings.TrimRight(src, "\n")
	if color {
		if err := quick.Highlight(w, src, lang, highlightFormatter, highlightStyle); err == nil {
			_, err = fmt.Fprintln(w)
			return err
		}
	}
	_, err := fmt.Fprintln(w, src)
	return err
}
