package main

import (
	"io"
	"os"

	quillhtml "github.com/alnah/go-quillhtml"
	"github.com/alnah/go-quillhtml/internal/mdimport"
)

// Environment holds injectable dependencies for testability.
// Includes I/O streams, terminal detection, and converter construction.
type Environment struct {
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Getenv   func(string) string
	Environ  func() []string
	Importer *mdimport.Importer

	// IsTerminal reports whether w is an interactive terminal.
	IsTerminal func(w io.Writer) bool

	// Options are appended after the options derived from config and flags.
	Options []quillhtml.Option
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Getenv:     os.Getenv,
		Environ:    os.Environ,
		Importer:   mdimport.New(),
		IsTerminal: isTerminal,
	}
}
