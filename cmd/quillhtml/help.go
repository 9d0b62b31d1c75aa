package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: quillhtml <command> [flags] [inputs]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  html       Convert Quill delta JSON to HTML")
	fmt.Fprintln(w, "  delta      Convert HTML to Quill delta JSON")
	fmt.Fprintln(w, "  md         Convert Markdown to delta JSON or HTML")
	fmt.Fprintln(w, "  doctor     Check the node worker and Chrome")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "With no inputs or '-', a command reads stdin and writes stdout.")
	fmt.Fprintln(w, "Run 'quillhtml help <command>' for details on a specific command.")
}

// printConvertFlags prints the flags shared by the conversion commands.
func printConvertFlags(w io.Writer, withFormat bool) {
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output-dir <dir>    Output directory (default: next to each input)")
	fmt.Fprintln(w, "      --minify              Minify HTML output")
	fmt.Fprintln(w, "      --no-sanitize         Skip HTML sanitizing before conversion")
	fmt.Fprintln(w, "      --color <mode>        Highlight stdout: auto, always, never")
	if withFormat {
		fmt.Fprintln(w, "      --to <format>         Output format: delta, html")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Worker:")
	fmt.Fprintln(w, "  -b, --backend <name>      HTML to delta backend: node, browser")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-document timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --retries <n>         Worker restarts allowed per document")
	fmt.Fprintln(w, "      --asset-path <dir>    Override the worker script and converter page")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "General:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show worker lifecycle and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  QUILLHTML_CONFIG, QUILLHTML_BACKEND, QUILLHTML_TIMEOUT,")
	fmt.Fprintln(w, "  QUILLHTML_OUTPUT_DIR, QUILLHTML_WORKERS, QUILLHTML_QUILL_URL")
}

// printCommandUsage prints usage for cmd.
func printCommandUsage(w io.Writer, cmd string) {
	switch cmd {
	case cmdHTML:
		fmt.Fprintln(w, "Usage: quillhtml html [flags] [file.json|dir|-]...")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Convert Quill delta JSON ({\"ops\":[...]} or a bare array) to HTML.")
		fmt.Fprintln(w)
		printConvertFlags(w, false)
	case cmdDelta:
		fmt.Fprintln(w, "Usage: quillhtml delta [flags] [file.html|dir|-]...")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Convert HTML to Quill delta JSON through a node or browser worker.")
		fmt.Fprintln(w)
		printConvertFlags(w, false)
	case cmdMarkdown:
		fmt.Fprintln(w, "Usage: quillhtml md [flags] [file.md|dir|-]...")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Convert Markdown to delta JSON, or to HTML with --to html.")
		fmt.Fprintln(w)
		printConvertFlags(w, true)
	case "doctor":
		fmt.Fprintln(w, "Usage: quillhtml doctor [--json] [--backend node|browser] [--command node]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Check that the selected backend can run.")
	case "version":
		fmt.Fprintln(w, "Usage: quillhtml version")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show version information.")
	case "help":
		fmt.Fprintln(w, "Usage: quillhtml help [command]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show help for a command.")
	}
}

// runHelp prints help for a specific command and returns an exit code.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case cmdHTML, cmdDelta, cmdMarkdown, "doctor", "version", "help":
		printCommandUsage(env.Stdout, args[0])
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
}
