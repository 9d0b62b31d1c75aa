// Package quillhtml converts Quill rich-text deltas to HTML and back.
//
// # Quick Start
//
// Rendering a delta is a pure function and needs no setup:
//
//	html, err := quillhtml.ToHTML(quillhtml.Delta{
//	    quillhtml.Text("Hello"),
//	    quillhtml.Line(quillhtml.Attributes{Header: 1}),
//	    quillhtml.Text("World", quillhtml.Attributes{Bold: true}),
//	    quillhtml.Line(),
//	})
//
// Deltas usually arrive as JSON:
//
//	doc, err := quillhtml.ParseDocument(data) // {"ops":[...]} or [...]
//	html, err := quillhtml.ToHTML(doc.Ops)
//
// # Delta to HTML
//
// ToHTML walks the operations once, keeping a stack of open tags. Text is
// accumulated into a run until a newline ends the current block; the
// attributes of that newline decide the block:
//
//   - header: <h1> .. <h6>
//   - list: an <li> inside <ol> (ordered) or <ul> (anything else);
//     consecutive items of the same kind share one container
//   - otherwise: one <p> per non-blank line
//
// Any block may carry an align attribute, rendered as an inline
// text-align style. Inline attributes render as <strong>, <em> and <a>;
// image embeds render as <img>. Output is indented two spaces per level.
//
// Invalid align values and header levels are rejected with errors
// matching ErrInvalidInput.
//
// # HTML to Delta
//
// The inverse direction needs a real Quill editor. A Converter runs it in a
// pool of backends:
//
//	conv, err := quillhtml.NewConverter(
//	    quillhtml.WithTimeout(time.Minute),
//	    quillhtml.WithRetries(1),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	doc, err := conv.ToDelta(ctx, "<p><strong>Hi</strong></p>")
//
// Two backends are built in. BackendNode (default) runs node with an
// embedded jsdom script, speaking a NUL-delimited protocol on stdin and
// stdout; WithWorkerCommand substitutes any program speaking the same
// protocol. BackendBrowser loads Quill into headless Chrome through go-rod.
//
// Input HTML is sanitized with a bluemonday policy unless WithSanitizer(nil)
// is given. Empty input returns {"ops":[]} without starting a backend.
//
// # Worker Lifecycle
//
// A backend starts on its first request, serves one request at a time and
// moves to a failed state on any I/O error, crash or malformed reply. It
// stays failed until Restart. IsWorkerFailure reports which errors need a
// restart; the Converter restarts and retries up to WithRetries times.
//
// # Browser Requirements
//
// The browser backend requires Chrome/Chromium. The go-rod library
// automatically downloads a managed Chromium instance on first run
// (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package quillhtml
