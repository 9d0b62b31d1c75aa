package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-quillhtml/internal/config"
	"github.com/alnah/go-quillhtml/internal/hints"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Node     nodeInfo   `json:"node"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// nodeInfo holds node worker detection results.
type nodeInfo struct {
	Command string `json:"command"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	JSDOM   bool   `json:"jsdom"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Container  bool   `json:"container"`
	CI         bool   `json:"ci"`
	NoSandbox  string `json:"rod_no_sandbox"`
	BrowserBin string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctor runs the checks. Command lookups and execution are injectable.
type doctor struct {
	backend  string
	command  string
	getenv   func(string) string
	lookPath func(string) (string, error)
	output   func(name string, args ...string) ([]byte, error)
	chrome   func() (string, bool)
}

// newDoctor returns a doctor that inspects the real system.
func newDoctor(backend, command string, getenv func(string) string) *doctor {
	return &doctor{
		backend:  backend,
		command:  command,
		getenv:   getenv,
		lookPath: exec.LookPath,
		output: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output() // #nosec G204 -- configured worker command
		},
		chrome: launcher.LookPath,
	}
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	jsonOutput := fs.Bool("json", false, "print results as JSON")
	backend := fs.StringP("backend", "b", config.BackendNode, "backend that must be ready: node, browser")
	command := fs.String("command", config.DefaultCommand, "worker command to check")
	fs.Usage = func() { printCommandUsage(env.Stderr, "doctor") }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	result := newDoctor(*backend, *command, env.Getenv).run()

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// run performs all diagnostic checks.
func (d *doctor) run() *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  d.getenv("ROD_NO_SANDBOX"),
			BrowserBin: d.getenv("ROD_BROWSER_BIN"),
		},
	}

	d.checkNode(result)
	d.checkChrome(result)
	d.checkEnvironment(result)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// problem records msg as an error when the checked backend is the one in
// use, and as a warning otherwise.
func (d *doctor) problem(result *doctorResult, backend, msg string) {
	if d.backend == backend {
		result.Errors = append(result.Errors, msg)
	} else {
		result.Warnings = append(result.Warnings, msg)
	}
}

// checkNode detects the worker command and the jsdom package.
func (d *doctor) checkNode(result *doctorResult) {
	result.Node.Command = d.command

	path, err := d.lookPath(d.command)
	if err != nil {
		d.problem(result, config.BackendNode,
			fmt.Sprintf("%s not found on PATH%s", d.command, hints.ForWorkerStart(d.command)))
		return
	}
	result.Node.Found = true
	result.Node.Path = path

	if out, err := d.output(path, "--version"); err == nil {
		result.Node.Version = strings.TrimSpace(string(out))
	}

	if _, err := d.output(path, "-e", "require('jsdom')"); err == nil {
		result.Node.JSDOM = true
	} else {
		d.problem(result, config.BackendNode,
			"jsdom is not installed. Run 'npm install -g jsdom' and set NODE_PATH")
	}
}

// checkChrome detects Chrome/Chromium installation.
func (d *doctor) checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = d.chrome()
		if !found {
			d.problem(result, config.BackendBrowser,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	if out, err := d.output(chromePath, "--version"); err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	}
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func (d *doctor) checkEnvironment(result *doctorResult) {
	result.Env.Container = hints.IsInContainer()

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if d.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if d.backend == config.BackendBrowser && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// checkSystem verifies the worker script can be written to the temp directory.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	f, err := os.CreateTemp(tmpDir, "quillhtml-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "quillhtml doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Node worker")
	if r.Node.Found {
		fmt.Fprintf(w, "  [OK] %s at %s\n", r.Node.Command, r.Node.Path)
		if r.Node.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Node.Version)
		}
		if r.Node.JSDOM {
			fmt.Fprintln(w, "  [OK] jsdom: installed")
		} else {
			fmt.Fprintln(w, "  [--] jsdom: missing")
		}
	} else {
		fmt.Fprintf(w, "  [--] %s: not found\n", r.Node.Command)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [--] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintln(w, "  [OK] Container: detected")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to convert")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
