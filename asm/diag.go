package asm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const (
	ERROR_LIMIT = 25 // Errors before a pass is abandoned.
)

// Severity of a diagnostic. Notes and WARNING1 are reported in pass 1
// only, WARNING2 in pass 2 only. An error drops the statement, and a
// fatal error stops processing.
type Severity int

//go:generate go tool stringer -linecomment -type=Severity

const (
	SEVERITY_INFO     = Severity(0) // Note
	SEVERITY_WARNING1 = Severity(1) // Warning
	SEVERITY_WARNING2 = Severity(2) // Warning
	SEVERITY_ERROR    = Severity(3) // Error
	SEVERITY_FATAL    = Severity(4) // Fatal Error
)

func (sev Severity) color() string {
	switch sev {
	case SEVERITY_INFO:
		return "\033[36m"
	case SEVERITY_WARNING1, SEVERITY_WARNING2:
		return "\033[33m"
	default:
		return "\033[31m"
	}
}

// Location of a diagnostic in the source.
type Location struct {
	File   string
	LineNo int
}

func (loc Location) String() string {
	if len(loc.File) == 0 {
		return ""
	}
	if loc.LineNo == 0 {
		return loc.File
	}
	return fmt.Sprintf("%s(%d)", loc.File, loc.LineNo)
}

// Reporter prints diagnostics and keeps the pass counters.
type Reporter struct {
	Output   io.Writer // Defaults to io.Discard.
	Pass     int       // Current pass, 1 or 2.
	Errors   int       // Errors in this pass.
	Warnings int       // Warnings in this pass.
	Fatal    bool      // A fatal diagnostic was seen.
	Aborted  bool      // The error limit was reached.
	First    error     // First error of the pass.

	color bool
}

// NewReporter returns a reporter writing to w, with coloured severities
// when w is a terminal.
func NewReporter(w io.Writer) (r *Reporter) {
	if w == nil {
		w = io.Discard
	}
	r = &Reporter{Output: w}
	if file, ok := w.(*os.File); ok {
		r.color = term.IsTerminal(int(file.Fd()))
	}
	return
}

// Begin resets the counters for a pass.
func (r *Reporter) Begin(pass int) {
	r.Pass = pass
	r.Errors = 0
	r.Warnings = 0
	r.Aborted = false
	r.First = nil
}

// Stopped is true once the pass cannot continue.
func (r *Reporter) Stopped() bool {
	return r.Fatal || r.Aborted
}

// Report prints one diagnostic. Errors wrapping ErrFatal are promoted.
func (r *Reporter) Report(sev Severity, loc Location, err error) {
	if sev == SEVERITY_ERROR && errors.Is(err, ErrFatal) {
		sev = SEVERITY_FATAL
	}

	switch sev {
	case SEVERITY_INFO, SEVERITY_WARNING1:
		if r.Pass != 1 {
			return
		}
	case SEVERITY_WARNING2:
		if r.Pass != 2 {
			return
		}
	}

	r.print(sev, loc, message(err))

	switch sev {
	case SEVERITY_WARNING1, SEVERITY_WARNING2:
		r.Warnings++
	case SEVERITY_ERROR:
		r.Errors++
	case SEVERITY_FATAL:
		r.Errors++
		r.Fatal = true
	}

	if sev >= SEVERITY_ERROR && r.First == nil {
		r.First = err
	}

	if r.Errors >= ERROR_LIMIT && !r.Aborted {
		r.Aborted = true
		fmt.Fprintln(r.Output, f("Aborting..."))
	}
}

func (r *Reporter) print(sev Severity, loc Location, text string) {
	where := loc.String()
	if len(where) > 0 {
		where += " "
	}
	label := f(sev.String())
	if r.color {
		label = sev.color() + label + "\033[0m"
	}
	fmt.Fprintf(r.Output, "%s%s: %s\n", where, label, text)
}

// Summary prints the per-pass totals.
func (r *Reporter) Summary() {
	fmt.Fprintf(r.Output, "Pass %d : %d error(s), %d warning(s)\n", r.Pass, r.Errors, r.Warnings)
}

// message strips the location wrappers that the reporter prints itself.
func message(err error) string {
	for {
		se, ok := err.(*ErrSyntax)
		if !ok {
			break
		}
		err = se.Err
	}
	return err.Error()
}
