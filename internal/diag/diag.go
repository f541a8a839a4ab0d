// Package diag implements the evaluator's diagnostic reporting:
// note_at, warn_at, error_at, fatal_at, plus the process-wide error
// counter incremented by bounds reports. A Diagnostic carries a severity,
// a message, a source Location and a session id; the severity enum
// carries this evaluator's own four levels.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-isatty"
)

// Severity parallels ir.Severity's four levels but is independent of the
// IR package so diag has no dependency on it. Fatal is produced only by
// Reporter.Fatal; assert/report ops at ir.SevFailure are reported at Error.
type Severity int

const (
	Note Severity = iota
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Location is a source position, mirroring ir.Bookmark without importing
// it (diag is a leaf package; internal/eval converts ir.Bookmark → diag.Location).
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Diagnostic is one emitted message.
type Diagnostic struct {
	Severity Severity
	Message  string
	Location Location
	Session  string // correlation UUID, see internal/fold.Session
}

func (d Diagnostic) String() string {
	if d.Location.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
}

// Sink receives diagnostics as they are emitted; internal/tracesrv and
// cmd/evalctl both implement it to forward to a terminal or a websocket.
type Sink interface {
	Emit(Diagnostic)
}

// Counter is the process-wide error counter exposed as eval_errors(),
// incremented once per reported Error/Fatal.
type Counter struct {
	n int64
}

func (c *Counter) Incr()        { atomic.AddInt64(&c.n, 1) }
func (c *Counter) Count() int64 { return atomic.LoadInt64(&c.n) }

// Reporter is the evaluator's handle onto diagnostic reporting: a sink
// plus the shared error counter, and the color/terminal decision made
// once at construction via go-isatty.
type Reporter struct {
	out     io.Writer
	counter *Counter
	color   bool
	sinks   []Sink
}

// NewReporter constructs a Reporter writing to w (colorized only when w is
// a real terminal, per github.com/mattn/go-isatty) and sharing counter.
func NewReporter(w io.Writer, counter *Counter) *Reporter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Reporter{out: w, counter: counter, color: color}
}

// AddSink registers an additional destination (e.g. internal/tracesrv's
// websocket broadcaster) for every diagnostic emitted.
func (r *Reporter) AddSink(s Sink) { r.sinks = append(r.sinks, s) }

func (r *Reporter) emit(d Diagnostic) {
	line := d.String()
	if r.color {
		line = colorize(d.Severity, line)
	}
	fmt.Fprintln(r.out, line)
	for _, s := range r.sinks {
		s.Emit(d)
	}
}

func colorize(sev Severity, s string) string {
	var code string
	switch sev {
	case Warning:
		code = "33" // yellow
	case Error, Fatal:
		code = "31" // red
	default:
		code = "36" // cyan
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

// Note emits a note-severity diagnostic. Never counted, never fatal.
func (r *Reporter) Note(loc Location, session, format string, args ...interface{}) {
	r.emit(Diagnostic{Severity: Note, Message: fmt.Sprintf(format, args...), Location: loc, Session: session})
}

// Warn emits a warning-severity diagnostic: used when *warn* is set and
// a fold is prevented.
func (r *Reporter) Warn(loc Location, session, format string, args ...interface{}) {
	r.emit(Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...), Location: loc, Session: session})
}

// ErrorAt emits an error-severity diagnostic and increments the
// process-wide error counter: used by bounds/index/assert reporting.
func (r *Reporter) ErrorAt(loc Location, session, format string, args ...interface{}) {
	r.emit(Diagnostic{Severity: Error, Message: fmt.Sprintf(format, args...), Location: loc, Session: session})
	r.counter.Incr()
}

// Fatal emits a fatal diagnostic for division by zero, a tag-mismatched
// comparison, an unsupported cast/image type, or any other IR structural
// violation. These are contract violations of the source or the IR
// producer, not fold failures, so this panics rather than returning.
func (r *Reporter) Fatal(loc Location, session, format string, args ...interface{}) {
	r.emit(Diagnostic{Severity: Fatal, Message: fmt.Sprintf(format, args...), Location: loc, Session: session})
	r.counter.Incr()
	panic(&FatalError{Location: loc, Message: fmt.Sprintf(format, args...)})
}

// FatalError is the panic value raised by Reporter.Fatal. internal/fold
// recovers it once per call, converting it into a plain ok=false so one
// malformed call site cannot crash an entire build; internal/eval itself
// never recovers it, since a fatal diagnostic is meant to abort the
// current fold outright rather than be handled mid-evaluation.
type FatalError struct {
	Location Location
	Message  string
}

func (e *FatalError) Error() string {
	var b strings.Builder
	if e.Location.File != "" {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}
