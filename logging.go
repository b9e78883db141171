package solver

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// Logger is the diagnostic sink a Solver writes to during admission and
// stepping. Admission failures are also surfaced as returned errors; Logger
// is for non-fatal diagnostics (capacity high-water marks, rejected
// admissions, per-step summaries) a caller may want surfaced without
// inspecting every return value.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// WithFields returns a Logger that prepends key=value pairs to every
	// line it writes, for tagging a run of log lines with the instance or
	// step they came from without repeating that context at every call
	// site.
	WithFields(fields map[string]any) Logger
}

// DefaultLogger writes leveled, field-tagged lines to stdout/stderr.
type DefaultLogger struct {
	mu     sync.Mutex
	debug  bool
	prefix string
	fields string // pre-rendered "k=v k=v" suffix, immutable after WithFields
	out    *log.Logger
	err    *log.Logger
}

// NewDefaultLogger constructs a DefaultLogger tagged with prefix (typically
// a Solver's instance id).
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(os.Stdout, "", flags),
		err:    log.New(os.Stderr, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

// WithFields returns a new logger sharing this one's output and starting
// from a copy of its current debug setting, tagging every line with the
// given fields, rendered in stable key-sorted order.
func (l *DefaultLogger) WithFields(fields map[string]any) Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, fields[k])
	}
	return &DefaultLogger{
		debug:  l.debug,
		prefix: l.prefix,
		fields: b.String(),
		out:    l.out,
		err:    l.err,
	}
}

func (l *DefaultLogger) formatLine(level, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	switch {
	case l.prefix != "" && l.fields != "":
		return fmt.Sprintf("[%s] %s: %s %s", l.prefix, level, l.fields, msg)
	case l.prefix != "":
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, msg)
	case l.fields != "":
		return fmt.Sprintf("%s: %s %s", level, l.fields, msg)
	default:
		return fmt.Sprintf("%s: %s", level, msg)
	}
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	l.mu.Lock()
	dbg := l.debug
	l.mu.Unlock()
	if !dbg {
		return
	}
	l.out.Print(l.formatLine("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.formatLine("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.formatLine("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.formatLine("ERROR", format, args...))
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

func (n nopLogger) DebugEnabled() bool                  { return false }
func (n nopLogger) SetDebug(enabled bool)               {}
func (n nopLogger) Debugf(format string, args ...any)   {}
func (n nopLogger) Infof(format string, args ...any)    {}
func (n nopLogger) Warnf(format string, args ...any)    {}
func (n nopLogger) Errorf(format string, args ...any)   {}
func (n nopLogger) WithFields(fields map[string]any) Logger { return n }
