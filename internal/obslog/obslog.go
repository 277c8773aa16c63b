// Package obslog is a thin structured-logging wrapper so call sites
// don't hand-format every line. It matches the teacher's register
// (plain text to stderr via the standard library) rather than pulling
// in a structured logging library the rest of the pack never uses.
package obslog

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

// Field is one key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field { return Field{Key: key, Value: value} }

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

// SetOutput redirects log output; used by tests to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// Event writes one structured line: `level event key=value key=value`.
// Values that are sensitive (prompt bodies, ADO PATs) must never be
// passed here — callers pass only the fields spec §4.B names
// (template name, duration, retry count, error kind).
func Event(level, event string, fields ...Field) {
	mu.Lock()
	defer mu.Unlock()

	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })

	line := fmt.Sprintf("%s %s %s", time.Now().UTC().Format(time.RFC3339), level, event)
	for _, f := range fields {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	fmt.Fprintln(out, line)
}

func Info(event string, fields ...Field)  { Event("INFO", event, fields...) }
func Warn(event string, fields ...Field)  { Event("WARN", event, fields...) }
func Error(event string, fields ...Field) { Event("ERROR", event, fields...) }
