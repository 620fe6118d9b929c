package serialize

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// TimestampLayout is the local wall-clock format used in records and log lines.
const TimestampLayout = "2006-01-02 15:04:05"

const maxValuePreview = 200

// DiagnosticLog appends one line per value that could not be stored.
// Writes are best effort: a failure to write is reported through the
// standard logger and never returned.
type DiagnosticLog struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewDiagnosticLog returns a log appending to path. An empty path disables it.
func NewDiagnosticLog(path string) *DiagnosticLog {
	return &DiagnosticLog{path: path, now: time.Now}
}

// Enabled reports whether lines are written anywhere.
func (l *DiagnosticLog) Enabled() bool {
	return l != nil && l.path != ""
}

// Path returns the file lines are appended to.
func (l *DiagnosticLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Omitted records that key was left out of the record.
func (l *DiagnosticLog) Omitted(key string, value any, cause error) {
	if !l.Enabled() {
		return
	}
	l.append(fmt.Sprintf(
		"%s - Could not convert %s to JSON. The corresponding value has type %T and value %s. Error: %s. Skipping this variable.",
		l.now().Format(TimestampLayout), key, value, preview(value), singleLine(fmt.Sprint(cause)),
	))
}

// Event records a free-form progress line such as a notebook upload.
func (l *DiagnosticLog) Event(format string, args ...any) {
	if !l.Enabled() {
		return
	}
	l.append(l.now().Format(TimestampLayout) + " - " + singleLine(fmt.Sprintf(format, args...)))
}

func (l *DiagnosticLog) append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("[WARN] Failed to open diagnostic log %s: %v", l.path, err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		log.Printf("[WARN] Failed to write diagnostic log %s: %v", l.path, err)
	}
}

func preview(value any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = "<unprintable>"
		}
	}()
	s = singleLine(fmt.Sprintf("%v", value))
	if len(s) > maxValuePreview {
		s = s[:maxValuePreview] + "..."
	}
	return s
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
