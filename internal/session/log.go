package session

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// DefaultLogPath is where the results log is written on stop.
const DefaultLogPath = "results.txt"

// ResultsLog accumulates one "<note>;<finger>" line per note-on event.
type ResultsLog struct {
	mu    sync.Mutex
	lines []string
}

// NewResultsLog creates an empty log.
func NewResultsLog() *ResultsLog {
	return &ResultsLog{}
}

// Append adds a line. A missing trailing newline is added.
func (l *ResultsLog) Append(line string) {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
}

// Lines returns a copy of the accumulated lines.
func (l *ResultsLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Len returns the number of lines.
func (l *ResultsLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// WriteTo writes every line to w.
func (l *ResultsLog) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range l.Lines() {
		n, err := io.WriteString(w, line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Flush writes the log to path, replacing any previous content.
func (l *ResultsLog) Flush(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results log: %w", err)
	}

	if _, err := l.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write results log: %w", err)
	}
	return f.Close()
}
