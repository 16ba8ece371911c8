package logger

import (
	"fmt"
	"io"
	"strings"
)

// Icons used by the operator-facing helpers
const (
	IconSuccess = "✅"
	IconError   = "❌"
	IconWarning = "⚠️"
	IconAlert   = "🚨"
	IconShield  = "🛡️"
	IconNetwork = "🌐"
	IconRefresh = "🔄"
	IconPin     = "📍"
	IconUser    = "👤"
	IconDot     = "•"
)

// Success logs a success message with a green checkmark
func Success(args ...interface{}) {
	defaultLogger.Info(IconSuccess + " " + fmt.Sprint(args...))
}

// Successf logs a formatted success message
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Progress logs a progress message with a refresh icon
func Progress(args ...interface{}) {
	defaultLogger.Info(IconRefresh + " " + fmt.Sprint(args...))
}

// Progressf logs a formatted progress message
func Progressf(format string, args ...interface{}) {
	Progress(fmt.Sprintf(format, args...))
}

// Network logs a network-related message
func Network(args ...interface{}) {
	defaultLogger.Info(IconNetwork + " " + fmt.Sprint(args...))
}

// Networkf logs a formatted network message
func Networkf(format string, args ...interface{}) {
	Network(fmt.Sprintf(format, args...))
}

// Alertf logs a safety alert at warn level
func Alertf(format string, args ...interface{}) {
	defaultLogger.Warn(IconAlert + " " + fmt.Sprintf(format, args...))
}

func output() (io.Writer, bool) {
	if l, ok := defaultLogger.(*logger); ok {
		l.out.mu.Lock()
		defer l.out.mu.Unlock()
		return l.out.writer, l.out.noColor
	}
	return io.Discard, true
}

// LogSection creates a visual section separator
func LogSection(title string) {
	w, noColor := output()
	line := strings.Repeat("=", 50)
	if noColor {
		_, _ = fmt.Fprintf(w, "%s\n%s\n%s\n", line, title, line)
		return
	}
	_, _ = fmt.Fprintf(w, "%s\n%s\n%s\n", prefixColor.Sprint(line), prefixColor.Sprint(title), prefixColor.Sprint(line))
}

// LogKeyValue logs a key-value pair
func LogKeyValue(key string, value interface{}) {
	w, noColor := output()
	if noColor {
		_, _ = fmt.Fprintf(w, "%s: %v\n", key, value)
		return
	}
	_, _ = fmt.Fprintf(w, "%s %v\n", prefixColor.Sprint(key+":"), value)
}

// LogList logs a list of items with bullets
func LogList(title string, items []string) {
	Info(title)
	w, _ := output()
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "  %s %s\n", IconDot, item)
	}
}

// Table represents a simple table for logging
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a new table
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow adds a row to the table
func (t *Table) AddRow(values ...string) {
	t.rows = append(t.rows, values)
}

// Print writes the table to the logger output
func (t *Table) Print() {
	w, _ := output()
	t.Render(w)
}

// Render writes the table to w
func (t *Table) Render(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range t.headers {
		fmt.Fprintf(&b, "%-*s  ", widths[i], h)
	}
	b.WriteString("\n")
	for i := range t.headers {
		b.WriteString(strings.Repeat("-", widths[i]) + "  ")
	}
	b.WriteString("\n")
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
			}
		}
		b.WriteString("\n")
	}
	_, _ = io.WriteString(w, b.String())
}
