package repl

import (
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
)

// MultiLineBuffer collects lines continued with a trailing backslash
type MultiLineBuffer struct {
	lines    []string
	isActive bool
}

// NewMultiLineBuffer creates a new buffer
func NewMultiLineBuffer() *MultiLineBuffer {
	return &MultiLineBuffer{
		lines: []string{},
	}
}

// AddLine adds a line to the buffer and activates it
func (b *MultiLineBuffer) AddLine(line string) {
	b.lines = append(b.lines, line)
	b.isActive = true
}

// GetContent returns the buffer content as one program text
func (b *MultiLineBuffer) GetContent() string {
	return strings.Join(b.lines, "\n")
}

// Clear empties the buffer and deactivates it
func (b *MultiLineBuffer) Clear() {
	b.lines = []string{}
	b.isActive = false
}

// IsActive returns true while a continuation is pending
func (b *MultiLineBuffer) IsActive() bool {
	return b.isActive
}

// IsEmpty returns true if the buffer holds no lines
func (b *MultiLineBuffer) IsEmpty() bool {
	return len(b.lines) == 0
}

// GetLineCount returns the number of buffered lines
func (b *MultiLineBuffer) GetLineCount() int {
	return len(b.lines)
}

// GetLines returns all buffered lines
func (b *MultiLineBuffer) GetLines() []string {
	return b.lines
}

// Listing is the numbered program typed into the session, kept in line
// number order the way a BASIC editor keeps it
type Listing struct {
	lines *treemap.Map
}

// NewListing creates an empty listing
func NewListing() *Listing {
	return &Listing{lines: treemap.NewWithIntComparator()}
}

// Store records or replaces line n. An empty text deletes the line and
// reports whether it existed.
func (l *Listing) Store(n int, text string) bool {
	if strings.TrimSpace(text) == "" {
		_, found := l.lines.Get(n)
		l.lines.Remove(n)
		return found
	}
	l.lines.Put(n, strings.TrimSpace(text))
	return true
}

// Len returns the number of stored lines
func (l *Listing) Len() int {
	return l.lines.Size()
}

// Clear removes every line
func (l *Listing) Clear() {
	l.lines.Clear()
}

// Lines renders the listing, one "N text" entry per line
func (l *Listing) Lines() []string {
	out := make([]string, 0, l.lines.Size())
	it := l.lines.Iterator()
	for it.Next() {
		out = append(out, strconv.Itoa(it.Key().(int))+" "+it.Value().(string))
	}
	return out
}

// Source returns the listing as program text
func (l *Listing) Source() string {
	return strings.Join(l.Lines(), "\n")
}

// splitLineNumber splits "20 PRINT X" into 20 and "PRINT X". ok is false
// when the line does not start with a line number.
func splitLineNumber(line string) (n int, text string, ok bool) {
	line = strings.TrimSpace(line)
	end := 0
	for end < len(line) && line[end] >= '0' && line[end] <= '9' {
		end++
	}
	if end == 0 || (end < len(line) && line[end] != ' ' && line[end] != '\t') {
		return 0, "", false
	}
	n, err := strconv.Atoi(line[:end])
	if err != nil {
		return 0, "", false
	}
	return n, strings.TrimSpace(line[end:]), true
}
