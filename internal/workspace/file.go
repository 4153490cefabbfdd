package workspace

import (
	"fmt"

	"relo/internal/parser"
)

// SourceFile is one project file's in-memory buffer plus its extracted module
// surface. Every text mutation re-extracts the surface, so spans recorded in
// Parsed never drift from the buffer.
type SourceFile struct {
	path   string
	text   []byte
	parsed *parser.File
	dirty  bool
	parser *parser.Parser
}

func (f *SourceFile) Path() string {
	return f.path
}

func (f *SourceFile) Text() string {
	return string(f.text)
}

func (f *SourceFile) Bytes() []byte {
	out := make([]byte, len(f.text))
	copy(out, f.text)
	return out
}

func (f *SourceFile) Parsed() *parser.File {
	return f.parsed
}

func (f *SourceFile) Dirty() bool {
	return f.dirty
}

func (f *SourceFile) Len() int {
	return len(f.text)
}

// SetText replaces the whole buffer.
func (f *SourceFile) SetText(text string) error {
	f.text = []byte(text)
	f.dirty = true
	return f.reparse()
}

func (f *SourceFile) InsertAt(offset int, text string) error {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.text) {
		offset = len(f.text)
	}
	next := make([]byte, 0, len(f.text)+len(text))
	next = append(next, f.text[:offset]...)
	next = append(next, text...)
	next = append(next, f.text[offset:]...)
	f.text = next
	f.dirty = true
	return f.reparse()
}

func (f *SourceFile) Append(text string) error {
	return f.InsertAt(len(f.text), text)
}

func (f *SourceFile) ReplaceRange(span parser.Span, text string) error {
	span = f.clamp(span)
	next := make([]byte, 0, len(f.text)-span.Len()+len(text))
	next = append(next, f.text[:span.Start]...)
	next = append(next, text...)
	next = append(next, f.text[span.End:]...)
	f.text = next
	f.dirty = true
	return f.reparse()
}

func (f *SourceFile) RemoveRange(span parser.Span) error {
	return f.ReplaceRange(span, "")
}

func (f *SourceFile) clamp(span parser.Span) parser.Span {
	if span.Start < 0 {
		span.Start = 0
	}
	if span.End > len(f.text) {
		span.End = len(f.text)
	}
	if span.End < span.Start {
		span.End = span.Start
	}
	return span
}

func (f *SourceFile) reparse() error {
	parsed, err := f.parser.ParseFile(f.path, f.text)
	if err != nil {
		return fmt.Errorf("reparse %s: %w", f.path, err)
	}
	f.parsed = parsed
	return nil
}
