// Package artifact provides typed containers for content returned by drivers.
package artifact

import "unicode/utf8"

// Text wraps a piece of generated text. It is immutable once created.
type Text struct {
	value string
}

// NewText creates a text artifact holding value.
func NewText(value string) *Text {
	return &Text{value: value}
}

// Value returns the wrapped text.
func (t *Text) Value() string {
	if t == nil {
		return ""
	}
	return t.value
}

// String implements fmt.Stringer.
func (t *Text) String() string {
	return t.Value()
}

// Len returns the number of characters (runes) in the text.
func (t *Text) Len() int {
	return utf8.RuneCountInString(t.Value())
}
