// Package clipstore implements the bounded clip history at the heart of
// netclip. A Store holds one direction of traffic (clips copied locally, or
// clips received from the network), most recent first, deduplicated by
// content and capped at a fixed capacity.
package clipstore

import (
	"strings"
	"unicode/utf8"
)

// MaxPayload is the largest wire payload in bytes: a single UDP datagram
// that fits an Ethernet MTU without IP fragmentation
// (1500 − 20 IP header − 8 UDP header).
const MaxPayload = 1472

// Clip is one unit of clipboard text plus its display width. Two clips are
// equal iff their text is byte-for-byte equal; the width is cosmetic only.
type Clip struct {
	text  string
	width int
}

// NewClip constructs a Clip with the given label width.
func NewClip(text string, width int) Clip {
	return Clip{text: text, width: width}
}

// Text returns the full clip text.
func (c Clip) Text() string { return c.text }

// Label returns a shortened single-line label suitable for list display.
// Newlines become spaces and surrounding whitespace is trimmed; if the
// result is longer than the configured width it is rendered as
// "prefix…suffix" with floor(width/2)−1 runes on each side.
func (c Clip) Label() string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(c.text, "\n", " "))
	runes := []rune(trimmed)
	if len(runes) <= c.width {
		return trimmed
	}
	half := c.width/2 - 1
	if half < 1 {
		return "…"
	}
	return string(runes[:half]) + "…" + string(runes[len(runes)-half:])
}

// WirePayload returns the clip text capped at MaxPayload bytes so it always
// fits a single unfragmented datagram. The cut is backed off to a rune
// boundary so the payload stays valid UTF-8.
func (c Clip) WirePayload() []byte {
	if len(c.text) <= MaxPayload {
		return []byte(c.text)
	}
	cut := MaxPayload
	for cut > 0 && !utf8.RuneStart(c.text[cut]) {
		cut--
	}
	return []byte(c.text[:cut])
}

func (c Clip) String() string { return `<Clip "` + c.Label() + `">` }

// Store is a bounded, ordered, dedup-by-content clip history, most recent
// first. It is not safe for concurrent use; callers serialize access.
type Store struct {
	capacity int
	width    int
	clips    []Clip
}

// New returns an empty Store holding at most capacity clips, labelled at
// the given display width.
func New(capacity, width int) *Store {
	return &Store{capacity: capacity, width: width}
}

// Record inserts text at the front of the history and reports whether the
// store changed. Blank text and an exact repeat of the current head are
// no-ops. Any older entry with the same text is removed so the content
// appears exactly once, and the oldest entry is evicted when the insertion
// would exceed capacity.
func (s *Store) Record(text string) (Clip, bool) {
	if strings.TrimSpace(text) == "" {
		return Clip{}, false
	}
	if len(s.clips) > 0 && s.clips[0].text == text {
		return Clip{}, false
	}

	for i, c := range s.clips {
		if c.text == text {
			s.clips = append(s.clips[:i], s.clips[i+1:]...)
			break
		}
	}

	clip := NewClip(text, s.width)
	s.clips = append([]Clip{clip}, s.clips...)
	if len(s.clips) > s.capacity {
		s.clips = s.clips[:len(s.clips)-1]
	}
	return clip, true
}

// Len returns the number of clips currently held.
func (s *Store) Len() int { return len(s.clips) }

// At returns the clip at position i (0 = most recent).
func (s *Store) At(i int) (Clip, bool) {
	if i < 0 || i >= len(s.clips) {
		return Clip{}, false
	}
	return s.clips[i], true
}

// Snapshot returns a copy of the history, most recent first.
func (s *Store) Snapshot() []Clip {
	out := make([]Clip, len(s.clips))
	copy(out, s.clips)
	return out
}
