// Copyright 2025 Minseo Park
//
// Completion detection heuristic

package uitree

import "strings"

// TypingCursor is the glyph the ChatGPT desktop app renders at the end of the
// paragraph it is still generating (U+258D, left five-eighths block).
//
// This is a syntactic heuristic, not a semantic judgment: the glyph's absence
// is taken as a stable completion signal. It assumes this exact encoding and
// is sensitive to the app's rendering locale; substitute the predicate when a
// locale uses a different marker scheme.
const TypingCursor = "▍"

// StreamingPredicate reports whether a single text entry indicates that a
// response is still being produced.
type StreamingPredicate func(text string) bool

// IsStillStreaming is the default StreamingPredicate: it matches any text
// containing TypingCursor.
func IsStillStreaming(text string) bool {
	return strings.Contains(text, TypingCursor)
}

// ConversationComplete scans texts in order and returns false as soon as any
// entry satisfies pred; it returns true when none do. A nil pred uses
// IsStillStreaming.
func ConversationComplete(texts []string, pred StreamingPredicate) bool {
	if pred == nil {
		pred = IsStillStreaming
	}
	for _, t := range texts {
		if pred(t) {
			return false
		}
	}
	return true
}
