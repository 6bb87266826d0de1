// Copyright 2025 Minseo Park
//
// Snapshot encoding with a fixed, caller-visible JSON shape

package uitree

import (
	"strconv"
	"strings"
)

// Snapshot is the machine-consumable result of one screen read.
//
// A snapshot is either a success (Texts and Complete populated) or an error
// (Message populated); the two encode as strictly alternate JSON shapes and
// an error snapshot never carries partial success fields.
type Snapshot struct {
	Err      bool
	Message  string
	Texts    []string
	Complete bool
}

// SuccessSnapshot builds a success snapshot from extracted texts, computing
// the completion indicator with pred (nil for the default).
func SuccessSnapshot(texts []string, pred StreamingPredicate) *Snapshot {
	return &Snapshot{
		Texts:    texts,
		Complete: ConversationComplete(texts, pred),
	}
}

// ErrorSnapshot builds an error snapshot carrying only a message.
func ErrorSnapshot(message string) *Snapshot {
	return &Snapshot{Err: true, Message: message}
}

// Encode renders the snapshot as JSON by direct string assembly.
//
// The exact byte shape is a compatibility contract with existing callers
// (field order, absence of optional fields, bare true/false, no extra
// whitespace), which is why this does not go through encoding/json:
//
//	{"status":"success","textCount":N,"texts":[...],"indicators":{"conversationComplete":B}}
//	{"status":"error","message":"..."}
func (s *Snapshot) Encode() string {
	var b strings.Builder

	if s.Err {
		b.WriteString(`{"status":"error","message":"`)
		b.WriteString(escapeText(s.Message))
		b.WriteString(`"}`)
		return b.String()
	}

	b.WriteString(`{"status":"success","textCount":`)
	b.WriteString(strconv.Itoa(len(s.Texts)))
	b.WriteString(`,"texts":[`)
	for i, t := range s.Texts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(escapeText(t))
		b.WriteByte('"')
	}
	b.WriteString(`],"indicators":{"conversationComplete":`)
	if s.Complete {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
	b.WriteString(`}}`)
	return b.String()
}

// escapeText applies the fixed substitution table, in this order: backslash,
// double quote, carriage return, line feed, horizontal tab. Nothing else is
// escaped or re-encoded.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\r", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}
