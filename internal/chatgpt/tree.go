// Copyright 2025 Minseo Park
//
// Accessibility tree dump and parsing

package chatgpt

import (
	"errors"
	"strings"

	"github.com/minseopark/chatgpt-use-mcp/internal/uitree"
)

// Structural failures: both short-circuit a screen read before any traversal
// is attempted. Everything below them (individual element reads) degrades
// gracefully instead of erroring.
var (
	ErrProcessNotFound = errors.New("ChatGPT process not found")
	ErrNoWindow        = errors.New("No ChatGPT window found")
)

// Sentinel lines the dump script returns instead of element records when the
// structural preconditions fail.
const (
	markerNoProcess = "__NO_PROCESS__"
	markerNoWindow  = "__NO_WINDOW__"
)

// Element records are separated by the ASCII record separator and fields
// within a record by the unit separator; neither occurs in rendered UI text.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// treeDumpScript walks the entire accessibility subtree of the ChatGPT front
// window and emits one pre-order record per element: role, value,
// description. Attribute reads happen inside per-element try blocks because
// the UI is live and elements can vanish between enumeration and inspection;
// an unreadable attribute yields an empty field, mirroring a missing one.
const treeDumpScript = `
set fieldSep to character id 31
set recordSep to character id 30
tell application "System Events"
	if not (exists application process "ChatGPT") then return "` + markerNoProcess + `"
	tell application process "ChatGPT"
		if not (exists window 1) then return "` + markerNoWindow + `"
		set out to ""
		set allElements to entire contents of window 1
		repeat with el in allElements
			set elRole to ""
			set elValue to ""
			set elDesc to ""
			try
				set elRole to role of el
			end try
			try
				set elValue to (value of el) as text
			end try
			try
				set elDesc to description of el
			end try
			set out to out & elRole & fieldSep & elValue & fieldSep & elDesc & recordSep
		end repeat
		return out
	end tell
end tell`

// windowNode is a parsed accessibility element. The dump script resolves the
// fallible reads up front, so accessors never fail here; the uitree walker
// still treats them as fallible for the sake of other bindings.
type windowNode struct {
	role     string
	value    string
	desc     string
	children []uitree.Element
}

func (n *windowNode) Role() (string, error)              { return n.role, nil }
func (n *windowNode) Value() (string, error)             { return n.value, nil }
func (n *windowNode) Description() (string, error)       { return n.desc, nil }
func (n *windowNode) Children() ([]uitree.Element, error) { return n.children, nil }

// parseTreeDump converts the dump script's output into a synthetic window
// root whose children are the dumped elements in pre-order. Walking that
// root visits elements in the same order the script enumerated them.
func parseTreeDump(out string) (uitree.Element, error) {
	switch strings.TrimSpace(out) {
	case markerNoProcess:
		return nil, ErrProcessNotFound
	case markerNoWindow:
		return nil, ErrNoWindow
	}

	root := &windowNode{role: "AXWindow"}
	for _, record := range strings.Split(out, recordSep) {
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, 3)
		node := &windowNode{role: fields[0]}
		if len(fields) > 1 {
			node.value = fields[1]
		}
		if len(fields) > 2 {
			node.desc = fields[2]
		}
		root.children = append(root.children, node)
	}
	return root, nil
}
