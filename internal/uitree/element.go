// Copyright 2025 Minseo Park

// Package uitree reads a live accessibility element tree and turns it into a
// structured snapshot: the visible text in traversal order, the clickable
// controls, and a completion indicator for the conversation.
//
// The tree belongs to another process and mutates while it is being read, so
// every per-element attribute read is treated as independently fallible.
package uitree

// Accessibility roles recognised by the walker. These are the macOS AX role
// strings exposed by the System Events scripting bridge.
const (
	// RoleStaticText marks a text-bearing element.
	RoleStaticText = "AXStaticText"

	// RoleButton marks a clickable control.
	RoleButton = "AXButton"
)

// Element is a handle into a live accessibility tree.
//
// Elements are borrowed for the duration of a single walk; implementations
// are free to invalidate them afterwards, and callers must not retain them.
// Any accessor may fail at any time (the underlying element can vanish
// between enumeration and inspection), and the walker treats each failure as
// "skip this element" rather than aborting.
type Element interface {
	// Role returns the element's classification tag, e.g. "AXStaticText".
	Role() (string, error)

	// Value returns the element's primary text payload, if any.
	Value() (string, error)

	// Description returns the element's descriptive label, used as the
	// fallback text payload when Value is unavailable.
	Description() (string, error)

	// Children returns the element's direct children in layout order.
	Children() ([]Element, error)
}
