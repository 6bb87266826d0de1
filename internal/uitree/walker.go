// Copyright 2025 Minseo Park
//
// Pre-order walker over a live accessibility tree

package uitree

import "strings"

// Walker traverses an accessibility tree and classifies every element it
// visits. The zero value is not usable; construct with NewWalker.
type Walker struct {
	textRoles      map[string]bool
	clickableRoles map[string]bool
}

// WalkResult holds the outcome of one traversal.
//
// Texts preserves the pre-order traversal position of each contributing
// element; later heuristics rely on reply text sorting after prompt and
// window chrome text in this order. Clickables are collected but not further
// inspected.
type WalkResult struct {
	Texts      []string
	Clickables []Element
}

// NewWalker returns a walker using the default role sets (RoleStaticText for
// text, RoleButton for clickables).
func NewWalker() *Walker {
	return &Walker{
		textRoles:      map[string]bool{RoleStaticText: true},
		clickableRoles: map[string]bool{RoleButton: true},
	}
}

// WithTextRoles replaces the set of roles treated as text-bearing.
func (w *Walker) WithTextRoles(roles ...string) *Walker {
	w.textRoles = make(map[string]bool, len(roles))
	for _, r := range roles {
		w.textRoles[r] = true
	}
	return w
}

// WithClickableRoles replaces the set of roles treated as interactive.
func (w *Walker) WithClickableRoles(roles ...string) *Walker {
	w.clickableRoles = make(map[string]bool, len(roles))
	for _, r := range roles {
		w.clickableRoles[r] = true
	}
	return w
}

// Walk performs a single pre-order traversal of the subtree rooted at root.
//
// Text-bearing elements contribute their Value, falling back to Description;
// an element whose text is unreadable, empty, or whitespace-only contributes
// nothing. Clickable elements are collected by reference. Per-element read
// failures, including failures listing children, skip that element (or its
// subtree) and never abort the walk.
func (w *Walker) Walk(root Element) *WalkResult {
	res := &WalkResult{}
	w.visit(root, res)
	return res
}

func (w *Walker) visit(el Element, res *WalkResult) {
	role, err := el.Role()
	if err == nil {
		switch {
		case w.textRoles[role]:
			if text, ok := readText(el); ok {
				res.Texts = append(res.Texts, text)
			}
		case w.clickableRoles[role]:
			res.Clickables = append(res.Clickables, el)
		}
	}

	children, err := el.Children()
	if err != nil {
		return
	}
	for _, child := range children {
		w.visit(child, res)
	}
}

// readText extracts the text payload of a text-bearing element. It reports
// false when neither Value nor Description yields a non-blank string.
func readText(el Element) (string, bool) {
	if v, err := el.Value(); err == nil && strings.TrimSpace(v) != "" {
		return v, true
	}
	if d, err := el.Description(); err == nil && strings.TrimSpace(d) != "" {
		return d, true
	}
	return "", false
}
