// Copyright 2025 Minseo Park
//
// Screen reading: one traversal, one snapshot, per call

package chatgpt

import (
	"context"
	"time"

	"github.com/minseopark/chatgpt-use-mcp/internal/uitree"
)

// settleDelay is the fixed pause before a traversal begins. The front window
// may not have finished laying out immediately after activation or a send;
// this is a single delay, not a retry loop.
const settleDelay = 300 * time.Millisecond

// Client drives the ChatGPT desktop app. All operations are synchronous and
// stateless between calls except for the pending-prompt registry, which
// serialises outstanding prompts across tool invocations.
type Client struct {
	runner ScriptRunner
	walker *uitree.Walker
	pred   uitree.StreamingPredicate
	sleep  func(time.Duration)

	pending pendingRegistry
}

// Option configures a Client.
type Option func(*Client)

// WithRunner substitutes the script runner, primarily for tests.
func WithRunner(r ScriptRunner) Option {
	return func(c *Client) { c.runner = r }
}

// WithStreamingPredicate substitutes the typing-cursor heuristic, for
// locales whose renderer uses a different marker glyph.
func WithStreamingPredicate(pred uitree.StreamingPredicate) Option {
	return func(c *Client) { c.pred = pred }
}

// withSleep substitutes the settle/typing sleeps, for tests.
func withSleep(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient returns a client using osascript and the default walker.
func NewClient(opts ...Option) *Client {
	c := &Client{
		runner: OsascriptRunner{},
		walker: uitree.NewWalker(),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadScreen performs one read-only traversal of the live UI tree and
// returns the encoded snapshot. It always returns a well-formed snapshot
// string: structural failures (no process, no window) and script failures
// produce the error shape rather than a Go error, so the caller can relay
// the result verbatim.
func (c *Client) ReadScreen(ctx context.Context) string {
	c.sleep(settleDelay)

	out, err := c.runner.Run(ctx, treeDumpScript)
	if err != nil {
		return uitree.ErrorSnapshot(err.Error()).Encode()
	}

	root, err := parseTreeDump(out)
	if err != nil {
		return uitree.ErrorSnapshot(err.Error()).Encode()
	}

	res := c.walker.Walk(root)
	return uitree.SuccessSnapshot(res.Texts, c.pred).Encode()
}

// Control describes one interactive element, for diagnostics.
type Control struct {
	Role string
	Name string
}

// DumpControls lists every clickable control in the front window with its
// role and accessible name. It reuses the screen traversal but applies no
// text or indicator logic; its purpose is triage when a system locale
// renders control names the automation scripts do not expect.
func (c *Client) DumpControls(ctx context.Context) ([]Control, error) {
	out, err := c.runner.Run(ctx, treeDumpScript)
	if err != nil {
		return nil, err
	}

	root, err := parseTreeDump(out)
	if err != nil {
		return nil, err
	}

	var controls []Control
	for _, el := range c.walker.Walk(root).Clickables {
		ctrl := Control{}
		if role, err := el.Role(); err == nil {
			ctrl.Role = role
		}
		if desc, err := el.Description(); err == nil && desc != "" {
			ctrl.Name = desc
		} else if val, err := el.Value(); err == nil {
			ctrl.Name = val
		}
		controls = append(controls, ctrl)
	}
	return controls, nil
}
