// Copyright 2025 Minseo Park
//
// Screen reading unit tests

package chatgpt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runnerFunc adapts a function to the ScriptRunner interface.
type runnerFunc func(ctx context.Context, script string) (string, error)

func (f runnerFunc) Run(ctx context.Context, script string) (string, error) {
	return f(ctx, script)
}

// staticRunner always returns the same output.
func staticRunner(out string, err error) ScriptRunner {
	return runnerFunc(func(context.Context, string) (string, error) {
		return out, err
	})
}

// record builds one dump-script element record.
func record(role, value, desc string) string {
	return role + fieldSep + value + fieldSep + desc + recordSep
}

func newTestClient(r ScriptRunner) *Client {
	return NewClient(WithRunner(r), withSleep(func(time.Duration) {}))
}

func TestReadScreenNoProcess(t *testing.T) {
	c := newTestClient(staticRunner(markerNoProcess, nil))

	got := c.ReadScreen(context.Background())

	assert.Equal(t, `{"status":"error","message":"ChatGPT process not found"}`, got)
}

func TestReadScreenNoWindow(t *testing.T) {
	c := newTestClient(staticRunner(markerNoWindow, nil))

	got := c.ReadScreen(context.Background())

	assert.Equal(t, `{"status":"error","message":"No ChatGPT window found"}`, got)
}

func TestReadScreenScriptFailure(t *testing.T) {
	c := newTestClient(staticRunner("", errors.New("osascript: not authorized")))

	got := c.ReadScreen(context.Background())

	assert.Equal(t, `{"status":"error","message":"osascript: not authorized"}`, got)
}

func TestReadScreenSuccess(t *testing.T) {
	dump := record("AXStaticText", "Hi", "") +
		record("AXStaticText", "How can I help?", "") +
		record("AXStaticText", "", "") +
		record("AXButton", "", "Send")
	c := newTestClient(staticRunner(dump, nil))

	got := c.ReadScreen(context.Background())

	assert.Equal(t,
		`{"status":"success","textCount":2,"texts":["Hi","How can I help?"],"indicators":{"conversationComplete":true}}`,
		got)
}

func TestReadScreenStreamingReply(t *testing.T) {
	dump := record("AXStaticText", "question", "") +
		record("AXStaticText", "partial answer ▍ more to come", "")
	c := newTestClient(staticRunner(dump, nil))

	got := c.ReadScreen(context.Background())

	assert.Contains(t, got, `"conversationComplete":false`)
}

func TestReadScreenDescriptionFallback(t *testing.T) {
	dump := record("AXStaticText", "", "described only")
	c := newTestClient(staticRunner(dump, nil))

	got := c.ReadScreen(context.Background())

	assert.Contains(t, got, `"texts":["described only"]`)
}

func TestReadScreenEmptyWindow(t *testing.T) {
	c := newTestClient(staticRunner("", nil))

	got := c.ReadScreen(context.Background())

	assert.Equal(t,
		`{"status":"success","textCount":0,"texts":[],"indicators":{"conversationComplete":true}}`,
		got)
}

func TestDumpControls(t *testing.T) {
	dump := record("AXStaticText", "reply", "") +
		record("AXButton", "", "Send") +
		record("AXButton", "Regenerate", "")
	c := newTestClient(staticRunner(dump, nil))

	controls, err := c.DumpControls(context.Background())
	require.NoError(t, err)

	require.Len(t, controls, 2)
	assert.Equal(t, Control{Role: "AXButton", Name: "Send"}, controls[0])
	assert.Equal(t, Control{Role: "AXButton", Name: "Regenerate"}, controls[1])
}

func TestDumpControlsStructuralError(t *testing.T) {
	c := newTestClient(staticRunner(markerNoProcess, nil))

	_, err := c.DumpControls(context.Background())

	assert.ErrorIs(t, err, ErrProcessNotFound)
}

func TestParseTreeDumpOrderPreserved(t *testing.T) {
	out := record("AXStaticText", "first", "") +
		record("AXGroup", "", "") +
		record("AXStaticText", "second", "")

	root, err := parseTreeDump(out)
	require.NoError(t, err)

	children, err := root.Children()
	require.NoError(t, err)
	require.Len(t, children, 3)
}
