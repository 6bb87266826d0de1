// Copyright 2025 Minseo Park

// Package chatgpt automates the ChatGPT desktop app on macOS through the
// System Events scripting bridge. It binds the uitree core to the live
// accessibility tree of the app's front window and layers the conversation
// operations (send, poll, new chat) on top of it.
package chatgpt

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ScriptRunner executes an AppleScript source and returns its output.
// Implementations must be safe for concurrent use.
type ScriptRunner interface {
	Run(ctx context.Context, script string) (string, error)
}

// OsascriptRunner runs scripts by spawning /usr/bin/osascript.
type OsascriptRunner struct{}

// Run executes script with osascript -e and returns trimmed stdout.
// A non-zero exit maps to an error carrying stderr, which is where
// osascript reports scripting-bridge failures.
func (OsascriptRunner) Run(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("osascript: %s", msg)
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}
