// Copyright 2025 Minseo Park
//
// App activation, keystroke input, and new-chat handling

package chatgpt

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// activateScript brings the ChatGPT app to the foreground.
const activateScript = `tell application "ChatGPT" to activate`

// processExistsScript probes whether the app process is running.
const processExistsScript = `tell application "System Events" to return application process "ChatGPT" exists`

// newChatScript opens a new conversation. It tries the File menu first, then
// the Korean menu labels, then the Cmd+N shortcut, and reports which path
// succeeded so the caller can surface it.
const newChatScript = `
tell application "System Events"
	tell process "ChatGPT"
		try
			click menu item "New Chat" of menu "File" of menu bar 1
			return "success_menu"
		on error
			try
				click menu item "새 채팅" of menu "파일" of menu bar 1
				return "success_menu_kr"
			on error
				keystroke "n" using {command down}
				return "success_shortcut"
			end try
		end try
	end tell
end tell`

// Activate brings ChatGPT to the foreground and waits for it to settle.
func (c *Client) Activate(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, activateScript); err != nil {
		return fmt.Errorf("failed to activate ChatGPT: %w", err)
	}
	c.sleep(time.Second)
	return nil
}

// CheckAccess verifies the ChatGPT app is reachable, attempting to launch it
// when the process is not running.
func (c *Client) CheckAccess(ctx context.Context) error {
	out, err := c.runner.Run(ctx, processExistsScript)
	if err != nil {
		return fmt.Errorf("cannot access ChatGPT app: %w", err)
	}
	if out == "true" {
		return nil
	}

	if err := c.Activate(ctx); err != nil {
		return fmt.Errorf("could not activate ChatGPT app, please start it manually: %w", err)
	}
	return nil
}

// NewChat opens a fresh conversation and returns a description of the method
// that worked (menu, localized menu, or shortcut).
func (c *Client) NewChat(ctx context.Context) (string, error) {
	if err := c.Activate(ctx); err != nil {
		return "", err
	}

	out, err := c.runner.Run(ctx, newChatScript)
	if err != nil {
		return "", fmt.Errorf("failed to open new chat: %w", err)
	}
	c.sleep(500 * time.Millisecond)

	switch strings.TrimSpace(out) {
	case "success_menu":
		return "File > New Chat menu", nil
	case "success_menu_kr":
		return "파일 > 새 채팅 메뉴", nil
	case "success_shortcut":
		return "Cmd+N shortcut", nil
	}
	return "", fmt.Errorf("failed to open new chat: unexpected result %q", out)
}

// SendMessage types the prompt into the composer and submits it. The prompt
// is flattened first: keystroke input cannot carry newlines without
// submitting early, and double quotes would terminate the script literal.
func (c *Client) SendMessage(ctx context.Context, prompt string) error {
	c.sleep(500 * time.Millisecond)

	script := fmt.Sprintf(`
tell application "System Events"
	tell process "ChatGPT"
		key code 51
		delay 0.1
		set textToType to "%s"
		repeat with i from 1 to length of textToType
			keystroke (character i of textToType)
			delay 0.01
		end repeat
		key code 36
	end tell
end tell`, escapeAppleScript(FlattenPrompt(prompt)))

	if _, err := c.runner.Run(ctx, script); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// FlattenPrompt normalizes a prompt for keystroke delivery: newlines and
// carriage returns become spaces, double quotes become single quotes.
func FlattenPrompt(prompt string) string {
	prompt = strings.ReplaceAll(prompt, "\n", " ")
	prompt = strings.ReplaceAll(prompt, "\r", " ")
	prompt = strings.ReplaceAll(prompt, `"`, "'")
	return strings.TrimSpace(prompt)
}

// escapeAppleScript escapes a string for embedding in an AppleScript string
// literal.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
