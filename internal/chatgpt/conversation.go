// Copyright 2025 Minseo Park
//
// Conversation polling and pending-prompt bookkeeping

package chatgpt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minseopark/chatgpt-use-mcp/internal/uitree"
)

// Wait tuning defaults. The completion detector is brittle across app and
// localization changes, so instead of trusting a single read the poller
// waits for the conversation text to change from the pre-send baseline and
// then remain stable for a few cursor-free cycles.
const (
	DefaultWaitInterval = 1500 * time.Millisecond
	DefaultMaxWait      = 1200 * time.Second
	DefaultStableCycles = 2
)

const (
	noResponseMessage = "No response received from ChatGPT."
	readFailedMessage = "Failed to read ChatGPT screen."
)

// uiChromeFragments are UI-only strings that leak into the extracted text
// alongside the reply.
var uiChromeFragments = []string{
	"Regenerate",
	"Continue generating",
	"Edit prompt",
	"Copy",
	uitree.TypingCursor,
}

// WaitConfig tunes WaitForCompletion. Zero fields take the defaults.
type WaitConfig struct {
	Interval     time.Duration
	MaxWait      time.Duration
	StableCycles int
}

func (cfg WaitConfig) withDefaults() WaitConfig {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWaitInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.StableCycles <= 0 {
		cfg.StableCycles = DefaultStableCycles
	}
	return cfg
}

// pendingPrompt records a prompt whose response has not been collected yet.
type pendingPrompt struct {
	Prompt    string
	Baseline  string
	CreatedAt time.Time
}

// pendingRegistry serialises outstanding prompts across tool invocations.
type pendingRegistry struct {
	mu      sync.Mutex
	current *pendingPrompt
}

func (r *pendingRegistry) set(p pendingPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = &p
}

func (r *pendingRegistry) get() (pendingPrompt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return pendingPrompt{}, false
	}
	return *r.current, true
}

func (r *pendingRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
}

// ConversationText flattens a snapshot into a single text blob: the texts
// joined by newlines, trimmed. Error snapshots flatten to "".
func ConversationText(snapshot string) string {
	text, _ := conversationText(snapshot)
	return text
}

func conversationText(snapshot string) (string, bool) {
	var decoded struct {
		Status string   `json:"status"`
		Texts  []string `json:"texts"`
	}
	if err := json.Unmarshal([]byte(snapshot), &decoded); err != nil {
		return "", false
	}
	if decoded.Status != "success" {
		return "", false
	}
	return strings.TrimSpace(strings.Join(decoded.Texts, "\n")), true
}

// CleanReply strips UI chrome fragments and the typing cursor from
// conversation text.
func CleanReply(text string) string {
	text = strings.TrimSpace(text)
	for _, fragment := range uiChromeFragments {
		text = strings.ReplaceAll(text, fragment, "")
	}
	return strings.TrimSpace(text)
}

// CurrentConversation reads the screen once and returns the cleaned
// conversation text, or a fixed message when there is nothing to show.
func (c *Client) CurrentConversation(ctx context.Context) string {
	text, ok := conversationText(c.ReadScreen(ctx))
	if !ok {
		return readFailedMessage
	}
	if cleaned := CleanReply(text); cleaned != "" {
		return cleaned
	}
	return noResponseMessage
}

// WaitForCompletion polls the screen until a new response appears and
// stabilizes, or the wait budget runs out. It reports whether completion was
// observed, along with the last snapshot text seen.
//
// An empty baseline skips the change detection and only waits for stability;
// otherwise the text must first differ from baseline (so a prompt echo is
// not mistaken for a finished reply) and then stay identical, cursor-free,
// for StableCycles consecutive polls.
func (c *Client) WaitForCompletion(ctx context.Context, baseline string, cfg WaitConfig) (bool, string) {
	cfg = cfg.withDefaults()

	deadline, cancel := context.WithTimeout(ctx, cfg.MaxWait)
	defer cancel()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	sawChange := strings.TrimSpace(baseline) == ""
	last := baseline
	stable := 0

	for {
		select {
		case <-deadline.Done():
			return false, last
		case <-ticker.C:
			current := ConversationText(c.ReadScreen(deadline))
			if current == "" {
				continue
			}

			if !sawChange && current != baseline {
				sawChange = true
			}
			if !sawChange {
				continue
			}

			switch {
			case c.streaming(current):
				stable = 0
			case current == last:
				stable++
				if stable >= cfg.StableCycles {
					return true, current
				}
			default:
				stable = 1
			}
			last = current
		}
	}
}

func (c *Client) streaming(text string) bool {
	if c.pred != nil {
		return c.pred(text)
	}
	return uitree.IsStillStreaming(text)
}

// Ask sends a prompt and waits for the reply. While a previous prompt is
// still pending it refuses to send and tells the caller to keep polling.
func (c *Client) Ask(ctx context.Context, prompt string, cfg WaitConfig) (string, error) {
	if err := c.CheckAccess(ctx); err != nil {
		return "", err
	}

	if p, ok := c.pending.get(); ok {
		return fmt.Sprintf(
			"A previous ChatGPT response is still pending. Elapsed wait: %ds. "+
				"Call get_chatgpt_response until completion before sending a new prompt.",
			int(time.Since(p.CreatedAt).Seconds())), nil
	}

	// Snapshot before send so polling can detect the new response.
	before := c.CurrentConversation(ctx)

	cleaned := FlattenPrompt(prompt)
	if err := c.Activate(ctx); err != nil {
		return "", err
	}
	if err := c.SendMessage(ctx, cleaned); err != nil {
		return "", err
	}

	// Baseline after send prevents false completion on prompt-echo snapshots.
	baseline := c.CurrentConversation(ctx)
	if baseline == "" {
		baseline = before
	}
	c.pending.set(pendingPrompt{Prompt: cleaned, Baseline: baseline, CreatedAt: time.Now()})

	return c.GetResponse(ctx, baseline, cfg)
}

// GetResponse waits for the current conversation to settle and returns the
// cleaned reply. With an empty baseline it falls back to the pending
// prompt's baseline; on success the pending prompt is cleared, and on
// timeout it stays set so the caller can poll again.
func (c *Client) GetResponse(ctx context.Context, baseline string, cfg WaitConfig) (string, error) {
	pending, hasPending := c.pending.get()
	if baseline == "" && hasPending {
		baseline = pending.Baseline
	}

	completed, _ := c.WaitForCompletion(ctx, baseline, cfg)
	if completed {
		response := c.CurrentConversation(ctx)
		c.pending.clear()
		return response, nil
	}

	if hasPending {
		return fmt.Sprintf(
			"Timeout: ChatGPT response is still pending in the UI. Elapsed wait: %ds. "+
				"Call get_chatgpt_response again; do not open a new chat yet.",
			int(time.Since(pending.CreatedAt).Seconds())), nil
	}
	return "Timeout: ChatGPT response did not complete within the time limit.", nil
}

// StartNewChat opens a fresh conversation, refusing while a response is
// still pending.
func (c *Client) StartNewChat(ctx context.Context) (string, error) {
	if err := c.CheckAccess(ctx); err != nil {
		return "", err
	}

	if p, ok := c.pending.get(); ok {
		return fmt.Sprintf(
			"Cannot open a new chat: previous ChatGPT response is still pending. Elapsed wait: %ds. "+
				"Call get_chatgpt_response until completion first.",
			int(time.Since(p.CreatedAt).Seconds())), nil
	}

	method, err := c.NewChat(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully opened a new ChatGPT chat window using: %s", method), nil
}
