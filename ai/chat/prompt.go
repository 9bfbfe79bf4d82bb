package chat

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// DefaultSystemPrompt is the persona prepended to every conversation.
// It is never persisted.
const DefaultSystemPrompt = `You are Wingman, a friendly and capable productivity copilot.

You help the user plan work, organize tasks and get answers quickly. Be concise and practical, and keep a warm, encouraging tone.

You can call the http_request tool to reach external APIs and web pages (task managers, calendars, public data sources). Use it whenever the user asks for information or actions that live in another service. When you use it:
- pick the exact endpoint URL and HTTP method the service documents;
- send JSON bodies in "payload" and extra headers in "headers";
- read the returned status and body carefully, and explain failures plainly instead of guessing.

When the user shares a file, its first characters are included in their message. Base your answer on that content and say so when it looks cut off.`

// LoadSystemPrompt returns the prompt stored at path, or DefaultSystemPrompt
// when path is empty.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read system prompt %s", path)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.Errorf("system prompt %s is empty", path)
	}
	return prompt, nil
}
