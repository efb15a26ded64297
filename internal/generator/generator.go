package generator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Completer is a stateless generative-text capability.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const promptTemplate = `Turn the following Slack message into visually appealing, highly readable HTML content for a web page.
- Style it so it works well with the Tailwind CSS prose classes.
- Mark important keywords in bold (<strong>).
- Use <ul> and <li> tags for lists.
- Wrap any code in <pre><code> tags with a suitable class (for example 'language-javascript').
- Wrap everything in a single <article> tag.

--- message ---
%s
--- end ---
`

var (
	leadingFence  = regexp.MustCompile("^\\s*```[a-zA-Z]*[ \\t]*\\r?\\n")
	trailingFence = regexp.MustCompile("\\r?\\n?```\\s*$")

	unsafeHTML = strings.NewReplacer("<", "&lt;", ">", "&gt;")
)

// Adapter produces a markup fragment for each message. It never fails: a
// generation error yields Fallback(text).
type Adapter struct {
	completer Completer
	timeout   time.Duration
}

// NewAdapter wraps completer. A positive timeout bounds each call.
func NewAdapter(completer Completer, timeout time.Duration) *Adapter {
	return &Adapter{completer: completer, timeout: timeout}
}

// Generate returns the fragment for text.
func (a *Adapter) Generate(ctx context.Context, text string) string {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.completer.Complete(ctx, BuildPrompt(text))
	if err != nil {
		slog.Warn("generation degraded, using fallback fragment", "error", err)
		return Fallback(text)
	}
	return StripFence(raw)
}

// BuildPrompt fills the instruction template with the message text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// StripFence removes a ```html ... ``` wrapper the model sometimes adds.
func StripFence(s string) string {
	s = leadingFence.ReplaceAllString(s, "")
	return trailingFence.ReplaceAllString(s, "")
}

// Fallback is the fragment stored when generation fails.
func Fallback(text string) string {
	return "<p>(generation failed) " + unsafeHTML.Replace(text) + "</p>"
}
