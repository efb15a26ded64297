package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Notifier replies in a Slack thread with the link to its page via chat.postMessage.
type Notifier struct {
	token       string
	pageBaseURL string
	client      *http.Client
	apiURL      string
}

// NewNotifier creates a notifier that links threads to pageBaseURL/<thread_ts>.
func NewNotifier(token, pageBaseURL string) *Notifier {
	return &Notifier{
		token:       token,
		pageBaseURL: strings.TrimRight(pageBaseURL, "/"),
		client:      &http.Client{Timeout: 10 * time.Second},
		apiURL:      "https://slack.com/api/chat.postMessage",
	}
}

// PageURL returns the viewer URL for a thread.
func (n *Notifier) PageURL(threadID string) string {
	return n.pageBaseURL + "/" + threadID
}

// apiResponse is the envelope every Slack Web API method returns.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// NotifyPageCreated posts the page link as a reply in the thread.
func (n *Notifier) NotifyPageCreated(ctx context.Context, channel, threadID string) error {
	url := n.PageURL(threadID)
	body, err := json.Marshal(map[string]any{
		"channel":      channel,
		"thread_ts":    threadID,
		"text":         fmt.Sprintf("This thread is being written up live: %s", url),
		"unfurl_links": false,
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode slack response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("slack error: %s", out.Error)
	}

	slog.Info("page link posted to Slack", "channel", channel, "thread_id", threadID)
	return nil
}
