package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"dinnerplanner"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	return c.post(ctx, map[string]any{
		"channel": channel,
		"text":    message,
	})
}

// PostPlan posts a narrated plan. The narration doubles as the notification
// fallback text.
func (c *Client) PostPlan(ctx context.Context, channel string, res dinnerplanner.PlanResult) error {
	ps := res.PlanSet
	summary := fmt.Sprintf("plan %s · %d dinners · %d grocery items", ps.ID, len(ps.Days), len(ps.Grocery))
	if res.Idempotent {
		summary += " · unchanged"
	}

	return c.post(ctx, map[string]any{
		"channel": channel,
		"text":    res.Narration,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{"type": "mrkdwn", "text": res.Narration},
			},
			{
				"type":     "context",
				"elements": []map[string]any{{"type": "mrkdwn", "text": summary}},
			},
		},
	})
}

func (c *Client) post(ctx context.Context, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}
