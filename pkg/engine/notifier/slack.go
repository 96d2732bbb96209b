// Package notifier posts run summaries to chat webhooks.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
	"github.com/DrSkyle/pierwatch/pkg/engine/history"
)

// topClients is how many clients the message lists.
const topClients = 5

// Message is what a run reports to Slack.
type Message struct {
	Source  string
	At      time.Time
	Records int
	Summary fifo.Summary
	Trend   *history.Trend
	// ReportURL links the published dashboard, if any.
	ReportURL string
}

// SlackClient handles Slack notifications.
type SlackClient struct {
	WebhookURL string
	Channel    string // Optional: Override default channel
	HTTPClient *http.Client
}

// NewSlackClient initializes the Slack integration.
func NewSlackClient(webhookURL string, channel string) *SlackClient {
	return &SlackClient{
		WebhookURL: webhookURL,
		Channel:    channel,
	}
}

// Enabled reports whether a webhook is configured.
func (s *SlackClient) Enabled() bool {
	return s != nil && s.WebhookURL != ""
}

// SendReport posts the run summary. It is a no-op without a webhook.
func (s *SlackClient) SendReport(ctx context.Context, m Message) error {
	if !s.Enabled() {
		return nil
	}
	return s.send(ctx, s.constructPayload(m))
}

// SendRegressionAlert posts a short alert when violations grew since the
// previous run.
func (s *SlackClient) SendRegressionAlert(ctx context.Context, t history.Trend) error {
	if !s.Enabled() || t.Direction != history.DirectionWorse {
		return nil
	}
	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]interface{}{
					"type": "plain_text",
					"text": "FIFO regression",
				},
			},
			{
				"type": "section",
				"text": map[string]interface{}{
					"type": "mrkdwn",
					"text": fmt.Sprintf("Violations went from *%d* to *%d* since %s.",
						t.Previous.Violations, t.Current.Violations, t.Previous.Time().Format("2006-01-02 15:04")),
				},
			},
		},
	}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	return s.send(ctx, payload)
}

func (s *SlackClient) constructPayload(m Message) map[string]interface{} {
	statusIcon := ":large_green_circle:"
	switch {
	case m.Summary.MaxGapDays > 14:
		statusIcon = ":red_circle:"
	case m.Summary.Total > 0:
		statusIcon = ":large_yellow_circle:"
	}

	mean := "n/a"
	if m.Summary.MeanGapDays != nil {
		mean = fmt.Sprintf("%.1f days", *m.Summary.MeanGapDays)
	}

	blocks := []map[string]interface{}{
		{
			"type": "header",
			"text": map[string]interface{}{
				"type": "plain_text",
				"text": fmt.Sprintf("%s Pier FIFO Report", statusIcon),
			},
		},
		{
			"type": "context",
			"elements": []map[string]interface{}{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Run:* %s | *Source:* %s", m.At.Format("2006-01-02 15:04"), m.Source),
				},
			},
		},
		{
			"type": "divider",
		},
		{
			"type": "section",
			"fields": []map[string]interface{}{
				{"type": "mrkdwn", "text": fmt.Sprintf("*Violations:*\n%d", m.Summary.Total)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Records Analyzed:*\n%d", m.Records)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Mean Gap:*\n%s", mean)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Max Gap:*\n%d days", m.Summary.MaxGapDays)},
			},
		},
	}

	if top := m.Summary.Top(topClients); len(top) > 0 {
		var b strings.Builder
		b.WriteString("*Top clients:*")
		for _, c := range top {
			fmt.Fprintf(&b, "\n- %s: %d (max %d d)", c.Client, c.Violations, c.MaxGapDays)
		}
		blocks = append(blocks, map[string]interface{}{
			"type": "section",
			"text": map[string]interface{}{"type": "mrkdwn", "text": b.String()},
		})
	}

	if m.Trend != nil && m.Trend.Previous != nil {
		blocks = append(blocks, map[string]interface{}{
			"type": "context",
			"elements": []map[string]interface{}{
				{"type": "mrkdwn", "text": fmt.Sprintf("*Since last run:* %+d (%s)", m.Trend.ViolationsDelta, m.Trend.Direction)},
			},
		})
	}

	if m.ReportURL != "" {
		blocks = append(blocks, map[string]interface{}{
			"type": "section",
			"text": map[string]interface{}{"type": "mrkdwn", "text": fmt.Sprintf("<%s|Open dashboard>", m.ReportURL)},
		})
	}

	payload := map[string]interface{}{
		"blocks": blocks,
	}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	return payload
}

func (s *SlackClient) send(ctx context.Context, payload map[string]interface{}) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status from slack: %d", resp.StatusCode)
	}
	return nil
}
