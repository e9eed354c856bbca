package notify

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rxtech-lab/listing-trader/pkg/errors"
)

const defaultWebhookTimeout = 10 * time.Second

// webhookPayload is the message body understood by Slack-compatible
// incoming webhooks.
type webhookPayload struct {
	Text string `json:"text"`
}

// WebhookNotifier posts events to a Slack-compatible incoming webhook URL.
// Each event is rendered as a title line followed by one "Key: Value" line
// per field.
type WebhookNotifier struct {
	url    string
	client *resty.Client
}

// NewWebhookNotifier creates a notifier posting to the given webhook URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	client := resty.New().SetTimeout(defaultWebhookTimeout)

	return &WebhookNotifier{
		url:    url,
		client: client,
	}
}

// Notify implements Notifier.
func (w *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookPayload{Text: renderEvent(event)}).
		Post(w.url)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotifyFailed, "failed to post webhook notification", err)
	}

	if resp.IsError() {
		return errors.Newf(errors.ErrCodeNotifyFailed, "webhook returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// renderEvent flattens an event into the webhook text body.
func renderEvent(event Event) string {
	var sb strings.Builder

	if event.Title != "" {
		sb.WriteString(event.Title)
	}

	for _, f := range event.Fields {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}

		sb.WriteString(f.Key)
		sb.WriteString(": ")
		sb.WriteString(f.Value)
	}

	return sb.String()
}

var _ Notifier = (*WebhookNotifier)(nil)
