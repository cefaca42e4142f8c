package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
)

// Notifier delivers a rendered message somewhere.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// WebhookNotifier posts messages as JSON to a webhook URL.
type WebhookNotifier struct {
	url    string
	client *resty.Client
}

// NewWebhookNotifier builds a notifier for the given webhook URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)
	return &WebhookNotifier{url: url, client: client}
}

// Send posts the message. A non-2xx response is an error.
func (n *WebhookNotifier) Send(ctx context.Context, msg Message) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned %s: %s", resp.Status(), resp.String())
	}
	return nil
}

// LogNotifier writes messages to the process log instead of the
// network. Used when no webhook URL is configured (dry-run mode).
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, msg Message) error {
	log.Printf("[Notify] %s", msg.Content)
	for _, e := range msg.Embeds {
		log.Printf("[Notify]   %s: %s", e.Title, e.Description)
		for _, f := range e.Fields {
			log.Printf("[Notify]     %s: %s", f.Name, f.Value)
		}
	}
	return nil
}
