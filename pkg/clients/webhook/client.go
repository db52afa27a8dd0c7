package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/messmaestro/maestro/internal/config"
)

// Client posts plain-text notifications to a chat webhook.
type Client interface {
	PostMessage(ctx context.Context, text string) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client from configuration.
func NewClient(cfg config.NotifyConfig) *APIClient {
	restyClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &APIClient{httpClient: restyClient, url: cfg.WebhookURL}
}

type messagePayload struct {
	Text string `json:"text"`
}

// PostMessage sends the text as {"text": ...}.
func (c *APIClient) PostMessage(ctx context.Context, text string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(messagePayload{Text: text}).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post webhook message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook error: code=%d, body=%s", resp.StatusCode(), resp.String())
	}

	return nil
}
