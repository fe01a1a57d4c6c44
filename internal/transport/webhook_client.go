package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookClient posts outbound messages as JSON to a chat gateway:
// POST {base}/send-text, /send-photo and /answer-event.
type WebhookClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewWebhookClient(baseURL, token string) *WebhookClient {
	return &WebhookClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type sendTextRequest struct {
	Recipient int64    `json:"recipient"`
	Text      string   `json:"text"`
	Keyboard  Keyboard `json:"keyboard,omitempty"`
}

type sendPhotoRequest struct {
	Recipient int64  `json:"recipient"`
	AssetRef  string `json:"asset_ref"`
	Caption   string `json:"caption,omitempty"`
}

type answerEventRequest struct {
	EventID string `json:"event_id"`
	Text    string `json:"text,omitempty"`
}

func (c *WebhookClient) SendText(ctx context.Context, recipient int64, text string, keyboard Keyboard) error {
	return c.post(ctx, "/send-text", sendTextRequest{Recipient: recipient, Text: text, Keyboard: keyboard})
}

func (c *WebhookClient) SendPhoto(ctx context.Context, recipient int64, assetRef, caption string) error {
	return c.post(ctx, "/send-photo", sendPhotoRequest{Recipient: recipient, AssetRef: assetRef, Caption: caption})
}

func (c *WebhookClient) AnswerEvent(ctx context.Context, eventID, text string) error {
	if eventID == "" {
		return nil
	}
	return c.post(ctx, "/answer-event", answerEventRequest{EventID: eventID, Text: text})
}

func (c *WebhookClient) post(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: gateway returned %d", path, resp.StatusCode)
	}
	return nil
}

// LogMessenger only logs; it stands in when no gateway is configured.
type LogMessenger struct {
	logger *zap.Logger
}

func NewLogMessenger(logger *zap.Logger) *LogMessenger {
	return &LogMessenger{logger: logger}
}

func (m *LogMessenger) SendText(_ context.Context, recipient int64, text string, keyboard Keyboard) error {
	m.logger.Info("send text", zap.Int64("recipient", recipient), zap.String("text", text), zap.Int("button_rows", len(keyboard)))
	return nil
}

func (m *LogMessenger) SendPhoto(_ context.Context, recipient int64, assetRef, caption string) error {
	m.logger.Info("send photo", zap.Int64("recipient", recipient), zap.String("asset_ref", assetRef), zap.String("caption", caption))
	return nil
}

func (m *LogMessenger) AnswerEvent(_ context.Context, eventID, text string) error {
	m.logger.Debug("answer event", zap.String("event_id", eventID), zap.String("text", text))
	return nil
}
