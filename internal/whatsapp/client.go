package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"imobi-crm/internal/config"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client sends text messages through the WhatsApp Cloud API.
type Client struct {
	Config     *config.Config
	HTTPClient *http.Client
	Logger     *zap.Logger

	limiter *rate.Limiter
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		Config:     cfg,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(cfg.SendRatePerSecond), cfg.SendBurst),
	}
}

// --- Message Structures ---

type GenericMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	RecipientType    string       `json:"recipient_type,omitempty"`
	Text             *TextObj     `json:"text,omitempty"`
	Template         *TemplateObj `json:"template,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type TemplateObj struct {
	Name     string      `json:"name"`
	Language LanguageObj `json:"language"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

// APIError is a non-2xx answer from the Graph API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.Status, e.Body)
}

// --- Helper Functions ---

func (c *Client) sendRequest(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return respBody, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/messages", strings.TrimRight(c.Config.GraphAPIURL, "/"), c.Config.PhoneNumberID)
}

// --- Messaging Methods ---

// SendRawMessage waits for the send rate limiter, then posts msg.
func (c *Client) SendRawMessage(ctx context.Context, msg GenericMessage) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if _, err := c.sendRequest(ctx, http.MethodPost, c.messagesURL(), msg); err != nil {
		return fmt.Errorf("send %s message to %s: %w", msg.Type, msg.To, err)
	}
	c.Logger.Debug("WhatsApp message sent", zap.String("to", msg.To), zap.String("type", msg.Type))
	return nil
}

// Send delivers a plain text message. It satisfies chat.Messenger.
func (c *Client) Send(ctx context.Context, to, body string) error {
	return c.SendRawMessage(ctx, GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text: &TextObj{
			Body: body,
		},
	})
}

// SendTemplateMessage sends a Meta-approved template by name.
func (c *Client) SendTemplateMessage(ctx context.Context, to, templateName, languageCode string) error {
	return c.SendRawMessage(ctx, GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: &TemplateObj{
			Name: templateName,
			Language: LanguageObj{
				Code: languageCode,
			},
		},
	})
}

// LogMessenger only logs outgoing messages. It stands in for the Cloud API
// when no credentials are configured.
type LogMessenger struct {
	Logger *zap.Logger
}

func NewLogMessenger(logger *zap.Logger) *LogMessenger {
	return &LogMessenger{Logger: logger}
}

func (m *LogMessenger) Send(_ context.Context, to, body string) error {
	m.Logger.Info("WhatsApp message (not sent, messaging disabled)",
		zap.String("to", to),
		zap.String("body", body))
	return nil
}
