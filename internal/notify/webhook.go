// Package notify relays evaluation notifications to a chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("notification webhook not configured")
	ErrUpstream      = errors.New("webhook rejected notification")
)

// Message is a notification about an evaluation event.
type Message struct {
	Type        string   `json:"type" validate:"required,max=64"`
	Title       string   `json:"title" validate:"required,max=200"`
	Message     string   `json:"message" validate:"required,max=4000"`
	DueDate     string   `json:"dueDate,omitempty"`
	TargetUsers []string `json:"targetUsers,omitempty" validate:"omitempty,max=500,dive,required"`
}

// Webhook posts card-formatted messages to a chat incoming webhook.
type Webhook struct {
	url    string
	client *http.Client
	logger *zap.Logger
	newID  func() string
}

// NewWebhook creates a Webhook. A nil client gets a 10s timeout client.
func NewWebhook(url string, client *http.Client, logger *zap.Logger) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Webhook{
		url:    url,
		client: client,
		logger: logger.Named("webhook"),
		newID:  func() string { return uuid.NewString() },
	}
}

type card struct {
	CardsV2 []cardEntry `json:"cardsV2"`
}

type cardEntry struct {
	CardID string   `json:"cardId"`
	Card   cardBody `json:"card"`
}

type cardBody struct {
	Header   cardHeader    `json:"header"`
	Sections []cardSection `json:"sections"`
}

type cardHeader struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

type cardSection struct {
	Widgets []map[string]any `json:"widgets"`
}

func buildCard(id string, m Message) card {
	widgets := []map[string]any{
		{"textParagraph": map[string]any{"text": m.Message}},
	}
	if m.DueDate != "" {
		widgets = append(widgets, map[string]any{
			"decoratedText": map[string]any{"topLabel": "마감일", "text": m.DueDate},
		})
	}
	if len(m.TargetUsers) > 0 {
		widgets = append(widgets, map[string]any{
			"decoratedText": map[string]any{"topLabel": "대상자", "text": strings.Join(m.TargetUsers, ", ")},
		})
	}
	return card{CardsV2: []cardEntry{{
		CardID: id,
		Card: cardBody{
			Header:   cardHeader{Title: m.Title, Subtitle: m.Type},
			Sections: []cardSection{{Widgets: widgets}},
		},
	}}}
}

// Send forwards m and returns the webhook's HTTP status. Non-2xx statuses
// are returned together with an error wrapping ErrUpstream.
func (w *Webhook) Send(ctx context.Context, m Message) (int, error) {
	if w.url == "" {
		return 0, ErrNotConfigured
	}

	body, err := json.Marshal(buildCard(w.newID(), m))
	if err != nil {
		return 0, fmt.Errorf("encode card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		w.logger.Warn("webhook returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("type", m.Type))
		return resp.StatusCode, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	w.logger.Info("notification forwarded",
		zap.String("type", m.Type),
		zap.Int("targets", len(m.TargetUsers)))
	return resp.StatusCode, nil
}

// Notify is Send without the status, for callers that only care about
// success.
func (w *Webhook) Notify(ctx context.Context, m Message) error {
	_, err := w.Send(ctx, m)
	return err
}
