package tasklog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Slack posts a short notice to an incoming webhook for every acknowledgement.
type Slack struct {
	Webhook string
	Client  *http.Client
}

func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook: webhook,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

func (s *Slack) RecordAcknowledgement(ctx context.Context, taskID, user string, ackMillis int64) error {
	if s == nil || s.Webhook == "" {
		return errors.New("slack disabled")
	}
	text := fmt.Sprintf("*Alert acknowledged*\nAlert: %s\nBy: %s\nAt: %s",
		taskID, user, time.UnixMilli(ackMillis).UTC().Format(time.RFC3339))
	body, _ := json.Marshal(slackPayload{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack non-2xx: %d", resp.StatusCode)
	}
	return nil
}
