package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// GatewaySender delivers replies by POSTing to the SMS gateway's send
// endpoint with a bearer token.
type GatewaySender struct {
	client *resty.Client
}

type gatewaySendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

func NewGatewaySender(baseURL, token string) *GatewaySender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &GatewaySender{client: client}
}

// Send implements Sender.
func (s *GatewaySender) Send(ctx context.Context, connection, text string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(gatewaySendRequest{To: connection, Text: text}).
		Post("/send")
	if err != nil {
		return fmt.Errorf("gateway send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("gateway send: status %d", resp.StatusCode())
	}
	return nil
}

// LogSender is a Sender for deployments without an outbound gateway; the
// webhook response body carries the reply instead.
type LogSender struct{}

func (LogSender) Send(context.Context, string, string) error { return nil }
