// Package sms abstracts outbound SMS delivery behind a capability interface.
//
// Instead of a global client singleton that code reaches into ambiently,
// the provider is chosen ONCE at process start from configuration and
// passed explicitly to whoever needs to send. Two implementations exist:
//
//   - Gateway: POSTs to an HTTP SMS gateway (the live path)
//   - Dev:     logs the message and tells the caller it's a dev channel, so
//     the issue operation can surface the code out-of-band
//
// Swapping one for the other changes nothing but the constructor call in
// cmd/server.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Provider is the capability the OTP issuer needs: deliver a text to a phone
// number. Dev() reports whether this provider is a development side channel —
// when true, the issuer may return the code directly to the caller instead
// of relying on delivery.
type Provider interface {
	Send(ctx context.Context, to, body string) error
	Dev() bool
}

// Dev is the development provider: no network, never fails, logs the message
// body so the code is visible in server output.
type Dev struct {
	logger *slog.Logger
}

func NewDev(logger *slog.Logger) *Dev {
	return &Dev{logger: logger}
}

func (d *Dev) Send(_ context.Context, to, body string) error {
	d.logger.Info("sms (dev mode, not delivered)",
		slog.String("to", to),
		slog.String("body", body),
	)
	return nil
}

func (d *Dev) Dev() bool { return true }

// Gateway posts messages to a JSON HTTP SMS gateway.
//
// The wire format is the lowest common denominator most gateways accept:
//
//	POST {url}
//	Authorization: Bearer {apiKey}
//	{"from": "...", "to": "...", "body": "..."}
//
// Any non-2xx response is a delivery failure.
type Gateway struct {
	url    string
	apiKey string
	from   string
	client *http.Client
	logger *slog.Logger
}

func NewGateway(url, apiKey, from string, logger *slog.Logger) *Gateway {
	return &Gateway{
		url:    url,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (g *Gateway) Send(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(map[string]string{
		"from": g.from,
		"to":   to,
		"body": body,
	})
	if err != nil {
		return fmt.Errorf("sms: encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sms: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: sending: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms: gateway returned status %d", resp.StatusCode)
	}

	return nil
}

func (g *Gateway) Dev() bool { return false }
