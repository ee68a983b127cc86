package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roomly-app/push-backend/pkg/config"
	"github.com/roomly-app/push-backend/pkg/logger"
)

const (
	// DefaultPushURL is the Expo push gateway endpoint.
	DefaultPushURL = "https://exp.host/--/api/v2/push/send"

	// BatchLimit is the maximum number of recipients per request, per the
	// Expo API contract.
	BatchLimit = 100

	defaultTimeout = 15 * time.Second
)

// Message is the provider envelope for one batch of recipients.
type Message struct {
	To        []string        `json:"to"`
	Title     string          `json:"title,omitempty"`
	Body      string          `json:"body,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Sound     string          `json:"sound,omitempty"`
	Priority  string          `json:"priority,omitempty"`
	ChannelID string          `json:"channelId,omitempty"`
	Badge     *int            `json:"badge,omitempty"`
}

// Ticket is the per-recipient outcome returned by the gateway.
type Ticket struct {
	Status  string         `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details *TicketDetails `json:"details,omitempty"`
}

// TicketDetails carries the machine-readable error tag on failed tickets.
type TicketDetails struct {
	Error string `json:"error,omitempty"`
}

const (
	TicketStatusOK    = "ok"
	TicketStatusError = "error"

	// ErrorDeviceNotRegistered marks a token the provider will never deliver
	// to again; callers should deactivate it.
	ErrorDeviceNotRegistered = "DeviceNotRegistered"
)

// OK reports whether the ticket was accepted by the gateway.
func (t Ticket) OK() bool {
	return t.Status == TicketStatusOK
}

// DeviceNotRegistered reports whether the ticket names a dead token.
func (t Ticket) DeviceNotRegistered() bool {
	return t.Details != nil && t.Details.Error == ErrorDeviceNotRegistered
}

type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type pushResponse struct {
	Data   []Ticket   `json:"data,omitempty"`
	Errors []apiError `json:"errors,omitempty"`
}

// Client posts push batches to the Expo gateway.
type Client struct {
	httpClient  *http.Client
	url         string
	accessToken string
	logg        *logger.Logger
}

// NewClient builds an Expo push client from configuration.
func NewClient(cfg config.ExpoConfig, logg *logger.Logger) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultPushURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		url:         url,
		accessToken: cfg.AccessToken,
		logg:        logg,
	}
}

// Send delivers one message to all recipients in msg.To, chunking into
// batches of at most BatchLimit tokens. Tickets are returned in recipient
// order. A transport or non-2xx failure on any batch aborts the remainder.
func (c *Client) Send(ctx context.Context, msg Message) ([]Ticket, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("expo: message has no recipients")
	}

	tickets := make([]Ticket, 0, len(msg.To))
	for start := 0; start < len(msg.To); start += BatchLimit {
		end := start + BatchLimit
		if end > len(msg.To) {
			end = len(msg.To)
		}
		batch := msg
		batch.To = msg.To[start:end]

		batchTickets, err := c.sendBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, batchTickets...)
	}
	return tickets, nil
}

func (c *Client) sendBatch(ctx context.Context, msg Message) ([]Ticket, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("expo: marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("expo: build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("expo: send push request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("expo: read push response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expo: push API returned status %d", resp.StatusCode)
	}

	var parsed pushResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("expo: decode push response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		first := parsed.Errors[0]
		return nil, fmt.Errorf("expo: push API error %s: %s", first.Code, first.Message)
	}

	if c.logg != nil {
		fields := map[string]any{"recipients": len(msg.To), "tickets": len(parsed.Data)}
		c.logg.Info(c.logg.WithFields(ctx, fields), "expo batch delivered")
	}
	return parsed.Data, nil
}
