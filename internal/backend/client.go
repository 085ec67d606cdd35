// Package backend is the HTTP client for the CRM REST API. It implements
// inbox.Backend; auth is a bearer token issued elsewhere.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/inbox"
	"go.uber.org/zap"
)

// Client talks to the CRM backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client for the given base URL. token may be empty for
// backends that authenticate some other way.
func New(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type customerDTO struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	LastMessage     string     `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time"`
	LastReadAt      *time.Time `json:"last_read_at"`
}

type messageDTO struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Content    string    `json:"content"`
	Direction  string    `json:"direction"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile is the operator's business profile.
type Profile struct {
	BusinessName string
	Timezone     string
}

type meDTO struct {
	Business struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
	} `json:"business"`
}

// FetchConversationSummaries returns the inbox rows for all customers.
func (c *Client) FetchConversationSummaries(ctx context.Context) ([]inbox.Summary, error) {
	var dtos []customerDTO
	if err := c.doJSON(ctx, http.MethodGet, "/customers", nil, &dtos); err != nil {
		return nil, err
	}
	sums := make([]inbox.Summary, 0, len(dtos))
	for _, d := range dtos {
		s := inbox.Summary{
			CustomerID:      d.ID,
			Name:            d.Name,
			Phone:           d.Phone,
			LastMessageText: d.LastMessage,
		}
		if d.LastMessageTime != nil {
			s.LastMessageTime = *d.LastMessageTime
		}
		if d.LastReadAt != nil {
			s.LastReadAt = *d.LastReadAt
		}
		sums = append(sums, s)
	}
	return sums, nil
}

// FetchHistoricalMessages returns the full message history for one customer.
func (c *Client) FetchHistoricalMessages(ctx context.Context, customerID string) ([]inbox.Message, error) {
	var dtos []messageDTO
	path := "/customers/" + url.PathEscape(customerID) + "/messages"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	msgs := make([]inbox.Message, 0, len(dtos))
	for _, d := range dtos {
		msgs = append(msgs, d.toMessage())
	}
	return msgs, nil
}

// SendMessage persists an outgoing message and returns the authoritative
// record (server-issued id and timestamp).
func (c *Client) SendMessage(ctx context.Context, customerID, text string) (inbox.Message, error) {
	body := map[string]string{"customer_id": customerID, "text": text}
	var dto messageDTO
	if err := c.doJSON(ctx, http.MethodPost, "/messages/send", body, &dto); err != nil {
		return inbox.Message{}, err
	}
	return dto.toMessage(), nil
}

// MarkConversationRead records that the operator viewed the conversation.
func (c *Client) MarkConversationRead(ctx context.Context, customerID string) error {
	path := "/customers/" + url.PathEscape(customerID) + "/read"
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// FetchBusinessProfile returns the business name and display timezone.
func (c *Client) FetchBusinessProfile(ctx context.Context) (Profile, error) {
	var dto meDTO
	if err := c.doJSON(ctx, http.MethodGet, "/me", nil, &dto); err != nil {
		return Profile{}, err
	}
	return Profile{BusinessName: dto.Business.Name, Timezone: dto.Business.Timezone}, nil
}

func (d messageDTO) toMessage() inbox.Message {
	m := inbox.Message{
		ID:         d.ID,
		CustomerID: d.CustomerID,
		Content:    d.Content,
		Direction:  inbox.Direction(d.Direction),
		CreatedAt:  d.CreatedAt,
	}
	// Anything the backend already stored is confirmed.
	if m.Direction == inbox.DirectionOut {
		m.Delivery = inbox.DeliverySent
	}
	return m
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ServerError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}
