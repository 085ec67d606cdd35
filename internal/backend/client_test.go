package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/inbox"
	"go.uber.org/zap"
)

func TestFetchConversationSummaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/customers" {
			t.Errorf("path = %q, want /customers", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		_, _ = w.Write([]byte(`[
			{"id":"c1","name":"Asha","phone":"+9198","last_message":"hi","last_message_time":"2026-03-01T12:00:00Z","last_read_at":null},
			{"id":"c2","name":"","phone":"+9199","last_message":"","last_message_time":null,"last_read_at":null}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", zap.NewNop())
	sums, err := c.FetchConversationSummaries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d summaries, want 2", len(sums))
	}
	if !sums[0].Unread() {
		t.Error("c1 should be unread (message, never read)")
	}
	if sums[1].Unread() {
		t.Error("c2 should not be unread (no messages)")
	}
	if got := sums[1].DisplayName(); got != "+9199" {
		t.Errorf("DisplayName = %q, want phone fallback", got)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !sums[0].LastMessageTime.Equal(want) {
		t.Errorf("LastMessageTime = %v, want %v", sums[0].LastMessageTime, want)
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages/send" {
			t.Errorf("got %s %s, want POST /messages/send", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["customer_id"] != "c1" || body["text"] != "hello" {
			t.Errorf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"id":"srv-1","customer_id":"c1","content":"hello","direction":"out","created_at":"2026-03-01T12:00:01Z"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", zap.NewNop())
	m, err := c.SendMessage(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != "srv-1" || m.Delivery != inbox.DeliverySent || m.Direction != inbox.DirectionOut {
		t.Errorf("message = %+v", m)
	}
}

func TestMarkConversationRead(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "", zap.NewNop())
	if err := c.MarkConversationRead(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/customers/c1/read" {
		t.Errorf("path = %q, want /customers/c1/read", gotPath)
	}
}

func TestServerErrorTaxonomy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "", zap.NewNop())
	_, err := c.FetchHistoricalMessages(context.Background(), "c1")
	if err == nil {
		t.Fatal("expected error")
	}
	var se *ServerError
	if !errors.As(err, &se) || se.Status != http.StatusBadGateway {
		t.Errorf("error = %v, want ServerError 502", err)
	}
	if !IsRetryable(err) {
		t.Error("5xx should be retryable")
	}
}

func TestNotRetryableOn4xx(t *testing.T) {
	if IsRetryable(&ServerError{Status: http.StatusNotFound}) {
		t.Error("404 should not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil error should not be retryable")
	}
	if !IsRetryable(errors.New("dial tcp: connection refused")) {
		t.Error("transport errors should be retryable")
	}
}

func TestFetchBusinessProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			t.Errorf("path = %q, want /me", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"business":{"name":"Salon Asha","timezone":"Asia/Kolkata"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", zap.NewNop())
	p, err := c.FetchBusinessProfile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.BusinessName != "Salon Asha" || p.Timezone != "Asia/Kolkata" {
		t.Errorf("profile = %+v", p)
	}
}
