package expo

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/roomly-app/push-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(config.ExpoConfig{URL: server.URL, Timeout: time.Second}, nil)
	return client, server
}

func TestSend_ReturnsTickets(t *testing.T) {
	var received Message
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"status": "ok", "id": "ticket-1"},
				{"status": "error", "message": "gone", "details": map[string]string{"error": "DeviceNotRegistered"}},
			},
		})
	})

	tickets, err := client.Send(context.Background(), Message{
		To:    []string{"ExponentPushToken[a]", "ExponentPushToken[b]"},
		Title: "T",
		Body:  "B",
		Sound: "default",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}
	if !tickets[0].OK() || tickets[0].ID != "ticket-1" {
		t.Fatalf("unexpected first ticket %+v", tickets[0])
	}
	if tickets[1].OK() {
		t.Fatalf("expected second ticket to fail")
	}
	if !tickets[1].DeviceNotRegistered() {
		t.Fatalf("expected DeviceNotRegistered detail, got %+v", tickets[1].Details)
	}
	if len(received.To) != 2 {
		t.Fatalf("expected batch of 2 recipients, got %d", len(received.To))
	}
}

func TestSend_DecodesGzipResponses(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			t.Errorf("expected transport-negotiated gzip, got %q", r.Header.Get("Accept-Encoding"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_ = json.NewEncoder(gz).Encode(pushResponse{Data: []Ticket{{Status: TicketStatusOK, ID: "ticket-1"}}})
		_ = gz.Close()
	})

	tickets, err := client.Send(context.Background(), Message{To: []string{"ExponentPushToken[a]"}, Body: "B"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(tickets) != 1 || !tickets[0].OK() || tickets[0].ID != "ticket-1" {
		t.Fatalf("unexpected tickets %+v", tickets)
	}
}

func TestSend_ChunksLargeRecipientSets(t *testing.T) {
	var batchSizes []int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var msg Message
		_ = json.NewDecoder(r.Body).Decode(&msg)
		batchSizes = append(batchSizes, len(msg.To))
		tickets := make([]Ticket, len(msg.To))
		for i := range tickets {
			tickets[i] = Ticket{Status: TicketStatusOK, ID: "t"}
		}
		_ = json.NewEncoder(w).Encode(pushResponse{Data: tickets})
	})

	to := make([]string, BatchLimit+5)
	for i := range to {
		to[i] = "ExponentPushToken[x]"
	}
	tickets, err := client.Send(context.Background(), Message{To: to, Body: "B"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(tickets) != BatchLimit+5 {
		t.Fatalf("expected %d tickets, got %d", BatchLimit+5, len(tickets))
	}
	if len(batchSizes) != 2 || batchSizes[0] != BatchLimit || batchSizes[1] != 5 {
		t.Fatalf("unexpected batch sizes %v", batchSizes)
	}
}

func TestSend_NonOKStatusIsHardFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})

	if _, err := client.Send(context.Background(), Message{To: []string{"tok"}}); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestSend_TopLevelErrorObject(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"code": "PUSH_TOO_MANY_EXPERIENCE_IDS", "message": "mixed projects"}},
		})
	})

	if _, err := client.Send(context.Background(), Message{To: []string{"tok"}}); err == nil {
		t.Fatal("expected error when provider returns an error object")
	}
}

func TestSend_RequiresRecipients(t *testing.T) {
	client := NewClient(config.ExpoConfig{}, nil)
	if _, err := client.Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected error for empty recipient list")
	}
}
