package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestStream_SubscribeAndReceive(t *testing.T) {
	frames := [][]byte{
		mustMarshal(t, wireQuote{EventID: "e1", Sport: "NBA", MarketType: "MONEYLINE", Outcome: "HOME", Format: FormatDecimal, Price: 1.85, Timestamp: 1000}),
		[]byte(`{not json`),
		mustMarshal(t, wireQuote{EventID: "e2", Sport: "NBA", MarketType: "MONEYLINE", Outcome: "AWAY", Format: FormatAmerican, Price: 150, Timestamp: 1001}),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Read subscribe request
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req streamRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Action != "subscribe" {
			t.Errorf("expected subscribe, got %s", req.Action)
		}
		if len(req.Sports) != 1 || req.Sports[0] != "NBA" {
			t.Errorf("unexpected sports: %v", req.Sports)
		}

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}

		// Keep connection open until the client hangs up
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	stream, err := NewStream(context.Background(), wsURL, []string{"NBA"}, nil, nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	defer stream.Close()

	// The malformed frame is skipped, so exactly two quotes arrive.
	q1 := receiveQuote(t, stream)
	if q1.EventID != "e1" || q1.DecimalOdds != 1.85 {
		t.Errorf("unexpected first quote: %+v", q1)
	}

	q2 := receiveQuote(t, stream)
	if q2.EventID != "e2" {
		t.Errorf("unexpected second quote: %+v", q2)
	}
	if diff := q2.DecimalOdds - 2.5; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("DecimalOdds = %f, want 2.5", q2.DecimalOdds)
	}
}

func TestStream_Close(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	stream, err := NewStream(context.Background(), wsURL, []string{"NFL"}, nil, nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Logf("close: %v", err)
	}

	// Channel must be closed after shutdown.
	select {
	case _, ok := <-stream.Quotes():
		if ok {
			t.Error("expected closed quotes channel")
		}
	case <-time.After(2 * time.Second):
		t.Error("quotes channel not closed")
	}

	// Second close is a no-op.
	if err := stream.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func receiveQuote(t *testing.T, s *Stream) Quote {
	t.Helper()
	select {
	case q := <-s.Quotes():
		return q
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for quote")
		return Quote{}
	}
}
