package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fishbanks/internal/game"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, hub *Hub) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, srv
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg wsMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", payload, err)
	}
	return msg
}

func TestHubSendsTickInfoOnConnect(t *testing.T) {
	hub := NewHub(nil)
	next := time.Now().Add(10 * time.Minute).UTC()
	hub.SetTickSchedule(next, 15*time.Minute)

	conn, srv := dialTestHub(t, hub)
	defer srv.Close()
	defer conn.Close()

	if msg := readMessage(t, conn); msg.Type != "update" {
		t.Fatalf("first message type = %q, want update", msg.Type)
	}
	msg := readMessage(t, conn)
	if msg.Type != "tickInfo" {
		t.Fatalf("second message type = %q, want tickInfo", msg.Type)
	}
	if msg.NextTick == nil || !msg.NextTick.Equal(next) {
		t.Fatalf("next tick = %v, want %v", msg.NextTick, next)
	}
	if msg.Interval != "15m0s" {
		t.Fatalf("interval = %q, want 15m0s", msg.Interval)
	}
}

func TestHubBroadcastTick(t *testing.T) {
	hub := NewHub(nil)
	conn, srv := dialTestHub(t, hub)
	defer srv.Close()
	defer conn.Close()

	// Skip the two-message greeting.
	if msg := readMessage(t, conn); msg.Type != "update" {
		t.Fatalf("greeting type = %q", msg.Type)
	}
	if msg := readMessage(t, conn); msg.Type != "tickInfo" {
		t.Fatalf("greeting type = %q", msg.Type)
	}

	// The client registers before the greeting is queued, so the hub sees
	// it immediately; still poll to be safe against scheduler timing.
	waitForClients(t, hub, 1)

	hub.BroadcastTick(game.TickSummary{TickID: 42, Trigger: game.TickManual})

	msg := readMessage(t, conn)
	if msg.Type != "tick" {
		t.Fatalf("message type = %q, want tick", msg.Type)
	}
	if msg.Tick == nil || msg.Tick.TickID != 42 {
		t.Fatalf("tick payload = %+v, want tick id 42", msg.Tick)
	}

	if follow := readMessage(t, conn); follow.Type != "tickInfo" {
		t.Fatalf("follow-up type = %q, want tickInfo", follow.Type)
	}
}

func TestHubDropsDisconnectedClient(t *testing.T) {
	hub := NewHub(nil)
	conn, srv := dialTestHub(t, hub)
	defer srv.Close()

	waitForClients(t, hub, 1)
	conn.Close()
	waitForClients(t, hub, 0)

	// Broadcasting to an empty hub must not panic or block.
	hub.BroadcastUpdate()
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d (now %d)", want, hub.ClientCount())
}
