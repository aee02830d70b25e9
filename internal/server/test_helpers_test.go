package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"doodleit/internal/config"
	"doodleit/internal/game"
	"doodleit/internal/words"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const testWord = "apple"

type harness struct {
	srv    *Server
	engine *game.Engine
	ts     *httptest.Server
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func newCoordinator(t *testing.T, mutate func(*config.Config)) (*Server, *game.Engine) {
	t.Helper()
	cfg := config.Default()
	cfg.AdvanceDelay = 20 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	source, err := words.NewList([]string{testWord})
	if err != nil {
		t.Fatalf("word list: %v", err)
	}
	engine := game.NewEngine(game.NewMemoryStore(), source)
	return New(engine, cfg, zap.NewNop().Sugar(), nil), engine
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	srv, engine := newCoordinator(t, mutate)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return &harness{srv: srv, engine: engine, ts: ts}
}

func (h *harness) wsURL() string {
	return "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/ws"
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.wsURL(), nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"event": event, "data": data}); err != nil {
		t.Fatalf("send %s: %v", event, err)
	}
}

type receivedFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) receivedFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var frame receivedFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("decode frame %s: %v", payload, err)
	}
	return frame
}

// waitForEvent skips frames until one named event arrives and decodes its data into dest.
func waitForEvent(t *testing.T, conn *websocket.Conn, event string, dest any) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	seen := make([]string, 0)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.Fatalf("timed out waiting for %s; seen=%v", event, seen)
		}
		frame := readEvent(t, conn, remaining)
		seen = append(seen, frame.Event)
		if frame.Event != event {
			continue
		}
		if dest != nil {
			if err := json.Unmarshal(frame.Data, dest); err != nil {
				t.Fatalf("decode %s data %s: %v", event, frame.Data, err)
			}
		}
		return
	}
}

func expectNoWSMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	if _, payload, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected no websocket message within %s, got %s", timeout, payload)
	} else {
		netErr, ok := err.(net.Error)
		if !ok || !netErr.Timeout() {
			t.Fatalf("expected websocket timeout, got %v", err)
		}
	}
}

func createRoom(t *testing.T, conn *websocket.Conn, nickname, name string, occupancy, maxRounds int) game.Room {
	t.Helper()
	sendEvent(t, conn, eventCreateGame, map[string]any{
		"nickname":  nickname,
		"name":      name,
		"occupancy": occupancy,
		"maxRounds": maxRounds,
	})
	var room game.Room
	waitForEvent(t, conn, eventUpdateRoom, &room)
	return room
}

func joinRoom(t *testing.T, conn *websocket.Conn, nickname, name string) game.Room {
	t.Helper()
	sendEvent(t, conn, eventJoinGame, map[string]any{"nickname": nickname, "name": name})
	var room game.Room
	waitForEvent(t, conn, eventUpdateRoom, &room)
	return room
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func snapshot(t *testing.T, engine *game.Engine, name string) *game.Room {
	t.Helper()
	room, err := engine.Snapshot(context.Background(), name)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}
	return room
}
