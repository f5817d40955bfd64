package transport

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startTestServer(t *testing.T) *WebSocketTransport {
	t.Helper()
	wst := NewWebSocketTransport("127.0.0.1:0")
	wst.Handle("/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	}))
	if err := wst.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { wst.Close() })
	return wst
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	wst := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return wst.Clients() == 1 })

	if err := wst.Send(map[string]any{"source": "peak", "x": 1.5}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got map[string]any
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got["source"] != "peak" || got["x"] != 1.5 {
		t.Errorf("received %v", got)
	}

	conn.Close()
	waitFor(t, func() bool { return wst.Clients() == 0 })
}

func TestWebSocketExtraHandler(t *testing.T) {
	wst := startTestServer(t)

	resp, err := http.Get("http://" + wst.Addr() + "/ping")
	if err != nil {
		t.Fatalf("GET /ping error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "pong" {
		t.Errorf("body = %q, want pong", body)
	}
}

func TestWebSocketSendNeverBlocks(t *testing.T) {
	// Not started: nothing drains the queue.
	wst := NewWebSocketTransport("127.0.0.1:0")
	for i := range broadcastQueue + 10 {
		if err := wst.Send(i); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	if wst.Dropped() != 10 {
		t.Errorf("Dropped() = %d, want 10", wst.Dropped())
	}
	if err := wst.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestWebSocketStartError(t *testing.T) {
	wst := NewWebSocketTransport("256.0.0.1:bad")
	if err := wst.Start(); err == nil || !strings.Contains(err.Error(), "failed to listen") {
		t.Errorf("Start() error = %v", err)
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(struct{ X float64 }{1}); err != nil {
		t.Errorf("Send() error = %v", err)
	}
	if err := lt.Send(func() {}); err != nil {
		t.Errorf("Send() of unmarshalable value error = %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
