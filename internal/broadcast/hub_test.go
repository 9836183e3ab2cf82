package broadcast

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verte-zerg/keysprint/internal/session"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return frame
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/snapshot")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 before any frame, got %d", resp.StatusCode)
	}

	h.Display(session.Snapshot{State: session.Running, Typed: "ca", TimerText: "29"})
	resp, err = http.Get(srv.URL + "/snapshot")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var frame Frame
	if err := json.Unmarshal(body, &frame); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Type != TypeSnapshot || frame.Snapshot.Typed != "ca" || frame.Snapshot.State != session.Running {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestSnapshotRejectsPost(t *testing.T) {
	h := NewHub()
	req := httptest.NewRequest(http.MethodPost, "/snapshot", nil)
	w := httptest.NewRecorder()
	h.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestWebSocketReceivesFrames(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	h.Display(session.Snapshot{State: session.Idle, TimerText: "30"})
	conn := dial(t, srv.URL)
	if frame := readFrame(t, conn); frame.Snapshot.TimerText != "30" {
		t.Fatalf("expected latest frame on connect, got %+v", frame)
	}
	waitForClients(t, h, 1)

	h.Display(session.Snapshot{State: session.Finished, Report: &session.Report{WPM: 42}})
	frame := readFrame(t, conn)
	if frame.Type != TypeResult {
		t.Fatalf("expected result frame, got %q", frame.Type)
	}
	if frame.Snapshot.Report == nil || frame.Snapshot.Report.WPM != 42 {
		t.Fatalf("expected report in frame, got %+v", frame.Snapshot.Report)
	}
}

func TestClientDisconnectRemovesClient(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	conn := dial(t, srv.URL)
	waitForClients(t, h, 1)
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	waitForClients(t, h, 0)
}

func TestSlowClientDropsFrames(t *testing.T) {
	h := NewHub()
	c := &client{send: make(chan []byte, 1), hub: h}
	h.clients[c] = struct{}{}

	done := make(chan struct{})
	go func() {
		h.Display(session.Snapshot{TimerText: "3"})
		h.Display(session.Snapshot{TimerText: "2"})
		h.Display(session.Snapshot{TimerText: "1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("display blocked on a slow client")
	}
	if len(c.send) != 1 {
		t.Fatalf("expected one buffered frame, got %d", len(c.send))
	}
	if !strings.Contains(string(h.Latest()), `"timer":"1"`) {
		t.Fatalf("expected latest frame to be the last one, got %s", h.Latest())
	}
}

func TestStartAndShutdown(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	addr, err := h.Start(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	conn := dial(t, "http://"+addr.String())
	waitForClients(t, h, 1)

	cancel()
	waitForClients(t, h, 0)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected connection to close after shutdown")
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{name: "no origin", origin: "", host: "10.0.0.5:7070", want: true},
		{name: "same origin", origin: "http://10.0.0.5:7070", host: "10.0.0.5:7070", want: true},
		{name: "localhost page", origin: "http://localhost:3000", host: "10.0.0.5:7070", want: true},
		{name: "loopback ip", origin: "http://127.0.0.1:8080", host: "10.0.0.5:7070", want: true},
		{name: "loopback v6", origin: "http://[::1]:8080", host: "10.0.0.5:7070", want: true},
		{name: "foreign page", origin: "https://evil.example", host: "10.0.0.5:7070", want: false},
		{name: "opaque origin", origin: "null", host: "10.0.0.5:7070", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://"+tt.host+"/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := checkOrigin(r); got != tt.want {
				t.Fatalf("expected %v for origin %q, got %v", tt.want, tt.origin, got)
			}
		})
	}
}

func TestCrossOriginDialRefused(t *testing.T) {
	h := NewHub()
	t.Cleanup(h.Close)
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		_ = conn.Close()
		t.Fatalf("expected handshake to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
	_ = resp.Body.Close()
	if n := h.ClientCount(); n != 0 {
		t.Fatalf("expected no clients, got %d", n)
	}
}
