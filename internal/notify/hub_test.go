package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func newTestHub(userID string) *Hub {
	return NewHub(func(ctx context.Context, token string) (string, error) {
		if token != "good" {
			return "", errors.New("bad token")
		}
		return userID, nil
	}, nil)
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return conn, err
}

func TestHubDeliversToReceiver(t *testing.T) {
	userID := uuid.New()
	hub := newTestHub(userID.String())
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()
	defer hub.Close()

	conn, err := dial(t, srv, "good")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello map[string]string
	if err := conn.ReadJSON(&hello); err != nil || hello["type"] != "authenticated" {
		t.Fatalf("expected authenticated frame, got %v %v", hello, err)
	}

	msg := &domain.Message{ID: uuid.New(), UserID: userID, SenderID: domain.SystemSenderID, Content: "hello"}
	if err := (Direct{Hub: hub}).Notify(context.Background(), msg); err != nil {
		t.Fatalf("notify: %v", err)
	}

	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != EventMessage || ev.ReceiverID != userID.String() {
		t.Fatalf("unexpected event %+v", ev)
	}
	var got domain.Message
	if err := json.Unmarshal(ev.Data, &got); err != nil || got.Content != "hello" {
		t.Fatalf("unexpected payload %s", ev.Data)
	}
}

func TestHubRejectsBadToken(t *testing.T) {
	hub := newTestHub("u1")
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	if _, err := dial(t, srv, "nope"); err == nil {
		t.Fatalf("expected handshake failure")
	}
	if hub.IsUserConnected("u1") {
		t.Fatalf("client must not be registered")
	}
}

func TestSendToOtherUserIsDropped(t *testing.T) {
	hub := newTestHub("u1")
	if n := hub.SendToUser("u2", []byte("x")); n != 0 {
		t.Fatalf("expected no deliveries, got %d", n)
	}
}

func httpHandler(h *Hub) http.Handler { return http.HandlerFunc(h.ServeWS) }
