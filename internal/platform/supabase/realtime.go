// Realtime websocket support. The backend joins per-user topics and pushes
// broadcast frames so connected clients see in-app notifications without
// polling the notifications table.
package supabase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// RealtimeClient speaks the platform's phoenix-style realtime protocol.
type RealtimeClient struct {
	mu     sync.Mutex
	url    string
	apiKey string
	conn   *websocket.Conn
	joined map[string]string // topic -> join ref
	done   chan struct{}
	ref    int
}

// NewRealtimeClient creates a realtime client for the given platform URL.
func NewRealtimeClient(platformURL, apiKey string) *RealtimeClient {
	wsURL := platformURL
	switch {
	case strings.HasPrefix(wsURL, "https"):
		wsURL = "wss" + wsURL[len("https"):]
	case strings.HasPrefix(wsURL, "http"):
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL = strings.TrimSuffix(wsURL, "/") + "/realtime/v1/websocket?apikey=" + apiKey + "&vsn=1.0.0"

	return &RealtimeClient{
		url:    wsURL,
		apiKey: apiKey,
		joined: make(map[string]string),
	}
}

// Connect establishes the websocket connection and starts the heartbeat.
func (r *RealtimeClient) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	r.conn = conn
	r.done = make(chan struct{})

	go r.heartbeat()
	go r.drain()

	return nil
}

// Disconnect closes the websocket connection.
func (r *RealtimeClient) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}

	close(r.done)

	err := r.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	r.conn.Close()
	r.conn = nil
	r.joined = make(map[string]string)
	if err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	return nil
}

// Broadcast joins the topic if needed and pushes a broadcast frame carrying
// the payload. Topics follow the app convention "user:{id}".
func (r *RealtimeClient) Broadcast(ctx context.Context, topic, event string, payload map[string]any) error {
	if err := r.Connect(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return fmt.Errorf("realtime not connected")
	}

	joinRef, ok := r.joined[topic]
	if !ok {
		r.ref++
		joinRef = fmt.Sprintf("%d", r.ref)
		join := map[string]any{
			"topic":    "realtime:" + topic,
			"event":    "phx_join",
			"payload":  map[string]any{"config": map[string]any{"broadcast": map[string]any{"self": false}}},
			"ref":      joinRef,
			"join_ref": joinRef,
		}
		if err := r.conn.WriteJSON(join); err != nil {
			return fmt.Errorf("send join: %w", err)
		}
		r.joined[topic] = joinRef
	}

	r.ref++
	msg := map[string]any{
		"topic": "realtime:" + topic,
		"event": "broadcast",
		"payload": map[string]any{
			"type":    "broadcast",
			"event":   event,
			"payload": payload,
		},
		"ref":      fmt.Sprintf("%d", r.ref),
		"join_ref": joinRef,
	}
	if err := r.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send broadcast: %w", err)
	}
	return nil
}

// drain reads and discards server frames so the connection's read side
// keeps up with acks and heartbeat replies.
func (r *RealtimeClient) drain() {
	for {
		select {
		case <-r.done:
			return
		default:
		}

		r.mu.Lock()
		conn := r.conn
		r.mu.Unlock()

		if conn == nil {
			return
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (r *RealtimeClient) heartbeat() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.conn != nil {
				r.ref++
				msg := map[string]any{
					"topic":   "phoenix",
					"event":   "heartbeat",
					"payload": map[string]any{},
					"ref":     fmt.Sprintf("%d", r.ref),
				}
				r.conn.WriteJSON(msg)
			}
			r.mu.Unlock()
		}
	}
}
