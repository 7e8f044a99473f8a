package face

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lexiface/pkg/logging"
)

// ErrDisconnected is returned for operations on a session whose connection
// is gone.
var ErrDisconnected = errors.New("face session disconnected")

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

// Dialer opens a websocket connection to the face server.
type Dialer func(ctx context.Context, endpoint string) (*websocket.Conn, error)

// DefaultDialer dials with a bounded retry, matching the face server's slow
// readiness right after spawn.
func DefaultDialer(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	var conn *websocket.Conn
	var dialErr error
	for i := 0; i < 3; i++ {
		var resp *http.Response
		conn, resp, dialErr = websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
		if dialErr == nil {
			return conn, nil
		}
		if resp != nil {
			slog.Warn("Face session handshake failure", "status", resp.Status)
		}
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("websocket dial failed after retries: %w", dialErr)
}

// Session is one live connection to the face rendering server. Commands are
// JSON frames; the server acknowledges by command id, and synchronous speech
// blocks until its acknowledgment arrives.
type Session struct {
	endpoint string
	name     string
	dial     Dialer

	mu        sync.Mutex // guards conn, connected, done
	conn      *websocket.Conn
	connected bool
	done      chan struct{} // closed when the current connection dies

	writeMu sync.Mutex // gorilla allows a single concurrent writer

	ackMu sync.Mutex
	acks  map[string]chan ackFrame
}

type registerFrame struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Face string `json:"face"`
}

type sayFrame struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Text string `json:"text"`
	Wait bool   `json:"wait"`
}

type expressionFrame struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	AUs        map[string]float64 `json:"aus"`
	DurationMs float64            `json:"duration_ms"`
}

type lookFrame struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	DurationMs float64 `json:"duration_ms"`
}

type appearanceFrame struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Config map[string]any `json:"config"`
}

type stopFrame struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type ackFrame struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Connect dials the face server and registers the named face.
// A nil dialer falls back to DefaultDialer.
func Connect(ctx context.Context, endpoint, name string, dial Dialer) (*Session, error) {
	s := &Session{
		endpoint: endpoint,
		name:     name,
		dial:     dial,
		acks:     make(map[string]chan ackFrame),
	}
	if s.dial == nil {
		s.dial = DefaultDialer
	}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) connect(ctx context.Context) error {
	conn, err := s.dial(ctx, s.endpoint)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.readLoop(conn, done)
	go s.pingLoop(conn, done)

	if err := s.send("register", registerFrame{ID: newID(), Kind: "register", Face: s.name}); err != nil {
		s.Close()
		return fmt.Errorf("register face '%s': %w", s.name, err)
	}
	slog.Debug("Face session established", "endpoint", s.endpoint, "face", s.name)
	return nil
}

// Connected reports whether the underlying connection is still live.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Say sends an utterance. With wait set it blocks until the server
// acknowledges the end of speech.
func (s *Session) Say(ctx context.Context, text string, wait bool) error {
	id := newID()
	frame := sayFrame{ID: id, Kind: "say", Text: text, Wait: wait}
	if !wait {
		return s.send("say", frame)
	}

	ch := s.registerAck(id)
	defer s.cancelAck(id)

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return ErrDisconnected
	}

	if err := s.send("say", frame); err != nil {
		return err
	}

	select {
	case ack := <-ch:
		if !ack.OK {
			return fmt.Errorf("face rejected say: %s", ack.Error)
		}
		return nil
	case <-done:
		return ErrDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Express applies a set of action units over the given duration.
func (s *Session) Express(aus map[string]float64, durationMs float64) error {
	return s.send("expression", expressionFrame{ID: newID(), Kind: "expression", AUs: aus, DurationMs: durationMs})
}

// LookAt directs the gaze to a point in the face's coordinate space.
func (s *Session) LookAt(x, y, z, durationMs float64) error {
	return s.send("look", lookFrame{ID: newID(), Kind: "look", X: x, Y: y, Z: z, DurationMs: durationMs})
}

// SetAppearance applies appearance key-values to the rendered face.
func (s *Session) SetAppearance(cfg map[string]any) error {
	return s.send("appearance", appearanceFrame{ID: newID(), Kind: "appearance", Config: cfg})
}

// StopSpeech interrupts the current utterance.
func (s *Session) StopSpeech() error {
	return s.send("stop", stopFrame{ID: newID(), Kind: "stop"})
}

// Reconnect drops the current connection, if any, and dials again.
func (s *Session) Reconnect(ctx context.Context) error {
	s.Close()
	return s.connect(ctx)
}

// Close tears the session down. Safe to call repeatedly.
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.markDisconnected(conn)
	}
	return nil
}

func (s *Session) send(kind string, v any) error {
	s.mu.Lock()
	conn, connected := s.conn, s.connected
	s.mu.Unlock()
	if conn == nil || !connected {
		return ErrDisconnected
	}

	logging.TraceDefault("Face session send", "kind", kind)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		s.markDisconnected(conn)
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

func (s *Session) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer s.markDisconnected(conn)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Debug("Face session read ended", "error", err)
			return
		}
		// Any traffic proves liveness
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var ack ackFrame
		if err := json.Unmarshal(data, &ack); err != nil || ack.ID == "" {
			logging.TraceDefault("Face session frame dropped", "data", string(data))
			continue
		}
		s.deliverAck(ack)

		select {
		case <-done:
			return
		default:
		}
	}
}

func (s *Session) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.markDisconnected(conn)
				return
			}
		case <-done:
			return
		}
	}
}

// markDisconnected flips the session state if conn is still the active
// connection. A reconnect may already have replaced it.
func (s *Session) markDisconnected(conn *websocket.Conn) {
	s.mu.Lock()
	active := s.conn == conn && s.connected
	if active {
		s.connected = false
		close(s.done)
	}
	s.mu.Unlock()

	if active {
		conn.Close()
		slog.Debug("Face session disconnected", "endpoint", s.endpoint)
	}
}

func (s *Session) registerAck(id string) chan ackFrame {
	ch := make(chan ackFrame, 1)
	s.ackMu.Lock()
	s.acks[id] = ch
	s.ackMu.Unlock()
	return ch
}

func (s *Session) cancelAck(id string) {
	s.ackMu.Lock()
	delete(s.acks, id)
	s.ackMu.Unlock()
}

func (s *Session) deliverAck(a ackFrame) {
	s.ackMu.Lock()
	ch, ok := s.acks[a.ID]
	if ok {
		delete(s.acks, a.ID)
	}
	s.ackMu.Unlock()
	if ok {
		ch <- a
	} else {
		logging.TraceDefault("Face session unmatched ack", "id", a.ID)
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
