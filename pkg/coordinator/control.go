package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"lexiface/pkg/face"
)

var (
	errNoSession    = errors.New("no face session")
	errNotConnected = errors.New("session dropped during connect grace")
)

// Speak voices text through the highest-priority backend that accepts it.
// Availability is re-evaluated on every call; errors fall through to the
// next backend. The outcome is recorded in the history store.
func (c *Coordinator) Speak(ctx context.Context, text string, wait bool) bool {
	for _, b := range c.backends {
		if !b.Available() {
			continue
		}
		if err := b.Speak(ctx, text, wait); err != nil {
			slog.Warn("Speech backend failed", "backend", b.Name(), "error", err)
			continue
		}
		slog.Info("Speech dispatched", "backend", b.Name(), "wait", wait)
		c.recordUtterance(ctx, text, b.Name(), wait, true)
		return true
	}

	slog.Error("All speech backends failed or unavailable")
	c.recordUtterance(ctx, text, "none", wait, false)
	return false
}

// SetExpression applies a named expression. Unknown names fail before any
// face state is touched. Without a session the call only succeeds when face
// support is disabled outright, as a log-only acknowledgment.
func (c *Coordinator) SetExpression(name string, durationMs float64) bool {
	aus, ok := face.Lookup(name)
	if !ok {
		slog.Warn("Unknown expression", "expression", name)
		return false
	}

	if sess := c.Session(); sess != nil {
		if err := sess.Express(aus, durationMs); err != nil {
			slog.Error("Failed to apply expression", "expression", name, "error", err)
			c.recordEvent(context.Background(), "expression", name, false)
			return false
		}
		c.recordEvent(context.Background(), "expression", name, true)
		return true
	}

	if !c.cfg.Face.Enabled {
		slog.Info("Expression acknowledged without face support", "expression", name)
		c.recordEvent(context.Background(), "expression", name, true)
		return true
	}

	slog.Warn("No face session for expression", "expression", name)
	return false
}

// LookAt directs the gaze to a point. Requires an active session.
func (c *Coordinator) LookAt(ctx context.Context, x, y, z, durationMs float64) bool {
	sess := c.Session()
	if sess == nil {
		slog.Warn("No face session for gaze")
		return false
	}
	if err := sess.LookAt(x, y, z, durationMs); err != nil {
		slog.Error("Failed to direct gaze", "error", err)
		return false
	}
	c.recordEvent(ctx, "look", fmt.Sprintf("%.2f,%.2f,%.2f", x, y, z), true)
	return true
}

// StopSpeech interrupts face speech. Requires an active session.
func (c *Coordinator) StopSpeech() bool {
	sess := c.Session()
	if sess == nil {
		slog.Warn("No face session to stop speech on")
		return false
	}
	if err := sess.StopSpeech(); err != nil {
		slog.Error("Failed to stop speech", "error", err)
		return false
	}
	c.recordEvent(context.Background(), "stop_speech", "", true)
	return true
}

// SetAppearance applies appearance key-values to the face. A disconnected
// session gets exactly one reconnect; a connection-class apply fault gets
// one full reinitialization followed by a single retry.
func (c *Coordinator) SetAppearance(ctx context.Context, cfg map[string]any) bool {
	sess := c.Session()
	if sess == nil {
		slog.Warn("No face session for appearance change")
		return false
	}

	if !sess.Connected() {
		slog.Info("Session disconnected; reconnecting before appearance change")
		if err := sess.Reconnect(ctx); err != nil {
			slog.Error("Reconnect failed", "error", err)
			c.recordEvent(ctx, "appearance", "reconnect failed", false)
			return false
		}
		sleepCtx(ctx, time.Duration(c.cfg.Face.ReconnectGrace))
	}

	if err := sess.SetAppearance(cfg); err != nil {
		if !isConnectionError(err) {
			slog.Error("Appearance change failed", "error", err)
			c.recordEvent(ctx, "appearance", err.Error(), false)
			return false
		}

		slog.Warn("Connection fault during appearance change; reinitializing", "error", err)
		c.mu.RLock()
		voiceID, method := c.voiceID, c.method
		c.mu.RUnlock()
		c.InitializeFace(ctx, voiceID, method)
		sleepCtx(ctx, time.Duration(c.cfg.Face.ReinitGrace))

		sess = c.Session()
		if sess == nil {
			slog.Error("No session after reinitialization")
			c.recordEvent(ctx, "appearance", "no session after reinit", false)
			return false
		}
		if err := sess.SetAppearance(cfg); err != nil {
			slog.Error("Appearance change failed after reinitialization", "error", err)
			c.recordEvent(ctx, "appearance", err.Error(), false)
			return false
		}
	}

	c.recordEvent(ctx, "appearance", fmt.Sprintf("%d keys", len(cfg)), true)
	return true
}

// isConnectionError classifies faults that warrant a full reinitialization
// rather than a plain failure report.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var closeErr *websocket.CloseError
	if errors.Is(err, face.ErrDisconnected) || errors.Is(err, net.ErrClosed) || errors.As(err, &closeErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection")
}

// faceBackend adapts the active session into the highest-priority speech
// backend. Available whenever a session exists; a dead session surfaces as
// a send error and falls through to the next backend.
type faceBackend struct {
	c *Coordinator
}

func (f *faceBackend) Name() string { return "face" }

func (f *faceBackend) Available() bool { return f.c.Session() != nil }

func (f *faceBackend) Speak(ctx context.Context, text string, wait bool) error {
	sess := f.c.Session()
	if sess == nil {
		return errNoSession
	}
	return sess.Say(ctx, text, wait)
}
