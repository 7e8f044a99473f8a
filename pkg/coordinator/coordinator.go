// Package coordinator owns the face server lifecycle, the active face
// session, and prioritized speech dispatch. It is constructed once in main
// and drives every operation the HTTP facade exposes.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"lexiface/pkg/config"
	"lexiface/pkg/face"
	"lexiface/pkg/model"
	"lexiface/pkg/retry"
	"lexiface/pkg/tts"
)

// ServerManager is the subprocess lifecycle surface consumed here.
type ServerManager interface {
	Start() bool
	Stop()
	Running() bool
	Endpoint() string
	FaceURL() string
}

// FaceSession is the live control channel to a rendered face.
type FaceSession interface {
	Connected() bool
	Say(ctx context.Context, text string, wait bool) error
	Express(aus map[string]float64, durationMs float64) error
	LookAt(x, y, z, durationMs float64) error
	SetAppearance(cfg map[string]any) error
	StopSpeech() error
	Reconnect(ctx context.Context) error
	Close() error
}

// SessionDialer establishes a session against the server endpoint.
type SessionDialer func(ctx context.Context, endpoint, name string) (FaceSession, error)

// VoiceBackend is a speech backend that can enumerate and select voices.
type VoiceBackend interface {
	tts.Backend
	Voices(ctx context.Context) ([]tts.Voice, error)
	SetVoice(voiceID string)
}

// History records dispatch outcomes. A nil history disables recording.
type History interface {
	SaveUtterance(ctx context.Context, u *model.Utterance) error
	SaveFaceEvent(ctx context.Context, ev *model.FaceEvent) error
}

// Status is the snapshot reported by the status and health endpoints.
type Status struct {
	ServerRunning   bool
	FaceInitialized bool
	VoiceID         string
	TTSMethod       string
}

// Coordinator holds the face server handle, the active session, and the
// current voice configuration. Field access is guarded by mu; operations
// that mutate state are expected to be serialized by the caller.
type Coordinator struct {
	cfg      *config.Config
	server   ServerManager
	dial     SessionDialer
	platform VoiceBackend
	backends []tts.Backend
	history  History

	mu      sync.RWMutex
	session FaceSession
	voiceID string
	method  string
}

// New wires a coordinator. The backend priority is fixed: animated face,
// then the platform backend, then the fallback. A nil dial uses the real
// websocket session layer.
func New(cfg *config.Config, server ServerManager, dial SessionDialer, platform VoiceBackend, fallback tts.Backend, history History) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		server:   server,
		dial:     dial,
		platform: platform,
		history:  history,
		voiceID:  cfg.TTS.VoiceID,
		method:   cfg.TTS.Method,
	}
	if c.dial == nil {
		c.dial = func(ctx context.Context, endpoint, name string) (FaceSession, error) {
			return face.Connect(ctx, endpoint, name, nil)
		}
	}
	c.backends = []tts.Backend{&faceBackend{c: c}}
	if platform != nil {
		c.backends = append(c.backends, platform)
	}
	if fallback != nil {
		c.backends = append(c.backends, fallback)
	}
	return c
}

// StartServer brings up the face rendering server, attaching to an already
// listening one if present.
func (c *Coordinator) StartServer(ctx context.Context) bool {
	ok := c.server.Start()
	c.recordEvent(ctx, "server_start", "", ok)
	return ok
}

// StopServer closes the session and terminates a server we spawned.
// Always succeeds.
func (c *Coordinator) StopServer(ctx context.Context) {
	c.setSession(nil)
	c.server.Stop()
	c.recordEvent(ctx, "server_stop", "", true)
}

// InitializeFace applies the voice configuration and tries to establish a
// face session. It reports success as long as the configuration was applied;
// a missing server or session only degrades the service to TTS-only mode.
func (c *Coordinator) InitializeFace(ctx context.Context, voiceID, ttsMethod string) bool {
	if ttsMethod == "" {
		ttsMethod = "system"
	}

	c.mu.Lock()
	c.voiceID = voiceID
	c.method = ttsMethod
	c.mu.Unlock()
	slog.Info("Service configuration updated", "voice_id", voiceID, "tts_method", ttsMethod)

	c.applyPlatformVoice(ctx, voiceID)

	if !c.cfg.Face.Enabled {
		slog.Info("Face support disabled; configuration applied without a session")
		c.recordEvent(ctx, "init", "face disabled", true)
		return true
	}

	if !c.server.Start() {
		slog.Warn("Face server did not come up; continuing in TTS-only mode")
		c.recordEvent(ctx, "init", "server start failed", true)
		return true
	}

	policy := retry.Policy{
		MaxAttempts: c.cfg.Face.SessionAttempts,
		Delay:       time.Duration(c.cfg.Face.SessionDelay),
	}
	err := policy.Do(ctx, "face session", func(attempt int) error {
		sess, err := c.dial(ctx, c.server.Endpoint(), c.cfg.Face.Name)
		if err != nil {
			return err
		}
		sleepCtx(ctx, time.Duration(c.cfg.Face.ConnectGrace))
		if !sess.Connected() {
			sess.Close()
			return errNotConnected
		}
		c.setSession(sess)
		return nil
	})
	if err != nil {
		slog.Warn("Face session not established; configuration remains applied", "error", err)
		c.recordEvent(ctx, "init", "session not established", true)
		return true
	}

	slog.Info("Face session initialized", "endpoint", c.server.Endpoint(), "face", c.cfg.Face.Name)
	c.recordEvent(ctx, "init", "session established", true)
	return true
}

// applyPlatformVoice selects the platform voice whose id matches exactly.
// Lookup and apply failures are logged, never fatal.
func (c *Coordinator) applyPlatformVoice(ctx context.Context, voiceID string) {
	if c.platform == nil || voiceID == "" || !c.platform.Available() {
		return
	}
	voices, err := c.platform.Voices(ctx)
	if err != nil {
		slog.Warn("Platform voice enumeration failed", "error", err)
		return
	}
	for _, v := range voices {
		if v.ID == voiceID {
			c.platform.SetVoice(v.ID)
			slog.Info("Platform voice selected", "voice", v.Name)
			return
		}
	}
	slog.Warn("Requested voice not found among platform voices", "voice_id", voiceID)
}

// Voices lists selectable voices for a TTS method. The second return is
// false for a method this service does not know.
func (c *Coordinator) Voices(ctx context.Context, method string) ([]tts.Voice, bool) {
	switch method {
	case "system":
		if c.platform == nil || !c.platform.Available() {
			return []tts.Voice{}, true
		}
		voices, err := c.platform.Voices(ctx)
		if err != nil {
			slog.Warn("Platform voice enumeration failed", "error", err)
			return []tts.Voice{}, true
		}
		return voices, true
	case "polly":
		return tts.PollyVoices(), true
	default:
		return nil, false
	}
}

// Status reports the server and session state with the current voice
// configuration.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		ServerRunning:   c.server.Running(),
		FaceInitialized: c.session != nil,
		VoiceID:         c.voiceID,
		TTSMethod:       c.method,
	}
}

// FaceURL returns the browser URL of the rendered face.
func (c *Coordinator) FaceURL() string {
	return c.server.FaceURL()
}

// Session returns the active face session, nil when absent.
func (c *Coordinator) Session() FaceSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// setSession replaces the active session, closing the previous one.
func (c *Coordinator) setSession(sess FaceSession) {
	c.mu.Lock()
	old := c.session
	c.session = sess
	c.mu.Unlock()
	if old != nil && old != sess {
		old.Close()
	}
}

func (c *Coordinator) recordUtterance(ctx context.Context, text, backend string, wait, success bool) {
	if c.history == nil {
		return
	}
	u := &model.Utterance{
		ID:      uuid.NewString(),
		Text:    text,
		Backend: backend,
		Sync:    wait,
		Success: success,
	}
	if err := c.history.SaveUtterance(ctx, u); err != nil {
		slog.Warn("Failed to record utterance", "error", err)
	}
}

func (c *Coordinator) recordEvent(ctx context.Context, kind, detail string, success bool) {
	if c.history == nil {
		return
	}
	ev := &model.FaceEvent{Kind: kind, Detail: detail, Success: success}
	if err := c.history.SaveFaceEvent(ctx, ev); err != nil {
		slog.Warn("Failed to record face event", "error", err)
	}
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
