// Package tts defines speech synthesis backends and their shared types.
package tts

import "context"

// Backend is a single speech synthesis engine. Backends are tried in
// priority order until one succeeds.
type Backend interface {
	// Name identifies the backend in history records and logs.
	Name() string
	// Available reports whether the backend can currently synthesize.
	Available() bool
	// Speak voices the text. With wait set it blocks until playback
	// finishes; otherwise it returns once speech has been started.
	Speak(ctx context.Context, text string, wait bool) error
}

// Voice is an available synthesis voice.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
}
