package model

import (
	"time"
)

// Utterance records a single speech dispatch and its outcome.
type Utterance struct {
	ID        string    `json:"id"`      // UUID assigned at dispatch
	Text      string    `json:"text"`
	Backend   string    `json:"backend"` // "face", "sapi", "espeak" or "none" when nothing succeeded
	Sync      bool      `json:"sync"`    // caller waited for completion
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

// FaceEvent records a face control operation.
type FaceEvent struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`   // "expression", "look", "appearance", "stop_speech", "server_start", "server_stop", "init"
	Detail    string    `json:"detail"` // e.g. expression name or gaze target
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}
