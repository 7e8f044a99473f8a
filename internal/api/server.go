// Package api provides the HTTP control surface for the face service.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"lexiface/pkg/version"
)

// messageResponse is the generic success/message envelope shared by most
// control endpoints.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewServer creates the HTTP server with all routes registered.
// shutdown is invoked asynchronously when POST /shutdown is called.
func NewServer(addr string, origins []string, lifecycle *LifecycleHandler, speech *SpeechHandler, face *FaceHandler, history *HistoryHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", lifecycle.HandleHealth)
	mux.HandleFunc("POST /start", lifecycle.HandleStart)
	mux.HandleFunc("POST /stop", lifecycle.HandleStop)
	mux.HandleFunc("GET /status", lifecycle.HandleStatus)

	mux.HandleFunc("POST /speak", speech.HandleSpeak)
	mux.HandleFunc("POST /stop-speech", speech.HandleStopSpeech)
	mux.HandleFunc("POST /config", speech.HandleConfig)
	mux.HandleFunc("GET /voices", speech.HandleVoices)

	mux.HandleFunc("POST /expression", face.HandleExpression)
	mux.HandleFunc("POST /look", face.HandleLook)
	mux.HandleFunc("POST /appearance", face.HandleAppearance)

	mux.HandleFunc("GET /history", history.HandleHistory)

	mux.HandleFunc("GET /version", handleVersion)
	mux.HandleFunc("POST /shutdown", handleShutdown(shutdown))

	return &http.Server{
		Addr:        addr,
		Handler:     corsMiddleware(origins, mux),
		ReadTimeout: 15 * time.Second,
		// Synchronous speech holds the response open for the whole
		// utterance, so the write timeout has to cover long texts.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

func handleShutdown(shutdown func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Shutting down"})
		// Give the response a moment to flush before the server stops.
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
