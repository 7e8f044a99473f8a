package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"lexiface/pkg/coordinator"
)

// lifecycleController is the coordinator subset the lifecycle endpoints use.
type lifecycleController interface {
	StartServer(ctx context.Context) bool
	StopServer(ctx context.Context)
	InitializeFace(ctx context.Context, voiceID, ttsMethod string) bool
	Status() coordinator.Status
	FaceURL() string
}

// LifecycleHandler serves the face server start/stop and status endpoints.
type LifecycleHandler struct {
	ctrl       lifecycleController
	startGrace time.Duration
}

// NewLifecycleHandler creates the handler. startGrace is how long to wait
// after starting the face server before opening the session, giving the
// rendered page time to load.
func NewLifecycleHandler(ctrl lifecycleController, startGrace time.Duration) *LifecycleHandler {
	return &LifecycleHandler{ctrl: ctrl, startGrace: startGrace}
}

type startRequest struct {
	VoiceID   string `json:"voice_id"`
	TTSMethod string `json:"tts_method"`
}

type startResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	FaceInitialized bool   `json:"face_initialized"`
	FaceURL         string `json:"face_url"`
}

type statusResponse struct {
	FaceServerRunning bool   `json:"face_server_running"`
	FaceInitialized   bool   `json:"face_initialized"`
	CurrentVoiceID    string `json:"current_voice_id"`
	TTSMethod         string `json:"tts_method"`
}

type healthResponse struct {
	Status            string `json:"status"`
	FaceServerRunning bool   `json:"face_server_running"`
	FaceInitialized   bool   `json:"face_initialized"`
}

// HandleStart handles POST /start.
func (h *LifecycleHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !h.ctrl.StartServer(r.Context()) {
		writeJSON(w, http.StatusInternalServerError, startResponse{
			Success: false,
			Message: "Failed to start face server",
		})
		return
	}

	// Let the face page load before opening the control session.
	select {
	case <-r.Context().Done():
	case <-time.After(h.startGrace):
	}

	initialized := h.ctrl.InitializeFace(r.Context(), req.VoiceID, req.TTSMethod)
	writeJSON(w, http.StatusOK, startResponse{
		Success:         true,
		Message:         "Face server started",
		FaceInitialized: initialized,
		FaceURL:         h.ctrl.FaceURL(),
	})
}

// HandleStop handles POST /stop.
func (h *LifecycleHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.ctrl.StopServer(r.Context())
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Face server stopped"})
}

// HandleStatus handles GET /status.
func (h *LifecycleHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st := h.ctrl.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		FaceServerRunning: st.ServerRunning,
		FaceInitialized:   st.FaceInitialized,
		CurrentVoiceID:    st.VoiceID,
		TTSMethod:         st.TTSMethod,
	})
}

// HandleHealth handles GET /health. The service reports healthy only when
// the face server is running and a face session has been established.
func (h *LifecycleHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.ctrl.Status()
	status := "unavailable"
	if st.ServerRunning && st.FaceInitialized {
		status = "healthy"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:            status,
		FaceServerRunning: st.ServerRunning,
		FaceInitialized:   st.FaceInitialized,
	})
}
