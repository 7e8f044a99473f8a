package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"lexiface/pkg/tts"
)

// speechController is the coordinator subset the speech endpoints use.
type speechController interface {
	Speak(ctx context.Context, text string, wait bool) bool
	StopSpeech() bool
	InitializeFace(ctx context.Context, voiceID, ttsMethod string) bool
	Voices(ctx context.Context, method string) ([]tts.Voice, bool)
}

// SpeechHandler serves the speech dispatch and voice configuration endpoints.
type SpeechHandler struct {
	ctrl speechController
}

// NewSpeechHandler creates the handler.
func NewSpeechHandler(ctrl speechController) *SpeechHandler {
	return &SpeechHandler{ctrl: ctrl}
}

type speakRequest struct {
	Text string `json:"text"`
	Wait bool   `json:"wait"`
}

type configRequest struct {
	VoiceID   string `json:"voice_id"`
	TTSMethod string `json:"tts_method"`
}

type configResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	VoiceID   string `json:"voice_id"`
	TTSMethod string `json:"tts_method"`
}

type voicesResponse struct {
	Success   bool        `json:"success"`
	Voices    []tts.Voice `json:"voices"`
	TTSMethod string      `json:"tts_method"`
}

// HandleSpeak handles POST /speak. With wait set the response is held until
// the utterance has finished playing.
func (h *SpeechHandler) HandleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Success: false, Message: "Text is required"})
		return
	}

	if !h.ctrl.Speak(r.Context(), req.Text, req.Wait) {
		writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "Failed to speak"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Speaking: " + tts.Truncate(req.Text, 50),
	})
}

// HandleStopSpeech handles POST /stop-speech.
func (h *SpeechHandler) HandleStopSpeech(w http.ResponseWriter, r *http.Request) {
	if !h.ctrl.StopSpeech() {
		writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "Failed to stop speech"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Speech stopped"})
}

// HandleConfig handles POST /config. The new configuration is applied via
// face initialization so an already-running face picks up the voice change.
func (h *SpeechHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	method := req.TTSMethod
	if method == "" {
		method = "system"
	}

	if !h.ctrl.InitializeFace(r.Context(), req.VoiceID, method) {
		writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "Failed to update configuration"})
		return
	}
	writeJSON(w, http.StatusOK, configResponse{
		Success:   true,
		Message:   "Configuration updated",
		VoiceID:   req.VoiceID,
		TTSMethod: method,
	})
}

// HandleVoices handles GET /voices.
func (h *SpeechHandler) HandleVoices(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("tts_method")
	if method == "" {
		method = "system"
	}

	voices, ok := h.ctrl.Voices(r.Context(), method)
	if !ok {
		writeJSON(w, http.StatusBadRequest, messageResponse{Success: false, Message: "Unknown TTS method: " + method})
		return
	}
	writeJSON(w, http.StatusOK, voicesResponse{Success: true, Voices: voices, TTSMethod: method})
}
