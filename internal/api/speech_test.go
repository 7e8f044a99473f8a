package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lexiface/pkg/tts"
)

type speakCall struct {
	text string
	wait bool
}

// mockSpeech matches the interface needed by SpeechHandler.
type mockSpeech struct {
	speakResult bool
	speakCalls  []speakCall
	stopResult  bool
	initResult  bool
	initCalls   []initCall
	voices      []tts.Voice
	voicesOK    bool
	voicesCalls []string
}

func (m *mockSpeech) Speak(ctx context.Context, text string, wait bool) bool {
	m.speakCalls = append(m.speakCalls, speakCall{text, wait})
	return m.speakResult
}

func (m *mockSpeech) StopSpeech() bool { return m.stopResult }

func (m *mockSpeech) InitializeFace(ctx context.Context, voiceID, ttsMethod string) bool {
	m.initCalls = append(m.initCalls, initCall{voiceID, ttsMethod})
	return m.initResult
}

func (m *mockSpeech) Voices(ctx context.Context, method string) ([]tts.Voice, bool) {
	m.voicesCalls = append(m.voicesCalls, method)
	return m.voices, m.voicesOK
}

func TestHandleSpeak_MissingText(t *testing.T) {
	mock := &mockSpeech{speakResult: true}
	h := NewSpeechHandler(mock)

	req := httptest.NewRequest("POST", "/speak", strings.NewReader(`{"wait": true}`))
	w := httptest.NewRecorder()
	h.HandleSpeak(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	var resp messageResponse
	decodeResponse(t, w, &resp)
	if resp.Success || resp.Message != "Text is required" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if len(mock.speakCalls) != 0 {
		t.Error("Dispatch should not run without text")
	}
}

func TestHandleSpeak_Success(t *testing.T) {
	mock := &mockSpeech{speakResult: true}
	h := NewSpeechHandler(mock)

	req := httptest.NewRequest("POST", "/speak", strings.NewReader(`{"text": "hello there", "wait": true}`))
	w := httptest.NewRecorder()
	h.HandleSpeak(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp messageResponse
	decodeResponse(t, w, &resp)
	if !resp.Success || resp.Message != "Speaking: hello there" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if len(mock.speakCalls) != 1 || mock.speakCalls[0] != (speakCall{"hello there", true}) {
		t.Errorf("Unexpected dispatch calls: %+v", mock.speakCalls)
	}
}

func TestHandleSpeak_TruncatesMessage(t *testing.T) {
	mock := &mockSpeech{speakResult: true}
	h := NewSpeechHandler(mock)

	text := strings.Repeat("a", 60)
	req := httptest.NewRequest("POST", "/speak", strings.NewReader(`{"text": "`+text+`"}`))
	w := httptest.NewRecorder()
	h.HandleSpeak(w, req)

	var resp messageResponse
	decodeResponse(t, w, &resp)
	want := "Speaking: " + strings.Repeat("a", 50)
	if resp.Message != want {
		t.Errorf("Expected truncated message %q, got %q", want, resp.Message)
	}
	// The full text still reaches the dispatcher.
	if len(mock.speakCalls) != 1 || mock.speakCalls[0].text != text {
		t.Errorf("Unexpected dispatch calls: %+v", mock.speakCalls)
	}
	if mock.speakCalls[0].wait {
		t.Error("wait should default to false")
	}
}

func TestHandleSpeak_DispatchFailure(t *testing.T) {
	mock := &mockSpeech{speakResult: false}
	h := NewSpeechHandler(mock)

	req := httptest.NewRequest("POST", "/speak", strings.NewReader(`{"text": "hello"}`))
	w := httptest.NewRecorder()
	h.HandleSpeak(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	var resp messageResponse
	decodeResponse(t, w, &resp)
	if resp.Success || resp.Message != "Failed to speak" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestHandleStopSpeech(t *testing.T) {
	mock := &mockSpeech{stopResult: true}
	h := NewSpeechHandler(mock)

	req := httptest.NewRequest("POST", "/stop-speech", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleStopSpeech(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp messageResponse
	decodeResponse(t, w, &resp)
	if !resp.Success || resp.Message != "Speech stopped" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestHandleStopSpeech_Failure(t *testing.T) {
	mock := &mockSpeech{stopResult: false}
	h := NewSpeechHandler(mock)

	req := httptest.NewRequest("POST", "/stop-speech", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleStopSpeech(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
}

func TestHandleConfig_DefaultsMethod(t *testing.T) {
	mock := &mockSpeech{initResult: true}
	h := NewSpeechHandler(mock)

	req := httptest.NewRequest("POST", "/config", strings.NewReader(`{"voice_id": "voice-7"}`))
	w := httptest.NewRecorder()
	h.HandleConfig(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp configResponse
	decodeResponse(t, w, &resp)
	if !resp.Success || resp.Message != "Configuration updated" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if resp.VoiceID != "voice-7" || resp.TTSMethod != "system" {
		t.Errorf("Expected request echo with default method, got %+v", resp)
	}
	if len(mock.initCalls) != 1 || mock.initCalls[0] != (initCall{"voice-7", "system"}) {
		t.Errorf("Unexpected init calls: %+v", mock.initCalls)
	}
}

func TestHandleConfig_ExplicitMethod(t *testing.T) {
	mock := &mockSpeech{initResult: true}
	h := NewSpeechHandler(mock)

	req := httptest.NewRequest("POST", "/config", strings.NewReader(`{"tts_method": "polly"}`))
	w := httptest.NewRecorder()
	h.HandleConfig(w, req)

	var resp configResponse
	decodeResponse(t, w, &resp)
	if resp.TTSMethod != "polly" || resp.VoiceID != "" {
		t.Errorf("Unexpected echo: %+v", resp)
	}
	if len(mock.initCalls) != 1 || mock.initCalls[0] != (initCall{"", "polly"}) {
		t.Errorf("Unexpected init calls: %+v", mock.initCalls)
	}
}

func TestHandleVoices_DefaultMethod(t *testing.T) {
	mock := &mockSpeech{voices: []tts.Voice{}, voicesOK: true}
	h := NewSpeechHandler(mock)

	req := httptest.NewRequest("GET", "/voices", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleVoices(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp voicesResponse
	decodeResponse(t, w, &resp)
	if !resp.Success || resp.TTSMethod != "system" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if len(mock.voicesCalls) != 1 || mock.voicesCalls[0] != "system" {
		t.Errorf("Unexpected voice lookups: %+v", mock.voicesCalls)
	}
}

func TestHandleVoices_WithCatalog(t *testing.T) {
	mock := &mockSpeech{
		voices:   []tts.Voice{{ID: "Joanna", Name: "Joanna"}, {ID: "Matthew", Name: "Matthew"}},
		voicesOK: true,
	}
	h := NewSpeechHandler(mock)

	req := httptest.NewRequest("GET", "/voices?tts_method=polly", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleVoices(w, req)

	var resp voicesResponse
	decodeResponse(t, w, &resp)
	if len(resp.Voices) != 2 || resp.Voices[0].ID != "Joanna" {
		t.Errorf("Unexpected voices: %+v", resp.Voices)
	}
	if resp.TTSMethod != "polly" {
		t.Errorf("Unexpected method echo: %s", resp.TTSMethod)
	}
}

func TestHandleVoices_UnknownMethod(t *testing.T) {
	mock := &mockSpeech{voicesOK: false}
	h := NewSpeechHandler(mock)

	req := httptest.NewRequest("GET", "/voices?tts_method=google", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleVoices(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	var resp messageResponse
	decodeResponse(t, w, &resp)
	if resp.Success || resp.Message != "Unknown TTS method: google" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}
