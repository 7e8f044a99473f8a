package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lexiface/pkg/coordinator"
)

type initCall struct {
	voiceID string
	method  string
}

// mockLifecycle matches the interface needed by LifecycleHandler.
type mockLifecycle struct {
	startResult bool
	startCalls  int
	stopCalls   int
	initResult  bool
	initCalls   []initCall
	status      coordinator.Status
	faceURL     string
}

func (m *mockLifecycle) StartServer(ctx context.Context) bool {
	m.startCalls++
	return m.startResult
}

func (m *mockLifecycle) StopServer(ctx context.Context) { m.stopCalls++ }

func (m *mockLifecycle) InitializeFace(ctx context.Context, voiceID, ttsMethod string) bool {
	m.initCalls = append(m.initCalls, initCall{voiceID, ttsMethod})
	return m.initResult
}

func (m *mockLifecycle) Status() coordinator.Status { return m.status }

func (m *mockLifecycle) FaceURL() string { return m.faceURL }

func TestHandleStart_Success(t *testing.T) {
	mock := &mockLifecycle{startResult: true, initResult: true, faceURL: "http://localhost:8000/face/LEXI"}
	h := NewLifecycleHandler(mock, 0)

	req := httptest.NewRequest("POST", "/start", strings.NewReader(`{"voice_id": "voice-7", "tts_method": "polly"}`))
	w := httptest.NewRecorder()
	h.HandleStart(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp startResponse
	decodeResponse(t, w, &resp)
	if !resp.Success || resp.Message != "Face server started" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if !resp.FaceInitialized {
		t.Error("Expected face_initialized true")
	}
	if resp.FaceURL != "http://localhost:8000/face/LEXI" {
		t.Errorf("Unexpected face_url: %s", resp.FaceURL)
	}
	if len(mock.initCalls) != 1 || mock.initCalls[0] != (initCall{"voice-7", "polly"}) {
		t.Errorf("Unexpected init calls: %+v", mock.initCalls)
	}
}

func TestHandleStart_ServerFailure(t *testing.T) {
	mock := &mockLifecycle{startResult: false}
	h := NewLifecycleHandler(mock, 0)

	req := httptest.NewRequest("POST", "/start", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleStart(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	var resp startResponse
	decodeResponse(t, w, &resp)
	if resp.Success || resp.Message != "Failed to start face server" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if len(mock.initCalls) != 0 {
		t.Error("Initialization should not run when the server fails to start")
	}
}

func TestHandleStart_EmptyBody(t *testing.T) {
	mock := &mockLifecycle{startResult: true, initResult: true}
	h := NewLifecycleHandler(mock, 0)

	req := httptest.NewRequest("POST", "/start", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleStart(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for empty body, got %d", w.Code)
	}
	if len(mock.initCalls) != 1 || mock.initCalls[0] != (initCall{"", ""}) {
		t.Errorf("Unexpected init calls: %+v", mock.initCalls)
	}
}

func TestHandleStart_MalformedBody(t *testing.T) {
	mock := &mockLifecycle{startResult: true}
	h := NewLifecycleHandler(mock, 0)

	req := httptest.NewRequest("POST", "/start", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.HandleStart(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if mock.startCalls != 0 {
		t.Error("Server should not start on malformed body")
	}
}

func TestHandleStop(t *testing.T) {
	mock := &mockLifecycle{}
	h := NewLifecycleHandler(mock, 0)

	req := httptest.NewRequest("POST", "/stop", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleStop(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp messageResponse
	decodeResponse(t, w, &resp)
	if !resp.Success || resp.Message != "Face server stopped" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if mock.stopCalls != 1 {
		t.Errorf("Expected 1 stop call, got %d", mock.stopCalls)
	}
}

func TestHandleStatus(t *testing.T) {
	mock := &mockLifecycle{status: coordinator.Status{
		ServerRunning:   true,
		FaceInitialized: false,
		VoiceID:         "voice-7",
		TTSMethod:       "system",
	}}
	h := NewLifecycleHandler(mock, 0)

	req := httptest.NewRequest("GET", "/status", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleStatus(w, req)

	var resp statusResponse
	decodeResponse(t, w, &resp)
	if !resp.FaceServerRunning || resp.FaceInitialized {
		t.Errorf("Unexpected flags: %+v", resp)
	}
	if resp.CurrentVoiceID != "voice-7" || resp.TTSMethod != "system" {
		t.Errorf("Unexpected configuration: %+v", resp)
	}
}

func TestHandleHealth(t *testing.T) {
	cases := []struct {
		name    string
		running bool
		face    bool
		want    string
	}{
		{"RunningWithFace", true, true, "healthy"},
		{"RunningWithoutFace", true, false, "unavailable"},
		{"Stopped", false, false, "unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockLifecycle{status: coordinator.Status{
				ServerRunning:   tc.running,
				FaceInitialized: tc.face,
			}}
			h := NewLifecycleHandler(mock, 0)

			req := httptest.NewRequest("GET", "/health", http.NoBody)
			w := httptest.NewRecorder()
			h.HandleHealth(w, req)

			var resp healthResponse
			decodeResponse(t, w, &resp)
			if resp.Status != tc.want {
				t.Errorf("Expected status %q, got %q", tc.want, resp.Status)
			}
			if resp.FaceServerRunning != tc.running || resp.FaceInitialized != tc.face {
				t.Errorf("Unexpected flags: %+v", resp)
			}
		})
	}
}
