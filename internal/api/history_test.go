package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lexiface/pkg/model"
)

// mockHistoryStore matches the interface needed by HistoryHandler.
type mockHistoryStore struct {
	utterances []*model.Utterance
	err        error
	limits     []int
}

func (m *mockHistoryStore) GetRecentUtterances(ctx context.Context, limit int) ([]*model.Utterance, error) {
	m.limits = append(m.limits, limit)
	return m.utterances, m.err
}

func TestHandleHistory_DefaultLimit(t *testing.T) {
	mock := &mockHistoryStore{utterances: []*model.Utterance{
		{ID: "b", Text: "second", Backend: "espeak"},
		{ID: "a", Text: "first", Backend: "face"},
	}}
	h := NewHistoryHandler(mock)

	req := httptest.NewRequest("GET", "/history", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleHistory(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp historyResponse
	decodeResponse(t, w, &resp)
	if !resp.Success || len(resp.Utterances) != 2 {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if resp.Utterances[0].ID != "b" {
		t.Errorf("Expected most recent first, got %+v", resp.Utterances)
	}
	if len(mock.limits) != 1 || mock.limits[0] != 20 {
		t.Errorf("Expected default limit 20, got %+v", mock.limits)
	}
}

func TestHandleHistory_LimitQuery(t *testing.T) {
	mock := &mockHistoryStore{}
	h := NewHistoryHandler(mock)

	req := httptest.NewRequest("GET", "/history?limit=5", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleHistory(w, req)

	if len(mock.limits) != 1 || mock.limits[0] != 5 {
		t.Errorf("Expected limit 5, got %+v", mock.limits)
	}
}

func TestHandleHistory_InvalidLimit(t *testing.T) {
	mock := &mockHistoryStore{}
	h := NewHistoryHandler(mock)

	for _, q := range []string{"limit=abc", "limit=-3", "limit=0"} {
		req := httptest.NewRequest("GET", "/history?"+q, http.NoBody)
		w := httptest.NewRecorder()
		h.HandleHistory(w, req)
	}
	for i, limit := range mock.limits {
		if limit != 20 {
			t.Errorf("Call %d: expected fallback limit 20, got %d", i, limit)
		}
	}
}

func TestHandleHistory_Empty(t *testing.T) {
	mock := &mockHistoryStore{}
	h := NewHistoryHandler(mock)

	req := httptest.NewRequest("GET", "/history", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleHistory(w, req)

	if !strings.Contains(w.Body.String(), `"utterances":[]`) {
		t.Errorf("Expected empty array, got %s", w.Body.String())
	}
}

func TestHandleHistory_StoreError(t *testing.T) {
	mock := &mockHistoryStore{err: errors.New("database is locked")}
	h := NewHistoryHandler(mock)

	req := httptest.NewRequest("GET", "/history", http.NoBody)
	w := httptest.NewRecorder()
	h.HandleHistory(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	var resp messageResponse
	decodeResponse(t, w, &resp)
	if resp.Success || resp.Message != "Failed to load history" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}
