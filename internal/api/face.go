package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// faceController is the coordinator subset the face control endpoints use.
type faceController interface {
	SetExpression(name string, durationMs float64) bool
	LookAt(ctx context.Context, x, y, z, durationMs float64) bool
	SetAppearance(ctx context.Context, cfg map[string]any) bool
}

// FaceHandler serves the expression, gaze and appearance endpoints.
type FaceHandler struct {
	ctrl faceController
}

// NewFaceHandler creates the handler.
func NewFaceHandler(ctrl faceController) *FaceHandler {
	return &FaceHandler{ctrl: ctrl}
}

type expressionRequest struct {
	Expression string   `json:"expression"`
	Duration   *float64 `json:"duration"`
}

type lookRequest struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Z        *float64 `json:"z"`
	Duration *float64 `json:"duration"`
}

type appearanceResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Config  map[string]any `json:"config"`
}

// HandleExpression handles POST /expression.
func (h *FaceHandler) HandleExpression(w http.ResponseWriter, r *http.Request) {
	var req expressionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Success: false, Message: "Expression is required"})
		return
	}

	duration := 1000.0
	if req.Duration != nil {
		duration = *req.Duration
	}
	if !h.ctrl.SetExpression(req.Expression, duration) {
		writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "Failed to set expression"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Expression set: " + req.Expression})
}

// HandleLook handles POST /look.
func (h *FaceHandler) HandleLook(w http.ResponseWriter, r *http.Request) {
	var req lookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.X == nil || req.Y == nil || req.Z == nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Success: false, Message: "x, y, and z coordinates are required"})
		return
	}

	duration := 1000.0
	if req.Duration != nil {
		duration = *req.Duration
	}
	if !h.ctrl.LookAt(r.Context(), *req.X, *req.Y, *req.Z, duration) {
		writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "Failed to look at position"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("Looking at (%g, %g, %g)", *req.X, *req.Y, *req.Z),
	})
}

// HandleAppearance handles POST /appearance. The request body is an
// arbitrary key-value map forwarded to the face as-is.
func (h *FaceHandler) HandleAppearance(w http.ResponseWriter, r *http.Request) {
	var cfg map[string]any
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil || len(cfg) == 0 {
		writeJSON(w, http.StatusBadRequest, messageResponse{Success: false, Message: "Appearance configuration is required"})
		return
	}

	if !h.ctrl.SetAppearance(r.Context(), cfg) {
		writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "Failed to update appearance"})
		return
	}
	writeJSON(w, http.StatusOK, appearanceResponse{
		Success: true,
		Message: "Appearance updated",
		Config:  cfg,
	})
}
