package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"mindfullens/internal/apperr"
	"mindfullens/internal/model"
	"mindfullens/internal/service"
	"mindfullens/internal/transport/rest/middleware"
)

// SessionHandler handles the Landing -> Analysis -> Results workflow endpoints
type SessionHandler struct {
	workflowSvc *service.WorkflowService
	maxBytes    int64
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(workflowSvc *service.WorkflowService, maxBytes int64) *SessionHandler {
	return &SessionHandler{
		workflowSvc: workflowSvc,
		maxBytes:    maxBytes,
	}
}

// Get handles GET /v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.workflowSvc.View(r.Context(), middleware.GetSessionRef(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Submit handles POST /v1/session/submit
// @Summary  Submit text for analysis
// @Tags     session
// @Accept   json
// @Produce  json
// @Param    body body model.AnalysisRequest true "Text to analyze"
// @Success  202 {object} model.WorkflowView
// @Failure  400 {object} errorBody
// @Router   /v1/session/submit [post]
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, apperr.Validation("invalid request body", nil))
		return
	}

	view, err := h.workflowSvc.Submit(r.Context(), middleware.GetSessionRef(r.Context()), req.Text)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

// Resume handles POST /v1/session/analysis
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	view, err := h.workflowSvc.Resume(r.Context(), middleware.GetSessionRef(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Result handles GET /v1/session/result
// @Summary  Report of the last analysis
// @Tags     session
// @Produce  json
// @Success  200 {object} model.ResultView
// @Router   /v1/session/result [get]
func (h *SessionHandler) Result(w http.ResponseWriter, r *http.Request) {
	view, err := h.workflowSvc.Result(r.Context(), middleware.GetSessionRef(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Upload handles POST /v1/session/upload
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r, h.maxBytes)
	if err != nil {
		writeAppError(w, err)
		return
	}

	resp, err := h.workflowSvc.Upload(r.Context(), middleware.GetSessionRef(r.Context()), upload)
	if errors.Is(err, context.Canceled) {
		writeError(w, http.StatusConflict, "upload was cancelled")
		return
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveDraft handles PUT /v1/session/draft
func (h *SessionHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req model.DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, apperr.Validation("invalid request body", nil))
		return
	}

	h.workflowSvc.TouchDraft(middleware.GetSessionRef(r.Context()), req.Text)
	w.WriteHeader(http.StatusNoContent)
}

// GetDraft handles GET /v1/session/draft
func (h *SessionHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.workflowSvc.Draft(r.Context(), middleware.GetSessionRef(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// Leave handles POST /v1/session/leave
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	view, err := h.workflowSvc.Leave(r.Context(), middleware.GetSessionRef(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// StartOver handles DELETE /v1/session
func (h *SessionHandler) StartOver(w http.ResponseWriter, r *http.Request) {
	view, err := h.workflowSvc.StartOver(r.Context(), middleware.GetSessionRef(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
