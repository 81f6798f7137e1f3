package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"mindfullens/internal/apperr"
	"mindfullens/internal/model"
	"mindfullens/internal/service"
)

// AuthHandler opens browser sessions
type AuthHandler struct {
	authSvc     *service.AuthService
	workflowSvc *service.WorkflowService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, workflowSvc *service.WorkflowService) *AuthHandler {
	return &AuthHandler{
		authSvc:     authSvc,
		workflowSvc: workflowSvc,
	}
}

// StartSession handles POST /v1/sessions
// @Summary  Open a session
// @Tags     session
// @Accept   json
// @Produce  json
// @Param    body body model.StartSessionRequest false "Returning client id"
// @Success  201 {object} model.StartSessionResponse
// @Router   /v1/sessions [post]
func (h *AuthHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req model.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeAppError(w, apperr.Validation("invalid request body", nil))
		return
	}

	resp, err := h.authSvc.IssueSession(req.ClientID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	ref := model.SessionRef{SessionID: resp.SessionID, ClientID: resp.ClientID}
	if _, err := h.workflowSvc.Open(r.Context(), ref); err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// NotFound answers unknown routes with a NOT_FOUND error body
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeAppError(w, apperr.NotFound("route "+r.URL.Path))
}

// errorBody is the JSON shape of every AppError response
type errorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

func writeAppError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("code", appErr.Code), zap.Error(err))
	}
	writeJSON(w, appErr.HTTPStatus, errorBody{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}
