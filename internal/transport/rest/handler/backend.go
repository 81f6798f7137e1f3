package handler

import (
	"encoding/json"
	"net/http"

	"mindfullens/internal/apperr"
	"mindfullens/internal/model"
	"mindfullens/internal/service"
)

// BackendHandler serves the stateless analysis backend contract
type BackendHandler struct {
	provider  service.AnalysisProvider
	extractor *service.ExtractorService
	maxBytes  int64
}

// NewBackendHandler creates a new backend handler
func NewBackendHandler(provider service.AnalysisProvider, extractor *service.ExtractorService, maxBytes int64) *BackendHandler {
	return &BackendHandler{
		provider:  provider,
		extractor: extractor,
		maxBytes:  maxBytes,
	}
}

// Predict handles POST /predict
// @Summary  Analyze text
// @Tags     backend
// @Accept   json
// @Produce  json
// @Param    body body model.AnalysisRequest true "Text to analyze"
// @Success  200 {object} model.AnalysisResponse
// @Failure  400 {object} errorBody
// @Failure  502 {object} errorBody
// @Router   /predict [post]
func (h *BackendHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req model.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, apperr.Validation("invalid request body", nil))
		return
	}
	if err := service.ValidateRequest(req); err != nil {
		writeAppError(w, err)
		return
	}

	resp, err := h.provider.Analyze(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	resp.Normalize()

	writeJSON(w, http.StatusOK, resp)
}

// Extract handles POST /extract
// @Summary  Extract text from a file
// @Tags     backend
// @Accept   multipart/form-data
// @Produce  json
// @Param    file formData file true "TXT, PDF or DOCX up to 5MB"
// @Success  200 {object} model.ExtractResponse
// @Failure  413 {object} errorBody
// @Failure  415 {object} errorBody
// @Failure  422 {object} errorBody
// @Router   /extract [post]
func (h *BackendHandler) Extract(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r, h.maxBytes)
	if err != nil {
		writeAppError(w, err)
		return
	}

	text, err := h.extractor.Extract(r.Context(), upload)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ExtractResponse{Text: text})
}
