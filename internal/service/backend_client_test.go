package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindfullens/internal/apperr"
	"mindfullens/internal/content"
	"mindfullens/internal/model"
)

func TestBackendClientPredict(t *testing.T) {
	want := NewMockProvider(content.Default(), 0).Build("I feel tired and hopeless every day")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req model.AnalysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "I feel tired and hopeless every day", req.Text)

		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL+"/", 0, nil)
	got, err := c.Analyze(context.Background(), model.AnalysisRequest{Text: "I feel tired and hopeless every day"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBackendClientSingleAttemptOnFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL, 0, nil)
	_, err := c.Analyze(context.Background(), model.AnalysisRequest{Text: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrAnalysisFailed)
	assert.Equal(t, "ANALYSIS_FAILED", apperr.From(err).Code)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBackendClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewBackendClient(url, time.Second, nil)
	_, err := c.Analyze(context.Background(), model.AnalysisRequest{Text: "hello"})
	assert.ErrorIs(t, err, apperr.ErrAnalysisFailed)
}

func TestBackendClientEmptyTextNeverCalls(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL, 0, nil)
	_, err := c.Analyze(context.Background(), model.AnalysisRequest{Text: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, hits.Load())
}

func TestBackendClientExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "journal.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4", string(data))
		json.NewEncoder(w).Encode(model.ExtractResponse{Text: "parsed text"})
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL, 0, nil)
	text, err := c.Extract(context.Background(), model.Upload{Name: "journal.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	assert.Equal(t, "parsed text", text)
}
