package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"mindfullens/internal/apperr"
	"mindfullens/internal/logging"
	"mindfullens/internal/model"
)

// BackendClient talks to a remote analysis backend exposing POST /predict and
// POST /extract. It is both an AnalysisProvider and a RemoteExtractor.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBackendClient creates a client for baseURL. A zero timeout means none.
func NewBackendClient(baseURL string, timeout time.Duration, logger *zap.Logger) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.OrNop(logger).Named("backend"),
	}
}

func (c *BackendClient) Name() string {
	return "http"
}

// Analyze posts {text} to /predict. Any transport error or non-2xx status is a
// generic analysis failure; there is exactly one attempt.
func (c *BackendClient) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.AnalysisFailed(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var result model.AnalysisResponse
	if err := c.do(httpReq, &result); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("predict request failed", zap.Error(err))
		return nil, apperr.AnalysisFailed(err)
	}
	return &result, nil
}

// Extract uploads the file as multipart field "file" to /extract
func (c *BackendClient) Extract(ctx context.Context, upload model.Upload) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", upload.Name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(upload.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var result model.ExtractResponse
	if err := c.do(httpReq, &result); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Warn("extract request failed", zap.String("file", upload.Name), zap.Error(err))
		return "", err
	}
	return result.Text, nil
}

func (c *BackendClient) do(req *http.Request, out interface{}) error {
	c.logger.Debug("backend request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding backend response: %w", err)
	}
	return nil
}
