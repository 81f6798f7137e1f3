package service

import (
	"context"
	"strings"
	"time"

	"mindfullens/internal/apperr"
	"mindfullens/internal/model"
)

// AnalysisProvider turns submitted text into an emotional-pattern report.
// Implementations make a single attempt; failures are terminal for the submission.
type AnalysisProvider interface {
	Name() string
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error)
}

// ValidateRequest is the guard every entry point applies before a provider is called
func ValidateRequest(req model.AnalysisRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return apperr.Validation("text is required", map[string]string{"text": "must not be empty"})
	}
	return nil
}

// sleepCtx waits for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
