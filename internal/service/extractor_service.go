package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mindfullens/internal/apperr"
	"mindfullens/internal/content"
	"mindfullens/internal/logging"
	"mindfullens/internal/metrics"
	"mindfullens/internal/model"
)

// RemoteExtractor parses binary documents on another service
type RemoteExtractor interface {
	Extract(ctx context.Context, upload model.Upload) (string, error)
}

// ExtractorService turns an accepted upload into plain text. Validation
// always runs first; a rejected file never reaches extraction.
type ExtractorService struct {
	remote   RemoteExtractor
	pack     *content.Pack
	latency  time.Duration
	maxBytes int64
	logger   *zap.Logger
}

// NewExtractorService creates the extractor. remote may be nil, in which case
// PDF and DOCX files yield placeholder text after latency.
func NewExtractorService(remote RemoteExtractor, pack *content.Pack, latency time.Duration, maxBytes int64, logger *zap.Logger) *ExtractorService {
	if maxBytes <= 0 {
		maxBytes = model.MaxUploadBytes
	}
	return &ExtractorService{
		remote:   remote,
		pack:     pack,
		latency:  latency,
		maxBytes: maxBytes,
		logger:   logging.OrNop(logger).Named("extractor"),
	}
}

// Validate checks size and format without reading the content
func (s *ExtractorService) Validate(upload model.Upload) (model.FileKind, error) {
	size := upload.Size
	if n := int64(len(upload.Data)); n > size {
		size = n
	}
	if size > s.maxBytes {
		return model.FileKindUnknown, apperr.FileTooLarge(s.maxBytes)
	}
	kind := upload.Kind()
	if kind == model.FileKindUnknown {
		return model.FileKindUnknown, apperr.UnsupportedType(upload.Name)
	}
	return kind, nil
}

// Extract validates the upload and returns its text. Plain text is returned
// byte for byte.
func (s *ExtractorService) Extract(ctx context.Context, upload model.Upload) (string, error) {
	kind, err := s.Validate(upload)
	if err != nil {
		metrics.RecordExtraction(string(kind), "rejected")
		return "", err
	}

	text, err := s.extract(ctx, kind, upload)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			metrics.RecordExtraction(string(kind), "cancelled")
			return "", err
		}
		metrics.RecordExtraction(string(kind), "failed")
		s.logger.Warn("extraction failed", zap.String("file", upload.Name), zap.String("kind", string(kind)), zap.Error(err))
		return "", apperr.ExtractionFailed(err)
	}

	metrics.RecordExtraction(string(kind), "ok")
	s.logger.Debug("extracted text", zap.String("file", upload.Name), zap.Int("chars", len(text)))
	return text, nil
}

func (s *ExtractorService) extract(ctx context.Context, kind model.FileKind, upload model.Upload) (string, error) {
	if kind == model.FileKindText {
		return string(upload.Data), nil
	}
	if s.remote != nil {
		return s.remote.Extract(ctx, upload)
	}
	if err := sleepCtx(ctx, s.latency); err != nil {
		return "", err
	}
	return s.pack.PlaceholderFor(upload.Name), nil
}
