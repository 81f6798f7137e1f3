package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindfullens/internal/logging"
	"mindfullens/internal/metrics"
	"mindfullens/internal/model"
	"mindfullens/internal/repository"
)

const draftWriteTimeout = 5 * time.Second

type pendingDraft struct {
	text  string
	timer *time.Timer
}

// DraftService auto-saves input text. Touch restarts a per-owner timer; the
// text is written once the owner has been idle for the debounce interval.
// Writes of one owner hold that owner's lock from the pending check to the
// store call, so a save or discard always supersedes an older timer.
type DraftService struct {
	repo     repository.DraftRepo
	debounce time.Duration
	logger   *zap.Logger
	owners   *sessionLocks

	mu      sync.Mutex
	pending map[string]*pendingDraft
	closed  bool
	wg      sync.WaitGroup
}

// NewDraftService creates a new draft service
func NewDraftService(repo repository.DraftRepo, debounce time.Duration, logger *zap.Logger) *DraftService {
	return &DraftService{
		repo:     repo,
		debounce: debounce,
		logger:   logging.OrNop(logger).Named("drafts"),
		owners:   newSessionLocks(),
		pending:  make(map[string]*pendingDraft),
	}
}

// Touch records a keystroke-level change. Empty text cancels the pending save
// and leaves the stored draft alone.
func (s *DraftService) Touch(ownerID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.stopLocked(ownerID)
	if text == "" {
		return
	}

	p := &pendingDraft{text: text}
	s.wg.Add(1)
	p.timer = time.AfterFunc(s.debounce, func() {
		defer s.wg.Done()
		s.fire(ownerID, p)
	})
	s.pending[ownerID] = p
}

func (s *DraftService) fire(ownerID string, p *pendingDraft) {
	unlock := s.owners.lock(ownerID)
	defer unlock()

	s.mu.Lock()
	if s.pending[ownerID] != p {
		s.mu.Unlock()
		return
	}
	delete(s.pending, ownerID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), draftWriteTimeout)
	defer cancel()
	if err := s.write(ctx, ownerID, p.text); err != nil {
		s.logger.Warn("auto-save failed", zap.String("owner", ownerID), zap.Error(err))
	}
}

// stopLocked drops the pending save of ownerID and returns its text
func (s *DraftService) stopLocked(ownerID string) (string, bool) {
	p, ok := s.pending[ownerID]
	if !ok {
		return "", false
	}
	delete(s.pending, ownerID)
	if p.timer.Stop() {
		s.wg.Done()
	}
	return p.text, true
}

// Save writes text immediately and drops any pending auto-save of the owner
func (s *DraftService) Save(ctx context.Context, ownerID, text string) error {
	if text == "" {
		return nil
	}
	unlock := s.owners.lock(ownerID)
	defer unlock()

	s.mu.Lock()
	s.stopLocked(ownerID)
	s.mu.Unlock()
	return s.write(ctx, ownerID, text)
}

func (s *DraftService) write(ctx context.Context, ownerID, text string) error {
	err := s.repo.Save(ctx, &model.Draft{
		OwnerID:   ownerID,
		Text:      text,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	metrics.RecordDraftSaved()
	return nil
}

// Flush persists the pending draft of ownerID without waiting for the timer
func (s *DraftService) Flush(ctx context.Context, ownerID string) error {
	unlock := s.owners.lock(ownerID)
	defer unlock()

	s.mu.Lock()
	text, ok := s.stopLocked(ownerID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.write(ctx, ownerID, text)
}

// Load returns the latest draft text; a pending value wins over the stored one
func (s *DraftService) Load(ctx context.Context, ownerID string) (*model.Draft, error) {
	s.mu.Lock()
	p, ok := s.pending[ownerID]
	var text string
	if ok {
		text = p.text
	}
	s.mu.Unlock()
	if ok {
		return &model.Draft{OwnerID: ownerID, Text: text, UpdatedAt: time.Now().UTC()}, nil
	}

	draft, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return &model.Draft{OwnerID: ownerID}, nil
	}
	return draft, nil
}

// Discard removes both the pending and the stored draft
func (s *DraftService) Discard(ctx context.Context, ownerID string) error {
	unlock := s.owners.lock(ownerID)
	defer unlock()

	s.mu.Lock()
	s.stopLocked(ownerID)
	s.mu.Unlock()
	return s.repo.Delete(ctx, ownerID)
}

// Close flushes every pending draft and waits for running saves
func (s *DraftService) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	flush := make(map[string]string, len(s.pending))
	for owner := range s.pending {
		if text, ok := s.stopLocked(owner); ok {
			flush[owner] = text
		}
	}
	s.mu.Unlock()

	var firstErr error
	for owner, text := range flush {
		unlock := s.owners.lock(owner)
		err := s.write(ctx, owner, text)
		unlock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.wg.Wait()
	return firstErr
}
