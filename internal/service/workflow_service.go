package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindfullens/internal/apperr"
	"mindfullens/internal/cache"
	"mindfullens/internal/content"
	"mindfullens/internal/logging"
	"mindfullens/internal/metrics"
	"mindfullens/internal/model"
)

const storeTimeout = 5 * time.Second

// WorkflowService drives the Landing -> Analysis -> Results flow of a session.
// Writes to one session are serialised; background analysis and extraction
// run as registry tasks whose results are dropped once they stop being current.
type WorkflowService struct {
	store       cache.WorkflowCache
	provider    AnalysisProvider
	extractor   *ExtractorService
	drafts      *DraftService
	tasks       *TaskRegistry
	pack        *content.Pack
	broadcaster Broadcaster
	timeout     time.Duration
	locks       *sessionLocks
	logger      *zap.Logger
}

// WorkflowDeps groups the collaborators of a WorkflowService
type WorkflowDeps struct {
	Store       cache.WorkflowCache
	Provider    AnalysisProvider
	Extractor   *ExtractorService
	Drafts      *DraftService
	Tasks       *TaskRegistry
	Pack        *content.Pack
	Broadcaster Broadcaster
	// Timeout bounds one analysis task. Zero means none.
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(deps WorkflowDeps) *WorkflowService {
	if deps.Tasks == nil {
		deps.Tasks = NewTaskRegistry()
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = nopBroadcaster{}
	}
	return &WorkflowService{
		store:       deps.Store,
		provider:    deps.Provider,
		extractor:   deps.Extractor,
		drafts:      deps.Drafts,
		tasks:       deps.Tasks,
		pack:        deps.Pack,
		broadcaster: deps.Broadcaster,
		timeout:     deps.Timeout,
		locks:       newSessionLocks(),
		logger:      logging.OrNop(deps.Logger).Named("workflow"),
	}
}

// Open stores a fresh Landing state for a newly issued session
func (s *WorkflowService) Open(ctx context.Context, ref model.SessionRef) (*model.WorkflowView, error) {
	wf := model.NewWorkflow(ref.SessionID, ref.ClientID)
	if err := s.store.Set(ctx, wf); err != nil {
		return nil, err
	}
	metrics.RecordSessionStarted()
	s.logger.Info("session opened", zap.String("session", ref.SessionID))
	return s.view(wf), nil
}

// View returns the current state of the session
func (s *WorkflowService) View(ctx context.Context, ref model.SessionRef) (*model.WorkflowView, error) {
	wf, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.view(wf), nil
}

// Submit stores the text as pending and starts its analysis. Empty or
// whitespace-only text is rejected before any state changes.
func (s *WorkflowService) Submit(ctx context.Context, ref model.SessionRef, text string) (*model.WorkflowView, error) {
	if err := ValidateRequest(model.AnalysisRequest{Text: text}); err != nil {
		return nil, err
	}

	if err := s.drafts.Flush(ctx, ref.ClientID); err != nil {
		s.logger.Warn("flushing draft on submit", zap.String("session", ref.SessionID), zap.Error(err))
	}

	unlock := s.locks.lock(ref.SessionID)
	defer unlock()

	s.tasks.Cancel(ref.SessionID, TaskAnalysis)

	wf, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	wf.Reset()
	wf.Screen = model.ScreenAnalysis
	wf.PendingText = text
	if err := s.store.Set(ctx, wf); err != nil {
		return nil, err
	}

	s.startAnalysis(ref, text)
	return s.view(wf), nil
}

// Resume is called when the Analysis screen mounts. Without pending text the
// client goes back to Landing; an in-flight analysis is joined rather than
// issued twice.
func (s *WorkflowService) Resume(ctx context.Context, ref model.SessionRef) (*model.WorkflowView, error) {
	unlock := s.locks.lock(ref.SessionID)
	defer unlock()

	wf, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	if wf.Screen == model.ScreenResults && wf.HasResult() {
		v := s.view(wf)
		v.Redirect = model.ScreenResults.Path()
		return v, nil
	}
	if !wf.HasPendingText() {
		v := s.view(wf)
		v.Screen = model.ScreenLanding
		v.Redirect = model.ScreenLanding.Path()
		return v, nil
	}

	if s.tasks.Current(ref.SessionID, TaskAnalysis) == nil {
		wf.Screen = model.ScreenAnalysis
		wf.LastError = ""
		if err := s.store.Set(ctx, wf); err != nil {
			return nil, err
		}
		s.startAnalysis(ref, wf.PendingText)
	}
	return s.view(wf), nil
}

// Result returns the report view, or a silent redirect to Landing when the
// session holds no usable result.
func (s *WorkflowService) Result(ctx context.Context, ref model.SessionRef) (*model.ResultView, error) {
	wf, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !wf.HasResult() {
		v := s.view(wf)
		v.Screen = model.ScreenLanding
		v.Redirect = model.ScreenLanding.Path()
		return &model.ResultView{WorkflowView: *v}, nil
	}

	return &model.ResultView{
		WorkflowView: *s.view(wf),
		Report:       BuildReport(wf.Result, s.pack),
	}, nil
}

// StartOver cancels in-flight work, clears the workflow and the draft
func (s *WorkflowService) StartOver(ctx context.Context, ref model.SessionRef) (*model.WorkflowView, error) {
	unlock := s.locks.lock(ref.SessionID)
	defer unlock()

	s.tasks.CancelSession(ref.SessionID)

	wf := model.NewWorkflow(ref.SessionID, ref.ClientID)
	if err := s.store.Set(ctx, wf); err != nil {
		return nil, err
	}
	if err := s.drafts.Discard(ctx, ref.ClientID); err != nil {
		s.logger.Warn("discarding draft", zap.String("session", ref.SessionID), zap.Error(err))
	}

	v := s.view(wf)
	s.broadcaster.Publish(ref.SessionID, EventSessionReset, v)
	return v, nil
}

// Leave cancels the session's in-flight tasks. Pending text is kept so a
// later Resume can re-issue the analysis.
func (s *WorkflowService) Leave(ctx context.Context, ref model.SessionRef) (*model.WorkflowView, error) {
	unlock := s.locks.lock(ref.SessionID)
	defer unlock()

	if n := s.tasks.CancelSession(ref.SessionID); n > 0 {
		s.logger.Debug("cancelled tasks on leave", zap.String("session", ref.SessionID), zap.Int("tasks", n))
	}

	wf, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.view(wf), nil
}

// Upload validates and extracts a file within the session. The extracted text
// is stored as the draft. A superseded or cancelled extraction returns
// context.Canceled and its text is never used.
func (s *WorkflowService) Upload(ctx context.Context, ref model.SessionRef, upload model.Upload) (*model.UploadResponse, error) {
	if _, err := s.extractor.Validate(upload); err != nil {
		metrics.RecordExtraction(string(upload.Kind()), "rejected")
		s.publishExtractionFailed(ref.SessionID, upload.Name, err)
		return nil, err
	}

	type outcome struct {
		text string
		err  error
	}
	results := make(chan outcome, 1)

	task := s.tasks.Run(ref.SessionID, TaskExtraction, 0, func(t *Task) {
		text, err := s.extractor.Extract(t.Context(), upload)
		results <- outcome{text: text, err: err}
	})
	if task == nil {
		return nil, apperr.Internal(apperr.ErrInternal)
	}

	var out outcome
	select {
	case <-ctx.Done():
		s.tasks.CancelTask(task)
		return nil, ctx.Err()
	case out = <-results:
	}

	unlock := s.locks.lock(ref.SessionID)
	current := s.tasks.IsCurrent(task)
	s.tasks.Finish(task)
	unlock()

	if !current {
		return nil, context.Canceled
	}
	if out.err != nil {
		s.publishExtractionFailed(ref.SessionID, upload.Name, out.err)
		return nil, out.err
	}

	if err := s.drafts.Save(ctx, ref.ClientID, out.text); err != nil {
		s.logger.Warn("saving extracted text as draft", zap.String("session", ref.SessionID), zap.Error(err))
	}

	resp := &model.UploadResponse{
		FileName: upload.Name,
		Size:     upload.Size,
		Text:     out.text,
	}
	s.broadcaster.Publish(ref.SessionID, EventExtractionCompleted, map[string]interface{}{
		"fileName": resp.FileName,
		"size":     resp.Size,
	})
	return resp, nil
}

// TouchDraft schedules an auto-save of the Landing text
func (s *WorkflowService) TouchDraft(ref model.SessionRef, text string) {
	s.drafts.Touch(ref.ClientID, text)
}

// Draft returns the latest draft of the session's client
func (s *WorkflowService) Draft(ctx context.Context, ref model.SessionRef) (*model.Draft, error) {
	return s.drafts.Load(ctx, ref.ClientID)
}

// Close cancels all tasks and waits for them to return
func (s *WorkflowService) Close() {
	s.tasks.Close()
}

func (s *WorkflowService) startAnalysis(ref model.SessionRef, text string) {
	task := s.tasks.Run(ref.SessionID, TaskAnalysis, s.timeout, func(t *Task) {
		s.runAnalysis(t, ref, text)
	})
	if task == nil {
		return
	}
	s.broadcaster.Publish(ref.SessionID, EventAnalysisStarted, map[string]interface{}{
		"sessionId": ref.SessionID,
	})
}

func (s *WorkflowService) runAnalysis(t *Task, ref model.SessionRef, text string) {
	start := time.Now()
	resp, err := s.provider.Analyze(t.Context(), model.AnalysisRequest{Text: text})
	elapsed := time.Since(start)

	unlock := s.locks.lock(ref.SessionID)
	defer unlock()

	if !s.tasks.IsCurrent(t) {
		metrics.RecordAnalysis(s.provider.Name(), "discarded", elapsed)
		s.logger.Debug("discarding late analysis result", zap.String("session", ref.SessionID), zap.Uint64("task", t.ID))
		return
	}
	defer s.tasks.Finish(t)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	wf, loadErr := s.load(ctx, ref)
	if loadErr != nil {
		s.logger.Error("loading workflow after analysis", zap.String("session", ref.SessionID), zap.Error(loadErr))
		return
	}
	if wf.Screen != model.ScreenAnalysis || wf.PendingText != text {
		metrics.RecordAnalysis(s.provider.Name(), "discarded", elapsed)
		return
	}

	if err != nil {
		metrics.RecordAnalysis(s.provider.Name(), "failed", elapsed)
		s.logger.Warn("analysis failed", zap.String("session", ref.SessionID), zap.String("provider", s.provider.Name()), zap.Error(err))

		wf.Reset()
		wf.LastError = apperr.AnalysisFailed(err).Message
		if err := s.store.Set(ctx, wf); err != nil {
			s.logger.Error("storing failed workflow", zap.String("session", ref.SessionID), zap.Error(err))
		}
		v := s.view(wf)
		v.Analyzing = false
		v.Redirect = model.ScreenLanding.Path()
		s.broadcaster.Publish(ref.SessionID, EventAnalysisFailed, v)
		return
	}

	resp.Normalize()
	wf.Result = resp
	wf.Screen = model.ScreenResults
	wf.LastError = ""
	wf.UpdatedAt = time.Now()
	if err := s.store.Set(ctx, wf); err != nil {
		s.logger.Error("storing analysis result", zap.String("session", ref.SessionID), zap.Error(err))
		return
	}

	metrics.RecordAnalysis(s.provider.Name(), "ok", elapsed)
	metrics.RecordSeverity(string(resp.Severity))
	s.logger.Info("analysis completed",
		zap.String("session", ref.SessionID),
		zap.Int("score", resp.PHQ9Score),
		zap.String("severity", string(resp.Severity)),
		zap.Duration("elapsed", elapsed),
	)

	v := s.view(wf)
	v.Analyzing = false
	v.Redirect = model.ScreenResults.Path()
	s.broadcaster.Publish(ref.SessionID, EventAnalysisCompleted, v)
}

func (s *WorkflowService) publishExtractionFailed(sessionID, fileName string, err error) {
	s.broadcaster.Publish(sessionID, EventExtractionFailed, map[string]interface{}{
		"fileName": fileName,
		"message":  apperr.From(err).Message,
	})
}

// load returns the stored workflow or a fresh Landing state when it is
// missing or unreadable.
func (s *WorkflowService) load(ctx context.Context, ref model.SessionRef) (*model.Workflow, error) {
	wf, err := s.store.Get(ctx, ref.SessionID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return model.NewWorkflow(ref.SessionID, ref.ClientID), nil
	}
	return wf, nil
}

func (s *WorkflowService) view(wf *model.Workflow) *model.WorkflowView {
	return &model.WorkflowView{
		SessionID: wf.SessionID,
		Screen:    wf.Screen,
		HasResult: wf.HasResult(),
		Analyzing: s.tasks.Current(wf.SessionID, TaskAnalysis) != nil,
		Error:     wf.LastError,
	}
}

// sessionLocks hands out one mutex per key (session or owner) and frees it when unused
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(sessionID string) func() {
	l.mu.Lock()
	sl, ok := l.locks[sessionID]
	if !ok {
		sl = &sessionLock{}
		l.locks[sessionID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}
