package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mindfullens/internal/apperr"
	"mindfullens/internal/content"
	"mindfullens/internal/model"
)

type workflowFixture struct {
	svc      *WorkflowService
	store    *memWorkflowStore
	drafts   *memDraftRepo
	provider *stubProvider
	remote   *stubRemote
	events   *recordingBroadcaster
	ref      model.SessionRef
}

func newWorkflowFixture(t *testing.T, fn func(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error)) *workflowFixture {
	t.Helper()
	pack := content.Default()
	f := &workflowFixture{
		store:    newMemWorkflowStore(),
		drafts:   newMemDraftRepo(),
		provider: &stubProvider{fn: fn},
		remote: &stubRemote{fn: func(context.Context, model.Upload) (string, error) {
			return "remote text", nil
		}},
		events: &recordingBroadcaster{},
		ref:    model.SessionRef{SessionID: "sess-1", ClientID: "client-1"},
	}
	draftSvc := NewDraftService(f.drafts, time.Hour, nil)
	f.svc = NewWorkflowService(WorkflowDeps{
		Store:       f.store,
		Provider:    f.provider,
		Extractor:   NewExtractorService(f.remote, pack, 0, model.MaxUploadBytes, nil),
		Drafts:      draftSvc,
		Pack:        pack,
		Broadcaster: f.events,
	})
	t.Cleanup(func() {
		f.svc.Close()
		draftSvc.Close(context.Background())
	})
	_, err := f.svc.Open(context.Background(), f.ref)
	require.NoError(t, err)
	return f
}

func instantMock(_ context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	return NewMockProvider(content.Default(), 0).Build(req.Text), nil
}

func (f *workflowFixture) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.svc.tasks.Current(f.ref.SessionID, TaskAnalysis) == nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSubmitEmptyNeverInvokesProvider(t *testing.T) {
	f := newWorkflowFixture(t, instantMock)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\n"} {
		_, err := f.svc.Submit(ctx, f.ref, text)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}

	assert.Zero(t, f.provider.calls.Load())
	view, err := f.svc.View(ctx, f.ref)
	require.NoError(t, err)
	assert.Equal(t, model.ScreenLanding, view.Screen)
}

func TestSubmitToResults(t *testing.T) {
	f := newWorkflowFixture(t, instantMock)
	ctx := context.Background()

	view, err := f.svc.Submit(ctx, f.ref, "I feel tired and hopeless every day")
	require.NoError(t, err)
	assert.Equal(t, model.ScreenAnalysis, view.Screen)

	f.waitIdle(t)

	result, err := f.svc.Result(ctx, f.ref)
	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Equal(t, model.ScreenResults, result.Screen)
	assert.Empty(t, result.Redirect)

	summary := result.Report.Summary
	assert.Equal(t, 8, summary.Score)
	assert.Equal(t, model.MaxPHQ9Score, summary.MaxScore)
	assert.Equal(t, model.SeverityMild, summary.Severity)
	assert.Equal(t, model.ConfidenceLabel(summary.Confidence), summary.ConfidenceLabel)
	assert.False(t, result.Report.Guidance.Elevated)
	assert.Len(t, result.Report.Patterns, len(model.PatternAreas))
	assert.NotEmpty(t, result.Report.Disclaimer)

	assert.Equal(t, []string{EventAnalysisStarted, EventAnalysisCompleted}, f.events.kinds())
	assert.Equal(t, int32(1), f.provider.calls.Load())
}

func TestResultWithoutAnalysisRedirectsSilently(t *testing.T) {
	f := newWorkflowFixture(t, instantMock)

	result, err := f.svc.Result(context.Background(), model.SessionRef{SessionID: "unknown", ClientID: "c"})
	require.NoError(t, err)
	assert.Nil(t, result.Report)
	assert.Equal(t, model.ScreenLanding, result.Screen)
	assert.Equal(t, "/", result.Redirect)
	assert.Empty(t, result.Error)
}

func TestResumeWithoutPendingTextRedirects(t *testing.T) {
	f := newWorkflowFixture(t, instantMock)

	view, err := f.svc.Resume(context.Background(), f.ref)
	require.NoError(t, err)
	assert.Equal(t, "/", view.Redirect)
	assert.Zero(t, f.provider.calls.Load())
}

func TestResumeJoinsInFlightAnalysis(t *testing.T) {
	release := make(chan struct{})
	f := newWorkflowFixture(t, func(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return instantMock(ctx, req)
	})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.ref, "some words")
	require.NoError(t, err)

	view, err := f.svc.Resume(ctx, f.ref)
	require.NoError(t, err)
	assert.True(t, view.Analyzing)

	close(release)
	f.waitIdle(t)
	assert.Equal(t, int32(1), f.provider.calls.Load())

	view, err = f.svc.Resume(ctx, f.ref)
	require.NoError(t, err)
	assert.Equal(t, "/results", view.Redirect)
}

func TestResumeReissuesAfterLeave(t *testing.T) {
	f := newWorkflowFixture(t, func(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.ref, "some words")
	require.NoError(t, err)
	_, err = f.svc.Leave(ctx, f.ref)
	require.NoError(t, err)

	view, err := f.svc.Resume(ctx, f.ref)
	require.NoError(t, err)
	assert.True(t, view.Analyzing)
	require.Eventually(t, func() bool { return f.provider.calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestLeaveDiscardsLateResult(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	release := make(chan struct{})
	f := newWorkflowFixture(t, func(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
		// Ignores ctx so the result arrives after the session moved on.
		<-release
		return instantMock(ctx, req)
	})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.ref, "I feel tired")
	require.NoError(t, err)
	task := f.svc.tasks.Current(f.ref.SessionID, TaskAnalysis)
	require.NotNil(t, task)

	view, err := f.svc.Leave(ctx, f.ref)
	require.NoError(t, err)
	assert.False(t, view.Analyzing)

	close(release)
	<-task.Done()

	wf, err := f.store.Get(ctx, f.ref.SessionID)
	require.NoError(t, err)
	assert.Nil(t, wf.Result)
	assert.Equal(t, "I feel tired", wf.PendingText)
	assert.False(t, f.events.has(EventAnalysisCompleted))

	f.svc.Close()
}

func TestStartOverCancelsAndClears(t *testing.T) {
	f := newWorkflowFixture(t, func(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx := context.Background()
	require.NoError(t, f.drafts.Save(ctx, &model.Draft{OwnerID: f.ref.ClientID, Text: "draft"}))

	_, err := f.svc.Submit(ctx, f.ref, "some words")
	require.NoError(t, err)
	task := f.svc.tasks.Current(f.ref.SessionID, TaskAnalysis)
	require.NotNil(t, task)

	view, err := f.svc.StartOver(ctx, f.ref)
	require.NoError(t, err)
	<-task.Done()

	assert.Equal(t, model.ScreenLanding, view.Screen)
	assert.False(t, view.HasResult)
	assert.Empty(t, f.drafts.text(f.ref.ClientID))
	assert.True(t, f.events.has(EventSessionReset))

	wf, err := f.store.Get(ctx, f.ref.SessionID)
	require.NoError(t, err)
	assert.Empty(t, wf.PendingText)
}

func TestAnalysisFailureReturnsToLanding(t *testing.T) {
	f := newWorkflowFixture(t, func(context.Context, model.AnalysisRequest) (*model.AnalysisResponse, error) {
		return nil, apperr.AnalysisFailed(errors.New("backend returned 503"))
	})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.ref, "some words")
	require.NoError(t, err)
	f.waitIdle(t)

	view, err := f.svc.View(ctx, f.ref)
	require.NoError(t, err)
	assert.Equal(t, model.ScreenLanding, view.Screen)
	assert.Equal(t, "We couldn't complete the analysis. Please try again.", view.Error)
	assert.True(t, f.events.has(EventAnalysisFailed))
	assert.Equal(t, int32(1), f.provider.calls.Load(), "no retry")

	resumed, err := f.svc.Resume(ctx, f.ref)
	require.NoError(t, err)
	assert.Equal(t, "/", resumed.Redirect)
}

func TestUploadTooLargeNeverExtracts(t *testing.T) {
	f := newWorkflowFixture(t, instantMock)

	_, err := f.svc.Upload(context.Background(), f.ref, model.Upload{
		Name:        "big.pdf",
		ContentType: model.MimePDF,
		Size:        model.MaxUploadBytes + 1,
	})
	require.ErrorIs(t, err, apperr.ErrFileTooLarge)
	assert.Zero(t, f.remote.calls.Load())
	assert.True(t, f.events.has(EventExtractionFailed))
}

func TestUploadStoresDraft(t *testing.T) {
	f := newWorkflowFixture(t, instantMock)
	raw := "Dear diary,\nToday was long.\n"

	resp, err := f.svc.Upload(context.Background(), f.ref, model.Upload{
		Name: "diary.txt",
		Size: int64(len(raw)),
		Data: []byte(raw),
	})
	require.NoError(t, err)
	assert.Equal(t, raw, resp.Text)
	assert.Equal(t, "diary.txt", resp.FileName)
	assert.Equal(t, raw, f.drafts.text(f.ref.ClientID))
	assert.True(t, f.events.has(EventExtractionCompleted))
}

func TestUploadCancelledByCaller(t *testing.T) {
	f := newWorkflowFixture(t, instantMock)
	f.remote.fn = func(ctx context.Context, _ model.Upload) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.svc.Upload(ctx, f.ref, model.Upload{Name: "a.pdf", Size: 4, Data: []byte("%PDF")})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Eventually(t, func() bool {
		return f.svc.tasks.Current(f.ref.SessionID, TaskExtraction) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestSubmitFlushesDraft(t *testing.T) {
	f := newWorkflowFixture(t, instantMock)
	ctx := context.Background()

	f.svc.TouchDraft(f.ref, "half written")
	_, err := f.svc.Submit(ctx, f.ref, "half written thought")
	require.NoError(t, err)
	assert.Equal(t, "half written", f.drafts.text(f.ref.ClientID))

	d, err := f.svc.Draft(ctx, f.ref)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.Text, "half"))
}

func TestUploadSupersedesPendingTouch(t *testing.T) {
	f := newWorkflowFixture(t, instantMock)
	ctx := context.Background()

	f.svc.TouchDraft(f.ref, "old typed text")
	_, err := f.svc.Upload(ctx, f.ref, model.Upload{Name: "a.txt", Size: 18, Data: []byte("uploaded file text")})
	require.NoError(t, err)

	d, err := f.svc.Draft(ctx, f.ref)
	require.NoError(t, err)
	assert.Equal(t, "uploaded file text", d.Text)

	require.NoError(t, f.svc.drafts.Close(ctx))
	assert.Equal(t, "uploaded file text", f.drafts.text(f.ref.ClientID))
}
