package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"mindfullens/internal/model"
)

// memWorkflowStore is an in-memory cache.WorkflowCache that stores JSON like Redis does
type memWorkflowStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemWorkflowStore() *memWorkflowStore {
	return &memWorkflowStore{data: make(map[string][]byte)}
}

func (s *memWorkflowStore) Set(_ context.Context, wf *model.Workflow) error {
	data, err := json.Marshal(wf)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[wf.SessionID] = data
	return nil
}

func (s *memWorkflowStore) Get(_ context.Context, sessionID string) (*model.Workflow, error) {
	s.mu.Lock()
	data, ok := s.data[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var wf model.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, nil
	}
	return &wf, nil
}

func (s *memWorkflowStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// memDraftRepo is an in-memory repository.DraftRepo
type memDraftRepo struct {
	mu     sync.Mutex
	drafts map[string]model.Draft
	saves  int

	// onSave runs before a save is applied, outside the lock
	onSave func(d *model.Draft)
}

func newMemDraftRepo() *memDraftRepo {
	return &memDraftRepo{drafts: make(map[string]model.Draft)}
}

func (r *memDraftRepo) Save(_ context.Context, d *model.Draft) error {
	if r.onSave != nil {
		r.onSave(d)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[d.OwnerID] = *d
	r.saves++
	return nil
}

func (r *memDraftRepo) Get(_ context.Context, ownerID string) (*model.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[ownerID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *memDraftRepo) Delete(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, ownerID)
	return nil
}

func (r *memDraftRepo) text(ownerID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drafts[ownerID].Text
}

func (r *memDraftRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// stubProvider counts calls and delegates to fn
type stubProvider struct {
	calls atomic.Int32
	fn    func(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error)
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	p.calls.Add(1)
	return p.fn(ctx, req)
}

// stubRemote counts remote extraction calls
type stubRemote struct {
	calls atomic.Int32
	fn    func(ctx context.Context, upload model.Upload) (string, error)
}

func (r *stubRemote) Extract(ctx context.Context, upload model.Upload) (string, error) {
	r.calls.Add(1)
	return r.fn(ctx, upload)
}

type event struct {
	session string
	kind    string
	payload interface{}
}

// recordingBroadcaster keeps every published event
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []event
}

func (b *recordingBroadcaster) Publish(sessionID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event{session: sessionID, kind: msgType, payload: payload})
}

func (b *recordingBroadcaster) kinds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.kind)
	}
	return out
}

func (b *recordingBroadcaster) has(kind string) bool {
	for _, k := range b.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
