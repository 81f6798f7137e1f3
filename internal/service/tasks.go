package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"mindfullens/internal/metrics"
)

// Task kinds tracked per session
const (
	TaskAnalysis   = "analysis"
	TaskExtraction = "extraction"
)

// Task is one in-flight unit of background work owned by a session
type Task struct {
	ID      uint64
	Session string
	Kind    string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Done is closed when the task function has returned
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Context is cancelled when the task is superseded, cancelled or the registry closes
func (t *Task) Context() context.Context {
	return t.ctx
}

type taskKey struct {
	session string
	kind    string
}

// TaskRegistry tracks at most one task per (session, kind). A task that has
// been cancelled or replaced is no longer current, and callers must drop its
// result.
type TaskRegistry struct {
	mu     sync.Mutex
	tasks  map[taskKey]*Task
	nextID atomic.Uint64
	wg     sync.WaitGroup

	base   context.Context
	stop   context.CancelFunc
	closed bool
}

// NewTaskRegistry creates an empty registry
func NewTaskRegistry() *TaskRegistry {
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskRegistry{
		tasks: make(map[taskKey]*Task),
		base:  ctx,
		stop:  cancel,
	}
}

// Run starts fn in a goroutine as the current task for (session, kind),
// cancelling any previous one. A positive timeout bounds the task context.
// It returns nil if the registry is closed.
func (r *TaskRegistry) Run(session, kind string, timeout time.Duration, fn func(t *Task)) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}

	key := taskKey{session, kind}
	if prev, ok := r.tasks[key]; ok {
		prev.cancel()
		metrics.RecordTaskCancelled(kind)
	}

	ctx, cancel := context.WithCancel(r.base)
	if timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, timeout)
		inner := cancel
		cancel = func() {
			timeoutCancel()
			inner()
		}
	}

	t := &Task{
		ID:      r.nextID.Add(1),
		Session: session,
		Kind:    kind,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	r.tasks[key] = t

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(t.done)
		defer cancel()
		fn(t)
	}()
	return t
}

// Current returns the in-flight task for (session, kind), or nil
func (r *TaskRegistry) Current(session, kind string) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[taskKey{session, kind}]
}

// IsCurrent reports whether t is still the live task of its slot
func (r *TaskRegistry) IsCurrent(t *Task) bool {
	if t == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[taskKey{t.Session, t.Kind}] == t
}

// Finish releases t's slot if t is still current
func (r *TaskRegistry) Finish(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := taskKey{t.Session, t.Kind}
	if r.tasks[key] == t {
		delete(r.tasks, key)
	}
}

// Cancel stops the task for (session, kind). It reports whether one was running.
func (r *TaskRegistry) Cancel(session, kind string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelLocked(taskKey{session, kind})
}

// CancelTask stops t if it is still current
func (r *TaskRegistry) CancelTask(t *Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := taskKey{t.Session, t.Kind}
	if r.tasks[key] != t {
		return false
	}
	return r.cancelLocked(key)
}

// CancelSession stops every task owned by session and returns how many were stopped
func (r *TaskRegistry) CancelSession(session string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key := range r.tasks {
		if key.session == session && r.cancelLocked(key) {
			n++
		}
	}
	return n
}

func (r *TaskRegistry) cancelLocked(key taskKey) bool {
	t, ok := r.tasks[key]
	if !ok {
		return false
	}
	t.cancel()
	delete(r.tasks, key)
	metrics.RecordTaskCancelled(key.kind)
	return true
}

// Len returns the number of in-flight tasks
func (r *TaskRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Close cancels all tasks and waits for their goroutines to return
func (r *TaskRegistry) Close() {
	r.mu.Lock()
	r.closed = true
	r.tasks = make(map[taskKey]*Task)
	r.mu.Unlock()

	r.stop()
	r.wg.Wait()
}
