package model

import "time"

// Screen is a step of the Landing -> Analysis -> Results flow
type Screen string

const (
	ScreenLanding  Screen = "landing"
	ScreenAnalysis Screen = "analysis"
	ScreenResults  Screen = "results"
)

// Path returns the client route for a screen
func (s Screen) Path() string {
	switch s {
	case ScreenAnalysis:
		return "/analysis"
	case ScreenResults:
		return "/results"
	default:
		return "/"
	}
}

// Workflow is the typed state of one browser session. It replaces the loose
// pending-text and result slots the screens used to pass between each other.
type Workflow struct {
	SessionID   string            `json:"sessionId"`
	ClientID    string            `json:"clientId"`
	Screen      Screen            `json:"screen"`
	PendingText string            `json:"pendingText,omitempty"`
	Result      *AnalysisResponse `json:"result,omitempty"`
	LastError   string            `json:"lastError,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// NewWorkflow returns a fresh Landing state
func NewWorkflow(sessionID, clientID string) *Workflow {
	return &Workflow{
		SessionID: sessionID,
		ClientID:  clientID,
		Screen:    ScreenLanding,
		UpdatedAt: time.Now(),
	}
}

// HasPendingText is the Analysis screen guard
func (w *Workflow) HasPendingText() bool {
	return w != nil && w.PendingText != ""
}

// HasResult is the Results screen guard
func (w *Workflow) HasResult() bool {
	return w != nil && w.Result != nil
}

// Reset returns the workflow to Landing, dropping pending text and result
func (w *Workflow) Reset() {
	w.Screen = ScreenLanding
	w.PendingText = ""
	w.Result = nil
	w.LastError = ""
	w.UpdatedAt = time.Now()
}

// WorkflowView is what the workflow endpoints return to the client
type WorkflowView struct {
	SessionID string `json:"sessionId"`
	Screen    Screen `json:"screen"`
	Redirect  string `json:"redirect,omitempty"`
	HasResult bool   `json:"hasResult"`
	Analyzing bool   `json:"analyzing"`
	Error     string `json:"error,omitempty"`
}

// SessionRef identifies the session and the durable client behind a request
type SessionRef struct {
	SessionID string
	ClientID  string
}
