package service

// Event types pushed to a session's WebSocket connections
const (
	EventAnalysisStarted     = "analysis_started"
	EventAnalysisCompleted   = "analysis_completed"
	EventAnalysisFailed      = "analysis_failed"
	EventExtractionCompleted = "extraction_completed"
	EventExtractionFailed    = "extraction_failed"
	EventSessionReset        = "session_reset"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	Publish(sessionID string, msgType string, payload interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(string, string, interface{}) {}
