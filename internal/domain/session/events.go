package session

import "time"

// Level of an event
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is a notification for the UI
type Event struct {
	SessionID string    `json:"session_id"`
	Type      string    `json:"type"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Path      string    `json:"path,omitempty"`
	Time      time.Time `json:"time"`
}

// Notifier receives session events
type Notifier interface {
	Publish(Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Event)

// Publish calls f
func (f NotifierFunc) Publish(e Event) {
	f(e)
}

// Recorder receives operation metrics
type Recorder interface {
	RecordOperation(op string, d time.Duration, err error)
	RecordTransfer(op string, files, dirs, failures int, bytes int64)
}

type nopNotifier struct{}

func (nopNotifier) Publish(Event) {}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, time.Duration, error) {}
func (nopRecorder) RecordTransfer(string, int, int, int, int64) {}
