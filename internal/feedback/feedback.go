package feedback

import (
	"encoding/json"

	"velocity/internal/logger"

	"github.com/getsentry/sentry-go"
)

const LiveKey = "live"

type Broadcaster interface {
	Broadcast(key string, payload []byte)
}

type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
}

// Notifier forwards tracker signals to connected dashboards and reports
// failures to sentry.
type Notifier struct {
	log logger.Logger
	hub *sentry.Hub
	out Broadcaster
}

func NewNotifier(log logger.Logger, hub *sentry.Hub, out Broadcaster) *Notifier {
	if log == nil {
		log = logger.Discard()
	}
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &Notifier{log: log.With("component", "feedback"), hub: hub, out: out}
}

func (n *Notifier) Success(sessionID string) {
	n.log.Info("workout complete signal", "session_id", sessionID)
	n.send(Event{Type: "success", SessionID: sessionID})
}

func (n *Notifier) Alert(sessionID string, err error) {
	n.log.Warn("alert", "session_id", sessionID, "message", err.Error())
	n.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("session_id", sessionID)
		n.hub.CaptureException(err)
	})
	n.send(Event{Type: "alert", SessionID: sessionID, Message: err.Error()})
}

func (n *Notifier) send(ev Event) {
	if n.out == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	n.out.Broadcast(LiveKey, payload)
	if ev.SessionID != "" {
		n.out.Broadcast(ev.SessionID, payload)
	}
}
