package event

import (
	"go.mau.fi/whatsmeow/types/events"
)

// Handle routes an incoming transport event to its handler. Registered as
// the whatsmeow event handler by the app.
func (s *EventService) Handle(evt interface{}) {
	if s.ctx.Err() != nil {
		return
	}

	switch e := evt.(type) {
	case *events.Message:
		s.OnMessage(e)
	case *events.Connected:
		s.log.Infof("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Warnf("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Errorf("Logged out from WhatsApp (reason: %v), re-pairing required", e.Reason)
	case *events.StreamReplaced:
		s.log.Errorf("Stream replaced by another session")
	}
}
