// Package event routes whatsmeow events into the archival pipeline:
// messages into the ingestion queue (with media going through the vault
// first), revocations into the deletion detector.
package event

import (
	"context"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	"retracer/internal/archive"
	"retracer/internal/infra/config"
	"retracer/internal/recovery"
	"retracer/internal/vault"
)

// CommandHandler lets the operator command front end intercept its own
// messages before they are treated as ordinary traffic.
type CommandHandler interface {
	// HandleCommand returns true when the message was a command and has
	// been consumed.
	HandleCommand(ctx context.Context, evt *events.Message, body string) bool
}

// EventService handles incoming transport events.
type EventService struct {
	client   *whatsmeow.Client
	cfg      *config.Config
	queue    *archive.Queue
	vault    *vault.Vault
	detector *recovery.Detector
	commands CommandHandler
	log      waLog.Logger

	ctx context.Context
}

// NewEventService creates an EventService.
func NewEventService(
	client *whatsmeow.Client,
	cfg *config.Config,
	queue *archive.Queue,
	v *vault.Vault,
	detector *recovery.Detector,
	log waLog.Logger,
) *EventService {
	return &EventService{
		client:   client,
		cfg:      cfg,
		queue:    queue,
		vault:    v,
		detector: detector,
		log:      log.Sub("Events"),
		ctx:      context.Background(),
	}
}

// SetClient updates the transport client after (re)connection.
func (s *EventService) SetClient(client *whatsmeow.Client) {
	s.client = client
}

// SetCommandHandler wires the operator command front end.
func (s *EventService) SetCommandHandler(h CommandHandler) {
	s.commands = h
}

// SetContext sets the lifecycle context used by handlers.
func (s *EventService) SetContext(ctx context.Context) {
	s.ctx = ctx
}
