package event

import (
	"errors"
	"time"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"

	"retracer/internal/archive"
	"retracer/internal/data/store"
	"retracer/internal/extract"
	"retracer/internal/utils/retry"
	"retracer/internal/vault"
)

// OnMessage archives an incoming message event. Revocations branch off to
// the deletion detector and operator commands to the command front end;
// everything else flows extract → (vault) → ingestion queue.
func (s *EventService) OnMessage(evt *events.Message) {
	if pm := evt.Message.GetProtocolMessage(); pm != nil && pm.GetType() == waE2E.ProtocolMessage_REVOKE {
		s.onRevoke(evt, pm)
		return
	}

	content := extract.FromMessage(evt.Message)
	if content == nil {
		// Only genuinely empty payloads land here; the log line is what
		// keeps the drop discoverable.
		s.log.Infof("Dropping content-less event %s from %s", evt.Info.ID, evt.Info.Sender)
		return
	}

	if s.commands != nil && content.Type == archive.ContentText {
		if s.commands.HandleCommand(s.ctx, evt, content.Body) {
			return
		}
	}

	msg := &archive.ArchivedMessage{
		ID:          evt.Info.ID,
		ChatJID:     evt.Info.Chat.String(),
		SenderJID:   evt.Info.Sender.String(),
		PushName:    evt.Info.PushName,
		Timestamp:   evt.Info.Timestamp,
		Category:    archive.CategoryForChat(evt.Info.Chat),
		ContentType: content.Type,
		Body:        content.Body,
		QuotedID:    content.QuotedID,
		IsOutgoing:  evt.Info.IsFromMe,
	}
	if content.Media != nil {
		msg.Mimetype = content.Media.Mimetype
	}

	if content.Media != nil && s.cfg.Media.Download {
		if rec := s.storeMedia(evt, content.Media); rec != nil {
			msg.MediaID = rec.UniqueID
		}
	}

	s.queue.Enqueue(msg)
	s.log.Debugf("Queued message %s (%s/%s) from %s",
		msg.ID, msg.Category, msg.ContentType, msg.SenderJID)
}

// storeMedia downloads the attachment and stores it in the vault. Archival
// is best-effort telemetry: any failure is logged and the message is still
// archived, just without a media link.
func (s *EventService) storeMedia(evt *events.Message, media *extract.MediaInfo) *store.MediaRecord {
	if s.client == nil {
		return nil
	}

	data, err := retry.Do(s.ctx, func() ([]byte, error) {
		return s.client.DownloadAny(s.ctx, evt.Message)
	})
	if err != nil {
		s.log.Warnf("Failed to download media for message %s: %v", evt.Info.ID, err)
		return nil
	}

	rec, err := s.vault.Store(data, vault.Context{
		MessageID: evt.Info.ID,
		ChatJID:   evt.Info.Chat,
		SenderJID: evt.Info.Sender,
		Timestamp: evt.Info.Timestamp,
		Mimetype:  media.Mimetype,
		Filename:  media.Filename,
		MediaType: media.TypeOverride,
	})
	if err != nil {
		var sizeErr *vault.SizeLimitError
		if errors.As(err, &sizeErr) {
			s.log.Warnf("Media for message %s not stored: %v", evt.Info.ID, sizeErr)
		} else {
			s.log.Errorf("Failed to store media for message %s: %v", evt.Info.ID, err)
		}
		return nil
	}
	return rec
}

// onRevoke feeds a delete-for-everyone notification to the detector.
func (s *EventService) onRevoke(evt *events.Message, pm *waE2E.ProtocolMessage) {
	targetID := pm.GetKey().GetID()
	if targetID == "" {
		return
	}

	deletedAt := evt.Info.Timestamp
	if deletedAt.IsZero() {
		deletedAt = time.Now()
	}

	s.log.Infof("Deletion notification for message %s in %s", targetID, evt.Info.Chat)
	if _, err := s.detector.OnDeletion(targetID, evt.Info.Chat.String(), deletedAt); err != nil {
		s.log.Errorf("Failed to record deletion of %s: %v", targetID, err)
	}
}
