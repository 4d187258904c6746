// Package send re-delivers recovered content back through the transport:
// plain text replies for operator commands, and re-uploaded media for
// recovered attachments.
package send

import (
	"context"
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"retracer/internal/data/store"
	"retracer/internal/recovery"
	"retracer/internal/vault"
)

// SendService sends messages through the transport client.
type SendService struct {
	client *whatsmeow.Client
	log    waLog.Logger
}

// NewSendService creates a SendService.
func NewSendService(client *whatsmeow.Client, log waLog.Logger) *SendService {
	return &SendService{
		client: client,
		log:    log.Sub("Send"),
	}
}

// SetClient updates the transport client after (re)connection.
func (s *SendService) SetClient(client *whatsmeow.Client) {
	s.client = client
}

// SendText sends a plain text message.
func (s *SendService) SendText(ctx context.Context, to types.JID, text string) error {
	if s.client == nil {
		return fmt.Errorf("transport client not connected")
	}
	_, err := s.client.SendMessage(ctx, to, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("failed to send text to %s: %w", to, err)
	}
	return nil
}

// SendRecovered re-delivers a recovery result: the recovered media with the
// text as caption when bytes were recovered, plain text otherwise.
func (s *SendService) SendRecovered(ctx context.Context, to types.JID, res *recovery.Result, caption string) error {
	if res.Media == nil || res.MediaRecord == nil {
		return s.SendText(ctx, to, caption)
	}
	if s.client == nil {
		return fmt.Errorf("transport client not connected")
	}

	rec := res.MediaRecord
	up, err := s.client.Upload(ctx, res.Media, uploadType(rec.Category))
	if err != nil {
		return fmt.Errorf("failed to upload recovered media: %w", err)
	}

	msg := buildMediaMessage(rec, up, caption)
	if _, err := s.client.SendMessage(ctx, to, msg); err != nil {
		return fmt.Errorf("failed to send recovered media to %s: %w", to, err)
	}
	return nil
}

func uploadType(category string) whatsmeow.MediaType {
	switch category {
	case vault.CategoryVideo:
		return whatsmeow.MediaVideo
	case vault.CategoryAudio:
		return whatsmeow.MediaAudio
	case vault.CategoryDocument:
		return whatsmeow.MediaDocument
	default:
		// Images and stickers both ride the image pipeline.
		return whatsmeow.MediaImage
	}
}

func buildMediaMessage(rec *store.MediaRecord, up whatsmeow.UploadResponse, caption string) *waE2E.Message {
	switch rec.Category {
	case vault.CategoryVideo:
		return &waE2E.Message{VideoMessage: &waE2E.VideoMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(rec.Mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Caption:       proto.String(caption),
		}}
	case vault.CategoryAudio:
		return &waE2E.Message{AudioMessage: &waE2E.AudioMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(rec.Mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}
	case vault.CategoryDocument:
		return &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(rec.Mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			FileName:      proto.String(rec.Filename),
			Caption:       proto.String(caption),
		}}
	case vault.CategorySticker:
		return &waE2E.Message{StickerMessage: &waE2E.StickerMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(rec.Mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}
	default:
		return &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(rec.Mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Caption:       proto.String(caption),
		}}
	}
}
