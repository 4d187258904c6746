// Package extract maps raw waE2E message payloads to the archive's content
// model: a content type, a body string, and optional media info.
//
// Every known shape yields a body; unrecognized but non-empty shapes fall
// back to a synthetic placeholder so the archive never holds an unexplained
// blank. Only genuinely empty payloads are dropped, and the caller logs the
// drop.
package extract

import (
	"fmt"

	"go.mau.fi/whatsmeow/proto/waE2E"

	"retracer/internal/archive"
)

// MediaInfo describes the downloadable attachment a message declared.
type MediaInfo struct {
	Mimetype string
	Filename string // original filename, documents only
	FileSize int64

	// TypeOverride carries classification the mimetype alone can't:
	// "sticker" for stickers, the inner type for view-once media.
	TypeOverride string
}

// Content is the extraction result for one message payload.
type Content struct {
	Type     archive.ContentType
	Body     string
	Media    *MediaInfo
	QuotedID string
}

// FromMessage extracts Content from a payload. Returns nil for truly
// content-less payloads, which the caller drops (with a log line).
func FromMessage(msg *waE2E.Message) *Content {
	if msg == nil {
		return nil
	}

	// View-once wrappers hide the real payload one level down.
	if vo := msg.GetViewOnceMessage(); vo != nil && vo.GetMessage() != nil {
		return FromMessage(vo.GetMessage())
	}
	if vo := msg.GetViewOnceMessageV2(); vo != nil && vo.GetMessage() != nil {
		return FromMessage(vo.GetMessage())
	}
	if vo := msg.GetViewOnceMessageV2Extension(); vo != nil && vo.GetMessage() != nil {
		return FromMessage(vo.GetMessage())
	}
	if eph := msg.GetEphemeralMessage(); eph != nil && eph.GetMessage() != nil {
		return FromMessage(eph.GetMessage())
	}

	switch {
	case msg.GetConversation() != "":
		return &Content{Type: archive.ContentText, Body: msg.GetConversation()}

	case msg.GetExtendedTextMessage() != nil:
		ext := msg.GetExtendedTextMessage()
		c := &Content{Type: archive.ContentText, Body: ext.GetText()}
		if ci := ext.GetContextInfo(); ci != nil {
			c.QuotedID = ci.GetStanzaID()
		}
		if c.Body == "" {
			c.Body = "[Text]"
		}
		return c

	case msg.GetImageMessage() != nil:
		img := msg.GetImageMessage()
		return mediaContent(archive.ContentImage, img.GetCaption(), "[Image]", &MediaInfo{
			Mimetype: img.GetMimetype(),
			FileSize: int64(img.GetFileLength()),
		})

	case msg.GetVideoMessage() != nil:
		vid := msg.GetVideoMessage()
		return mediaContent(archive.ContentVideo, vid.GetCaption(), "[Video]", &MediaInfo{
			Mimetype: vid.GetMimetype(),
			FileSize: int64(vid.GetFileLength()),
		})

	case msg.GetAudioMessage() != nil:
		aud := msg.GetAudioMessage()
		body := "[Audio]"
		if aud.GetPTT() {
			body = "[Voice Message]"
		}
		return mediaContent(archive.ContentAudio, "", body, &MediaInfo{
			Mimetype: aud.GetMimetype(),
			FileSize: int64(aud.GetFileLength()),
		})

	case msg.GetDocumentMessage() != nil:
		doc := msg.GetDocumentMessage()
		body := "[Document]"
		if doc.GetFileName() != "" {
			body = fmt.Sprintf("[Document: %s]", doc.GetFileName())
		}
		return mediaContent(archive.ContentDocument, doc.GetCaption(), body, &MediaInfo{
			Mimetype: doc.GetMimetype(),
			Filename: doc.GetFileName(),
			FileSize: int64(doc.GetFileLength()),
		})

	case msg.GetStickerMessage() != nil:
		stk := msg.GetStickerMessage()
		return &Content{
			Type: archive.ContentSticker,
			Body: "[Sticker]",
			Media: &MediaInfo{
				Mimetype:     stk.GetMimetype(),
				FileSize:     int64(stk.GetFileLength()),
				TypeOverride: "sticker",
			},
		}

	case msg.GetLocationMessage() != nil:
		loc := msg.GetLocationMessage()
		body := fmt.Sprintf("[Location: %.6f, %.6f]", loc.GetDegreesLatitude(), loc.GetDegreesLongitude())
		if loc.GetName() != "" {
			body = fmt.Sprintf("[Location: %s]", loc.GetName())
		}
		return &Content{Type: archive.ContentLocation, Body: body}

	case msg.GetLiveLocationMessage() != nil:
		return &Content{Type: archive.ContentLocation, Body: "[Live Location]"}

	case msg.GetContactMessage() != nil:
		con := msg.GetContactMessage()
		body := "[Contact]"
		if con.GetDisplayName() != "" {
			body = fmt.Sprintf("[Contact: %s]", con.GetDisplayName())
		}
		return &Content{Type: archive.ContentContact, Body: body}

	case msg.GetContactsArrayMessage() != nil:
		arr := msg.GetContactsArrayMessage()
		return &Content{
			Type: archive.ContentContact,
			Body: fmt.Sprintf("[Contacts: %d]", len(arr.GetContacts())),
		}

	case msg.GetPollCreationMessage() != nil:
		return pollContent(msg.GetPollCreationMessage())
	case msg.GetPollCreationMessageV2() != nil:
		return pollContent(msg.GetPollCreationMessageV2())
	case msg.GetPollCreationMessageV3() != nil:
		return pollContent(msg.GetPollCreationMessageV3())
	case msg.GetPollUpdateMessage() != nil:
		return &Content{Type: archive.ContentPoll, Body: "[Poll Vote]"}

	case msg.GetReactionMessage() != nil:
		react := msg.GetReactionMessage()
		c := &Content{
			Type:     archive.ContentReaction,
			QuotedID: react.GetKey().GetID(),
		}
		if react.GetText() == "" {
			c.Body = "[Reaction Removed]"
		} else {
			c.Body = fmt.Sprintf("[Reaction: %s]", react.GetText())
		}
		return c

	case msg.GetProtocolMessage() != nil:
		// Revokes are routed to the deletion detector before extraction;
		// whatever protocol traffic still reaches here is archived as a
		// generic system event.
		return &Content{Type: archive.ContentSystem, Body: "[System Event]"}

	case msg.GetButtonsMessage() != nil,
		msg.GetTemplateMessage() != nil,
		msg.GetListMessage() != nil,
		msg.GetOrderMessage() != nil,
		msg.GetGroupInviteMessage() != nil:
		return &Content{Type: archive.ContentSystem, Body: "[System Event]"}
	}

	// Non-empty but unrecognized payload: archive a placeholder rather
	// than losing the record.
	if msg.String() != "" {
		return &Content{Type: archive.ContentSystem, Body: "[System Event]"}
	}

	return nil
}

func mediaContent(ct archive.ContentType, caption, placeholder string, media *MediaInfo) *Content {
	body := caption
	if body == "" {
		body = placeholder
	}
	return &Content{Type: ct, Body: body, Media: media}
}

type pollCreation interface {
	GetName() string
	GetOptions() []*waE2E.PollCreationMessage_Option
}

func pollContent(poll pollCreation) *Content {
	body := "[Poll]"
	if poll.GetName() != "" {
		body = fmt.Sprintf("[Poll: %s]", poll.GetName())
	}
	return &Content{Type: archive.ContentPoll, Body: body}
}
