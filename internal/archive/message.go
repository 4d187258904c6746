// Package archive implements the partitioned message archive: an append-only
// JSONL file per (day, category), fed by a bounded ingestion queue that a
// dedicated consumer flushes in small batches.
package archive

import (
	"time"
)

// Category is the chat-shape partition a message belongs to.
type Category string

const (
	CategoryIndividual Category = "individual"
	CategoryGroup      Category = "group"
	CategoryStatus     Category = "status"
	CategoryBroadcast  Category = "broadcast"
	CategoryNewsletter Category = "newsletter"
)

// SearchPriority is the order in which categories are checked during
// deletion correlation. Individual chats are where deletions are
// overwhelmingly observed, so they go first.
var SearchPriority = []Category{
	CategoryIndividual,
	CategoryGroup,
	CategoryStatus,
	CategoryBroadcast,
	CategoryNewsletter,
}

// ContentType describes what kind of content a message carried.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentVideo    ContentType = "video"
	ContentAudio    ContentType = "audio"
	ContentDocument ContentType = "document"
	ContentSticker  ContentType = "sticker"
	ContentSystem   ContentType = "system"
	ContentReaction ContentType = "reaction"
	ContentPoll     ContentType = "poll"
	ContentLocation ContentType = "location"
	ContentContact  ContentType = "contact"
)

// mediaContentTypes are the content types that carry downloadable bytes.
var mediaContentTypes = map[ContentType]bool{
	ContentImage:    true,
	ContentVideo:    true,
	ContentAudio:    true,
	ContentDocument: true,
	ContentSticker:  true,
}

// IsMedia reports whether the content type carries downloadable bytes.
func (c ContentType) IsMedia() bool {
	return mediaContentTypes[c]
}

// ArchivedMessage is one line in a partition file. Records are written once
// by the ingestion pipeline and never mutated; only the retention sweep
// removes them, one whole partition at a time.
type ArchivedMessage struct {
	ID          string      `json:"id"`
	ChatJID     string      `json:"chat_jid"`
	SenderJID   string      `json:"sender_jid"`
	PushName    string      `json:"push_name,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Category    Category    `json:"category"`
	ContentType ContentType `json:"content_type"`
	Body        string      `json:"body"`
	Mimetype    string      `json:"mimetype,omitempty"`

	// MediaID links to the vault record created in the same ingestion
	// flow. Empty when the media was not (or not yet) stored; recovery
	// then falls back to a message-id lookup and, last, the time-window
	// heuristic.
	MediaID string `json:"media_id,omitempty"`

	QuotedID   string    `json:"quoted_id,omitempty"`
	IsOutgoing bool      `json:"is_outgoing"`
	ArchivedAt time.Time `json:"archived_at"`
}

// HasMedia reports whether the message declared downloadable media.
func (m *ArchivedMessage) HasMedia() bool {
	return m.MediaID != "" || m.ContentType.IsMedia()
}
