package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waCommon"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"

	"retracer/internal/archive"
)

func TestFromMessageText(t *testing.T) {
	c := FromMessage(&waE2E.Message{Conversation: proto.String("hello")})
	require.NotNil(t, c)
	assert.Equal(t, archive.ContentText, c.Type)
	assert.Equal(t, "hello", c.Body)
	assert.Nil(t, c.Media)
}

func TestFromMessageExtendedTextWithQuote(t *testing.T) {
	c := FromMessage(&waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String("replying"),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID: proto.String("ORIG123"),
			},
		},
	})
	require.NotNil(t, c)
	assert.Equal(t, "replying", c.Body)
	assert.Equal(t, "ORIG123", c.QuotedID)
}

func TestFromMessageImageCaptionAndPlaceholder(t *testing.T) {
	withCaption := FromMessage(&waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			Caption:    proto.String("sunset"),
			Mimetype:   proto.String("image/jpeg"),
			FileLength: proto.Uint64(1234),
		},
	})
	require.NotNil(t, withCaption)
	assert.Equal(t, archive.ContentImage, withCaption.Type)
	assert.Equal(t, "sunset", withCaption.Body)
	require.NotNil(t, withCaption.Media)
	assert.Equal(t, "image/jpeg", withCaption.Media.Mimetype)
	assert.Equal(t, int64(1234), withCaption.Media.FileSize)

	bare := FromMessage(&waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{Mimetype: proto.String("image/jpeg")},
	})
	require.NotNil(t, bare)
	assert.Equal(t, "[Image]", bare.Body)
}

func TestFromMessageSticker(t *testing.T) {
	c := FromMessage(&waE2E.Message{
		StickerMessage: &waE2E.StickerMessage{Mimetype: proto.String("image/webp")},
	})
	require.NotNil(t, c)
	assert.Equal(t, archive.ContentSticker, c.Type)
	assert.Equal(t, "[Sticker]", c.Body)
	require.NotNil(t, c.Media)
	assert.Equal(t, "sticker", c.Media.TypeOverride)
}

func TestFromMessageDocumentKeepsFilename(t *testing.T) {
	c := FromMessage(&waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			FileName: proto.String("report.pdf"),
			Mimetype: proto.String("application/pdf"),
		},
	})
	require.NotNil(t, c)
	assert.Equal(t, archive.ContentDocument, c.Type)
	assert.Equal(t, "[Document: report.pdf]", c.Body)
	assert.Equal(t, "report.pdf", c.Media.Filename)
}

func TestFromMessageVoiceNote(t *testing.T) {
	c := FromMessage(&waE2E.Message{
		AudioMessage: &waE2E.AudioMessage{
			PTT:      proto.Bool(true),
			Mimetype: proto.String("audio/ogg; codecs=opus"),
		},
	})
	require.NotNil(t, c)
	assert.Equal(t, archive.ContentAudio, c.Type)
	assert.Equal(t, "[Voice Message]", c.Body)
}

func TestFromMessageViewOnceUnwraps(t *testing.T) {
	c := FromMessage(&waE2E.Message{
		ViewOnceMessageV2: &waE2E.FutureProofMessage{
			Message: &waE2E.Message{
				ImageMessage: &waE2E.ImageMessage{Mimetype: proto.String("image/jpeg")},
			},
		},
	})
	require.NotNil(t, c)
	assert.Equal(t, archive.ContentImage, c.Type)
}

func TestFromMessageReaction(t *testing.T) {
	c := FromMessage(&waE2E.Message{
		ReactionMessage: &waE2E.ReactionMessage{
			Key:  &waCommon.MessageKey{ID: proto.String("TARGET1")},
			Text: proto.String("❤️"),
		},
	})
	require.NotNil(t, c)
	assert.Equal(t, archive.ContentReaction, c.Type)
	assert.Equal(t, "[Reaction: ❤️]", c.Body)
	assert.Equal(t, "TARGET1", c.QuotedID)
}

func TestFromMessagePoll(t *testing.T) {
	c := FromMessage(&waE2E.Message{
		PollCreationMessage: &waE2E.PollCreationMessage{
			Name: proto.String("lunch?"),
		},
	})
	require.NotNil(t, c)
	assert.Equal(t, archive.ContentPoll, c.Type)
	assert.Equal(t, "[Poll: lunch?]", c.Body)
}

func TestFromMessageUnknownShapeGetsPlaceholder(t *testing.T) {
	c := FromMessage(&waE2E.Message{
		SenderKeyDistributionMessage: &waE2E.SenderKeyDistributionMessage{
			GroupID: proto.String("120363041234567890@g.us"),
		},
	})
	require.NotNil(t, c)
	assert.Equal(t, archive.ContentSystem, c.Type)
	assert.Equal(t, "[System Event]", c.Body)
}

func TestFromMessageEmptyIsDropped(t *testing.T) {
	assert.Nil(t, FromMessage(nil))
	assert.Nil(t, FromMessage(&waE2E.Message{}))
}
