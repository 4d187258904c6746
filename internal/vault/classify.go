package vault

import (
	"strings"
)

// Media categories. These name the first directory level under the vault
// root; the second level is the message-type partition.
const (
	CategoryImage    = "image"
	CategoryVideo    = "video"
	CategoryAudio    = "audio"
	CategoryDocument = "document"
	CategorySticker  = "sticker"
)

// Classify maps a mimetype to a vault category. An explicit typeOverride
// wins: stickers arrive as image/webp and view-once media hides its real
// shape behind a wrapper, so mimetype alone is not enough for those.
func Classify(mimetype, typeOverride string) string {
	switch strings.ToLower(typeOverride) {
	case CategorySticker:
		return CategorySticker
	case CategoryImage, CategoryVideo, CategoryAudio, CategoryDocument:
		return strings.ToLower(typeOverride)
	}

	mt := strings.ToLower(mimetype)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return CategoryImage
	case strings.HasPrefix(mt, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mt, "audio/"):
		return CategoryAudio
	default:
		return CategoryDocument
	}
}

// extensions maps common attachment mimetypes to file extensions. Anything
// unknown falls back to ".bin"; the mimetype survives in the index either
// way.
var extensions = map[string]string{
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"image/gif":          ".gif",
	"image/webp":         ".webp",
	"video/mp4":          ".mp4",
	"video/3gpp":         ".3gp",
	"audio/ogg":          ".ogg",
	"audio/mpeg":         ".mp3",
	"audio/mp4":          ".m4a",
	"audio/wav":          ".wav",
	"application/pdf":    ".pdf",
	"text/plain":         ".txt",
	"application/zip":    ".zip",
	"application/msword": ".doc",
}

// ExtensionFor returns the file extension for a mimetype. Parameters after
// ";" are ignored ("audio/ogg; codecs=opus").
func ExtensionFor(mimetype string) string {
	mt := strings.ToLower(strings.TrimSpace(mimetype))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if ext, ok := extensions[mt]; ok {
		return ext
	}
	return ".bin"
}
