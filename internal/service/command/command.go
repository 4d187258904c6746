// Package command implements the operator chat front end: self-messages
// starting with the configured prefix are parsed into recovery and
// inspection commands, and the worded results are sent back into the same
// chat. A human reads every reply, so failures are sentences, not errors.
package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	"retracer/internal/archive"
	"retracer/internal/data/store"
	"retracer/internal/infra/config"
	"retracer/internal/recovery"
	"retracer/internal/service/send"
	"retracer/internal/vault"
)

// Service parses and executes operator commands.
type Service struct {
	engine *recovery.Engine
	sender *send.SendService
	queue  *archive.Queue
	arch   *archive.Store
	vault  *vault.Vault
	prefix string
	log    waLog.Logger
}

// NewService creates a command Service.
func NewService(
	engine *recovery.Engine,
	sender *send.SendService,
	queue *archive.Queue,
	arch *archive.Store,
	v *vault.Vault,
	prefix string,
	log waLog.Logger,
) *Service {
	if prefix == "" {
		prefix = "!"
	}
	return &Service{
		engine: engine,
		sender: sender,
		queue:  queue,
		arch:   arch,
		vault:  v,
		prefix: prefix,
		log:    log.Sub("Commands"),
	}
}

// HandleCommand intercepts operator self-messages carrying the command
// prefix. Returns true when the message was consumed as a command.
func (s *Service) HandleCommand(ctx context.Context, evt *events.Message, body string) bool {
	if !evt.Info.IsFromMe || !strings.HasPrefix(body, s.prefix) {
		return false
	}

	args := strings.Fields(strings.TrimPrefix(body, s.prefix))
	if len(args) == 0 {
		return false
	}

	var reply string
	switch strings.ToLower(args[0]) {
	case "recover":
		reply = s.recover(ctx, evt, args[1:])
	case "list-deleted":
		reply = s.listDeleted(args[1:])
	case "stats":
		reply = s.stats()
	case "help":
		reply = s.help()
	default:
		reply = fmt.Sprintf("Unknown command %q. Try %shelp.", args[0], s.prefix)
	}

	if reply != "" {
		if err := s.sender.SendText(ctx, evt.Info.Chat, reply); err != nil {
			s.log.Errorf("Failed to send command reply: %v", err)
		}
	}
	return true
}

// recover reconstructs one deletion and re-delivers it into the chat the
// command came from. Media replies are sent by SendRecovered; the returned
// string covers the text-only and failure paths.
func (s *Service) recover(ctx context.Context, evt *events.Message, args []string) string {
	if len(args) != 1 {
		return fmt.Sprintf("Usage: %srecover <deletion-id>", s.prefix)
	}

	res, err := s.engine.Recover(args[0])
	if err != nil {
		s.log.Errorf("Recovery of %s failed: %v", args[0], err)
		return "Recovery failed due to an internal error; check the logs."
	}

	switch res.Status {
	case recovery.StatusNotFound:
		return fmt.Sprintf("No deletion record with id %s.", args[0])
	case recovery.StatusExpired:
		return FormatExpired(res.Record)
	}

	caption := FormatRecovered(res)
	if res.Media == nil {
		return caption
	}

	if err := s.sender.SendRecovered(ctx, evt.Info.Chat, res, caption); err != nil {
		s.log.Errorf("Failed to re-deliver recovered media: %v", err)
		return caption + "\n\n(The recovered media could not be re-sent; it is still on disk.)"
	}
	return ""
}

func (s *Service) listDeleted(args []string) string {
	limit, filter, err := ParseListArgs(args)
	if err != nil {
		return fmt.Sprintf("%v. Usage: %slist-deleted [limit] [media|text|recent]", err, s.prefix)
	}

	records, err := s.engine.ListDeleted(limit, filter)
	if err != nil {
		s.log.Errorf("Listing deletions failed: %v", err)
		return "Listing failed due to an internal error; check the logs."
	}
	return FormatDeletionList(records)
}

func (s *Service) stats() string {
	enqueued, flushed, dropped := s.queue.Stats()
	mediaCount, mediaBytes, err := s.vault.Stats()
	if err != nil {
		s.log.Errorf("Vault stats failed: %v", err)
	}

	var b strings.Builder
	b.WriteString("📊 Retracer stats\n")
	fmt.Fprintf(&b, "Archive: %d messages on disk\n", s.arch.CountMessages())
	fmt.Fprintf(&b, "Queue: %d enqueued, %d flushed, %d dropped, %d waiting\n",
		enqueued, flushed, dropped, s.queue.Len())
	fmt.Fprintf(&b, "Vault: %d files, %s", mediaCount, config.FormatSize(mediaBytes))
	return b.String()
}

func (s *Service) help() string {
	p := s.prefix
	return strings.Join([]string{
		"Retracer commands:",
		p + "recover <deletion-id> — re-deliver deleted content",
		p + "list-deleted [limit] [media|text|recent] — recent deletions",
		p + "stats — pipeline counters",
	}, "\n")
}

// ParseListArgs parses the optional limit and filter of list-deleted, in
// either order.
func ParseListArgs(args []string) (int, store.ListFilter, error) {
	limit := 10
	filter := store.FilterAll

	for _, arg := range args {
		if n, err := strconv.Atoi(arg); err == nil {
			if n <= 0 {
				return 0, "", fmt.Errorf("limit must be positive")
			}
			limit = n
			continue
		}
		switch strings.ToLower(arg) {
		case "media":
			filter = store.FilterMedia
		case "text":
			filter = store.FilterText
		case "recent":
			filter = store.FilterRecent
		default:
			return 0, "", fmt.Errorf("unknown filter %q", arg)
		}
	}
	return limit, filter, nil
}

// FormatRecovered words a successful recovery.
func FormatRecovered(res *recovery.Result) string {
	rec := res.Record

	var b strings.Builder
	b.WriteString("🔁 Recovered deleted message\n")
	fmt.Fprintf(&b, "From: %s\n", rec.SenderJID)
	fmt.Fprintf(&b, "Sent: %s\n", rec.OriginalTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Deleted: %s\n", rec.DeletedTime.Format("2006-01-02 15:04:05"))
	if res.Text != "" {
		fmt.Fprintf(&b, "\n%s", res.Text)
	}
	if res.FuzzyMedia {
		b.WriteString("\n\n⚠️ Media matched by time window, attribution is best-effort.")
	}
	return b.String()
}

// FormatExpired words a recovery miss. Deliberately not an error: the
// content aged out of the retention window, which is expected behavior.
func FormatExpired(rec *store.DeletionRecord) string {
	var b strings.Builder
	b.WriteString("⏳ Content expired or not found — it has passed the retention window.\n")
	if rec != nil && rec.RecoveredText != "" {
		fmt.Fprintf(&b, "The record noted its text at deletion time:\n%s", rec.RecoveredText)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatDeletionList words a deletion listing.
func FormatDeletionList(records []*store.DeletionRecord) string {
	if len(records) == 0 {
		return "No deletion records."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🗑 %d deletion record(s):\n", len(records))
	for i, rec := range records {
		kind := "text"
		if rec.HasMedia {
			kind = rec.MediaType
		}
		snippet := rec.RecoveredText
		if len(snippet) > 40 {
			snippet = snippet[:40] + "…"
		}
		fmt.Fprintf(&b, "%d. [%s] %s — %s (%s ago)\n   id: %s\n",
			i+1, kind, rec.SenderJID, snippet,
			time.Since(rec.DeletedTime).Round(time.Minute), rec.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}
