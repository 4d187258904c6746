package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// Store reads and writes day/category-partitioned message files below a
// single root directory. All paths go through PartitionPath.
//
// Writes are plain appends, so a failed or interrupted write can at worst
// corrupt its own line; readers skip lines that fail to parse.
type Store struct {
	root string
	log  waLog.Logger
}

// NewStore creates a Store rooted at root.
func NewStore(root string, log waLog.Logger) *Store {
	return &Store{
		root: root,
		log:  log.Sub("Archive"),
	}
}

// Root returns the archive root directory.
func (s *Store) Root() string {
	return s.root
}

// Append appends one message to its partition file.
func (s *Store) Append(m *ArchivedMessage) error {
	if m.ArchivedAt.IsZero() {
		m.ArchivedAt = time.Now()
	}

	line, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode message %s: %w", m.ID, err)
	}

	path := PartitionPath(s.root, m.Timestamp, m.Category)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create partition dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open partition %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append to partition %s: %w", path, err)
	}
	return nil
}

// ReadPartition returns all parseable records of one (day, category)
// partition, in file order. A missing partition is an empty result, and a
// corrupted line is skipped with a warning; neither aborts the caller.
func (s *Store) ReadPartition(day time.Time, category Category) []*ArchivedMessage {
	return s.readFile(PartitionPath(s.root, day, category))
}

func (s *Store) readFile(path string) []*ArchivedMessage {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("Failed to open partition %s: %v", path, err)
		}
		return nil
	}
	defer f.Close()

	var messages []*ArchivedMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var m ArchivedMessage
		if err := json.Unmarshal(line, &m); err != nil {
			s.log.Warnf("Skipping corrupted record at %s:%d: %v", path, lineNo, err)
			continue
		}
		messages = append(messages, &m)
	}
	if err := scanner.Err(); err != nil {
		s.log.Warnf("Failed reading partition %s: %v", path, err)
	}
	return messages
}
