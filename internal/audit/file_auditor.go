package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/darmiel/guestgate/internal/core"
)

var _ core.Auditor = (*FileAuditor)(nil)

// ErrAuditorClosed is returned when logging to a closed auditor.
var ErrAuditorClosed = errors.New("auditor is closed")

// FileAuditor appends one JSON line per issuance attempt.
// Every entry is synced to disk before Log returns, so a token is never
// handed out without its audit record being persisted.
type FileAuditor struct {
	mu   sync.Mutex
	file *os.File
	sync func(*os.File) error
}

// NewFileAuditor opens (or creates) the audit log at filePath.
// Missing parent directories are created with owner-only permissions.
func NewFileAuditor(filePath string) (*FileAuditor, error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating audit log directory: %w", err)
		}
	}
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log file: %w", err)
	}
	return &FileAuditor{
		file: file,
		sync: (*os.File).Sync,
	}, nil
}

func (f *FileAuditor) Log(entry core.AuditEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding audit log entry: %w", err)
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return ErrAuditorClosed
	}
	// single write per entry keeps lines intact
	if _, err := f.file.Write(line); err != nil {
		return fmt.Errorf("writing audit log entry: %w", err)
	}
	if err := f.sync(f.file); err != nil {
		return fmt.Errorf("syncing audit log: %w", err)
	}
	return nil
}

// Close closes the audit log. Closing twice is a no-op.
func (f *FileAuditor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
