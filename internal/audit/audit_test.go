package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/darmiel/guestgate/internal/config"
	"github.com/darmiel/guestgate/internal/core"
)

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	tests := []struct {
		name    string
		cfg     config.AuditConfig
		want    string
		wantErr bool
	}{
		{name: "Disabled", cfg: config.AuditConfig{Type: config.AuditTypeFile}, want: "*audit.LogAuditor"},
		{name: "Memory", cfg: config.AuditConfig{Enabled: true, Type: config.AuditTypeMemory}, want: "*audit.InMemoryAuditor"},
		{name: "File", cfg: config.AuditConfig{Enabled: true, Type: config.AuditTypeFile, Path: path}, want: "*audit.FileAuditor"},
		{name: "Unknown", cfg: config.AuditConfig{Enabled: true, Type: "kafka"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer a.Close()
			if got := fmt.Sprintf("%T", a); got != tt.want {
				t.Errorf("New() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFileAuditor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a, err := NewFileAuditor(path)
	if err != nil {
		t.Fatalf("NewFileAuditor() error = %v", err)
	}

	for _, id := range []string{"one", "two"} {
		if err := a.Log(core.AuditEntry{ID: id, Time: time.Now(), Action: "guest_token.issue", Success: true}); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry core.AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid audit line %q: %v", scanner.Text(), err)
		}
		ids = append(ids, entry.ID)
	}
	if got := strings.Join(ids, ","); got != "one,two" {
		t.Errorf("audit ids = %s, want one,two", got)
	}
}

func TestInMemoryAuditor_GetRecent(t *testing.T) {
	a := NewInMemoryAuditor()
	for _, id := range []string{"a", "b", "c"} {
		_ = a.Log(core.AuditEntry{ID: id})
	}

	got, _ := a.GetRecent(2)
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Errorf("GetRecent(2) = %+v", got)
	}
	got, _ = a.GetRecent(10)
	if len(got) != 3 {
		t.Errorf("GetRecent(10) returned %d entries, want 3", len(got))
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("") != "" {
		t.Errorf("Fingerprint(\"\") should be empty")
	}
	a, b := Fingerprint("token-a"), Fingerprint("token-b")
	if a == b {
		t.Errorf("different tokens share a fingerprint")
	}
	if strings.Contains(a, "token-a") {
		t.Errorf("fingerprint leaks token")
	}
	if a != Fingerprint("token-a") {
		t.Errorf("fingerprint is not deterministic")
	}
}

func TestFileAuditor_SyncsEachEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "audit.jsonl")
	a, err := NewFileAuditor(path)
	if err != nil {
		t.Fatalf("NewFileAuditor() error = %v", err)
	}

	var syncs int
	a.sync = func(*os.File) error {
		syncs++
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := a.Log(core.AuditEntry{ID: fmt.Sprint(i)}); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}
	if syncs != 3 {
		t.Errorf("synced %d times, want 3", syncs)
	}

	a.sync = func(*os.File) error { return errors.New("disk full") }
	if err := a.Log(core.AuditEntry{ID: "lost"}); err == nil {
		t.Error("expected sync failure to be reported")
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := a.Log(core.AuditEntry{ID: "late"}); !errors.Is(err, ErrAuditorClosed) {
		t.Errorf("Log() after Close = %v, want ErrAuditorClosed", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("audit log permissions = %o, want 600", perm)
	}
}

func TestLogAuditor(t *testing.T) {
	var buf bytes.Buffer
	a := NewLogAuditorWith(zerolog.New(&buf).Level(zerolog.DebugLevel))

	err := a.Log(core.AuditEntry{
		ID:          "corr-1",
		Action:      "guest_token.issue",
		Mode:        core.ModeLocalSigning.String(),
		DashboardID: "abc",
		Identity:    "alice",
		Success:     true,
	})
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"correlation_id":"corr-1"`) || !strings.Contains(out, `"dashboard_id":"abc"`) {
		t.Errorf("missing fields in %s", out)
	}
	if strings.Contains(out, "alice") {
		t.Errorf("identity leaked into debug log: %s", out)
	}
}
