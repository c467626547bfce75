package status

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type mockMetrics struct {
	active    int
	startTime time.Time
}

func (m *mockMetrics) GetActiveConnections() int { return m.active }
func (m *mockMetrics) GetStartTime() time.Time   { return m.startTime }

type mockStores struct{ users int }

func (m *mockStores) UserCount() int { return m.users }

func TestWriteStartFile(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(tmpDir, 10*time.Second, "v1.2.3")
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := w.WriteStartFile(); err != nil {
		t.Fatalf("Failed to write start file: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, "last_start"))
	if err != nil {
		t.Fatalf("Failed to read start file: %v", err)
	}
	for _, field := range []string{"timestamp_unix:", "timestamp_human:", "pid:", "version: v1.2.3"} {
		if !strings.Contains(string(content), field) {
			t.Errorf("Start file missing field: %s", field)
		}
	}
}

func TestWriteStopFile(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(tmpDir, 10*time.Second, "v1.0.0")
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := w.WriteStopFile("signal_SIGTERM", 3600*time.Second); err != nil {
		t.Fatalf("Failed to write stop file: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, "last_stop"))
	if err != nil {
		t.Fatalf("Failed to read stop file: %v", err)
	}
	for _, field := range []string{"reason: signal_SIGTERM", "uptime_seconds: 3600"} {
		if !strings.Contains(string(content), field) {
			t.Errorf("Stop file missing field: %s", field)
		}
	}
}

func TestHeartbeatWritesRunningFile(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(tmpDir, 50*time.Millisecond, "v1.0.0")
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	w.SetMetricsProvider(&mockMetrics{active: 7, startTime: time.Now().Add(-time.Minute)})
	w.SetStoreStats(&mockStores{users: 42})

	w.StartHeartbeat()
	defer w.Stop()

	path := filepath.Join(tmpDir, "running")
	deadline := time.Now().Add(2 * time.Second)
	for {
		content, err := os.ReadFile(path)
		if err == nil {
			s := string(content)
			if !strings.Contains(s, "active_connections: 7") {
				t.Errorf("running file missing connection count:\n%s", s)
			}
			if !strings.Contains(s, "user_count: 42") {
				t.Errorf("running file missing user count:\n%s", s)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("running file never written")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunningFileWithoutProviders(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(tmpDir, time.Second, "v1.0.0")
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := w.writeRunningFile(); err != nil {
		t.Fatalf("writeRunningFile: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, "running"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "uptime_seconds: 0") {
		t.Errorf("expected zero uptime without a metrics provider:\n%s", content)
	}
}
