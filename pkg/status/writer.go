// Package status maintains plain-text health files that external
// monitoring reads: last_start, last_stop, and a periodically refreshed
// running snapshot.
package status

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/crastinus/hlfun-auth-srv/pkg/logging"
)

// MetricsProvider supplies the runtime numbers for the running file
type MetricsProvider interface {
	GetActiveConnections() int
	GetStartTime() time.Time
}

// StoreStats supplies store sizes for the running file
type StoreStats interface {
	UserCount() int
}

// Writer manages the daemon's status files
type Writer struct {
	dir            string
	updateInterval time.Duration
	pid            int
	version        string
	metrics        MetricsProvider
	stores         StoreStats

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Writer rooted at dir, creating the directory if needed
func New(dir string, updateInterval time.Duration, version string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create status directory: %w", err)
	}

	return &Writer{
		dir:            dir,
		updateInterval: updateInterval,
		pid:            os.Getpid(),
		version:        version,
		stopCh:         make(chan struct{}),
	}, nil
}

// SetMetricsProvider sets the source of connection and uptime metrics
func (w *Writer) SetMetricsProvider(provider MetricsProvider) {
	w.metrics = provider
}

// SetStoreStats sets the source of store-size metrics
func (w *Writer) SetStoreStats(stats StoreStats) {
	w.stores = stats
}

// WriteStartFile records startup information in last_start
func (w *Writer) WriteStartFile() error {
	now := time.Now()
	content := fmt.Sprintf(`timestamp_unix: %d
timestamp_human: %s
pid: %d
version: %s
`,
		now.Unix(),
		now.Format("Mon Jan 02 15:04:05 2006"),
		w.pid,
		w.version,
	)

	if err := w.atomicWrite(filepath.Join(w.dir, "last_start"), []byte(content)); err != nil {
		return fmt.Errorf("failed to write last_start: %w", err)
	}
	logging.App.Info("Wrote status file", "file", "last_start")
	return nil
}

// WriteStopFile records shutdown information in last_stop
func (w *Writer) WriteStopFile(reason string, uptime time.Duration) error {
	now := time.Now()
	content := fmt.Sprintf(`timestamp_unix: %d
timestamp_human: %s
reason: %s
uptime_seconds: %d
`,
		now.Unix(),
		now.Format("Mon Jan 02 15:04:05 2006"),
		reason,
		int64(uptime.Seconds()),
	)

	if err := w.atomicWrite(filepath.Join(w.dir, "last_stop"), []byte(content)); err != nil {
		return fmt.Errorf("failed to write last_stop: %w", err)
	}
	logging.App.Info("Wrote status file", "file", "last_stop", "reason", reason)
	return nil
}

// StartHeartbeat refreshes the running file on the update interval
// until Stop is called.
func (w *Writer) StartHeartbeat() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.updateInterval)
		defer ticker.Stop()

		if err := w.writeRunningFile(); err != nil {
			logging.App.Error("Failed to write running file", "error", err)
		}

		for {
			select {
			case <-ticker.C:
				if err := w.writeRunningFile(); err != nil {
					logging.App.Error("Failed to write running file", "error", err)
				}
			case <-w.stopCh:
				return
			}
		}
	}()

	logging.App.Info("Started status heartbeat", "interval", w.updateInterval)
}

// Stop halts the heartbeat goroutine
func (w *Writer) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	logging.App.Info("Stopped status heartbeat")
}

func (w *Writer) writeRunningFile() error {
	now := time.Now()

	var startTime time.Time
	activeConnections := 0
	if w.metrics != nil {
		startTime = w.metrics.GetStartTime()
		activeConnections = w.metrics.GetActiveConnections()
	}
	userCount := 0
	if w.stores != nil {
		userCount = w.stores.UserCount()
	}

	uptime := int64(0)
	if !startTime.IsZero() {
		uptime = int64(now.Sub(startTime).Seconds())
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	content := fmt.Sprintf(`timestamp_unix: %d
uptime_seconds: %d
active_connections: %d
user_count: %d
memory_alloc_mb: %d
memory_sys_mb: %d
goroutines: %d
`,
		now.Unix(),
		uptime,
		activeConnections,
		userCount,
		memStats.Alloc/1024/1024,
		memStats.Sys/1024/1024,
		runtime.NumGoroutine(),
	)

	if err := w.atomicWrite(filepath.Join(w.dir, "running"), []byte(content)); err != nil {
		return fmt.Errorf("failed to write running: %w", err)
	}
	logging.App.Debug("Updated running file", "active_connections", activeConnections)
	return nil
}

// atomicWrite writes through a temp file plus rename so readers never
// observe a partial file.
func (w *Writer) atomicWrite(path string, content []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
