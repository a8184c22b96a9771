package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tchow/watchdeck/internal/logging"
	"github.com/tchow/watchdeck/internal/status"
)

var hookLog = logging.ForComponent(logging.CompHooks)

// HookRecord is the per-session status file agent lifecycle hooks write
// under the hooks directory, keyed by session id in the filename.
type HookRecord struct {
	Status     string `json:"status"`
	Path       string `json:"path"`
	GitBranch  string `json:"git_branch,omitempty"`
	LastActive int64  `json:"last_active"`
}

// MapHookStatus translates a hook-reported status string into an agent
// status. The table is fixed; unrecognized strings map to Unknown.
func MapHookStatus(s string) status.Status {
	switch strings.ToLower(s) {
	case "running", "active":
		return status.StatusRunning
	case "idle":
		return status.StatusIdle
	case "done", "stop":
		return status.StatusDone
	default:
		return status.StatusUnknown
	}
}

// HookEventStatus maps an agent lifecycle event name to the status string
// recorded in the hook file. Tool events all count as running.
func HookEventStatus(event string) string {
	e := strings.ToLower(event)
	switch {
	case e == "start", e == "prompt", e == "active", strings.HasPrefix(e, "tool_"):
		return "running"
	case e == "stop":
		return "done"
	default:
		return "idle"
	}
}

// ReadHookRecords loads every hook status file in dir, keyed by session
// id. Unreadable or malformed files are skipped with a log line; a
// missing directory is an empty map.
func ReadHookRecords(dir string) map[string]HookRecord {
	records := make(map[string]HookRecord)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return records
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			hookLog.Warn("hook_file_unreadable", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		var rec HookRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			hookLog.Warn("hook_file_malformed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		records[id] = rec
	}
	return records
}

// WriteHookRecord writes the status file for a session id, creating the
// hooks directory if needed.
func WriteHookRecord(dir, id string, rec HookRecord) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, id+".json"), data, 0644)
}

// HookWatcher watches the hooks directory with fsnotify and invokes a
// callback when status files change, so the UI can refresh between poll
// passes.
type HookWatcher struct {
	dir     string
	watcher *fsnotify.Watcher

	mu      sync.RWMutex
	records map[string]HookRecord

	onChange func()
}

// NewHookWatcher creates a watcher over dir. Call Run in a goroutine.
func NewHookWatcher(dir string, onChange func()) (*HookWatcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &HookWatcher{
		dir:      dir,
		watcher:  watcher,
		records:  make(map[string]HookRecord),
		onChange: onChange,
	}, nil
}

// Run watches until ctx is cancelled. Rapid file events are debounced so
// a burst of hook writes produces one refresh.
func (w *HookWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.dir); err != nil {
		hookLog.Warn("hook_watch_failed", slog.String("dir", w.dir), slog.String("error", err.Error()))
		return
	}

	w.reload()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				w.reload()
				if w.onChange != nil {
					w.onChange()
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			hookLog.Warn("hook_watch_error", slog.String("error", err.Error()))
		}
	}
}

// Records returns a copy of the latest hook records.
func (w *HookWatcher) Records() map[string]HookRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]HookRecord, len(w.records))
	for id, rec := range w.records {
		out[id] = rec
	}
	return out
}

func (w *HookWatcher) reload() {
	records := ReadHookRecords(w.dir)
	w.mu.Lock()
	w.records = records
	w.mu.Unlock()
}
