package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/tchow/watchdeck/internal/logging"
	"github.com/tchow/watchdeck/internal/status"
)

var registryLog = logging.ForComponent(logging.CompRegistry)

// registryVersion is the current on-disk format version. Older files are
// migrated in place on the next write; a newer file is a fatal load error
// so an old binary never silently corrupts a newer format.
const registryVersion = 1

// DefaultPruneMaxAge is how long Done sessions linger before Prune
// removes them.
const DefaultPruneMaxAge = 7 * 24 * time.Hour

type registryFile struct {
	Version  int                        `json:"version"`
	Sessions map[string]*TrackedSession `json:"sessions"`
}

// Registry persists tracked sessions as a single versioned JSON document.
// Cross-process access is serialized with advisory file locks: shared for
// reads, exclusive for the load-mutate-save cycle in Update.
type Registry struct {
	path string
}

// NewRegistry returns a registry backed by the given file path.
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// DefaultRegistry returns the registry at ~/.watchdeck/sessions.json.
func DefaultRegistry() *Registry {
	return NewRegistry(RegistryPath())
}

// Path returns the backing file path.
func (r *Registry) Path() string {
	return r.path
}

// Load reads the registry under a shared lock. A missing file is an empty
// registry, not an error.
func (r *Registry) Load() (map[string]*TrackedSession, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*TrackedSession{}, nil
		}
		return nil, &RegistryIOError{Path: r.path, Op: "open", Err: err}
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH); err != nil {
		return nil, &RegistryIOError{Path: r.path, Op: "lock", Err: err}
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return decodeRegistry(f, r.path)
}

// Update runs fn over the decoded session map under an exclusive lock and
// writes the result back. The lock spans the whole load-mutate-save cycle;
// this is the registry's only transaction boundary. If fn returns an
// error, nothing is written.
func (r *Registry) Update(fn func(sessions map[string]*TrackedSession) error) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return &RegistryIOError{Path: r.path, Op: "mkdir", Err: err}
	}

	f, err := os.OpenFile(r.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return &RegistryIOError{Path: r.path, Op: "open", Err: err}
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return &RegistryIOError{Path: r.path, Op: "lock", Err: err}
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	sessions, err := decodeRegistry(f, r.path)
	if err != nil {
		return err
	}

	if err := fn(sessions); err != nil {
		return err
	}

	data, err := json.MarshalIndent(registryFile{
		Version:  registryVersion,
		Sessions: sessions,
	}, "", "  ")
	if err != nil {
		return &RegistryIOError{Path: r.path, Op: "encode", Err: err}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return &RegistryIOError{Path: r.path, Op: "seek", Err: err}
	}
	if err := f.Truncate(0); err != nil {
		return &RegistryIOError{Path: r.path, Op: "truncate", Err: err}
	}
	if _, err := f.Write(data); err != nil {
		return &RegistryIOError{Path: r.path, Op: "write", Err: err}
	}
	return nil
}

func decodeRegistry(f *os.File, path string) (map[string]*TrackedSession, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &RegistryIOError{Path: path, Op: "read", Err: err}
	}
	if len(data) == 0 {
		return map[string]*TrackedSession{}, nil
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &RegistryIOError{Path: path, Op: "decode", Err: err}
	}
	if file.Version > registryVersion {
		return nil, &RegistryIOError{
			Path: path,
			Op:   "decode",
			Err:  fmt.Errorf("registry version %d is newer than supported version %d", file.Version, registryVersion),
		}
	}
	if file.Version < registryVersion {
		registryLog.Info("registry_migrating",
			slog.Int("from_version", file.Version),
			slog.Int("to_version", registryVersion))
	}
	if file.Sessions == nil {
		file.Sessions = map[string]*TrackedSession{}
	}
	return file.Sessions, nil
}

// Add inserts a new session. A colliding id fails with ErrDuplicateID and
// leaves the registry unchanged.
func (r *Registry) Add(s *TrackedSession) error {
	return r.Update(func(sessions map[string]*TrackedSession) error {
		if _, exists := sessions[s.ID]; exists {
			return fmt.Errorf("add %q: %w", s.ID, ErrDuplicateID)
		}
		sessions[s.ID] = s
		return nil
	})
}

// Remove deletes a session by id and returns the removed entry.
// A missing id is a no-op returning nil.
func (r *Registry) Remove(id string) (*TrackedSession, error) {
	var removed *TrackedSession
	err := r.Update(func(sessions map[string]*TrackedSession) error {
		removed = sessions[id]
		delete(sessions, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// FindByBranch returns the session on the given git branch, or nil.
// Branches are not unique; ties resolve to the first match in ascending
// id order so lookups stay deterministic.
func (r *Registry) FindByBranch(branch string) (*TrackedSession, error) {
	sessions, err := r.Load()
	if err != nil {
		return nil, err
	}
	for _, id := range sortedIDs(sessions) {
		if sessions[id].GitBranch == branch {
			return sessions[id], nil
		}
	}
	return nil, nil
}

// FindByIssue returns the session linked to the given issue identifier,
// or nil. Same tie-break as FindByBranch.
func (r *Registry) FindByIssue(identifier string) (*TrackedSession, error) {
	sessions, err := r.Load()
	if err != nil {
		return nil, err
	}
	for _, id := range sortedIDs(sessions) {
		if sessions[id].IssueIdentifier == identifier {
			return sessions[id], nil
		}
	}
	return nil, nil
}

// Prune removes Done sessions whose last activity is older than maxAge
// and returns the removed ids. Sessions in any other status are never
// pruned regardless of age.
func (r *Registry) Prune(now time.Time, maxAge time.Duration) ([]string, error) {
	cutoff := now.Add(-maxAge)
	var removed []string
	err := r.Update(func(sessions map[string]*TrackedSession) error {
		for id, s := range sessions {
			if s.Status == status.StatusDone && s.LastActivity.Before(cutoff) {
				delete(sessions, id)
				removed = append(removed, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(removed)
	if len(removed) > 0 {
		registryLog.Info("sessions_pruned", slog.Int("count", len(removed)))
	}
	return removed, nil
}

// IsFatalLoad reports whether err means the registry file itself is
// unusable, as opposed to an application-level failure like a duplicate id.
func IsFatalLoad(err error) bool {
	var ioErr *RegistryIOError
	return errors.As(err, &ioErr)
}

func sortedIDs(sessions map[string]*TrackedSession) []string {
	ids := make([]string, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
