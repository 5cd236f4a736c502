package history

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	SnapshotPrefix = "gistkv-"
	SnapshotSuffix = ".json"
	currentName    = "current"
	// sortable, fixed width
	timestampLayout = "20060102T150405.000000000Z"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

type (
	// History mirrors snapshots of gist files into a Storage. For every
	// snapshot name it keeps a current entry plus a bounded number of
	// timestamped backups.
	History struct {
		l            *zap.Logger
		storage      Storage
		historyDir   string // directory used for default filesystem storage
		historyLimit int
		mu           sync.RWMutex
	}
	Option func(*History)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHistoryLimit(v int) Option {
	return func(o *History) {
		o.historyLimit = v
	}
}

func WithHistoryDir(v string) Option {
	return func(o *History) {
		o.historyDir = v
	}
}

func WithStorage(s Storage) Option {
	return func(o *History) {
		o.storage = s
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, opts ...Option) (*History, error) {
	inst := &History{
		l:            l.Named("history"),
		historyDir:   "/var/lib/gistkv",
		historyLimit: 2,
	}

	for _, opt := range opts {
		opt(inst)
	}

	// If no storage provided, create a default filesystem storage
	if inst.storage == nil {
		storage, err := NewFilesystemStorage(inst.historyDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create default filesystem storage: %w", err)
		}
		inst.storage = storage
	}

	return inst, nil
}

// Name returns the snapshot name of a gist file.
func Name(gistID, filename string) string {
	return gistID + "." + filename
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Add writes data as a new backup and as the current snapshot of name.
func (h *History) Add(ctx context.Context, name string, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	backupKey := keyPrefix(name) + time.Now().UTC().Format(timestampLayout) + SnapshotSuffix
	current := currentKey(name)

	if err := h.storage.Write(ctx, backupKey, data); err != nil {
		return errors.Wrap(err, "failed to write backup snapshot")
	}

	h.l.Debug("writing snapshots",
		zap.String("backup", backupKey),
		zap.String("current", current),
	)

	if err := h.storage.Write(ctx, current, data); err != nil {
		return errors.Wrap(err, "failed to write current snapshot")
	}

	if err := h.cleanup(ctx, name); err != nil {
		return errors.Wrap(err, "failed to clean up history")
	}

	return nil
}

// Current reads the latest snapshot of name.
// Returns os.ErrNotExist if nothing was mirrored yet.
func (h *History) Current(ctx context.Context, name string) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.storage.Read(ctx, currentKey(name))
}

// List returns the backup keys of name, newest first.
func (h *History) List(ctx context.Context, name string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.backups(ctx, name)
}

// Get reads a backup by the key returned from List.
func (h *History) Get(ctx context.Context, key string) ([]byte, error) {
	if !strings.HasPrefix(key, SnapshotPrefix) || !strings.HasSuffix(key, SnapshotSuffix) {
		return nil, errors.Errorf("not a snapshot key: %q", key)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.storage.Read(ctx, key)
}

// Close releases resources held by the history storage.
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.storage != nil {
		return h.storage.Close()
	}
	return nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *History) backups(ctx context.Context, name string) (files []string, err error) {
	prefix := keyPrefix(name)
	keys, err := h.storage.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	current := currentKey(name)
	for _, key := range keys {
		if key != current &&
			strings.HasPrefix(key, prefix) &&
			strings.HasSuffix(key, SnapshotSuffix) {
			files = append(files, key)
		}
	}
	return files, nil
}

func (h *History) cleanup(ctx context.Context, name string) error {
	files, err := h.backups(ctx, name)
	if err != nil {
		return errors.Wrap(err, "could not generate file cleanup list")
	}
	if len(files) <= h.historyLimit {
		return nil
	}

	for _, f := range files[h.historyLimit:] {
		h.l.Debug("removing outdated backup", zap.String("file", f))
		if err := h.storage.Delete(ctx, f); err != nil {
			return fmt.Errorf("could not remove file %s: %w", f, err)
		}
	}

	return nil
}

func keyPrefix(name string) string {
	return SnapshotPrefix + unsafeKeyChars.ReplaceAllString(name, "_") + "@"
}

func currentKey(name string) string {
	return keyPrefix(name) + currentName + SnapshotSuffix
}
