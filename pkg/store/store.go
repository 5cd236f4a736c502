package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/foomo/gistkv/pkg/gist"
	"github.com/foomo/gistkv/pkg/history"
	"github.com/foomo/gistkv/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultFilename is used when no filename is given
	DefaultFilename = "kevast-gist-default.json"
	// DefaultDescription is the description of gists created by the store
	DefaultDescription = "This file is used by gistkv."
)

// State of the store lifecycle
type State int32

const (
	StateUnresolved State = iota
	StateResolving
	StateReady
	// StateFailed is terminal, the store has to be discarded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Store keeps a string mapping in a single file of a gist. All reads are
// served from the in-memory cache, every mutation overwrites the whole file.
type (
	Store struct {
		l           *zap.Logger
		token       string
		gistID      string
		filename    string
		format      Format
		description string
		client      *gist.Client
		clientOpts  []gist.ClientOption
		history     *history.History
		state       atomic.Int32
		err         error
		cache       map[string]string
		mu          sync.Mutex
		pulls       singleflight.Group
	}
	Option func(*Store)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New validates the arguments and returns an unresolved store. No request is
// sent before Init or the first operation.
func New(l *zap.Logger, token string, opts ...Option) (*Store, error) {
	inst := &Store{
		l:           l.Named("store"),
		token:       token,
		format:      FormatObject,
		description: DefaultDescription,
		cache:       map[string]string{},
	}

	for _, opt := range opts {
		opt(inst)
	}

	if err := validate(inst.token, inst.gistID, inst.filename, inst.format); err != nil {
		return nil, err
	}

	inst.client = gist.NewClient(l, token, inst.clientOpts...)
	return inst, nil
}

// Open creates a store and resolves it eagerly.
func Open(ctx context.Context, l *zap.Logger, token string, opts ...Option) (*Store, error) {
	s, err := New(l, token, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithGistID binds the store to an existing gist.
func WithGistID(v string) Option {
	return func(o *Store) {
		o.gistID = v
	}
}

// WithFilename selects the file within the gist.
func WithFilename(v string) Option {
	return func(o *Store) {
		o.filename = v
	}
}

func WithFormat(v Format) Option {
	return func(o *Store) {
		o.format = v
	}
}

func WithDescription(v string) Option {
	return func(o *Store) {
		o.description = v
	}
}

func WithClientOptions(v ...gist.ClientOption) Option {
	return func(o *Store) {
		o.clientOpts = append(o.clientOpts, v...)
	}
}

// WithHistory mirrors every pushed or pulled snapshot into h.
func WithHistory(h *history.History) Option {
	return func(o *Store) {
		o.history = h
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (s *Store) State() State {
	return State(s.state.Load())
}

// GistID returns the resolved gist id, waiting for a running operation.
func (s *Store) GistID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gistID
}

// Filename returns the resolved filename, waiting for a running operation.
func (s *Store) Filename() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filename
}

func (s *Store) Format() Format {
	return s.format
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Init resolves the gist and file and hydrates the cache. It is the single
// resolution entry point: every other operation calls it first. Once it
// failed the store is unusable and every call returns ErrUnusable.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init(ctx)
}

// Get returns the cached value of key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.init(ctx); err != nil {
		return "", false, err
	}
	v, ok := s.cache[key]
	return v, ok, nil
}

// Snapshot returns a copy of the cached mapping.
func (s *Store) Snapshot(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return clone(s.cache), nil
}

// Pull re-reads the gist file and replaces the cache. Concurrent pulls share
// a single round trip.
func (s *Store) Pull(ctx context.Context) error {
	_, err, _ := s.pulls.Do("pull", func() (interface{}, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.State() != StateReady {
			// resolving hydrates the cache
			return nil, s.init(ctx)
		}
		m, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.cache = m
		return nil, nil
	})
	return err
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// init must be called with s.mu held
func (s *Store) init(ctx context.Context) error {
	switch s.State() {
	case StateReady:
		return nil
	case StateFailed:
		return fmt.Errorf("%w: %w", ErrUnusable, s.err)
	}

	s.state.Store(int32(StateResolving))
	if err := s.resolve(ctx); err != nil {
		// an abandoned call is not a remote failure, the next caller resolves again
		if ctx.Err() != nil {
			s.state.Store(int32(StateUnresolved))
			s.l.Debug("resolution aborted", zap.Error(err))
			return err
		}
		s.err = err
		s.state.Store(int32(StateFailed))
		s.l.Error("failed to resolve gist", zap.Error(err))
		return err
	}
	s.state.Store(int32(StateReady))
	s.l.Info("store ready",
		zap.String("gist_id", s.gistID),
		zap.String("filename", s.filename),
		zap.Int("keys", len(s.cache)),
	)
	return nil
}

// mirror hands the stored text to the history, failures are only logged
func (s *Store) mirror(ctx context.Context, data []byte) {
	if s.history == nil {
		return
	}
	if err := s.history.Add(ctx, history.Name(s.gistID, s.filename), data); err != nil {
		s.l.Error("could not persist snapshot in history", zap.Error(err))
		metrics.HistoryPersistFailedCounter.WithLabelValues().Inc()
	}
}

func clone(m map[string]string) map[string]string {
	ret := make(map[string]string, len(m))
	for k, v := range m {
		ret[k] = v
	}
	return ret
}
