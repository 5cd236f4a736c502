package store

import (
	"context"

	"github.com/foomo/gistkv/pkg/gist"
	"github.com/foomo/gistkv/pkg/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type (
	// Pair is a single upsert
	Pair struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	// Event describes a mutation: upserts and removals are applied first,
	// Clear then drops everything including the upserts of the same event.
	Event struct {
		Set     []Pair   `json:"set,omitempty"`
		Removed []string `json:"removed,omitempty"`
		Clear   bool     `json:"clear,omitempty"`
	}
)

// Apply returns a copy of m with the event applied.
func (e Event) Apply(m map[string]string) map[string]string {
	if e.Clear {
		return map[string]string{}
	}
	ret := clone(m)
	for _, p := range e.Set {
		ret[p.Key] = p.Value
	}
	for _, k := range e.Removed {
		delete(ret, k)
	}
	return ret
}

// Validate reports upserts and removals that cannot be stored.
func (e Event) Validate() (err error) {
	for _, p := range e.Set {
		err = multierr.Append(err, validateText(map[string]string{p.Key: p.Value}))
	}
	for _, k := range e.Removed {
		err = multierr.Append(err, validateText(map[string]string{k: ""}))
	}
	return err
}

// Mutate applies the event and overwrites the gist file with the resulting
// mapping. The cache only changes once the write succeeded.
func (s *Store) Mutate(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.init(ctx); err != nil {
		return err
	}
	return s.push(ctx, event.Apply(s.cache))
}

// Replace overwrites the whole mapping.
func (s *Store) Replace(ctx context.Context, m map[string]string) error {
	if err := validateText(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.init(ctx); err != nil {
		return err
	}
	return s.push(ctx, clone(m))
}

// Set is a shorthand for a single upsert.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.Mutate(ctx, Event{Set: []Pair{{Key: key, Value: value}}})
}

// Delete is a shorthand for removing keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.Mutate(ctx, Event{Removed: keys})
}

// Clear removes all keys.
func (s *Store) Clear(ctx context.Context) error {
	return s.Mutate(ctx, Event{Clear: true})
}

// push must be called with s.mu held
func (s *Store) push(ctx context.Context, next map[string]string) error {
	l := s.l.With(zap.String("run_id", uuid.New().String()))

	data, err := s.format.Encode(next)
	if err != nil {
		return errors.Wrap(err, "failed to serialize mapping")
	}

	if _, err := s.client.Update(ctx, s.gistID, map[string]string{
		s.filename: string(data),
	}); err != nil {
		l.Warn("failed to push snapshot", zap.Error(err))
		metrics.MutationsFailedCounter.WithLabelValues().Inc()
		return errors.Wrap(gist.Classify(err), "failed to write gist")
	}

	s.cache = next
	metrics.MutationsCompletedCounter.WithLabelValues().Inc()
	l.Debug("pushed snapshot",
		zap.Int("keys", len(next)),
		zap.Int("bytes", len(data)),
	)
	s.mirror(ctx, data)
	return nil
}
