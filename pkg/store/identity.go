package store

import (
	"context"

	"github.com/foomo/gistkv/pkg/gist"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// resolve binds the store to a gist file, creating whatever is missing:
//
//   - no gist id: a new secret gist holding DefaultFilename is created
//   - no filename: DefaultFilename is used within the given gist
//   - otherwise the named file is read and created if absent
func (s *Store) resolve(ctx context.Context) error {
	switch {
	case s.gistID == "":
		if s.filename != "" && s.filename != DefaultFilename {
			s.l.Warn("ignoring filename for a new gist", zap.String("filename", s.filename), zap.String("default", DefaultFilename))
		}
		s.filename = DefaultFilename
		return s.createGist(ctx)
	case s.filename == "":
		s.filename = DefaultFilename
	}

	cache, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.cache = cache
	return nil
}

func (s *Store) createGist(ctx context.Context) error {
	empty := s.format.Empty()
	g, err := s.client.Create(ctx, s.description, false, map[string]string{
		s.filename: empty,
	})
	if err != nil {
		return errors.Wrap(gist.Classify(err), "failed to create gist")
	}
	if g.ID == "" {
		return errors.New("failed to create gist: no id returned")
	}
	s.gistID = g.ID
	s.cache = map[string]string{}
	s.l.Info("created gist", zap.String("gist_id", s.gistID), zap.String("filename", s.filename))
	s.mirror(ctx, []byte(empty))
	return nil
}

// createFile claims the filename in an existing gist, other files stay untouched
func (s *Store) createFile(ctx context.Context) error {
	empty := s.format.Empty()
	if _, err := s.client.Update(ctx, s.gistID, map[string]string{
		s.filename: empty,
	}); err != nil {
		return errors.Wrap(gist.Classify(err), "failed to create file")
	}
	s.l.Info("created file", zap.String("gist_id", s.gistID), zap.String("filename", s.filename))
	s.mirror(ctx, []byte(empty))
	return nil
}
