package store

import (
	"context"

	"github.com/foomo/gistkv/pkg/gist"
	"github.com/foomo/gistkv/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// load reads the current mapping from the gist file. A missing file is created
// empty, truncated content is completed from the raw url.
func (s *Store) load(ctx context.Context) (map[string]string, error) {
	g, err := s.client.Get(ctx, s.gistID)
	if err != nil {
		return nil, errors.Wrap(gist.Classify(err), "failed to read gist")
	}

	file, ok := g.Files[s.filename]
	switch {
	case !ok || file == nil:
		s.l.Info("file does not exist", zap.String("gist_id", s.gistID), zap.String("filename", s.filename))
		if err := s.createFile(ctx); err != nil {
			return nil, err
		}
		return map[string]string{}, nil
	case file.Size == 0:
		return map[string]string{}, nil
	}

	text := []byte(file.Content)
	if file.Truncated {
		if file.RawURL == "" {
			return nil, errors.New("file is truncated but has no raw url")
		}
		s.l.Debug("file is truncated, reading raw content",
			zap.String("filename", s.filename),
			zap.Int("size", file.Size),
		)
		metrics.TruncatedReadsCounter.WithLabelValues().Inc()
		if text, err = s.client.Raw(ctx, file.RawURL); err != nil {
			return nil, errors.Wrap(gist.Classify(err), "failed to read raw file")
		}
	}

	m, err := s.format.Decode(text)
	if err != nil {
		s.l.Error("could not parse stored content", zap.String("filename", s.filename), zap.Error(err))
		return nil, err
	}
	s.mirror(ctx, text)
	return m, nil
}
