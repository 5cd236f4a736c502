package cmd

import (
	"context"
	"fmt"

	"github.com/foomo/gistkv/pkg/gist"
	"github.com/foomo/gistkv/pkg/history"
	"github.com/foomo/gistkv/pkg/store"
	"github.com/foomo/gistkv/pkg/utils"
	keelhttp "github.com/foomo/keel/net/http"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func addStoreFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addTokenFlag(flags, v)
	addGistIDFlag(flags, v)
	addFilenameFlag(flags, v)
	addFormatFlag(flags, v)
	addBaseURLFlag(flags, v)
	addTimeoutFlag(flags, v)
	addRateLimitFlag(flags, v)
	addRateBurstFlag(flags, v)
	addHistoryEnabledFlag(flags, v)
	addHistoryDirFlag(flags, v)
	addHistoryLimitFlag(flags, v)
	addStorageTypeFlag(flags, v)
	addStorageBlobBucketFlag(flags, v)
	addStorageBlobPrefixFlag(flags, v)
}

func gistClientOptions(v *viper.Viper) []gist.ClientOption {
	opts := []gist.ClientOption{
		gist.WithBaseURL(baseURLFlag(v)),
		gist.WithHTTPClient(
			keelhttp.NewHTTPClient(
				keelhttp.HTTPClientWithTimeout(timeoutFlag(v)),
				keelhttp.HTTPClientWithTelemetry(),
			),
		),
	}
	if limit := rateLimitFlag(v); limit > 0 {
		opts = append(opts, gist.WithRateLimit(rate.Limit(limit), rateBurstFlag(v)))
	}
	return opts
}

// newHistory returns nil if the history is disabled and force is false
func newHistory(ctx context.Context, l *zap.Logger, v *viper.Viper, force bool) (*history.History, error) {
	if !historyEnabledFlag(v) && !force {
		return nil, nil
	}

	storageType := storageTypeFlag(v)
	blobBucket := storageBlobBucketFlag(v)
	blobPrefix := storageBlobPrefixFlag(v)

	if storageType != history.StorageTypeBlob && (blobBucket != "" || blobPrefix != "") {
		l.Warn("blob storage flags are set but storage-type is not 'blob'; blob config will be ignored",
			zap.String("storage-type", storageType),
			zap.String("blob-bucket", blobBucket),
			zap.String("blob-prefix", blobPrefix),
		)
	}

	l.Info("creating storage", zap.String("type", storageType))
	storage, err := history.NewStorage(ctx, storageType, historyDirFlag(v), blobBucket, blobPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	h, err := history.New(l.Named("inst.history"),
		history.WithStorage(storage),
		history.WithHistoryLimit(historyLimitFlag(v)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create history: %w", err)
	}
	return h, nil
}

// newStore builds an unresolved store from the flags
func newStore(l *zap.Logger, v *viper.Viper, h *history.History) (*store.Store, error) {
	if !utils.IsValidURL(baseURLFlag(v)) {
		return nil, fmt.Errorf("invalid base url %q", baseURLFlag(v))
	}
	format, err := store.ParseFormat(formatFlag(v))
	if err != nil {
		return nil, err
	}

	opts := []store.Option{
		store.WithGistID(gistIDFlag(v)),
		store.WithFilename(filenameFlag(v)),
		store.WithFormat(format),
		store.WithClientOptions(gistClientOptions(v)...),
	}
	if h != nil {
		opts = append(opts, store.WithHistory(h))
	}
	return store.New(l.Named("inst"), tokenFlag(v), opts...)
}

// withStore opens the store, runs fn and releases the history
func withStore(ctx context.Context, v *viper.Viper, fn func(s *store.Store) error) (err error) {
	l := zap.L()

	h, err := newHistory(ctx, l, v, false)
	if err != nil {
		return err
	}
	if h != nil {
		defer func() {
			err = multierr.Append(err, h.Close())
		}()
	}

	s, err := newStore(l, v, h)
	if err != nil {
		return err
	}
	if err := s.Init(ctx); err != nil {
		return err
	}
	if gistIDFlag(v) == "" {
		l.Info("created a new gist, pass it with --gist-id to reuse it", zap.String("gist_id", s.GistID()))
	}
	return fn(s)
}
