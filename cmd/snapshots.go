package cmd

import (
	"fmt"
	"os"

	"github.com/foomo/gistkv/pkg/gist"
	"github.com/foomo/gistkv/pkg/history"
	"github.com/foomo/gistkv/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func snapshotName(v *viper.Viper) (string, error) {
	gistID := gistIDFlag(v)
	if gistID == "" {
		return "", errors.New("--gist-id is required")
	}
	filename := filenameFlag(v)
	if filename == "" {
		filename = store.DefaultFilename
	}
	return history.Name(gistID, filename), nil
}

func NewSnapshotsCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List the snapshot backups of a gist file, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			name, err := snapshotName(v)
			if err != nil {
				return err
			}
			h, err := newHistory(cmd.Context(), zap.L(), v, true)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, h.Close())
			}()

			if v.GetBool("current") {
				data, err := h.Current(cmd.Context(), name)
				if os.IsNotExist(err) {
					return errors.Errorf("no snapshot of %s was mirrored yet", name)
				} else if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			keys, err := h.List(cmd.Context(), name)
			if err != nil {
				return err
			}
			for _, key := range keys {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), key); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	addStoreFlags(flags, v)
	flags.Bool("current", false, "Print the latest mirrored snapshot instead of the backup keys")
	_ = v.BindPFlag("current", flags.Lookup("current"))
	return cmd
}

func NewRestoreCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "restore <key>",
		Short: "Overwrite the gist file with a snapshot backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			l := zap.L()

			name, err := snapshotName(v)
			if err != nil {
				return err
			}
			h, err := newHistory(ctx, l, v, true)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, h.Close())
			}()

			keys, err := h.List(ctx, name)
			if err != nil {
				return err
			}
			if !contains(keys, args[0]) {
				return errors.Errorf("%q is not a snapshot of %s", args[0], name)
			}
			data, err := h.Get(ctx, args[0])
			if err != nil {
				return err
			}

			s, err := newStore(l, v, h)
			if err != nil {
				return err
			}
			entries, err := s.Format().Decode(data)
			if err != nil {
				return err
			}
			if err := s.Replace(ctx, entries); err != nil {
				return err
			}
			l.Info("restored snapshot", zap.String("key", args[0]), zap.Int("keys", len(entries)))
			return nil
		},
	}
	addStoreFlags(cmd.Flags(), v)
	return cmd
}

func NewDestroyCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete the whole gist including all of its files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gistID := gistIDFlag(v)
			if gistID == "" {
				return errors.New("--gist-id is required")
			}
			if !v.GetBool("yes") {
				return errors.New("refusing to delete the gist without --yes")
			}
			c := gist.NewClient(zap.L(), tokenFlag(v), gistClientOptions(v)...)
			if err := c.Delete(cmd.Context(), gistID); err != nil {
				return errors.Wrap(gist.Classify(err), "failed to delete gist")
			}
			zap.L().Info("deleted gist", zap.String("gist_id", gistID))
			return nil
		},
	}
	flags := cmd.Flags()
	addTokenFlag(flags, v)
	addGistIDFlag(flags, v)
	addBaseURLFlag(flags, v)
	addTimeoutFlag(flags, v)
	addRateLimitFlag(flags, v)
	addRateBurstFlag(flags, v)
	flags.Bool("yes", false, "Confirm the deletion")
	_ = v.BindPFlag("yes", flags.Lookup("yes"))
	return cmd
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
