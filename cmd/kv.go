package cmd

import (
	"fmt"

	"github.com/foomo/gistkv/pkg/store"
	"github.com/foomo/gistkv/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrKeyNotFound is returned by the get command
var ErrKeyNotFound = errors.New("key not found")

func NewGetCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), v, func(s *store.Store) error {
				value, ok, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return errors.Wrap(ErrKeyNotFound, args[0])
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
				return err
			})
		},
	}
	addStoreFlags(cmd.Flags(), v)
	return cmd
}

func NewSetCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "set <key> <value> [<key> <value>...]",
		Short: "Set one or more keys with a single write",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return errors.New("requires pairs of key and value")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			event := store.Event{}
			for i := 0; i < len(args); i += 2 {
				event.Set = append(event.Set, store.Pair{Key: args[i], Value: args[i+1]})
			}
			return withStore(cmd.Context(), v, func(s *store.Store) error {
				return s.Mutate(cmd.Context(), event)
			})
		},
	}
	addStoreFlags(cmd.Flags(), v)
	return cmd
}

func NewDeleteCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "delete <key>...",
		Short: "Remove keys with a single write",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), v, func(s *store.Store) error {
				return s.Delete(cmd.Context(), args...)
			})
		},
	}
	addStoreFlags(cmd.Flags(), v)
	return cmd
}

func NewClearCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), v, func(s *store.Store) error {
				return s.Clear(cmd.Context())
			})
		},
	}
	addStoreFlags(cmd.Flags(), v)
	return cmd
}

func NewDumpCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the whole mapping as json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), v, func(s *store.Store) error {
				entries, err := s.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(&responses.Snapshot{
					GistID:   s.GistID(),
					Filename: s.Filename(),
					Entries:  entries,
				}, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			})
		},
	}
	addStoreFlags(cmd.Flags(), v)
	return cmd
}
