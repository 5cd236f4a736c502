package cmd_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/foomo/gistkv/cmd"
	"github.com/foomo/gistkv/pkg/gist/mock"
	"github.com/foomo/gistkv/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := cmd.NewRootCommand()
	out := &bytes.Buffer{}
	c.SetOut(out)
	c.SetArgs(append(args, "--log-level", "error"))
	err := c.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	s := mock.NewServer(t)
	id := s.Seed(mock.Token, map[string]string{"data": `{}`})
	flags := []string{"--token", mock.Token, "--base-url", s.URL, "--gist-id", id, "--filename", "data"}

	_, err := execute(t, append([]string{"set", "a", "1", "b", "2"}, flags...)...)
	require.NoError(t, err)
	content, _ := s.Content(id, "data")
	assert.Equal(t, `{"a":"1","b":"2"}`, content)
	assert.Equal(t, 1, s.Requests("update"), "pairs are written at once")

	out, err := execute(t, append([]string{"get", "a"}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	_, err = execute(t, append([]string{"delete", "a"}, flags...)...)
	require.NoError(t, err)

	_, err = execute(t, append([]string{"get", "a"}, flags...)...)
	require.ErrorIs(t, err, cmd.ErrKeyNotFound)

	out, err = execute(t, append([]string{"dump"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"b": "2"`)
	assert.Contains(t, out, id)

	_, err = execute(t, append([]string{"clear"}, flags...)...)
	require.NoError(t, err)
	content, _ = s.Content(id, "data")
	assert.Equal(t, "{}", content)

	_, err = execute(t, append([]string{"set", "odd"}, flags...)...)
	require.Error(t, err)
}

func TestCommands_NewGist(t *testing.T) {
	s := mock.NewServer(t)

	_, err := execute(t, "set", "a", "1", "--token", mock.Token, "--base-url", s.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Gists())
}

func TestCommands_SnapshotsRestore(t *testing.T) {
	s := mock.NewServer(t)
	id := s.Seed(mock.Token, map[string]string{store.DefaultFilename: `{}`})
	flags := []string{
		"--token", mock.Token, "--base-url", s.URL, "--gist-id", id,
		"--history", "--history-dir", t.TempDir(), "--history-limit", "10",
	}

	_, err := execute(t, append([]string{"set", "a", "1"}, flags...)...)
	require.NoError(t, err)
	_, err = execute(t, append([]string{"set", "a", "2"}, flags...)...)
	require.NoError(t, err)

	out, err := execute(t, append([]string{"snapshots", "--current"}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"2"}`+"\n", out)

	out, err = execute(t, append([]string{"snapshots"}, flags...)...)
	require.NoError(t, err)
	keys := strings.Fields(out)
	require.NotEmpty(t, keys)

	// the oldest backup holds the empty mapping
	_, err = execute(t, append([]string{"restore", keys[len(keys)-1]}, flags...)...)
	require.NoError(t, err)
	content, _ := s.Content(id, store.DefaultFilename)
	assert.Equal(t, "{}", content)
	out, err = execute(t, append([]string{"snapshots", "--current"}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", out)

	_, err = execute(t, append([]string{"restore", "gistkv-foreign@current.json"}, flags...)...)
	require.Error(t, err)

	_, err = execute(t, append([]string{"snapshots", "--current", "--filename", "unknown.json"}, flags...)...)
	require.Error(t, err)
}

func TestCommands_Destroy(t *testing.T) {
	s := mock.NewServer(t)
	id := s.Seed(mock.Token, map[string]string{"data": `{}`})
	flags := []string{"--token", mock.Token, "--base-url", s.URL, "--gist-id", id}

	_, err := execute(t, append([]string{"destroy"}, flags...)...)
	require.Error(t, err)
	assert.True(t, s.Exists(id))

	_, err = execute(t, append([]string{"destroy", "--yes"}, flags...)...)
	require.NoError(t, err)
	assert.False(t, s.Exists(id))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "latest\n", out)
}
