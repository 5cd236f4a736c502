package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foomo/gistkv/pkg/gist"
	"github.com/foomo/gistkv/pkg/gist/mock"
	"github.com/foomo/gistkv/pkg/handler"
	"github.com/foomo/gistkv/pkg/store"
	"github.com/foomo/gistkv/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newTestServer(t *testing.T, token string, opts ...store.Option) (*mock.Server, *store.Store, *httptest.Server) {
	t.Helper()
	l := zaptest.NewLogger(t)
	m := mock.NewServer(t)
	opts = append([]store.Option{store.WithClientOptions(gist.WithBaseURL(m.URL))}, opts...)
	s, err := store.New(l, token, opts...)
	require.NoError(t, err)
	server := httptest.NewServer(handler.NewHTTP(l, s))
	t.Cleanup(server.Close)
	return m, s, server
}

func post(t *testing.T, server *httptest.Server, route, body string, reply interface{}) int {
	t.Helper()
	resp, err := http.Post(server.URL+"/gistkv/"+route, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if reply != nil {
		require.NoError(t, json.Unmarshal(data, &struct {
			Reply interface{} `json:"reply"`
		}{Reply: reply}), string(data))
	}
	return resp.StatusCode
}

func TestHTTP_Routes(t *testing.T) {
	m, s, server := newTestServer(t, mock.Token)

	update := &responses.Update{}
	assert.Equal(t, http.StatusOK, post(t, server, "set", `{"key":"key1","value":"value1"}`, update))
	assert.True(t, update.Success)
	assert.Equal(t, 1, update.Keys)

	update = &responses.Update{}
	assert.Equal(t, http.StatusOK, post(t, server, "mutate", `{"set":[{"key":"key2","value":"value2"},{"key":"key3","value":"value3"}],"removed":["key3"]}`, update))
	assert.Equal(t, 2, update.Keys)

	value := &responses.Value{}
	assert.Equal(t, http.StatusOK, post(t, server, "get", `{"key":"key2"}`, value))
	assert.True(t, value.Found)
	assert.Equal(t, "value2", value.Value)

	value = &responses.Value{}
	assert.Equal(t, http.StatusOK, post(t, server, "get", `{"key":"key3"}`, value))
	assert.False(t, value.Found)

	snapshot := &responses.Snapshot{}
	assert.Equal(t, http.StatusOK, post(t, server, "dump", "", snapshot))
	assert.Equal(t, s.GistID(), snapshot.GistID)
	assert.Equal(t, store.DefaultFilename, snapshot.Filename)
	assert.Equal(t, map[string]string{"key1": "value1", "key2": "value2"}, snapshot.Entries)

	content, _ := m.Content(s.GistID(), s.Filename())
	assert.Equal(t, `{"key1":"value1","key2":"value2"}`, content)

	update = &responses.Update{}
	assert.Equal(t, http.StatusOK, post(t, server, "delete", `{"keys":["key1"]}`, update))
	assert.Equal(t, 1, update.Keys)

	update = &responses.Update{}
	assert.Equal(t, http.StatusOK, post(t, server, "clear", "{}", update))
	assert.Equal(t, 0, update.Keys)

	content, _ = m.Content(s.GistID(), s.Filename())
	assert.Equal(t, "{}", content)
}

func TestHTTP_Pull(t *testing.T) {
	m := mock.NewServer(t)
	id := m.Seed(mock.Token, map[string]string{"data": `{"a":"1"}`})
	l := zaptest.NewLogger(t)
	s, err := store.Open(context.Background(), l, mock.Token,
		store.WithClientOptions(gist.WithBaseURL(m.URL)),
		store.WithGistID(id),
		store.WithFilename("data"),
	)
	require.NoError(t, err)
	server := httptest.NewServer(handler.NewHTTP(l, s, handler.WithBasePath("/kv/")))
	defer server.Close()

	_, err = gist.NewClient(l, mock.Token, gist.WithBaseURL(m.URL)).Update(context.Background(), id, map[string]string{"data": `{"a":"1","b":"2"}`})
	require.NoError(t, err)

	update := &responses.Update{}
	resp, err := http.Post(server.URL+"/kv/pull", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&struct {
		Reply interface{} `json:"reply"`
	}{Reply: update}))
	assert.Equal(t, 2, update.Keys)
}

func TestHTTP_Errors(t *testing.T) {
	_, _, server := newTestServer(t, mock.Token)

	errReply := &responses.Error{}
	assert.Equal(t, http.StatusNotFound, post(t, server, "unknown", "{}", errReply))
	assert.Equal(t, responses.CodeUnknownRoute, errReply.Code)

	errReply = &responses.Error{}
	assert.Equal(t, http.StatusBadRequest, post(t, server, "get", "{", errReply))
	assert.Equal(t, responses.CodeInvalidJSON, errReply.Code)

	resp, err := http.Get(server.URL + "/gistkv/dump")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTP_StoreErrors(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		opts   []store.Option
		status int
		code   int
	}{
		{name: "invalid token", token: "unknown", status: http.StatusUnauthorized, code: responses.CodeInvalidToken},
		{name: "missing scope", token: mock.TokenWithoutGistScope, status: http.StatusForbidden, code: responses.CodeMissingScope},
		{name: "not found", token: mock.Token, opts: []store.Option{store.WithGistID("06f031f9faa95f79569f7c76df446e51")}, status: http.StatusNotFound, code: responses.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, server := newTestServer(t, tt.token, tt.opts...)

			errReply := &responses.Error{}
			assert.Equal(t, tt.status, post(t, server, "dump", "", errReply))
			assert.Equal(t, tt.code, errReply.Code)

			// the store is unusable from now on
			errReply = &responses.Error{}
			assert.Equal(t, http.StatusServiceUnavailable, post(t, server, "get", `{"key":"a"}`, errReply))
			assert.Equal(t, responses.CodeUnusable, errReply.Code)
		})
	}
}
