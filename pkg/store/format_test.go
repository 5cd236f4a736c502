package store_test

import (
	"context"
	"testing"

	"github.com/foomo/gistkv/pkg/gist/mock"
	"github.com/foomo/gistkv/pkg/store"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genMapping() gopter.Gen {
	return gen.MapOf(gen.Identifier(), gen.AlphaString())
}

func equalMappings(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func TestFormat_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	for _, format := range []store.Format{store.FormatObject, store.FormatEntries} {
		format := format
		properties.Property(string(format)+" decode(encode(m)) == m", prop.ForAll(
			func(m map[string]string) bool {
				data, err := format.Encode(m)
				if err != nil {
					return false
				}
				got, err := format.Decode(data)
				if err != nil {
					return false
				}
				return equalMappings(m, got)
			},
			genMapping(),
		))
	}

	properties.TestingRun(t)
}

func TestFormat_Encode(t *testing.T) {
	m := map[string]string{
		"b":    `quote " and <tag> & amp`,
		"a":    "line\nbreak",
		"ü日本": "ü日本",
	}

	data, err := store.FormatObject.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"line\nbreak","b":"quote \" and <tag> & amp","ü日本":"ü日本"}`, string(data))

	data, err = store.FormatEntries.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, `[["a","line\nbreak"],["b","quote \" and <tag> & amp"],["ü日本","ü日本"]]`, string(data))

	for _, format := range []store.Format{store.FormatObject, store.FormatEntries} {
		got, err := format.Decode(data)
		if format == store.FormatObject {
			require.ErrorIs(t, err, store.ErrParseContent)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	data, err = store.FormatObject.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, store.FormatObject.Empty(), string(data))

	data, err = store.FormatEntries.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, store.FormatEntries.Empty(), string(data))
}

func TestFormat_Decode(t *testing.T) {
	tests := []struct {
		name   string
		format store.Format
		data   string
		want   map[string]string
		err    bool
	}{
		{name: "object", format: store.FormatObject, data: `{"a":"1"}`, want: map[string]string{"a": "1"}},
		{name: "object null value", format: store.FormatObject, data: `{"a":"1","b":null}`, want: map[string]string{"a": "1"}},
		{name: "object null", format: store.FormatObject, data: `null`, err: true},
		{name: "object array", format: store.FormatObject, data: `[]`, err: true},
		{name: "object number value", format: store.FormatObject, data: `{"a":1}`, err: true},
		{name: "object garbage", format: store.FormatObject, data: `{"a":`, err: true},
		{name: "entries", format: store.FormatEntries, data: `[["a","1"],["b","2"]]`, want: map[string]string{"a": "1", "b": "2"}},
		{name: "entries last wins", format: store.FormatEntries, data: `[["a","1"],["a","2"]]`, want: map[string]string{"a": "2"}},
		{name: "entries null value", format: store.FormatEntries, data: `[["a",null]]`, want: map[string]string{}},
		{name: "entries short pair", format: store.FormatEntries, data: `[["a"]]`, err: true},
		{name: "entries null key", format: store.FormatEntries, data: `[[null,"1"]]`, err: true},
		{name: "entries object", format: store.FormatEntries, data: `{}`, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.format.Decode([]byte(tt.data))
			if tt.err {
				require.ErrorIs(t, err, store.ErrParseContent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := store.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, store.FormatObject, f)

	f, err = store.ParseFormat("entries")
	require.NoError(t, err)
	assert.Equal(t, store.FormatEntries, f)

	_, err = store.ParseFormat("yaml")
	require.Error(t, err)
}

func TestEvent_Apply(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("clear yields an empty mapping", prop.ForAll(
		func(m map[string]string, set map[string]string, removed []string) bool {
			event := store.Event{Removed: removed, Clear: true}
			for k, v := range set {
				event.Set = append(event.Set, store.Pair{Key: k, Value: v})
			}
			return len(event.Apply(m)) == 0
		},
		genMapping(), genMapping(), gen.SliceOf(gen.Identifier()),
	))

	properties.Property("apply does not modify its input", prop.ForAll(
		func(m map[string]string, key, value string) bool {
			before := len(m)
			_, existed := m[key]
			got := store.Event{Set: []store.Pair{{Key: key, Value: value}}}.Apply(m)
			_, exists := m[key]
			return got[key] == value && len(m) == before && existed == exists
		},
		genMapping(), gen.Identifier(), gen.AlphaString(),
	))

	properties.Property("removals win over upserts of the same event", prop.ForAll(
		func(m map[string]string, key string) bool {
			got := store.Event{
				Set:     []store.Pair{{Key: key, Value: "v"}},
				Removed: []string{key},
			}.Apply(m)
			_, ok := got[key]
			return !ok
		},
		genMapping(), gen.Identifier(),
	))

	properties.TestingRun(t)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := mock.NewServer(t)
	st, err := openTestStore(t, s, mock.Token)
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("clear after any writes leaves an empty store", prop.ForAll(
		func(set map[string]string, removed []string) bool {
			event := store.Event{Removed: removed}
			for k, v := range set {
				event.Set = append(event.Set, store.Pair{Key: k, Value: v})
			}
			if err := st.Mutate(ctx, event); err != nil {
				return false
			}
			if err := st.Clear(ctx); err != nil {
				return false
			}
			for k := range set {
				if _, ok, err := st.Get(ctx, k); err != nil || ok {
					return false
				}
			}
			content, _ := s.Content(st.GistID(), st.Filename())
			return content == "{}"
		},
		genMapping(), gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
