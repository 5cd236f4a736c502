package gist

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "unauthorized",
			err:  &ResponseError{StatusCode: 401, Message: "Bad credentials"},
			want: ErrInvalidToken,
		},
		{
			name: "not found without scopes header",
			err:  &ResponseError{StatusCode: 404, Message: "Not Found"},
			want: ErrMissingScope,
		},
		{
			name: "not found with other scopes",
			err:  &ResponseError{StatusCode: 404, Scopes: []string{"repo", "gist:read"}, Message: "Not Found"},
			want: ErrMissingScope,
		},
		{
			name: "not found with gist scope",
			err:  &ResponseError{StatusCode: 404, Scopes: []string{"repo", "gist"}, Message: "Not Found"},
			want: ErrNotFound,
		},
		{
			name: "wrapped response error",
			err:  errors.Wrap(&ResponseError{StatusCode: 401}, "init"),
			want: ErrInvalidToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			var respErr *ResponseError
			assert.ErrorAs(t, got, &respErr)
		})
	}
}

func TestClassify_Unclassified(t *testing.T) {
	for _, err := range []error{
		&ResponseError{StatusCode: 500, Message: "Server Error"},
		&ResponseError{StatusCode: 404, Scopes: []string{"gist"}, Message: "Gone fishing"},
		&ResponseError{StatusCode: 422, Message: "Validation Failed"},
		io.ErrUnexpectedEOF,
	} {
		assert.Same(t, err, Classify(err))
	}
	assert.NoError(t, Classify(nil))
}

func TestClassify_Idempotent(t *testing.T) {
	once := Classify(&ResponseError{StatusCode: 401})
	assert.Equal(t, once, Classify(once))
}

func TestParseScopes(t *testing.T) {
	assert.Nil(t, parseScopes(""))
	assert.Nil(t, parseScopes("  "))
	assert.Equal(t, []string{"gist", "repo"}, parseScopes("gist, repo"))
	assert.Equal(t, []string{"gist"}, parseScopes("gist,"))
}
