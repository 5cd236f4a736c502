package gist

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ScopeGist is the OAuth scope required to create and modify gists.
const ScopeGist = "gist"

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrMissingScope = errors.New(`the OAuth scopes of access token must include "gist"`)
	ErrNotFound     = errors.New("gist does not exist or no permission to operate this gist")
)

// ResponseError is returned for every non 2xx reply of the gist API.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	// Scopes as granted to the token, read from the X-OAuth-Scopes header
	Scopes  []string
	Message string
	Body    []byte
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
}

// HasScope reports whether the token that caused the error was granted scope.
func (e *ResponseError) HasScope(scope string) bool {
	for _, s := range e.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Classify maps a failed request onto ErrInvalidToken, ErrMissingScope or
// ErrNotFound. The scope check runs before the not found check: the API answers
// 404 both for a token without the gist scope and for an unknown gist.
// Errors that match none of the rules are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrMissingScope) || errors.Is(err, ErrNotFound) {
		return err
	}
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		return err
	}
	switch respErr.StatusCode {
	case 401:
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case 404:
		if !respErr.HasScope(ScopeGist) {
			return fmt.Errorf("%w: %w", ErrMissingScope, err)
		}
		if strings.HasPrefix(respErr.Message, "Not Found") {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}
	return err
}

func parseScopes(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	scopes := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			scopes = append(scopes, p)
		}
	}
	return scopes
}
