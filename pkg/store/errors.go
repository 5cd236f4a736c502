package store

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrParseContent    = errors.New("failed to parse stored content")
	ErrUnusable        = errors.New("store is unusable after a failed initialization")
)

var gistIDPattern = regexp.MustCompile(`^[0-9A-Za-z]+$`)

// ArgumentError names the constructor argument that was rejected.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Name, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// validate checks all arguments before any request is sent and reports every
// offending one.
func validate(token, gistID, filename string, format Format) (err error) {
	switch {
	case token == "":
		err = multierr.Append(err, &ArgumentError{Name: "token", Reason: "must not be empty"})
	case strings.IndexFunc(token, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		err = multierr.Append(err, &ArgumentError{Name: "token", Reason: "must not contain whitespace or control characters"})
	}
	if gistID != "" && !gistIDPattern.MatchString(gistID) {
		err = multierr.Append(err, &ArgumentError{Name: "gistID", Reason: "must be alphanumeric"})
	}
	if filename != "" {
		switch {
		case strings.TrimSpace(filename) == "":
			err = multierr.Append(err, &ArgumentError{Name: "filename", Reason: "must not be blank"})
		case strings.ContainsAny(filename, `/\`):
			err = multierr.Append(err, &ArgumentError{Name: "filename", Reason: "must not contain a path separator"})
		}
	}
	if !format.valid() {
		err = multierr.Append(err, &ArgumentError{Name: "format", Reason: fmt.Sprintf("unknown format %q", string(format))})
	}
	return err
}

// validateText rejects keys and values the gist API would not store verbatim.
func validateText(m map[string]string) (err error) {
	for k, v := range m {
		if !utf8.ValidString(k) {
			err = multierr.Append(err, &ArgumentError{Name: "key", Reason: fmt.Sprintf("%q is not valid UTF-8", k)})
		}
		if !utf8.ValidString(v) {
			err = multierr.Append(err, &ArgumentError{Name: "value", Reason: fmt.Sprintf("value of %q is not valid UTF-8", k)})
		}
	}
	return err
}
