package handler

import (
	"net/http"

	"github.com/foomo/gistkv/pkg/gist"
	"github.com/foomo/gistkv/pkg/store"
	"github.com/foomo/gistkv/responses"
	"github.com/pkg/errors"
)

// replyError maps store and gist errors to a reply
func replyError(err error) *responses.Error {
	switch {
	case errors.Is(err, store.ErrUnusable):
		return responses.NewErrorf(http.StatusServiceUnavailable, responses.CodeUnusable, "%s", err.Error())
	case errors.Is(err, store.ErrInvalidArgument):
		return responses.NewErrorf(http.StatusBadRequest, responses.CodeInvalidArgument, "%s", err.Error())
	case errors.Is(err, gist.ErrInvalidToken):
		return responses.NewErrorf(http.StatusUnauthorized, responses.CodeInvalidToken, "%s", err.Error())
	case errors.Is(err, gist.ErrMissingScope):
		return responses.NewErrorf(http.StatusForbidden, responses.CodeMissingScope, "%s", err.Error())
	case errors.Is(err, gist.ErrNotFound):
		return responses.NewErrorf(http.StatusNotFound, responses.CodeNotFound, "%s", err.Error())
	case errors.Is(err, store.ErrParseContent):
		return responses.NewErrorf(http.StatusUnprocessableEntity, responses.CodeParseContent, "%s", err.Error())
	default:
		return responses.NewError(responses.CodeInternal, "internal error "+err.Error())
	}
}
