package client

import (
	"context"

	"github.com/foomo/gistkv/pkg/handler"
)

// Transport carries a request to a route and decodes the reply into response
type Transport interface {
	Call(ctx context.Context, route handler.Route, request interface{}, response interface{}) error
	Shutdown()
}
