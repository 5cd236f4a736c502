package client

import (
	"context"

	"github.com/foomo/gistkv/pkg/handler"
	"github.com/foomo/gistkv/pkg/utils"
	"github.com/foomo/gistkv/requests"
	"github.com/foomo/gistkv/responses"
	"github.com/pkg/errors"
)

// Client talks to a gistkv http service
type Client struct {
	t Transport
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(t Transport) *Client {
	return &Client{
		t: t,
	}
}

// NewHTTPClient validates the server url, e.g. http://localhost:8080/gistkv
func NewHTTPClient(server string, opts ...HTTPTransportOption) (*Client, error) {
	if !utils.IsValidURL(server) {
		return nil, errors.Errorf("invalid server url %q", server)
	}
	return New(NewHTTPTransport(server, opts...)), nil
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Get returns the value of key and whether it exists
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	response := &responses.Value{}
	if err := c.t.Call(ctx, handler.RouteGet, &requests.Get{Key: key}, response); err != nil {
		return "", false, err
	}
	return response.Value, response.Found, nil
}

func (c *Client) Set(ctx context.Context, key, value string) (*responses.Update, error) {
	response := &responses.Update{}
	if err := c.t.Call(ctx, handler.RouteSet, &requests.Set{Key: key, Value: value}, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) (*responses.Update, error) {
	response := &responses.Update{}
	if err := c.t.Call(ctx, handler.RouteDelete, &requests.Delete{Keys: keys}, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) Clear(ctx context.Context) (*responses.Update, error) {
	response := &responses.Update{}
	if err := c.t.Call(ctx, handler.RouteClear, &requests.Clear{}, response); err != nil {
		return nil, err
	}
	return response, nil
}

// Mutate applies upserts, removals and clear with a single write
func (c *Client) Mutate(ctx context.Context, request *requests.Mutate) (*responses.Update, error) {
	response := &responses.Update{}
	if err := c.t.Call(ctx, handler.RouteMutate, request, response); err != nil {
		return nil, err
	}
	return response, nil
}

// Dump returns the whole mapping
func (c *Client) Dump(ctx context.Context) (*responses.Snapshot, error) {
	response := &responses.Snapshot{}
	if err := c.t.Call(ctx, handler.RouteDump, &requests.Dump{}, response); err != nil {
		return nil, err
	}
	return response, nil
}

// Pull makes the service re-read the gist file
func (c *Client) Pull(ctx context.Context) (*responses.Update, error) {
	response := &responses.Update{}
	if err := c.t.Call(ctx, handler.RoutePull, &requests.Pull{}, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) Close() {
	c.t.Shutdown()
}
