package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/foomo/gistkv/pkg/handler"
	"github.com/foomo/gistkv/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	HTTPTransport struct {
		client   *http.Client
		endpoint string
	}
	HTTPTransportOption func(*HTTPTransport)
	serverResponse      struct {
		Reply interface{} `json:"reply"`
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTPTransport will create a new http transport for the given server.
// Caution: the provided server url is not validated!
func NewHTTPTransport(server string, opts ...HTTPTransportOption) *HTTPTransport {
	inst := &HTTPTransport{
		endpoint: strings.TrimRight(server, "/"),
		client:   http.DefaultClient,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func HTTPTransportWithHTTPClient(v *http.Client) HTTPTransportOption {
	return func(o *HTTPTransport) {
		o.client = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (ht *HTTPTransport) Shutdown() {
	// nothing to do here
}

func (ht *HTTPTransport) Call(ctx context.Context, route handler.Route, request interface{}, response interface{}) error {
	requestBytes, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		ht.endpoint+"/"+string(route),
		bytes.NewBuffer(requestBytes),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	httpResponse, err := ht.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer httpResponse.Body.Close()

	responseBytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if httpResponse.StatusCode != http.StatusOK {
		remoteErr := &responses.Error{}
		if err := json.Unmarshal(responseBytes, &serverResponse{Reply: remoteErr}); err != nil || remoteErr.Code == 0 {
			return errors.Errorf("non 200 reply: %d %s", httpResponse.StatusCode, strings.TrimSpace(string(responseBytes)))
		}
		return remoteErr
	}
	return json.Unmarshal(responseBytes, &serverResponse{Reply: response})
}
