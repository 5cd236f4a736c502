package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foomo/gistkv/pkg/metrics"
	"github.com/foomo/gistkv/pkg/store"
	"github.com/foomo/gistkv/requests"
	"github.com/foomo/gistkv/responses"
	httputils "github.com/foomo/keel/utils/net/http"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	HTTP struct {
		l     *zap.Logger
		path  string
		store *store.Store
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP exposes the store operations as POST routes below the base path
func NewHTTP(l *zap.Logger, s *store.Store, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:     l.Named("http"),
		path:  "/gistkv",
		store: s,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithBasePath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = strings.TrimRight(v, "/")
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputils.ServerError(h.l, w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if r.Body == nil {
		httputils.BadRequestServerError(h.l, w, r, errors.New("empty request body"))
		return
	}

	bytes, err := io.ReadAll(r.Body)
	if err != nil {
		httputils.BadRequestServerError(h.l, w, r, errors.Wrap(err, "failed to read incoming request"))
		return
	}

	route := Route(strings.TrimPrefix(r.URL.Path, h.path+"/"))
	status, reply, err := h.handleRequest(r.Context(), route, bytes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(reply)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) handleRequest(ctx context.Context, route Route, jsonBytes []byte) (int, []byte, error) {
	start := time.Now()

	reply, errReply := h.executeRequest(ctx, route, jsonBytes)
	status, result := http.StatusOK, "success"
	if errReply != nil {
		status, result = errReply.Status, "error"
		reply = errReply
	}

	label := string(route)
	if !route.valid() {
		label = "unknown"
	}
	metrics.ServiceRequestCounter.WithLabelValues(label, result).Inc()
	metrics.ServiceRequestDuration.WithLabelValues(label, result).Observe(time.Since(start).Seconds())

	bytes, err := h.encodeReply(reply)
	return status, bytes, err
}

func (h *HTTP) executeRequest(ctx context.Context, route Route, jsonBytes []byte) (reply interface{}, errReply *responses.Error) {
	var (
		apiErr  error
		jsonErr error
		start   = time.Now()
		decode  = func(v interface{}) bool {
			if len(jsonBytes) == 0 {
				return true
			}
			jsonErr = json.Unmarshal(jsonBytes, v)
			return jsonErr == nil
		}
		update = func() {
			if apiErr != nil {
				return
			}
			var entries map[string]string
			if entries, apiErr = h.store.Snapshot(ctx); apiErr == nil {
				reply = &responses.Update{Success: true, Keys: len(entries), Runtime: time.Since(start).Seconds()}
			}
		}
	)

	switch route {
	case RouteGet:
		req := &requests.Get{}
		if decode(req) {
			var (
				value string
				found bool
			)
			if value, found, apiErr = h.store.Get(ctx, req.Key); apiErr == nil {
				reply = &responses.Value{Key: req.Key, Value: value, Found: found}
			}
		}
	case RouteSet:
		req := &requests.Set{}
		if decode(req) {
			apiErr = h.store.Set(ctx, req.Key, req.Value)
			update()
		}
	case RouteDelete:
		req := &requests.Delete{}
		if decode(req) {
			apiErr = h.store.Delete(ctx, req.Keys...)
			update()
		}
	case RouteClear:
		if decode(&requests.Clear{}) {
			apiErr = h.store.Clear(ctx)
			update()
		}
	case RouteMutate:
		req := &requests.Mutate{}
		if decode(req) {
			event := store.Event{Removed: req.Removed, Clear: req.Clear}
			for _, p := range req.Set {
				event.Set = append(event.Set, store.Pair{Key: p.Key, Value: p.Value})
			}
			apiErr = h.store.Mutate(ctx, event)
			update()
		}
	case RouteDump:
		if decode(&requests.Dump{}) {
			var entries map[string]string
			if entries, apiErr = h.store.Snapshot(ctx); apiErr == nil {
				reply = &responses.Snapshot{
					GistID:   h.store.GistID(),
					Filename: h.store.Filename(),
					Entries:  entries,
				}
			}
		}
	case RoutePull:
		if decode(&requests.Pull{}) {
			apiErr = h.store.Pull(ctx)
			update()
		}
	default:
		return nil, responses.NewErrorf(http.StatusNotFound, responses.CodeUnknownRoute, "unknown handler: %s", route)
	}

	// error handling
	if jsonErr != nil {
		h.l.Error("could not read incoming json", zap.Error(jsonErr))
		return nil, responses.NewErrorf(http.StatusBadRequest, responses.CodeInvalidJSON, "could not read incoming json %s", jsonErr.Error())
	} else if apiErr != nil {
		h.l.Error("a store error occurred", zap.String("route", string(route)), zap.Error(apiErr))
		return nil, replyError(apiErr)
	}
	return reply, nil
}

// encodeReply takes an interface and encodes it as JSON
// it returns the resulting JSON and a marshalling error
func (h *HTTP) encodeReply(reply interface{}) (bytes []byte, err error) {
	bytes, err = json.Marshal(map[string]interface{}{
		"reply": reply,
	})
	if err != nil {
		h.l.Error("could not encode reply", zap.Error(err))
	}
	return
}
