package mock

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// Token is granted the gist scope
	Token = "mock-token"
	// TokenWithoutGistScope is a valid token lacking the gist scope
	TokenWithoutGistScope = "mock-token-without-gist-scope"
	// DefaultTruncateAt mirrors the size above which the API elides file content
	DefaultTruncateAt = 1 << 20
)

type (
	// Server is an in-memory fake of the gist API. Every /gists route
	// requires a known token carrying the gist scope and answers 404 otherwise,
	// just like the real API does for secret gists.
	Server struct {
		*httptest.Server
		mu         sync.Mutex
		tokens     map[string]string
		gists      map[string]*entry
		truncateAt int
		requests   map[string]int
		failures   map[string]int
	}
	entry struct {
		owner       string
		description string
		public      bool
		files       map[string]string
	}
	fileContent struct {
		Content string `json:"content"`
	}
	gistPayload struct {
		Description string                  `json:"description"`
		Public      bool                    `json:"public"`
		Files       map[string]*fileContent `json:"files"`
	}
	fileReply struct {
		Filename  string `json:"filename"`
		RawURL    string `json:"raw_url"`
		Size      int    `json:"size"`
		Truncated bool   `json:"truncated"`
		Content   string `json:"content"`
	}
	gistReply struct {
		ID          string                `json:"id"`
		Description string                `json:"description"`
		Public      bool                  `json:"public"`
		Files       map[string]*fileReply `json:"files"`
	}
)

// NewServer starts a fake gist API which knows Token and TokenWithoutGistScope.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		tokens: map[string]string{
			Token:                 "gist, repo",
			TokenWithoutGistScope: "repo, read:user",
		},
		gists:      map[string]*entry{},
		truncateAt: DefaultTruncateAt,
		requests:   map[string]int{},
		failures:   map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /gists", s.authorized("create", s.create))
	mux.HandleFunc("GET /gists/{id}", s.authorized("get", s.get))
	mux.HandleFunc("PATCH /gists/{id}", s.authorized("update", s.update))
	mux.HandleFunc("DELETE /gists/{id}", s.authorized("delete", s.delete))
	mux.HandleFunc("GET /raw/{id}/{name}", s.raw)

	s.Server = httptest.NewServer(mux)
	tb.Cleanup(s.Close)
	return s
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// AddToken registers a token with the given X-OAuth-Scopes value.
func (s *Server) AddToken(token, scopes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = scopes
}

// SetTruncateAt sets the size in bytes above which inline content is truncated.
func (s *Server) SetTruncateAt(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.truncateAt = v
}

// Seed creates a gist owned by token without going through the API.
func (s *Server) Seed(token string, files map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newID()
	e := &entry{owner: token, files: map[string]string{}}
	for name, content := range files {
		e.files[name] = content
	}
	s.gists[id] = e
	return id
}

// Content returns the stored content of a file.
func (s *Server) Content(id, name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.gists[id]
	if !ok {
		return "", false
	}
	content, ok := e.files[name]
	return content, ok
}

// Files returns a copy of all files of a gist.
func (s *Server) Files(id string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.gists[id]
	if !ok {
		return nil
	}
	ret := make(map[string]string, len(e.files))
	for k, v := range e.files {
		ret[k] = v
	}
	return ret
}

// Exists reports whether a gist exists.
func (s *Server) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.gists[id]
	return ok
}

// Gists returns the number of stored gists.
func (s *Server) Gists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.gists)
}

// Requests returns how often an operation (create, get, update, delete, raw) was requested.
func (s *Server) Requests(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[operation]
}

// FailNext makes the next request of operation fail with status.
func (s *Server) FailNext(operation string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[operation] = status
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *Server) authorized(operation string, next func(w http.ResponseWriter, r *http.Request, token string, e *entry)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.requests[operation]++

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "token ")
		scopes, ok := s.tokens[token]
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Bad credentials")
			return
		}
		w.Header().Set("X-OAuth-Scopes", scopes)
		if status, ok := s.failures[operation]; ok {
			delete(s.failures, operation)
			writeMessage(w, status, http.StatusText(status))
			return
		}
		if !strings.Contains(scopes, "gist") {
			writeMessage(w, http.StatusNotFound, "Not Found")
			return
		}

		var e *entry
		if id := r.PathValue("id"); id != "" {
			e, ok = s.gists[id]
			if !ok || (r.Method != http.MethodGet && e.owner != token) {
				writeMessage(w, http.StatusNotFound, "Not Found")
				return
			}
		}
		next(w, r, token, e)
	}
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, token string, _ *entry) {
	payload := &gistPayload{}
	if err := decode(r.Body, payload); err != nil || len(payload.Files) == 0 {
		writeMessage(w, http.StatusUnprocessableEntity, "Validation Failed")
		return
	}
	e := &entry{
		owner:       token,
		description: payload.Description,
		public:      payload.Public,
		files:       map[string]string{},
	}
	for name, f := range payload.Files {
		if f != nil {
			e.files[name] = f.Content
		}
	}
	id := newID()
	s.gists[id] = e
	s.reply(w, http.StatusCreated, id, e)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, _ string, e *entry) {
	s.reply(w, http.StatusOK, r.PathValue("id"), e)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, _ string, e *entry) {
	payload := &gistPayload{}
	if err := decode(r.Body, payload); err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "Validation Failed")
		return
	}
	for name, f := range payload.Files {
		if f == nil {
			delete(e.files, name)
			continue
		}
		e.files[name] = f.Content
	}
	s.reply(w, http.StatusOK, r.PathValue("id"), e)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request, _ string, _ *entry) {
	delete(s.gists, r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) raw(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests["raw"]++

	e, ok := s.gists[r.PathValue("id")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	content, ok := e.files[r.PathValue("name")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, content)
}

func (s *Server) reply(w http.ResponseWriter, status int, id string, e *entry) {
	g := &gistReply{
		ID:          id,
		Description: e.description,
		Public:      e.public,
		Files:       map[string]*fileReply{},
	}
	for name, content := range e.files {
		f := &fileReply{
			Filename: name,
			RawURL:   s.URL + "/raw/" + id + "/" + url.PathEscape(name),
			Size:     len(content),
			Content:  content,
		}
		if len(content) > s.truncateAt {
			f.Truncated = true
			f.Content = content[:s.truncateAt]
		}
		g.Files[name] = f
	}
	writeJSON(w, status, g)
}

func decode(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"message":           message,
		"documentation_url": "https://docs.github.com/rest",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
