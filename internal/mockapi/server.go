// Package mockapi is an in-process stand-in for the proxy's dashboard API,
// used by client, CLI and integration tests.
package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// SessionCookieName matches the cookie the real dashboard API issues.
const SessionCookieName = "reservoir.sid"

// Server is a mock dashboard API server.
type Server struct {
	server    *httptest.Server
	responses map[string][]Response
	served    map[string]int
	requests  int
	session   string
	username  string
	password  string
	mu        sync.Mutex
}

// Response defines one mock response.
type Response struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string
}

// New starts a mock server.
func New() *Server {
	s := &Server{
		responses: make(map[string][]Response),
		served:    make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handler))
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Close()
}

// SetResponse serves response for every request to path (e.g. "/api/metrics").
func (s *Server) SetResponse(path string, response Response) {
	s.SetSequence(path, response)
}

// SetSequence serves responses in order for successive requests to path; the
// last one repeats once the sequence is exhausted.
func (s *Server) SetSequence(path string, responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.responses[path] = responses
	s.served[path] = 0
}

// RequireSession makes every /api path except /api/auth/login answer 401
// unless the request carries the given session cookie. Logging in with
// username and password issues that cookie.
func (s *Server) RequireSession(session, username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = session
	s.username = username
	s.password = password
}

// RequestCount returns the number of requests received.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests
}

// PathCount returns the number of requests answered for path.
func (s *Server) PathCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.served[path]
}

func (s *Server) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests++
	session := s.session
	s.mu.Unlock()

	if r.URL.Path == "/api/auth/login" && session != "" {
		s.login(w, r)
		return
	}
	if session != "" {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value != session {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	response, ok := s.next(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	if _, ok := response.Body.(string); !ok && response.Body != nil {
		w.Header().Set("Content-Type", "application/json")
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	switch v := response.Body.(type) {
	case nil:
	case string:
		_, _ = w.Write([]byte(v))
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) next(path string) (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.responses[path]
	if !ok || len(seq) == 0 {
		return Response{}, false
	}
	i := min(s.served[path], len(seq)-1)
	s.served[path]++
	return seq[i], true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	ok := creds.Username == s.username && creds.Password == s.password
	session := s.session
	s.mu.Unlock()

	if !ok {
		http.Error(w, "Invalid Credentials", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
	})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"username": creds.Username})
}
