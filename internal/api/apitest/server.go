// Package apitest runs an in-memory implementation of the todo backend's
// REST contract for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/idilsaglam/tada/internal/model"
)

type account struct {
	password string
	profile  model.Profile
}

// Server is a fake backend. All fields are guarded by mu; use the accessor
// methods from tests.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]account // by email
	tokens   map[string]string  // token -> user id
	todos    map[string]model.Todo
	order    []string
	hits     map[string]int
	auth     []string
	fail     map[string]failure
	clock    time.Time
}

type failure struct {
	status  int
	message string
}

// NewServer starts a fake backend that is closed when t ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts: map[string]account{},
		tokens:   map[string]string{},
		todos:    map[string]model.Todo{},
		hits:     map[string]int{},
		fail:     map[string]failure{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
	})
	r.Route("/todos", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Put("/{id}/mark", s.mark)
		r.Delete("/{id}", s.remove)
	})
	return r
}

// AddUser registers an account and returns its token.
func (s *Server) AddUser(email, password string, p model.Profile) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Email = email
	s.accounts[email] = account{password: password, profile: p}
	tok := "tok-" + p.ID
	s.tokens[tok] = p.ID
	return tok
}

// RevokeTokens makes every issued token invalid.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.tokens = map[string]string{}
	s.mu.Unlock()
}

// FailNext makes the next request to "METHOD /path" answer status with an
// error envelope carrying message.
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	s.fail[route] = failure{status: status, message: message}
	s.mu.Unlock()
}

// Hits counts requests for "METHOD /path".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// AuthHeaders returns the Authorization header of every request so far
// (empty string when absent).
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.auth...)
}

// Todo returns the stored todo with id.
func (s *Server) Todo(id string) (model.Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, ok := s.todos[id]
	return td, ok
}

// Seed stores a todo owned by the account behind token.
func (s *Server) Seed(token, item string, done bool) model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(s.tokens[token], item, done)
}

func (s *Server) insert(userID, item string, done bool) model.Todo {
	s.clock = s.clock.Add(time.Minute)
	td := model.Todo{
		ID:        uuid.NewString(),
		Item:      item,
		UserID:    userID,
		IsDone:    done,
		CreatedAt: s.clock,
		UpdatedAt: s.clock,
	}
	s.todos[td.ID] = td
	s.order = append(s.order, td.ID)
	return td
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + routeOf(r.URL.Path)
		s.mu.Lock()
		s.hits[route]++
		s.auth = append(s.auth, r.Header.Get("Authorization"))
		f, failing := s.fail[route]
		delete(s.fail, route)
		s.mu.Unlock()

		if failing {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routeOf collapses todo ids so "/todos/abc/mark" counts as "/todos/{id}/mark".
func routeOf(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "todos" {
		parts[1] = "{id}"
	}
	return "/" + strings.Join(parts, "/")
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(h, "Bearer ")
		s.mu.Lock()
		_, valid := s.tokens[tok]
		s.mu.Unlock()
		if !ok || !valid {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) userOf(r *http.Request) string {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[tok]
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[req.Email]
	var tok string
	if ok && acc.password == req.Password {
		tok = "tok-" + acc.profile.ID
		s.tokens[tok] = acc.profile.ID
	}
	s.mu.Unlock()
	if tok == "" {
		writeError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}
	writeContent(w, http.StatusOK, "Login success", model.AuthResponse{Token: tok, User: acc.profile})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	s.mu.Lock()
	_, exists := s.accounts[req.Email]
	s.mu.Unlock()
	if exists {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	tok := s.AddUser(req.Email, req.Password, model.Profile{FirstName: req.FirstName, LastName: req.LastName})
	s.mu.Lock()
	p := s.accounts[req.Email].profile
	s.mu.Unlock()
	writeContent(w, http.StatusCreated, "Register success", model.AuthResponse{Token: tok, User: p})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filters map[string]any
	var search map[string]string
	if v := q.Get("filters"); v != "" {
		_ = json.Unmarshal([]byte(v), &filters)
	}
	if v := q.Get("searchFilters"); v != "" {
		_ = json.Unmarshal([]byte(v), &search)
	}
	page, _ := strconv.Atoi(q.Get("page"))
	rows, _ := strconv.Atoi(q.Get("rows"))
	if page < 1 {
		page = 1
	}
	if rows < 1 {
		rows = 10
	}

	user := s.userOf(r)
	s.mu.Lock()
	var matched []model.Todo
	for _, id := range s.order {
		td, ok := s.todos[id]
		if !ok || td.UserID != user {
			continue
		}
		if done, ok := filters["isDone"].(bool); ok && td.IsDone != done {
			continue
		}
		if term := search["item"]; term != "" && !strings.Contains(strings.ToLower(td.Item), strings.ToLower(term)) {
			continue
		}
		matched = append(matched, td)
	}
	s.mu.Unlock()

	if q.Get("orderRule") == "desc" {
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	}

	total := len(matched)
	start := (page - 1) * rows
	if start > total {
		start = total
	}
	end := start + rows
	if end > total {
		end = total
	}
	writeContent(w, http.StatusOK, "OK", model.Page[model.Todo]{
		Entries:   append([]model.Todo{}, matched[start:end]...),
		TotalData: total,
		TotalPage: (total + rows - 1) / rows,
	})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Item) == "" {
		writeError(w, http.StatusBadRequest, "Item is required")
		return
	}
	user := s.userOf(r)
	s.mu.Lock()
	td := s.insert(user, req.Item, false)
	s.mu.Unlock()
	writeContent(w, http.StatusCreated, "Todo created", td)
}

func (s *Server) mark(w http.ResponseWriter, r *http.Request) {
	var req model.MarkTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	user := s.userOf(r)
	s.mu.Lock()
	td, ok := s.todos[id]
	if ok && td.UserID == user {
		s.clock = s.clock.Add(time.Second)
		td.IsDone = req.Action == model.ActionDone
		td.UpdatedAt = s.clock
		s.todos[id] = td
	}
	s.mu.Unlock()
	if !ok || td.UserID != user {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	writeContent(w, http.StatusOK, "Todo updated", td)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user := s.userOf(r)
	s.mu.Lock()
	td, ok := s.todos[id]
	if ok && td.UserID == user {
		delete(s.todos, id)
	}
	s.mu.Unlock()
	if !ok || td.UserID != user {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	writeContent[any](w, http.StatusOK, "Todo deleted", nil)
}

func writeContent[T any](w http.ResponseWriter, status int, message string, content T) {
	writeJSON(w, status, model.Envelope[T]{Content: content, Message: message, Errors: []string{}})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.Envelope[any]{Message: message, Errors: []string{message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
