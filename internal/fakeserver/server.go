// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package fakeserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/bktutor/bktutor/lib/clock"
	"github.com/bktutor/bktutor/tutorapi"
)

// Config holds the parameters of a Server.
type Config struct {
	// SigningKey signs access tokens (HS256). If empty, a fixed
	// development key is used.
	SigningKey []byte
	// TokenTTL is the lifetime of issued tokens. Default: 1h.
	TokenTTL time.Duration
	// BcryptCost is the cost for stored password hashes. Default:
	// bcrypt.MinCost, which keeps tests fast.
	BcryptCost int
	// Clock drives token issue and expiry. If nil, clock.Real() is used.
	Clock clock.Clock
	// Logger receives one line per request. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

type account struct {
	user         tutorapi.User
	passwordHash []byte
	// liveTokens holds the IDs of tokens that have not been revoked.
	liveTokens map[string]struct{}
}

// Server is an in-memory course server speaking the same HTTP contract
// as the real one. It implements http.Handler.
type Server struct {
	signingKey []byte
	tokenTTL   time.Duration
	bcryptCost int
	clock      clock.Clock
	logger     *slog.Logger
	router     *mux.Router

	mu            sync.Mutex
	accounts      map[string]*account
	nextUserID    int64
	courses       []tutorapi.Course
	registrations map[string][]string
	calls         map[string]int
}

// New creates an empty Server. Use AddUser and AddCourse, or Seed, to
// populate it.
func New(config Config) *Server {
	server := &Server{
		signingKey:    config.SigningKey,
		tokenTTL:      config.TokenTTL,
		bcryptCost:    config.BcryptCost,
		clock:         config.Clock,
		logger:        config.Logger,
		accounts:      make(map[string]*account),
		nextUserID:    1,
		registrations: make(map[string][]string),
		calls:         make(map[string]int),
	}
	if len(server.signingKey) == 0 {
		server.signingKey = []byte("bktutor-development-signing-key")
	}
	if server.tokenTTL <= 0 {
		server.tokenTTL = time.Hour
	}
	if server.bcryptCost == 0 {
		server.bcryptCost = bcrypt.MinCost
	}
	if server.clock == nil {
		server.clock = clock.Real()
	}
	if server.logger == nil {
		server.logger = slog.New(slog.DiscardHandler)
	}
	server.router = server.routes()
	return server
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.countRequests)

	router.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost).Name("login")
	router.Handle("/auth/me", s.requireUser(s.handleMe)).Methods(http.MethodGet).Name("me")

	router.Handle("/courses", s.optionalUser(s.handleCourses)).Methods(http.MethodGet).Name("courses")
	router.Handle("/courses", s.requireUser(s.handleCreateCourse)).Methods(http.MethodPost).Name("create")
	router.Handle("/courses/{code}", s.optionalUser(s.handleCourse)).Methods(http.MethodGet).Name("course")
	router.Handle("/courses/{code}/statistics", s.optionalUser(s.handleStatistics)).Methods(http.MethodGet).Name("statistics")
	router.Handle("/courses/{code}/register", s.requireUser(s.handleRegister)).Methods(http.MethodPost).Name("register")
	router.Handle("/courses/{code}/unregister", s.requireUser(s.handleUnregister)).Methods(http.MethodDelete).Name("unregister")
	router.Handle("/my-courses", s.requireUser(s.handleMyCourses)).Methods(http.MethodGet).Name("my-courses")

	router.NotFoundHandler = http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writeDetail(writer, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writeDetail(writer, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.router.ServeHTTP(writer, request)
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		name := "unknown"
		if route := mux.CurrentRoute(request); route != nil && route.GetName() != "" {
			name = route.GetName()
		}
		s.mu.Lock()
		s.calls[name]++
		s.mu.Unlock()

		s.logger.Debug("fake server request",
			"route", name,
			"method", request.Method,
			"path", request.URL.Path,
			"request_id", request.Header.Get("X-Request-ID"),
		)
		next.ServeHTTP(writer, request)
	})
}

// Calls returns how many requests the named route has served. Route
// names: login, me, courses, course, statistics, create, register,
// unregister, my-courses.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// AddUser creates an account. The user's ID is assigned if zero.
func (s *Server) AddUser(user tutorapi.User, password string) (tutorapi.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return tutorapi.User{}, fmt.Errorf("fakeserver: hashing password for %s: %w", user.Username, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[user.Username]; exists {
		return tutorapi.User{}, fmt.Errorf("fakeserver: user %s already exists", user.Username)
	}
	if user.ID == 0 {
		user.ID = s.nextUserID
	}
	s.nextUserID = max(s.nextUserID, user.ID) + 1
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.clock.Now().UTC()
	}
	s.accounts[user.Username] = &account{
		user:         user,
		passwordHash: hash,
		liveTokens:   make(map[string]struct{}),
	}
	return user, nil
}

// SetRole changes a user's role; the next /auth/me reflects it.
func (s *Server) SetRole(username string, role tutorapi.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[username]; ok {
		account.user.Role = role
	}
}

// RevokeTokens invalidates every token issued to username so far, as
// if the server had rotated its session. Later requests carrying those
// tokens get 401.
func (s *Server) RevokeTokens(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[username]; ok {
		clear(account.liveTokens)
	}
}

// AddCourse appends a course to the catalog.
func (s *Server) AddCourse(course tutorapi.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = append(s.courses, course)
}

// Registrations returns the codes username is registered for, in
// registration order.
func (s *Server) Registrations(username string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.registrations[username])
}

// courseIndexLocked returns the catalog position of code, or -1.
func (s *Server) courseIndexLocked(code string) int {
	return slices.IndexFunc(s.courses, func(course tutorapi.Course) bool {
		return course.Code == code
	})
}

func (s *Server) enrolledCountLocked(code string) int {
	count := 0
	for _, codes := range s.registrations {
		if slices.Contains(codes, code) {
			count++
		}
	}
	return count
}

// withCountsLocked returns course with EnrolledCount filled in.
func (s *Server) withCountsLocked(course tutorapi.Course) tutorapi.Course {
	count := s.enrolledCountLocked(course.Code)
	course.EnrolledCount = &count
	return course
}

func writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(value)
}

func writeDetail(writer http.ResponseWriter, status int, detail any) {
	writeJSON(writer, status, map[string]any{"detail": detail})
}
