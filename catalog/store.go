// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bktutor/bktutor/lib/clock"
	"github.com/bktutor/bktutor/tutorapi"
)

var (
	// ErrClosed is returned by Fetch after Close, and by a fetch that
	// was in flight when Close was called.
	ErrClosed = errors.New("catalog: store closed")

	// ErrSuperseded is returned by a fetch whose result was discarded
	// because a newer Fetch started.
	ErrSuperseded = errors.New("catalog: fetch superseded")
)

// Status is the fetch status of a Store.
type Status int

const (
	// Idle: no fetch has been started.
	Idle Status = iota
	// Loading: a fetch is in flight. Previously fetched courses remain
	// visible.
	Loading
	// Ready: the last fetch succeeded.
	Ready
	// Failed: the last fetch failed; Err holds the reason and Fetch may
	// be retried.
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// API is the part of the course server client the Store needs.
// *tutorapi.Session implements it.
type API interface {
	Courses(ctx context.Context) ([]tutorapi.Course, error)
}

// Registry answers whether the current user is registered for a
// course. The enrollment coordinator implements it.
type Registry interface {
	IsRegistered(code string) bool
}

// Config holds the dependencies of a Store.
type Config struct {
	// API fetches the catalog. Required.
	API API
	// PageIncrement is the window step. Zero uses DefaultPageIncrement.
	PageIncrement int
	// Clock stamps fetch completion. If nil, clock.Real() is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Store holds the fetched catalog, the search query, and the visible
// window. Courses are replaced wholesale by each successful fetch and
// keep server order.
//
// All methods are safe for concurrent use.
type Store struct {
	api    API
	clock  clock.Clock
	logger *slog.Logger

	mu         sync.Mutex
	courses    []tutorapi.Course
	status     Status
	err        error
	fetchedAt  time.Time
	query      string
	window     Window
	generation uint64
	cancel     context.CancelFunc
	closed     bool
}

// NewStore creates an Idle Store.
func NewStore(config Config) (*Store, error) {
	if config.API == nil {
		return nil, fmt.Errorf("catalog: API is required")
	}
	store := &Store{
		api:    config.API,
		clock:  config.Clock,
		logger: config.Logger,
		window: NewWindow(config.PageIncrement),
	}
	if store.clock == nil {
		store.clock = clock.Real()
	}
	if store.logger == nil {
		store.logger = slog.New(slog.DiscardHandler)
	}
	return store, nil
}

// Fetch loads the full catalog. A Fetch already in flight is cancelled
// and returns ErrSuperseded; only the newest fetch's result is applied.
// On failure the status becomes Failed, the error is retained for View,
// and the previously fetched courses are kept.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	generation := s.generation
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.status = Loading
	s.mu.Unlock()
	defer cancel()

	courses, err := s.api.Courses(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if generation != s.generation {
		return ErrSuperseded
	}
	s.cancel = nil

	if err != nil {
		s.status = Failed
		s.err = err
		s.logger.Warn("catalog fetch failed", "error", err)
		return fmt.Errorf("catalog: fetching courses: %w", err)
	}

	s.courses = courses
	s.status = Ready
	s.err = nil
	s.fetchedAt = s.clock.Now()
	s.logger.Debug("catalog fetched", "courses", len(courses))
	return nil
}

// Close cancels any fetch in flight and makes later fetches fail with
// ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetQuery replaces the search query. The window keeps its size.
func (s *Store) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
}

// Query returns the current search query.
func (s *Store) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// LoadMore reveals the next increment of matching courses. It reports
// whether anything new became visible.
func (s *Store) LoadMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window.LoadMore(len(Filter(s.courses, s.query)))
}

// SentinelVisible is called when the end of the visible list scrolls
// into view. It grows the window like LoadMore unless a fetch is in
// flight.
func (s *Store) SentinelVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window.SentinelVisible(len(Filter(s.courses, s.query)), s.status == Loading)
}

// Status returns the fetch status.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Courses returns a copy of the full fetched catalog in server order.
func (s *Store) Courses() []tutorapi.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.courses)
}

// Lookup returns the fetched course with the given code.
func (s *Store) Lookup(code string) (tutorapi.Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, course := range s.courses {
		if course.Code == code {
			return course, true
		}
	}
	return tutorapi.Course{}, false
}

// Entry is one visible course with its registration marker.
type Entry struct {
	tutorapi.Course
	Registered bool
}

// View is a consistent read of the Store for presentation.
type View struct {
	Status    Status
	Err       error
	FetchedAt time.Time
	Query     string
	// Entries are the visible courses: the filtered catalog truncated
	// to the window.
	Entries []Entry
	// Matching is how many courses match Query; Total is the catalog
	// size.
	Matching int
	Total    int
	// HasMore reports whether LoadMore would reveal anything.
	HasMore bool
}

// View filters the catalog, applies the window, and marks each visible
// course using registry. A nil registry marks nothing as registered.
func (s *Store) View(registry Registry) View {
	s.mu.Lock()
	filtered := Filter(s.courses, s.query)
	visible := s.window.Visible(len(filtered))
	view := View{
		Status:    s.status,
		Err:       s.err,
		FetchedAt: s.fetchedAt,
		Query:     s.query,
		Matching:  len(filtered),
		Total:     len(s.courses),
		HasMore:   visible < len(filtered),
	}
	shown := slices.Clone(filtered[:visible])
	s.mu.Unlock()

	// The registry has its own lock; consult it without holding ours.
	view.Entries = make([]Entry, len(shown))
	for i, course := range shown {
		view.Entries[i] = Entry{Course: course}
		if registry != nil {
			view.Entries[i].Registered = registry.IsRegistered(course.Code)
		}
	}
	return view
}
