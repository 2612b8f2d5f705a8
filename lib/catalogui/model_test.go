// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package catalogui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bktutor/bktutor/catalog"
	"github.com/bktutor/bktutor/enrollment"
	"github.com/bktutor/bktutor/tutorapi"
)

type staticAPI struct {
	courses []tutorapi.Course
	err     error
}

func (s *staticAPI) Courses(context.Context) ([]tutorapi.Course, error) {
	return s.courses, s.err
}

type fakeEnrollment struct {
	mu         sync.Mutex
	registered map[string]bool
	refusals   map[string]string
	calls      []string
}

func newFakeEnrollment() *fakeEnrollment {
	return &fakeEnrollment{registered: map[string]bool{}, refusals: map[string]string{}}
}

func (f *fakeEnrollment) IsRegistered(code string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered[code]
}

func (f *fakeEnrollment) InFlight(string) bool { return false }

func (f *fakeEnrollment) Register(_ context.Context, code string) (enrollment.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "register "+code)
	if message, ok := f.refusals[code]; ok {
		return enrollment.Result{Success: false, Message: message}, nil
	}
	f.registered[code] = true
	return enrollment.Result{Success: true}, nil
}

func (f *fakeEnrollment) Unregister(_ context.Context, code string) (enrollment.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "unregister "+code)
	delete(f.registered, code)
	return enrollment.Result{Success: true}, nil
}

// twentyCourses returns C00..C19; C07 is the only Japanese course.
func twentyCourses() []tutorapi.Course {
	courses := make([]tutorapi.Course, 20)
	for i := range courses {
		courses[i] = tutorapi.Course{
			Code:  fmt.Sprintf("C%02d", i),
			Name:  fmt.Sprintf("Khóa học %d", i),
			Tutor: "Nguyễn Văn A",
		}
	}
	courses[7].Name = "Tiếng Nhật 5"
	courses[7].Tutor = "Tô Nguyễn Khoa"
	return courses
}

func newTestModel(t *testing.T, api *staticAPI, registry Enrollment) (Model, *catalog.Store) {
	t.Helper()
	store, err := catalog.NewStore(catalog.Config{API: api, PageIncrement: 6})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Fetch(context.Background()); err != nil && api.err == nil {
		t.Fatalf("Fetch: %v", err)
	}
	model := NewModel(Config{Catalog: store, Enrollment: registry})
	return model, store
}

func update(t *testing.T, model Model, message tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, command := model.Update(message)
	return updated.(Model), command
}

func keyRunes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

func TestModel_Windowing(t *testing.T) {
	model, _ := newTestModel(t, &staticAPI{courses: twentyCourses()}, nil)

	if got := len(model.Entries()); got != 6 {
		t.Fatalf("initial entries = %d, want 6", got)
	}

	// A tall terminal shows the end of the list, which grows the
	// window once.
	model, _ = update(t, model, tea.WindowSizeMsg{Width: 100, Height: 16})
	if got := len(model.Entries()); got != 12 {
		t.Fatalf("entries after resize = %d, want 12", got)
	}

	model, _ = update(t, model, keyRunes("m"))
	if got := len(model.Entries()); got != 18 {
		t.Fatalf("entries after load more = %d, want 18", got)
	}
	model, _ = update(t, model, keyRunes("m"))
	if got := len(model.Entries()); got != 20 {
		t.Fatalf("entries after second load more = %d, want 20 (capped)", got)
	}
	model, _ = update(t, model, keyRunes("m"))
	if !strings.Contains(model.Status(), "no more") {
		t.Errorf("status = %q", model.Status())
	}
}

func TestModel_ScrollSentinel(t *testing.T) {
	model, _ := newTestModel(t, &staticAPI{courses: twentyCourses()}, nil)
	// listHeight = 10 - chromeLines = 4: the sixth entry is off screen.
	model, _ = update(t, model, tea.WindowSizeMsg{Width: 100, Height: 10})
	if got := len(model.Entries()); got != 6 {
		t.Fatalf("entries = %d, want 6 with the end off screen", got)
	}

	for range 5 {
		model, _ = update(t, model, keyRunes("j"))
	}
	if model.Cursor() != 5 {
		t.Fatalf("cursor = %d", model.Cursor())
	}
	if got := len(model.Entries()); got != 12 {
		t.Errorf("entries after reaching the end = %d, want 12", got)
	}
}

func TestModel_Search(t *testing.T) {
	model, _ := newTestModel(t, &staticAPI{courses: twentyCourses()}, nil)
	// Keep the end of the list off screen so the window stays at 6.
	model, _ = update(t, model, tea.WindowSizeMsg{Width: 100, Height: 10})

	model, _ = update(t, model, keyRunes("/"))
	if model.Focus() != FocusSearch {
		t.Fatal("search not focused")
	}
	model, _ = update(t, model, keyRunes("tieng nhat"))
	entries := model.Entries()
	if len(entries) != 1 || entries[0].Code != "C07" {
		t.Fatalf("entries for 'tieng nhat' = %+v", entries)
	}

	// Typed letters go to the search box, not to the list bindings.
	model, _ = update(t, model, keyRunes("q"))
	if model.Focus() != FocusSearch {
		t.Error("q left the search box")
	}

	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	if model.Focus() != FocusList {
		t.Error("esc did not leave the search box")
	}
	if got := len(model.Entries()); got != 6 {
		t.Errorf("entries after clearing = %d, want 6", got)
	}
}

func TestModel_RegisterAndUnregister(t *testing.T) {
	registry := newFakeEnrollment()
	registry.refusals["C01"] = "Schedule conflict with C00"
	model, _ := newTestModel(t, &staticAPI{courses: twentyCourses()}, registry)

	model, command := update(t, model, keyRunes("r"))
	if command == nil {
		t.Fatal("register produced no command")
	}
	model, _ = update(t, model, command())
	if !model.Entries()[0].Registered {
		t.Error("C00 not marked registered after success")
	}
	if !strings.Contains(model.View(), "✓") {
		t.Error("registered marker not rendered")
	}

	// Registering again is answered locally.
	_, command = update(t, model, keyRunes("r"))
	if command != nil {
		t.Error("second register of C00 issued a request")
	}

	model, _ = update(t, model, keyRunes("j"))
	model, command = update(t, model, keyRunes("r"))
	model, _ = update(t, model, command())
	if !strings.Contains(model.Status(), "Schedule conflict with C00") {
		t.Errorf("refusal not shown: %q", model.Status())
	}

	// Unregister needs a confirmation; n keeps the course.
	model, _ = update(t, model, keyRunes("k"))
	model, _ = update(t, model, keyRunes("u"))
	if model.Focus() != FocusConfirm {
		t.Fatal("unregister did not ask for confirmation")
	}
	model, command = update(t, model, keyRunes("n"))
	if command != nil || !registry.IsRegistered("C00") {
		t.Fatal("declined unregister still ran")
	}

	model, _ = update(t, model, keyRunes("u"))
	model, command = update(t, model, keyRunes("y"))
	if command == nil {
		t.Fatal("confirmed unregister produced no command")
	}
	model, _ = update(t, model, command())
	if model.Entries()[0].Registered {
		t.Error("C00 still marked after unregister")
	}

	want := []string{"register C00", "register C01", "unregister C00"}
	if strings.Join(registry.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", registry.calls, want)
	}
}

func TestModel_FetchFailure(t *testing.T) {
	api := &staticAPI{err: errors.New("connection refused")}
	model, _ := newTestModel(t, api, nil)

	model, command := update(t, model, keyRunes("R"))
	if command == nil {
		t.Fatal("refresh produced no command")
	}
	model, _ = update(t, model, command())
	if !strings.Contains(model.Status(), "could not load the catalog") {
		t.Errorf("status = %q", model.Status())
	}

	api.err = nil
	api.courses = twentyCourses()
	model, command = update(t, model, keyRunes("R"))
	model, _ = update(t, model, command())
	if len(model.Entries()) == 0 {
		t.Error("retry did not load the catalog")
	}
}

func TestPad(t *testing.T) {
	if got := pad("CO3001", 8); got != "CO3001  " {
		t.Errorf("pad = %q", got)
	}
	if got := pad("Cấu trúc Dữ liệu và Giải thuật", 10); lipgloss.Width(got) != 10 || !strings.HasSuffix(got, "…") {
		t.Errorf("truncated pad = %q", got)
	}
}
