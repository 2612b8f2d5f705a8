// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package catalogui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bktutor/bktutor/catalog"
	"github.com/bktutor/bktutor/enrollment"
)

// Catalog is the part of *catalog.Store the browser drives.
type Catalog interface {
	Fetch(ctx context.Context) error
	SetQuery(query string)
	LoadMore() bool
	SentinelVisible() bool
	View(registry catalog.Registry) catalog.View
}

// Enrollment is the part of *enrollment.Coordinator the browser
// drives. A nil Enrollment gives a read-only browser.
type Enrollment interface {
	catalog.Registry
	Register(ctx context.Context, code string) (enrollment.Result, error)
	Unregister(ctx context.Context, code string) (enrollment.Result, error)
	InFlight(code string) bool
}

// Focus is the input region receiving keys.
type Focus int

const (
	FocusList Focus = iota
	FocusSearch
	// FocusConfirm: waiting for y/n on an unregister.
	FocusConfirm
)

// chromeLines is the number of rows taken by everything except the
// course list: title, search box, column header, status and help.
const chromeLines = 6

type fetchDoneMsg struct{ err error }

type mutationDoneMsg struct {
	action string
	code   string
	result enrollment.Result
	err    error
}

// Model is the bubbletea model of the catalog browser.
type Model struct {
	ctx        context.Context
	catalog    Catalog
	enrollment Enrollment
	keys       KeyMap
	theme      Theme

	search  textinput.Model
	focus   Focus
	view    catalog.View
	cursor  int
	offset  int
	width   int
	height  int
	pending string // code awaiting unregister confirmation

	status      string
	statusError bool
	fetching    bool
}

// Config holds the collaborators of a Model.
type Config struct {
	// Context bounds every request the browser starts. If nil,
	// context.Background().
	Context    context.Context
	Catalog    Catalog
	Enrollment Enrollment
	// FetchOnStart refetches the catalog when the program starts.
	FetchOnStart bool
}

// NewModel creates a browser over the given catalog.
func NewModel(config Config) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search by name, code or tutor"
	search.CharLimit = 64

	ctx := config.Context
	if ctx == nil {
		ctx = context.Background()
	}
	model := Model{
		ctx:        ctx,
		catalog:    config.Catalog,
		enrollment: config.Enrollment,
		keys:       DefaultKeyMap,
		theme:      DefaultTheme,
		search:     search,
		fetching:   config.FetchOnStart,
		height:     24,
		width:      80,
	}
	model.refresh()
	return model
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	if model.fetching {
		return model.fetchCmd()
	}
	return nil
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.clampScroll()
		model.checkSentinel()
		return model, nil

	case fetchDoneMsg:
		model.fetching = false
		switch {
		case message.err == nil:
			model.setStatus("catalog refreshed", false)
		case errors.Is(message.err, catalog.ErrSuperseded):
		default:
			model.setStatus("could not load the catalog: "+message.err.Error()+" (R to retry)", true)
		}
		model.refresh()
		model.checkSentinel()
		return model, nil

	case mutationDoneMsg:
		model.applyMutation(message)
		model.refresh()
		return model, nil

	case tea.KeyMsg:
		switch model.focus {
		case FocusSearch:
			return model.handleSearchKeys(message)
		case FocusConfirm:
			return model.handleConfirmKeys(message)
		default:
			return model.handleListKeys(message)
		}
	}
	return model, nil
}

func (model Model) handleListKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)
	case key.Matches(message, model.keys.PageUp):
		model.moveCursor(-model.listHeight())
	case key.Matches(message, model.keys.PageDown):
		model.moveCursor(model.listHeight())
	case key.Matches(message, model.keys.Home):
		model.moveCursor(-len(model.view.Entries))
	case key.Matches(message, model.keys.End):
		model.moveCursor(len(model.view.Entries))

	case key.Matches(message, model.keys.Search):
		model.focus = FocusSearch
		return model, model.search.Focus()

	case key.Matches(message, model.keys.SearchClear):
		if model.search.Value() != "" {
			model.search.SetValue("")
			model.applyQuery()
		}

	case key.Matches(message, model.keys.LoadMore):
		if model.catalog.LoadMore() {
			model.refresh()
		} else {
			model.setStatus("no more courses", false)
		}

	case key.Matches(message, model.keys.Refresh):
		model.fetching = true
		model.setStatus("loading catalog…", false)
		return model, model.fetchCmd()

	case key.Matches(message, model.keys.Register):
		command := model.startMutation("register")
		return model, command

	case key.Matches(message, model.keys.Unregister):
		entry, ok := model.selected()
		if !ok || model.enrollment == nil {
			return model, nil
		}
		if !entry.Registered {
			model.setStatus(entry.Code+" is not in your courses", true)
			return model, nil
		}
		model.pending = entry.Code
		model.focus = FocusConfirm
	}
	return model, nil
}

func (model Model) handleSearchKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case message.Type == tea.KeyCtrlC:
		return model, tea.Quit
	case key.Matches(message, model.keys.SearchDone):
		model.focus = FocusList
		model.search.Blur()
		return model, nil
	case key.Matches(message, model.keys.SearchClear):
		model.focus = FocusList
		model.search.Blur()
		model.search.SetValue("")
		model.applyQuery()
		return model, nil
	}

	var command tea.Cmd
	previous := model.search.Value()
	model.search, command = model.search.Update(message)
	if model.search.Value() != previous {
		model.applyQuery()
	}
	return model, command
}

func (model Model) handleConfirmKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	code := model.pending
	model.pending = ""
	model.focus = FocusList
	if key.Matches(message, model.keys.Confirm) {
		command := model.mutationCmd("unregister", code)
		return model, command
	}
	model.setStatus("kept "+code, false)
	return model, nil
}

// startMutation registers the selected course unless it already is.
func (model *Model) startMutation(action string) tea.Cmd {
	entry, ok := model.selected()
	if !ok || model.enrollment == nil {
		return nil
	}
	if entry.Registered {
		model.setStatus("already registered for "+entry.Code, false)
		return nil
	}
	return model.mutationCmd(action, entry.Code)
}

func (model *Model) mutationCmd(action, code string) tea.Cmd {
	if model.enrollment.InFlight(code) {
		model.setStatus(code+": request already running", false)
		return nil
	}
	model.setStatus(fmt.Sprintf("%s %s…", action, code), false)
	ctx, coordinator := model.ctx, model.enrollment
	return func() tea.Msg {
		var result enrollment.Result
		var err error
		if action == "unregister" {
			result, err = coordinator.Unregister(ctx, code)
		} else {
			result, err = coordinator.Register(ctx, code)
		}
		return mutationDoneMsg{action: action, code: code, result: result, err: err}
	}
}

func (model *Model) applyMutation(message mutationDoneMsg) {
	switch {
	case message.err != nil:
		model.setStatus(fmt.Sprintf("%s %s failed: %v", message.action, message.code, message.err), true)
	case message.result.Suppressed:
		model.setStatus(message.code+": request already running", false)
	case !message.result.Success:
		model.setStatus(fmt.Sprintf("%s refused: %s", message.code, message.result.Message), true)
	case message.result.ReconcileErr != nil:
		model.setStatus(fmt.Sprintf("%s %s done; course list not refreshed", message.action, message.code), true)
	default:
		model.setStatus(fmt.Sprintf("%s %s done", message.action, message.code), false)
	}
}

func (model Model) fetchCmd() tea.Cmd {
	ctx, store := model.ctx, model.catalog
	return func() tea.Msg {
		return fetchDoneMsg{err: store.Fetch(ctx)}
	}
}

func (model *Model) applyQuery() {
	model.catalog.SetQuery(model.search.Value())
	model.cursor = 0
	model.offset = 0
	model.refresh()
	model.checkSentinel()
}

// refresh re-reads the catalog view and keeps the cursor in range.
func (model *Model) refresh() {
	var registry catalog.Registry
	if model.enrollment != nil {
		registry = model.enrollment
	}
	model.view = model.catalog.View(registry)
	model.clampScroll()
}

func (model *Model) moveCursor(delta int) {
	model.cursor += delta
	model.clampScroll()
	model.checkSentinel()
}

// checkSentinel grows the window when the end of the list is on
// screen, the way scrolling to the bottom of the page loads more.
func (model *Model) checkSentinel() {
	if !model.view.HasMore {
		return
	}
	if model.offset+model.listHeight() < len(model.view.Entries) {
		return
	}
	if model.catalog.SentinelVisible() {
		model.refresh()
	}
}

func (model *Model) clampScroll() {
	count := len(model.view.Entries)
	model.cursor = max(0, min(model.cursor, count-1))
	height := model.listHeight()
	if model.cursor < model.offset {
		model.offset = model.cursor
	}
	if model.cursor >= model.offset+height {
		model.offset = model.cursor - height + 1
	}
	model.offset = max(0, min(model.offset, count-height))
}

func (model Model) listHeight() int {
	return max(1, model.height-chromeLines)
}

func (model Model) selected() (catalog.Entry, bool) {
	if model.cursor < 0 || model.cursor >= len(model.view.Entries) {
		return catalog.Entry{}, false
	}
	return model.view.Entries[model.cursor], true
}

func (model *Model) setStatus(text string, isError bool) {
	model.status = text
	model.statusError = isError
}

// Focus returns the region receiving keys.
func (model Model) Focus() Focus {
	return model.focus
}

// Cursor returns the index of the selected entry.
func (model Model) Cursor() int {
	return model.cursor
}

// Status returns the status line text.
func (model Model) Status() string {
	return model.status
}

// Entries returns the visible entries as last read.
func (model Model) Entries() []catalog.Entry {
	return model.view.Entries
}
