// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package catalogui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the catalog browser.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	Search      key.Binding // Focus the search box.
	SearchDone  key.Binding // Leave the search box, keeping the query.
	SearchClear key.Binding // Clear the query.

	LoadMore   key.Binding
	Refresh    key.Binding
	Register   key.Binding
	Unregister key.Binding
	Confirm    key.Binding
	Cancel     key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in binding set: vim-style j/k next to
// the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	SearchDone: key.NewBinding(
		key.WithKeys("enter", "tab"),
		key.WithHelp("enter", "done"),
	),
	SearchClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear"),
	),
	LoadMore: key.NewBinding(
		key.WithKeys("m", " "),
		key.WithHelp("m", "load more"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("R", "ctrl+r"),
		key.WithHelp("R", "refresh"),
	),
	Register: key.NewBinding(
		key.WithKeys("r", "enter"),
		key.WithHelp("r", "register"),
	),
	Unregister: key.NewBinding(
		key.WithKeys("u", "delete"),
		key.WithHelp("u", "unregister"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// shortHelp is the binding list shown in the footer.
func (keys KeyMap) shortHelp() []key.Binding {
	return []key.Binding{keys.Up, keys.Down, keys.Search, keys.LoadMore, keys.Register, keys.Unregister, keys.Refresh, keys.Quit}
}
