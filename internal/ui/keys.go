package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	ToggleWrap key.Binding
	Escape     key.Binding
	Confirm    key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
	Jump         key.Binding

	// Data
	Retry   key.Binding
	Refresh key.Binding
	Detail  key.Binding

	// View state
	Query          key.Binding
	ToggleLanguage key.Binding
	AddFilter      key.Binding
	ClearFilters   key.Binding
	Columns        key.Binding
	TimeRange      key.Binding
	Index          key.Binding
	AutoRefresh    key.Binding

	// History and saved views
	Back     key.Binding
	Forward  key.Binding
	Diff     key.Binding
	SaveView key.Binding
	OpenView key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		ToggleWrap: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Wrap last column"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Oldest loaded"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Newest loaded"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),
		Jump: key.NewBinding(
			key.WithKeys("@"),
			key.WithHelp("@", "Jump to time"),
		),

		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Retry failed load"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Refresh"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Record detail"),
		),

		Query: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Edit query"),
		),
		ToggleLanguage: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Toggle text/expr"),
		),
		AddFilter: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Add filter"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Clear filters"),
		),
		Columns: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Columns"),
		),
		TimeRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Time range"),
		),
		Index: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Data view"),
		),
		AutoRefresh: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Auto refresh"),
		),

		Back: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Forward"),
		),
		Diff: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Unsaved changes"),
		),
		SaveView: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Save view"),
		),
		OpenView: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Open view"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Query, k.AddFilter, k.TimeRange, k.Retry, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay, one group per
// section.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.HalfPageDown, k.HalfPageUp, k.Jump, k.Detail},
		{k.Query, k.ToggleLanguage, k.AddFilter, k.ClearFilters, k.Columns, k.TimeRange, k.Index, k.AutoRefresh},
		{k.Retry, k.Refresh, k.Back, k.Forward, k.Diff, k.SaveView, k.OpenView},
		{k.CycleTheme, k.ToggleWrap, k.Help, k.Quit},
	}
}
