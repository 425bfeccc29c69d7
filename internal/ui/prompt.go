package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/discover"
)

// promptKind is what the footer prompt is editing.
type promptKind int

const (
	promptNone promptKind = iota
	promptQuery
	promptFilter
	promptColumns
	promptTime
	promptIndex
	promptRefresh
	promptJump
	promptSave
)

func (k promptKind) label() string {
	switch k {
	case promptQuery:
		return "query"
	case promptFilter:
		return "filter"
	case promptColumns:
		return "columns"
	case promptTime:
		return "time"
	case promptIndex:
		return "index"
	case promptRefresh:
		return "refresh"
	case promptJump:
		return "jump to"
	case promptSave:
		return "save as"
	}
	return ""
}

// openPrompt starts editing kind, prefilled with its current value.
func (m *Model) openPrompt(kind promptKind) tea.Cmd {
	if m.discover == nil {
		return nil
	}
	app := m.discover.AppState()
	global := m.discover.GlobalState()

	value, placeholder := "", ""
	switch kind {
	case promptQuery:
		value = app.QueryText()
		placeholder = `level:error or level == "error" in expr mode`
	case promptFilter:
		placeholder = "field:value, -field:value, field:*, field>=N, +pinned"
	case promptColumns:
		value = strings.Join(m.columns(), ", ")
		placeholder = "message, level"
	case promptTime:
		if global.Time != nil {
			value = global.Time.From + ".." + global.Time.To
		}
		placeholder = "now-15m..now"
	case promptIndex:
		value = app.Index
	case promptRefresh:
		value = refreshLabel(global.RefreshInterval)
		placeholder = "10s, 1m or off"
	case promptJump:
		placeholder = "now-5m or 2026-01-02T15:04:05Z"
	case promptSave:
		placeholder = "title, +title saves a new view"
	}

	m.promptKind = kind
	m.prompt.Prompt = kind.label() + "> "
	m.prompt.Placeholder = placeholder
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	return m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.promptKind = promptNone
	m.prompt.Blur()
	m.prompt.Reset()
}

// handlePromptKey edits the prompt until enter or esc.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		kind, value := m.promptKind, m.prompt.Value()
		m.closePrompt()
		cmd, err := m.submitPrompt(kind, value)
		if err != nil {
			m.status, m.statusErr = err.Error(), true
			return m, nil
		}
		m.status, m.statusErr = "", false
		return m, cmd
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// submitPrompt applies value to the discover state. Changes reach the data
// access machine through the fetch trigger, not from here.
func (m *Model) submitPrompt(kind promptKind, value string) (tea.Cmd, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case promptQuery:
		m.discover.NavigateAppState(func(s *discover.AppState) {
			lang := discover.LanguageText
			if s.Query != nil && s.Query.Language != "" {
				lang = s.Query.Language
			}
			s.Query = &discover.Query{Language: lang, Query: value}
		})

	case promptFilter:
		f, err := parseFilter(m.indexName(), value)
		if err != nil {
			return nil, err
		}
		m.discover.SetFilters(append(m.discover.Filters(), f))

	case promptColumns:
		cols := parseColumns(value)
		if len(cols) == 0 {
			return nil, fmt.Errorf("columns: at least one column is required")
		}
		m.discover.NavigateAppState(func(s *discover.AppState) { s.Columns = cols })

	case promptTime:
		tr, err := parseTimeRange(value, m.now())
		if err != nil {
			return nil, err
		}
		m.discover.UpdateGlobalState(func(s *discover.GlobalState) { s.Time = &tr })

	case promptIndex:
		if value == "" {
			return nil, fmt.Errorf("index: a name is required")
		}
		m.discover.NavigateAppState(func(s *discover.AppState) { s.Index = value })

	case promptRefresh:
		ri, err := parseRefresh(value)
		if err != nil {
			return nil, err
		}
		m.discover.UpdateGlobalState(func(s *discover.GlobalState) { s.RefreshInterval = &ri })

	case promptJump:
		t, err := discover.ResolveTime(value, m.now(), false)
		if err != nil {
			return nil, fmt.Errorf("jump: %w", err)
		}
		m.send(dataaccess.PositionChanged{Position: dataaccess.Cursor{Time: t}})

	case promptSave:
		asNew := strings.HasPrefix(value, "+")
		title := strings.TrimSpace(strings.TrimPrefix(value, "+"))
		if title == "" {
			return nil, fmt.Errorf("save: a title is required")
		}
		return saveViewCmd(m.ctx, m.discover, title, asNew), nil
	}
	return nil, nil
}

// indexName is the data view new filters apply to.
func (m Model) indexName() string {
	if idx := m.snapshot.Data.Params.DataView; idx != "" {
		return idx
	}
	if m.discover != nil {
		return m.discover.AppState().Index
	}
	return ""
}

func saveViewCmd(ctx context.Context, c *discover.Container, title string, asNew bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, viewIOTimeout)
		defer cancel()
		v, err := c.SaveView(ctx, title, asNew)
		if err != nil {
			return statusMsg{text: err.Error(), err: true}
		}
		return statusMsg{text: fmt.Sprintf("saved view %q (%s)", v.Title, v.ID)}
	}
}
