package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/discover"
	"github.com/five82/scout/internal/prefs"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.promptKind != promptNone {
		return m.handlePromptKey(msg)
	}
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.overlay {
	case overlayHelp:
		// Any key closes help
		m.overlay = overlayNone
		return m, nil
	case overlayDetail, overlayDiff:
		return m.handleViewportKey(msg)
	case overlayViews:
		return m.handleViewsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.ToggleWrap):
		m.wrap = !m.wrap
		m.prefs.WrapLines = m.wrap
		m.savePrefs()
		m.ensureVisible()
		m.reportVisible()
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.status, m.statusErr = "", false
		return m, nil
	}

	if cmd, ok := m.handleTableKey(msg); ok {
		return m, cmd
	}
	return m.handleStateKey(msg)
}

// handleTableKey moves the selection and drives the data access machine.
func (m *Model) handleTableKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	half := max(m.bodyHeight()/2, 1)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveSelection(-m.bodyHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.moveSelection(m.bodyHeight())
	case key.Matches(msg, m.keys.HalfPageUp):
		m.moveSelection(-half)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.moveSelection(half)
	case key.Matches(msg, m.keys.Top):
		m.moveSelection(-len(m.snapshot.Data.Records))
	case key.Matches(msg, m.keys.Bottom):
		m.moveSelection(len(m.snapshot.Data.Records))
	case key.Matches(msg, m.keys.Jump):
		return m.openPrompt(promptJump), true
	case key.Matches(msg, m.keys.Retry):
		m.retry()
	case key.Matches(msg, m.keys.Refresh):
		if m.discover != nil {
			m.discover.Refresh()
		}
	case key.Matches(msg, m.keys.Detail):
		m.openDetail()
	default:
		return nil, false
	}
	return nil, true
}

// retry re-runs whichever fetch failed. The initial load takes precedence
// over the edges, and the top edge over the bottom one.
func (m *Model) retry() {
	data := m.snapshot.Data
	switch {
	case data.Phase == dataaccess.FailedNoData:
		m.send(dataaccess.Retry{})
	case data.Phase == dataaccess.Loaded && data.Top.Status == dataaccess.ChunkFailed:
		m.send(dataaccess.RetryTop{})
	case data.Phase == dataaccess.Loaded && data.Bottom.Status == dataaccess.ChunkFailed:
		m.send(dataaccess.RetryBottom{})
	default:
		m.status, m.statusErr = "nothing to retry", false
	}
}

// handleStateKey edits the discover state.
func (m Model) handleStateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.discover == nil {
		return m, nil
	}
	kinds := []struct {
		binding key.Binding
		kind    promptKind
	}{
		{m.keys.Query, promptQuery},
		{m.keys.AddFilter, promptFilter},
		{m.keys.Columns, promptColumns},
		{m.keys.TimeRange, promptTime},
		{m.keys.Index, promptIndex},
		{m.keys.AutoRefresh, promptRefresh},
		{m.keys.SaveView, promptSave},
	}
	for _, k := range kinds {
		if key.Matches(msg, k.binding) {
			cmd := m.openPrompt(k.kind)
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.ToggleLanguage):
		m.discover.NavigateAppState(func(s *discover.AppState) {
			q := discover.Query{Language: discover.LanguageText}
			if s.Query != nil {
				q = *s.Query
			}
			if q.Language == discover.LanguageExpr {
				q.Language = discover.LanguageText
			} else {
				q.Language = discover.LanguageExpr
			}
			s.Query = &q
		})
	case key.Matches(msg, m.keys.ClearFilters):
		// Pinned filters survive a clear.
		m.discover.SetFilters(m.discover.GlobalState().Filters)

	case key.Matches(msg, m.keys.Back):
		if m.history == nil || !m.history.Back() {
			m.status, m.statusErr = "no earlier history entry", false
		}
	case key.Matches(msg, m.keys.Forward):
		if m.history == nil || !m.history.Forward() {
			m.status, m.statusErr = "no later history entry", false
		}
	case key.Matches(msg, m.keys.Diff):
		m.openDiff()
	case key.Matches(msg, m.keys.OpenView):
		if m.views == nil {
			m.status, m.statusErr = "saved views are not available", true
			return m, nil
		}
		return m, listViewsCmd(m.ctx, m.views)
	}
	return m, nil
}

// savePrefs writes the UI preferences, keeping the last URL on disk.
func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	current, _ := prefs.Load(m.prefsPath)
	current.Theme = m.prefs.Theme
	current.WrapLines = m.prefs.WrapLines
	_ = prefs.Save(m.prefsPath, current)
}

func listViewsCmd(ctx context.Context, lister ViewLister) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, viewIOTimeout)
		defer cancel()
		views, err := lister.List(ctx)
		return viewsMsg{views: views, err: err}
	}
}
