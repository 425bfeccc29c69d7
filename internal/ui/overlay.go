package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/scout/internal/discover"
)

// resizeViewport sizes the overlay viewport to the terminal.
func (m *Model) resizeViewport() {
	m.viewport.Width = max(min(m.width-8, 120), 20)
	m.viewport.Height = max(m.height-8, 3)
}

// openDetail shows every field of the selected record.
func (m *Model) openDetail() {
	r, ok := m.selectedRecord()
	if !ok {
		return
	}
	m.viewportTitle = "Record " + r.Cursor.Time.Local().Format(timeLayout)
	m.viewport.SetContent(wrapContent(detailText(r.Cursor.Time, r.Fields), m.viewport.Width))
	m.viewport.GotoTop()
	m.overlay = overlayDetail
}

// openDiff shows how the app state differs from the last loaded or saved
// baseline.
func (m *Model) openDiff() {
	diff := m.discover.AppStateDiff()
	if diff == "" {
		m.status, m.statusErr = "no unsaved changes", false
		return
	}
	m.viewportTitle = "Unsaved changes"
	m.viewport.SetContent(m.colorDiff(diff))
	m.viewport.GotoTop()
	m.overlay = overlayDiff
}

// colorDiff colors added and removed lines of a unified diff.
func (m Model) colorDiff(diff string) string {
	styles := m.theme.Styles()
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+"):
			lines[i] = styles.SuccessText.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = styles.DangerText.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = styles.InfoText.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func wrapContent(s string, width int) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		out = append(out, wrapLines(line, width)...)
	}
	return strings.Join(out, "\n")
}

func (m Model) handleViewportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Detail):
		m.overlay = overlayNone
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) renderViewport() string {
	styles := m.theme.Styles()
	title := styles.Text.Bold(true).Render(m.viewportTitle)
	hint := styles.FaintText.Render(fmt.Sprintf("%3.0f%%  esc to close", m.viewport.ScrollPercent()*100))
	content := title + "\n" + m.viewport.View() + "\n" + hint
	return m.placeModal(content, m.viewport.Width+6)
}

func (m Model) handleViewsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Quit):
		m.overlay = overlayNone
	case key.Matches(msg, m.keys.Up):
		m.viewIndex = max(m.viewIndex-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.viewIndex = min(m.viewIndex+1, len(m.viewList)-1)
	case key.Matches(msg, m.keys.Confirm):
		m.overlay = overlayNone
		if m.viewIndex < len(m.viewList) && m.discover != nil {
			return m, loadViewCmd(m.ctx, m.discover, m.viewList[m.viewIndex].ID)
		}
	}
	return m, nil
}

func (m Model) renderViews() string {
	styles := m.theme.Styles()
	current := ""
	if m.discover != nil {
		current = m.discover.CurrentViewID()
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Saved views"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", overlayWidth-6)))
	b.WriteString("\n")
	for i, v := range m.viewList {
		mark := "  "
		if v.ID == current {
			mark = "● "
		}
		line := fit(mark+v.Title, overlayWidth-26) + "  " + v.Updated.Local().Format("2006-01-02 15:04")
		if i == m.viewIndex {
			line = styles.Selected.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter to open  esc to close"))
	return m.placeModal(b.String(), overlayWidth)
}

// placeModal centers a bordered box over the screen.
func (m Model) placeModal(content string, width int) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(width)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

func loadViewCmd(ctx context.Context, c *discover.Container, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, viewIOTimeout)
		defer cancel()
		v, err := c.LoadView(ctx, id)
		if err != nil {
			return statusMsg{text: err.Error(), err: true}
		}
		return statusMsg{text: fmt.Sprintf("opened view %q", v.Title)}
	}
}
