package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/scout/internal/discover"
	"github.com/five82/scout/internal/filters"
)

// renderHeader renders the status bar: source, state, window and range.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	data := m.snapshot.Data
	compact := m.width < 100

	parts := []string{bg.Render("scout", styles.Logo)}
	if idx := m.indexName(); idx != "" {
		parts = append(parts, bg.Render(idx, styles.AccentText))
	}
	if !compact && m.source != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.source, 32), styles.FaintText))
	}

	name := data.Name()
	parts = append(parts, styles.StateStyle(name).Render(name))

	if m.snapshot.HasData {
		parts = append(parts,
			bg.Render("Records:", styles.MutedText)+bg.Spaces(1)+
				bg.Render(fmt.Sprintf("%d", len(data.Records)), styles.Text),
		)
	}

	if tr := data.Params.TimeRange; !tr.From.IsZero() {
		layout := "01-02 15:04:05"
		if compact {
			layout = "15:04"
		}
		parts = append(parts, bg.Render(
			tr.From.Local().Format(layout)+" → "+tr.To.Local().Format(layout), styles.Text))
	}

	if m.discover != nil {
		if ri := m.discover.GlobalState().RefreshInterval; ri != nil && !ri.Pause && ri.Value > 0 {
			parts = append(parts,
				bg.Render("↻", styles.InfoText)+bg.Spaces(1)+bg.Render(refreshLabel(ri), styles.Text))
		}
	}

	if m.snapshot.IsOffline() {
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText))
	}
	if m.snapshot.Dirty {
		parts = append(parts, bg.Render("● modified", styles.WarningText))
	}

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar shows the query and the active filters.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)

	var app discover.AppState
	var all []filters.Filter
	if m.discover != nil {
		app = m.discover.AppState()
		all = m.discover.Filters()
	}

	lang := discover.LanguageText
	if app.Query != nil && app.Query.Language != "" {
		lang = app.Query.Language
	}
	query := app.QueryText()
	queryStyle := styles.Text
	if query == "" {
		query, queryStyle = "*", styles.FaintText
	}
	parts := []string{
		bg.Render(lang, styles.MutedText) + bg.Spaces(1) + bg.Render(query, queryStyle),
	}

	for _, f := range all {
		style := styles.InfoText
		label := f.Label()
		switch {
		case f.Meta.Disabled:
			style = styles.FaintText
		case f.IsPinned():
			label = "pinned " + label
			style = styles.AccentText
		}
		parts = append(parts, bg.Render("["+label+"]", style))
	}

	return bg.FillLine(fit(bg.Join(parts, "  "), m.width), m.width)
}

// renderFooter shows the prompt while editing, otherwise the status line
// and the short help.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	if m.promptKind != promptNone {
		return styles.Footer.Width(m.width).MaxWidth(m.width).Render(m.prompt.View())
	}

	bg := NewBgStyle(m.theme.Surface)
	var left string
	switch {
	case m.status != "" && m.statusErr:
		left = bg.Render(m.status, styles.DangerText)
	case m.status != "":
		left = bg.Render(m.status, styles.InfoText)
	case m.snapshot.LastError != nil && m.snapshot.IsOffline():
		left = bg.Render("source unreachable: "+m.snapshot.LastError.Error(), styles.DangerText)
	default:
		left = bg.Render(truncateMiddle(m.snapshot.Href, max(m.width/2, 20)), styles.FaintText)
	}

	var help []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		help = append(help, bg.Render(h.Key, styles.AccentText)+bg.Spaces(1)+bg.Render(strings.ToLower(h.Desc), styles.MutedText))
	}
	right := bg.Join(help, "  ")

	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		return styles.Footer.Width(m.width).MaxWidth(m.width).Render(left)
	}
	return styles.Footer.Width(m.width).MaxWidth(m.width).Render(left + bg.Spaces(gap) + right)
}
