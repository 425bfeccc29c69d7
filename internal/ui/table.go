package ui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/five82/scout/internal/dataaccess"
)

// bodyHeight is the number of lines available for record rows.
func (m Model) bodyHeight() int {
	return max(m.height-chromeLines, 1)
}

// columns returns the field columns shown after the time column.
func (m Model) columns() []string {
	if cols := m.snapshot.Data.Params.Columns; len(cols) > 0 {
		return cols
	}
	if m.config != nil && len(m.config.DefaultColumns) > 0 {
		return m.config.DefaultColumns
	}
	return []string{"message"}
}

// columnWidths splits the width left after the time column between the
// field columns. The last column takes the remainder.
func (m Model) columnWidths(n int) []int {
	widths := make([]int, n)
	if n == 0 {
		return widths
	}
	avail := m.width - timeColumnWidth - 2*n
	each := max(avail/n, minColumnWidth)
	for i := range widths {
		widths[i] = each
	}
	widths[n-1] = max(avail-each*(n-1), minColumnWidth)
	return widths
}

// rowHeight is the number of lines record i takes.
func (m Model) rowHeight(i int) int {
	if !m.wrap {
		return 1
	}
	cols := m.columns()
	widths := m.columnWidths(len(cols))
	r := m.snapshot.Data.Records[i]
	return len(wrapLines(fieldText(r.Fields, cols[len(cols)-1]), widths[len(widths)-1]))
}

// visibleRange returns the first and last record indexes on screen.
func (m Model) visibleRange() (first, last int, ok bool) {
	n := len(m.snapshot.Data.Records)
	if n == 0 {
		return 0, 0, false
	}
	first = min(max(m.offset, 0), n-1)
	used := 0
	last = first
	for i := first; i < n; i++ {
		used += m.rowHeight(i)
		if used > m.bodyHeight() && i > first {
			break
		}
		last = i
	}
	return first, last, true
}

// ensureVisible scrolls so the selected record is on screen.
func (m *Model) ensureVisible() {
	if m.selected < m.offset {
		m.offset = m.selected
	}
	for m.offset < m.selected {
		if _, last, _ := m.visibleRange(); last >= m.selected {
			break
		}
		m.offset++
	}
}

// syncSelection keeps the selected record selected after the window
// changed. Records merged above shift the offset so the view stays put.
func (m *Model) syncSelection() {
	recs := m.snapshot.Data.Records
	if len(recs) == 0 {
		m.selected, m.offset = 0, 0
		return
	}
	target := m.snapshot.Data.Params.Anchor
	if m.hasSelection {
		target = m.selectedCursor
	}
	i, _ := slices.BinarySearchFunc(recs, target, func(r dataaccess.Record, c dataaccess.Cursor) int {
		return r.Cursor.Compare(c)
	})
	i = min(i, len(recs)-1)

	if m.hasSelection {
		m.offset = max(m.offset+i-m.selected, 0)
	} else {
		m.offset = max(i-m.bodyHeight()/2, 0)
	}
	m.selected = i
	m.selectedCursor = recs[i].Cursor
	m.hasSelection = true
	m.ensureVisible()
}

// moveSelection moves by delta records and reports the new position.
func (m *Model) moveSelection(delta int) {
	recs := m.snapshot.Data.Records
	if len(recs) == 0 {
		return
	}
	next := min(max(m.selected+delta, 0), len(recs)-1)
	if next == m.selected {
		// Pressing into an edge still asks for more.
		m.reportVisible()
		return
	}
	m.selected = next
	m.selectedCursor = recs[next].Cursor
	m.hasSelection = true
	m.ensureVisible()
	if m.snapshot.Data.Phase == dataaccess.Loaded {
		m.send(dataaccess.PositionChanged{Position: m.selectedCursor})
	}
	m.reportVisible()
}

// reportVisible tells the machine which records are on screen, once per
// distinct range.
func (m *Model) reportVisible() {
	if m.snapshot.Data.Phase != dataaccess.Loaded {
		m.lastVisible = nil
		return
	}
	first, last, ok := m.visibleRange()
	if !ok {
		return
	}
	recs := m.snapshot.Data.Records
	span := [2]dataaccess.Cursor{recs[first].Cursor, recs[last].Cursor}
	if m.lastVisible != nil && *m.lastVisible == span {
		return
	}
	m.lastVisible = &span
	m.send(dataaccess.VisibleEntriesChanged{First: span[0], Last: span[1]})
}

// selectedRecord returns the record under the cursor.
func (m Model) selectedRecord() (dataaccess.Record, bool) {
	recs := m.snapshot.Data.Records
	if m.selected < 0 || m.selected >= len(recs) {
		return dataaccess.Record{}, false
	}
	return recs[m.selected], true
}

// renderTable renders the column header, the edge rows and the records.
func (m Model) renderTable() string {
	styles := m.theme.Styles()
	cols := m.columns()
	widths := m.columnWidths(len(cols))

	var b strings.Builder
	header := []string{fit("time", timeColumnWidth)}
	for i, c := range cols {
		header = append(header, fit(c, widths[i]))
	}
	b.WriteString(styles.ColumnHeader.Width(m.width).MaxWidth(m.width).Render(strings.Join(header, "  ")))
	b.WriteString("\n")

	data := m.snapshot.Data
	b.WriteString(m.renderEdge(data.Top, "▲", "older"))
	b.WriteString("\n")

	body := m.renderRows(cols, widths)
	b.WriteString(body)

	b.WriteString(m.renderEdge(data.Bottom, "▼", "newer"))
	return b.String()
}

func (m Model) renderRows(cols []string, widths []int) string {
	styles := m.theme.Styles()
	data := m.snapshot.Data
	height := m.bodyHeight()

	var lines []string
	if first, last, ok := m.visibleRange(); ok {
		for i := first; i <= last; i++ {
			for _, line := range m.renderRecord(data.Records[i], cols, widths) {
				if i == m.selected {
					line = styles.Selected.Width(m.width).Render(line)
				} else {
					line = styles.Text.Render(line)
				}
				lines = append(lines, line)
			}
		}
	} else {
		lines = append(lines, m.renderEmpty())
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) renderRecord(r dataaccess.Record, cols []string, widths []int) []string {
	cells := []string{fit(r.Cursor.Time.Local().Format(timeLayout), timeColumnWidth)}
	lastIdx := len(cols) - 1
	for i, c := range cols[:lastIdx] {
		cells = append(cells, fit(fieldText(r.Fields, c), widths[i]))
	}
	lastText := fieldText(r.Fields, cols[lastIdx])
	if !m.wrap {
		cells = append(cells, fit(lastText, widths[lastIdx]))
		return []string{strings.Join(cells, "  ")}
	}

	wrapped := wrapLines(lastText, widths[lastIdx])
	lines := []string{strings.Join(append(cells, fit(wrapped[0], widths[lastIdx])), "  ")}
	indent := ansi.StringWidth(strings.Join(cells, "  ")) + 2
	for _, w := range wrapped[1:] {
		lines = append(lines, strings.Repeat(" ", indent)+fit(w, widths[lastIdx]))
	}
	return lines
}

func (m Model) renderEmpty() string {
	styles := m.theme.Styles()
	data := m.snapshot.Data
	switch data.Phase {
	case dataaccess.Uninitialized:
		return styles.MutedText.Render("Waiting for the first load...")
	case dataaccess.LoadingAround, dataaccess.Reloading:
		return styles.InfoText.Render("Loading records...")
	case dataaccess.FailedNoData:
		msg := "Failed to load records"
		if data.Err != nil {
			msg += ": " + data.Err.Error()
		}
		return styles.DangerText.Render(fit(msg, m.width-24)) + styles.MutedText.Render("  r to retry")
	}
	return styles.MutedText.Render("No records match the current query and filters.")
}

// renderEdge describes one edge of the window.
func (m Model) renderEdge(c dataaccess.Chunk, arrow, side string) string {
	styles := m.theme.Styles()
	data := m.snapshot.Data
	if data.Phase != dataaccess.Loaded || len(data.Records) == 0 {
		return ""
	}
	var text string
	style := styles.FaintText
	switch {
	case c.Status.InFlight():
		text, style = arrow+" loading "+side+" records...", styles.InfoText
	case c.Status == dataaccess.ChunkFailed:
		msg := arrow + " loading " + side + " records failed"
		if c.Err != nil {
			msg += ": " + c.Err.Error()
		}
		text, style = fit(msg, m.width-16)+"  r to retry", styles.DangerText
	case c.Exhausted:
		text = arrow + " no " + side + " records in range"
	default:
		text = arrow
	}
	return style.Render(fit(text, m.width))
}
