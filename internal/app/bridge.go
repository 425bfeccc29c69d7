package app

import (
	"time"

	"github.com/five82/scout/internal/config"
	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/discover"
)

// paramsFor maps view state to machine params, filling gaps from cfg.
func paramsFor(cfg config.Config, app discover.AppState, global discover.GlobalState, now time.Time) (dataaccess.Params, error) {
	p := dataaccess.Params{
		DataView:      app.Index,
		Filters:       discover.AllFilters(app, global),
		Columns:       app.Columns,
		ChunkSize:     cfg.ChunkSize,
		EdgeThreshold: cfg.EdgeThreshold,
	}
	if p.DataView == "" {
		p.DataView = cfg.DefaultIndex
	}
	if len(p.Columns) == 0 {
		p.Columns = cfg.DefaultColumns
	}
	if app.Query != nil {
		p.Query = dataaccess.Query{Language: app.Query.Language, Text: app.Query.Query}
	}
	if p.Query.Language == "" {
		p.Query.Language = discover.LanguageText
	}

	tr := discover.TimeRange{From: cfg.DefaultFrom, To: cfg.DefaultTo}
	if global.Time != nil {
		tr = *global.Time
	}
	var err error
	p.TimeRange, err = resolveRange(tr, now)
	return p, err
}

func resolveRange(tr discover.TimeRange, now time.Time) (dataaccess.TimeRange, error) {
	from, to, err := discover.ResolveRange(tr, now)
	if err != nil {
		return dataaccess.TimeRange{}, err
	}
	return dataaccess.TimeRange{From: from, To: to}, nil
}

// eventsFor translates a coalesced change set into machine events. Range
// and column changes go first so that a following data view or filter
// change reloads with everything already applied.
func eventsFor(c discover.Change, p dataaccess.Params) []dataaccess.Event {
	var events []dataaccess.Event
	switch {
	case c.Has(discover.ChangeRefresh):
		events = append(events, dataaccess.Refresh{TimeRange: p.TimeRange})
	case c.Has(discover.ChangeTimeRange):
		events = append(events, dataaccess.TimeRangeChanged{TimeRange: p.TimeRange})
	}
	if c.Has(discover.ChangeColumns | discover.ChangeSort) {
		events = append(events, dataaccess.ColumnsChanged{Columns: p.Columns})
	}
	if c.Has(discover.ChangeDataView) {
		events = append(events, dataaccess.DataViewChanged{DataView: p.DataView})
	}
	if c.Has(discover.ChangeFilters | discover.ChangeQuery) {
		events = append(events, dataaccess.FiltersChanged{Filters: p.Filters, Query: p.Query})
	}
	return events
}
