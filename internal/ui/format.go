package ui

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/five82/scout/internal/discover"
	"github.com/five82/scout/internal/filters"
)

// fieldValue resolves name in fields, first as a flat key and then as a
// dotted path into nested objects.
func fieldValue(fields map[string]any, name string) (any, bool) {
	if v, ok := fields[name]; ok {
		return v, true
	}
	var cur any = fields
	for _, part := range strings.Split(name, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// fieldText renders a field value on one line. Missing values are "-".
func fieldText(fields map[string]any, name string) string {
	v, ok := fieldValue(fields, name)
	if !ok || v == nil {
		return "-"
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			s = fmt.Sprint(t)
		} else {
			s = string(data)
		}
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(s)
}

// fit truncates s to width cells and pads it out to exactly width.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "…")
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// wrapLines wraps s to width cells.
func wrapLines(s string, width int) []string {
	if width <= 0 || ansi.StringWidth(s) <= width {
		return []string{s}
	}
	return strings.Split(ansi.Wrap(s, width, " -/"), "\n")
}

// truncateMiddle keeps both ends of s, e.g. for URLs.
func truncateMiddle(s string, width int) string {
	if ansi.StringWidth(s) <= width || width < 5 {
		return ansi.Truncate(s, max(width, 0), "")
	}
	keep := width - 1
	head := keep / 2
	tail := keep - head
	runes := []rune(s)
	if len(runes) <= keep {
		return s
	}
	return string(runes[:head]) + "…" + string(runes[len(runes)-tail:])
}

// detailText renders every field of a record, sorted, one per line with
// nested values indented as JSON.
func detailText(ts time.Time, fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", ts.Format(time.RFC3339Nano))
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for _, k := range keys {
		v := fields[k]
		var text string
		switch v.(type) {
		case map[string]any, []any:
			data, err := json.MarshalIndent(v, strings.Repeat(" ", width+2), "  ")
			if err != nil {
				text = fmt.Sprint(v)
			} else {
				text = string(data)
			}
		default:
			text = fieldText(fields, k)
		}
		fmt.Fprintf(&b, "%-*s  %s\n", width, k, text)
	}
	return b.String()
}

// parseFilter reads the filter prompt:
//
//	field:value    match phrase
//	-field:value   negated match phrase
//	field:*        field exists
//	field>=N       range, inclusive lower bound
//	field<N        range, exclusive upper bound
//
// A leading "+" pins the filter to the global state.
func parseFilter(index, input string) (filters.Filter, error) {
	s := strings.TrimSpace(input)
	pinned := strings.HasPrefix(s, "+")
	s = strings.TrimPrefix(s, "+")
	negate := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var f filters.Filter
	switch {
	case strings.Contains(s, ">="):
		field, raw, _ := strings.Cut(s, ">=")
		n, err := parseBound(field, raw)
		if err != nil {
			return filters.Filter{}, err
		}
		f = filters.Range(index, strings.TrimSpace(field), &n, nil)
	case strings.Contains(s, "<"):
		field, raw, _ := strings.Cut(s, "<")
		n, err := parseBound(field, raw)
		if err != nil {
			return filters.Filter{}, err
		}
		f = filters.Range(index, strings.TrimSpace(field), nil, &n)
	case strings.Contains(s, ":"):
		field, value, _ := strings.Cut(s, ":")
		field, value = strings.TrimSpace(field), strings.TrimSpace(value)
		if field == "" || value == "" {
			return filters.Filter{}, fmt.Errorf("filter %q: want field:value", input)
		}
		if value == "*" {
			f = filters.Exists(index, field)
		} else {
			f = filters.Phrase(index, field, phraseValue(value))
		}
	default:
		return filters.Filter{}, fmt.Errorf("filter %q: want field:value, field>=N or field<N", input)
	}
	if negate {
		f = f.Negated()
	}
	if pinned {
		f = f.Pinned()
	}
	return f, nil
}

func parseBound(field, raw string) (float64, error) {
	if strings.TrimSpace(field) == "" {
		return 0, fmt.Errorf("range filter needs a field")
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("range bound %q: %w", raw, err)
	}
	return n, nil
}

// phraseValue keeps numbers and booleans typed so they compare equal to
// the decoded record values.
func phraseValue(s string) any {
	if unq, err := strconv.Unquote(s); err == nil {
		return unq
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// parseColumns splits a comma separated column list, dropping blanks.
func parseColumns(input string) []string {
	var cols []string
	for _, c := range strings.Split(input, ",") {
		if c = strings.TrimSpace(c); c != "" && !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// parseTimeRange reads "from..to" or "from to". A single bound means
// "from..now".
func parseTimeRange(input string, now time.Time) (discover.TimeRange, error) {
	s := strings.TrimSpace(input)
	var tr discover.TimeRange
	if from, to, ok := strings.Cut(s, ".."); ok {
		tr = discover.TimeRange{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}
	} else if parts := strings.Fields(s); len(parts) == 2 {
		tr = discover.TimeRange{From: parts[0], To: parts[1]}
	} else if len(parts) == 1 {
		tr = discover.TimeRange{From: parts[0], To: "now"}
	} else {
		return tr, fmt.Errorf("time range %q: want from..to", input)
	}
	if _, _, err := discover.ResolveRange(tr, now); err != nil {
		return tr, err
	}
	return tr, nil
}

// parseRefresh reads an auto-refresh interval such as "10s" or "1m".
// "off", "0" and "" pause auto-refresh.
func parseRefresh(input string) (discover.RefreshInterval, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	switch s {
	case "", "off", "0", "pause":
		return discover.RefreshInterval{Pause: true}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return discover.RefreshInterval{}, fmt.Errorf("refresh interval %q: %w", input, err)
	}
	if d < time.Second {
		return discover.RefreshInterval{}, fmt.Errorf("refresh interval %q: minimum is 1s", input)
	}
	return discover.RefreshInterval{Value: d.Milliseconds()}, nil
}

// refreshLabel is the inverse of parseRefresh.
func refreshLabel(ri *discover.RefreshInterval) string {
	if ri == nil || ri.Pause || ri.Value <= 0 {
		return "off"
	}
	return (time.Duration(ri.Value) * time.Millisecond).String()
}
