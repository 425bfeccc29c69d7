package logsource

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/filters"
)

// Query languages understood by the matcher.
const (
	LanguageText = "text"
	LanguageExpr = "expr"
)

// IndexField names the record field compared against the data view
// pattern. Records without it belong to every data view.
const IndexField = "_index"

type predicate func(fields map[string]any) bool

// matcher decides whether a record belongs in a fetch: data view, enabled
// filters (respecting negate), then the query.
type matcher struct {
	dataView string
	preds    []predicate
	terms    []string
	program  *vm.Program
}

func newMatcher(req dataaccess.FetchRequest) (*matcher, error) {
	m := &matcher{dataView: req.DataView}
	if m.dataView != "" {
		if _, err := path.Match(m.dataView, ""); err != nil {
			return nil, fmt.Errorf("data view pattern %q: %w", m.dataView, err)
		}
	}
	for _, f := range filters.Enabled(req.Filters) {
		p, err := compileFilter(f)
		if err != nil {
			return nil, err
		}
		if f.Meta.Negate {
			inner := p
			p = func(fields map[string]any) bool { return !inner(fields) }
		}
		m.preds = append(m.preds, p)
	}

	text := strings.TrimSpace(req.Query.Text)
	if text == "" {
		return m, nil
	}
	switch req.Query.Language {
	case LanguageExpr:
		program, err := compileExpr(text)
		if err != nil {
			return nil, err
		}
		m.program = program
	case "", LanguageText:
		m.terms = strings.Fields(strings.ToLower(text))
	default:
		return nil, fmt.Errorf("unsupported query language %q", req.Query.Language)
	}
	return m, nil
}

func (m *matcher) match(r dataaccess.Record) bool {
	if m.dataView != "" {
		if idx, ok := r.Fields[IndexField].(string); ok {
			if matched, _ := path.Match(m.dataView, idx); !matched {
				return false
			}
		}
	}
	for _, p := range m.preds {
		if !p(r.Fields) {
			return false
		}
	}
	for _, term := range m.terms {
		if !matchTerm(r.Fields, term) {
			return false
		}
	}
	if m.program != nil {
		out, err := expr.Run(m.program, exprEnv(r))
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}
	return true
}

func compileFilter(f filters.Filter) (predicate, error) {
	for kind, body := range f.Query {
		spec, ok := body.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filter %s: body is %T", kind, body)
		}
		switch kind {
		case "match_phrase":
			for field, want := range spec {
				return phrasePredicate(field, want), nil
			}
			return nil, fmt.Errorf("filter match_phrase: no field")
		case "exists":
			field, _ := spec["field"].(string)
			if field == "" {
				return nil, fmt.Errorf("filter exists: no field")
			}
			return func(fields map[string]any) bool {
				v, ok := lookup(fields, field)
				return ok && v != nil
			}, nil
		case "range":
			for field, b := range spec {
				bounds, ok := b.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("filter range %s: bounds are %T", field, b)
				}
				return rangePredicate(field, bounds)
			}
			return nil, fmt.Errorf("filter range: no field")
		default:
			return nil, fmt.Errorf("unsupported filter %q", kind)
		}
	}
	return nil, fmt.Errorf("filter %q has an empty query", f.Label())
}

func phrasePredicate(field string, want any) predicate {
	target := fmt.Sprint(want)
	return func(fields map[string]any) bool {
		v, ok := lookup(fields, field)
		if !ok {
			return false
		}
		if list, ok := v.([]any); ok {
			for _, item := range list {
				if fmt.Sprint(item) == target {
					return true
				}
			}
			return false
		}
		return fmt.Sprint(v) == target
	}
}

func rangePredicate(field string, bounds map[string]any) (predicate, error) {
	type bound struct {
		op    string
		value float64
	}
	var checks []bound
	for op, raw := range bounds {
		switch op {
		case "gt", "gte", "lt", "lte":
		default:
			continue
		}
		n, ok := toNumber(raw)
		if !ok {
			return nil, fmt.Errorf("filter range %s: %s bound %v is not numeric", field, op, raw)
		}
		checks = append(checks, bound{op: op, value: n})
	}
	return func(fields map[string]any) bool {
		v, ok := lookup(fields, field)
		if !ok {
			return false
		}
		n, ok := toNumber(v)
		if !ok {
			return false
		}
		for _, c := range checks {
			switch {
			case c.op == "gt" && !(n > c.value),
				c.op == "gte" && !(n >= c.value),
				c.op == "lt" && !(n < c.value),
				c.op == "lte" && !(n <= c.value):
				return false
			}
		}
		return true
	}, nil
}

// toNumber reads numbers, numeric strings and RFC 3339 timestamps (as
// epoch milliseconds).
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
		if t, err := time.Parse(time.RFC3339Nano, n); err == nil {
			return float64(t.UnixMilli()), true
		}
	}
	return 0, false
}

// matchTerm handles one free-text term: "field:value" matches a substring
// of that field, anything else a substring of any field.
func matchTerm(fields map[string]any, term string) bool {
	if field, value, ok := strings.Cut(term, ":"); ok && field != "" && value != "" {
		for k, v := range fields {
			if strings.EqualFold(k, field) {
				return strings.Contains(strings.ToLower(fmt.Sprint(v)), value)
			}
		}
		if v, ok := lookup(fields, field); ok {
			return strings.Contains(strings.ToLower(fmt.Sprint(v)), value)
		}
		return false
	}
	for _, v := range fields {
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), term) {
			return true
		}
	}
	return false
}

// lookup resolves a field by its flat name first, then as a dotted path
// into nested objects.
func lookup(fields map[string]any, name string) (any, bool) {
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

func compileExpr(text string) (*vm.Program, error) {
	program, err := expr.Compile(text,
		expr.Env(map[string]any{
			"field": func(string) any { return nil },
			"_time": time.Time{},
		}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	return program, nil
}

func exprEnv(r dataaccess.Record) map[string]any {
	env := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		env[k] = v
	}
	env["field"] = func(name string) any {
		v, _ := lookup(r.Fields, name)
		return v
	}
	env["_time"] = r.Cursor.Time
	return env
}
