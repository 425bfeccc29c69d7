package discover

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResolveTime evaluates a date-math expression relative to now.
//
// Accepted forms are "now" followed by any number of "+N<unit>" or
// "-N<unit>" offsets and an optional "/<unit>" rounding, an RFC 3339
// timestamp, or epoch milliseconds. Units are s m h d w M y. Rounding
// goes to the start of the unit, or to its last millisecond when roundUp
// is set (used for the upper bound of a range).
func ResolveTime(expr string, now time.Time, roundUp bool) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}
	if !strings.HasPrefix(expr, "now") {
		if ms, err := strconv.ParseInt(expr, 10, 64); err == nil {
			return time.UnixMilli(ms).In(now.Location()), nil
		}
		t, err := time.Parse(time.RFC3339Nano, expr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse time %q: %w", expr, err)
		}
		return t, nil
	}

	t := now
	rest := expr[len("now"):]
	for rest != "" {
		op := rest[0]
		rest = rest[1:]
		switch op {
		case '+', '-':
			i := 0
			for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
				i++
			}
			n := 1
			if i > 0 {
				parsed, err := strconv.Atoi(rest[:i])
				if err != nil {
					return time.Time{}, fmt.Errorf("parse time %q: %w", expr, err)
				}
				n = parsed
			}
			if i >= len(rest) {
				return time.Time{}, fmt.Errorf("parse time %q: missing unit", expr)
			}
			if op == '-' {
				n = -n
			}
			var err error
			if t, err = addUnit(t, n, rest[i]); err != nil {
				return time.Time{}, fmt.Errorf("parse time %q: %w", expr, err)
			}
			rest = rest[i+1:]
		case '/':
			if rest == "" {
				return time.Time{}, fmt.Errorf("parse time %q: missing rounding unit", expr)
			}
			var err error
			if t, err = roundUnit(t, rest[0], roundUp); err != nil {
				return time.Time{}, fmt.Errorf("parse time %q: %w", expr, err)
			}
			rest = rest[1:]
		default:
			return time.Time{}, fmt.Errorf("parse time %q: unexpected %q", expr, op)
		}
	}
	return t, nil
}

// ResolveRange evaluates both bounds of r.
func ResolveRange(r TimeRange, now time.Time) (from, to time.Time, err error) {
	if from, err = ResolveTime(r.From, now, false); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to, err = ResolveTime(r.To, now, true); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("time range ends before it starts: %s > %s", r.From, r.To)
	}
	return from, to, nil
}

func addUnit(t time.Time, n int, unit byte) (time.Time, error) {
	switch unit {
	case 's':
		return t.Add(time.Duration(n) * time.Second), nil
	case 'm':
		return t.Add(time.Duration(n) * time.Minute), nil
	case 'h':
		return t.Add(time.Duration(n) * time.Hour), nil
	case 'd':
		return t.AddDate(0, 0, n), nil
	case 'w':
		return t.AddDate(0, 0, 7*n), nil
	case 'M':
		return t.AddDate(0, n, 0), nil
	case 'y':
		return t.AddDate(n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("unknown unit %q", unit)
}

func roundUnit(t time.Time, unit byte, up bool) (time.Time, error) {
	y, mo, d := t.Date()
	loc := t.Location()
	var start time.Time
	var next func(time.Time) time.Time
	switch unit {
	case 's':
		start = t.Truncate(time.Second)
		next = func(s time.Time) time.Time { return s.Add(time.Second) }
	case 'm':
		start = time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, loc)
		next = func(s time.Time) time.Time { return s.Add(time.Minute) }
	case 'h':
		start = time.Date(y, mo, d, t.Hour(), 0, 0, 0, loc)
		next = func(s time.Time) time.Time { return s.Add(time.Hour) }
	case 'd':
		start = time.Date(y, mo, d, 0, 0, 0, 0, loc)
		next = func(s time.Time) time.Time { return s.AddDate(0, 0, 1) }
	case 'w':
		offset := (int(t.Weekday()) + 6) % 7
		start = time.Date(y, mo, d-offset, 0, 0, 0, 0, loc)
		next = func(s time.Time) time.Time { return s.AddDate(0, 0, 7) }
	case 'M':
		start = time.Date(y, mo, 1, 0, 0, 0, 0, loc)
		next = func(s time.Time) time.Time { return s.AddDate(0, 1, 0) }
	case 'y':
		start = time.Date(y, 1, 1, 0, 0, 0, 0, loc)
		next = func(s time.Time) time.Time { return s.AddDate(1, 0, 0) }
	default:
		return time.Time{}, fmt.Errorf("unknown unit %q", unit)
	}
	if up {
		return next(start).Add(-time.Millisecond), nil
	}
	return start, nil
}
