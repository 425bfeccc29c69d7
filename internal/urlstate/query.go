package urlstate

import (
	"net/url"
	"slices"
	"strings"
)

// param is one key=value pair of the hash query. Values are kept
// unescaped; bad marks a pair whose escaping could not be decoded and
// which is passed through untouched.
type param struct {
	key   string
	value string
	bad   bool
	orig  string
}

// hashParts splits "#/path?a=1&b=2" into its path and query pairs.
func hashParts(hash string) (string, []param) {
	hash = strings.TrimPrefix(hash, "#")
	path, query, _ := strings.Cut(hash, "?")
	var params []param
	for _, part := range strings.Split(query, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, errKey := url.QueryUnescape(rawKey)
		value, errValue := url.QueryUnescape(rawValue)
		if errKey != nil || errValue != nil {
			params = append(params, param{key: rawKey, bad: true, orig: part})
			continue
		}
		params = append(params, param{key: key, value: value})
	}
	return path, params
}

func buildHash(path string, params []param) string {
	if path == "" && len(params) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('#')
	b.WriteString(path)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		if p.bad {
			b.WriteString(p.orig)
			continue
		}
		b.WriteString(escapeQuery(p.key))
		b.WriteByte('=')
		b.WriteString(escapeQuery(p.value))
	}
	return b.String()
}

// Rison delimiters and a few reserved characters stay readable in the
// URL; spaces become %20 rather than "+".
var queryUnescaper = strings.NewReplacer(
	"%40", "@",
	"%3A", ":",
	"%24", "$",
	"%2C", ",",
	"%3B", ";",
	"%28", "(",
	"%29", ")",
	"%27", "'",
	"%21", "!",
	"%2A", "*",
	"+", "%20",
)

func escapeQuery(s string) string {
	return queryUnescaper.Replace(url.QueryEscape(s))
}

func lookup(params []param, key string) (string, bool) {
	for _, p := range params {
		if p.key == key && !p.bad {
			return p.value, true
		}
	}
	return "", false
}

// upsert sets key to value. Existing keys keep their position; new keys
// are placed by their rank in order, unranked keys last.
func upsert(params []param, key, value string, order []string) []param {
	for i, p := range params {
		if p.key == key {
			params[i] = param{key: key, value: value}
			return params
		}
	}
	rank := func(k string) int {
		if i := slices.Index(order, k); i >= 0 {
			return i
		}
		return len(order)
	}
	r := rank(key)
	at := len(params)
	for i, p := range params {
		if rank(p.key) > r {
			at = i
			break
		}
	}
	return slices.Insert(params, at, param{key: key, value: value})
}

func remove(params []param, key string) []param {
	return slices.DeleteFunc(params, func(p param) bool { return p.key == key })
}
