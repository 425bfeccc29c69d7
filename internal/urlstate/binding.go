package urlstate

import "github.com/five82/scout/internal/rison"

// Binding is a typed view of one storage key.
type Binding[T any] struct {
	storage *Storage
	key     string
}

// Bind returns the typed view of key.
func Bind[T any](s *Storage, key string) Binding[T] {
	return Binding[T]{storage: s, key: key}
}

// Key returns the storage key.
func (b Binding[T]) Key() string { return b.key }

// Get decodes the current value. Malformed values are reported absent.
func (b Binding[T]) Get() (T, bool) {
	var v T
	ok := b.storage.Get(b.key, &v)
	return v, ok
}

// Set encodes v under the key.
func (b Binding[T]) Set(v T, opts SetOptions) error {
	return b.storage.Set(b.key, v, opts)
}

// OnChange calls fn with the decoded value after navigation changes the
// key. present is false when the key was removed or cannot be decoded.
func (b Binding[T]) OnChange(fn func(v T, present bool)) func() {
	return b.storage.OnChange(b.key, func(raw string, present bool) {
		var v T
		if present {
			if err := rison.Unmarshal([]byte(raw), &v); err != nil {
				b.storage.logger.Debug("ignoring malformed url state", "key", b.key, "error", err)
				var zero T
				fn(zero, false)
				return
			}
		}
		fn(v, present)
	})
}
