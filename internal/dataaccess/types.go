package dataaccess

import (
	"context"
	"errors"
	"time"

	"github.com/five82/scout/internal/filters"
)

// ErrAborted marks a fetch that was superseded or cancelled. Fetchers may
// return it (or a context error); the runner drops such results.
var ErrAborted = errors.New("fetch aborted")

// IsAborted reports whether err means the fetch was cancelled rather than
// failed.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled)
}

// Cursor is a position in the record stream: a timestamp plus a
// tiebreaker for records sharing it.
type Cursor struct {
	Time       time.Time
	Tiebreaker int64
}

// Compare orders cursors by time, then tiebreaker.
func (c Cursor) Compare(o Cursor) int {
	if c.Time.Before(o.Time) {
		return -1
	}
	if c.Time.After(o.Time) {
		return 1
	}
	switch {
	case c.Tiebreaker < o.Tiebreaker:
		return -1
	case c.Tiebreaker > o.Tiebreaker:
		return 1
	}
	return 0
}

// IsZero reports whether c is unset.
func (c Cursor) IsZero() bool { return c.Time.IsZero() && c.Tiebreaker == 0 }

// Record is one log entry.
type Record struct {
	Cursor Cursor
	Fields map[string]any
}

// TimeRange is a resolved, inclusive time window.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies inside r.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Query is the free-text query passed through to the fetcher.
type Query struct {
	Language string
	Text     string
}

// Direction is where records are fetched relative to the anchor.
type Direction string

const (
	Before Direction = "before"
	After  Direction = "after"
	Around Direction = "around"
)

// Params is the context every fetch shares.
type Params struct {
	DataView  string
	Anchor    Cursor
	TimeRange TimeRange
	Filters   []filters.Filter
	Query     Query
	Columns   []string

	// ChunkSize is the number of records per edge fetch.
	ChunkSize int
	// EdgeThreshold is how close, in records, the viewport may come to an
	// edge before that edge is extended.
	EdgeThreshold int
}

// Default sizing used when Params leaves them zero.
const (
	DefaultChunkSize     = 200
	DefaultEdgeThreshold = 20
)

func (p Params) withDefaults() Params {
	if p.ChunkSize <= 0 {
		p.ChunkSize = DefaultChunkSize
	}
	if p.EdgeThreshold <= 0 {
		p.EdgeThreshold = DefaultEdgeThreshold
	}
	return p
}

// FetchRequest asks for one chunk.
//
// Before returns up to Size records strictly older than Anchor, After up
// to Size records strictly newer, and Around up to Size records at or
// before Anchor plus up to Size after it. Records are always in ascending
// cursor order and inside TimeRange.
type FetchRequest struct {
	DataView  string
	Anchor    Cursor
	Direction Direction
	Size      int
	TimeRange TimeRange
	Filters   []filters.Filter
	Query     Query
	Columns   []string
}

// FetchResult is a fetched chunk. Boundary is the outermost cursor
// returned, or the anchor when no records came back.
type FetchResult struct {
	Records  []Record
	Boundary Cursor
}

// Fetcher loads chunks. It must return promptly with ctx's error once ctx
// is cancelled.
type Fetcher interface {
	FetchChunk(ctx context.Context, req FetchRequest) (FetchResult, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req FetchRequest) (FetchResult, error)

// FetchChunk calls f.
func (f FetcherFunc) FetchChunk(ctx context.Context, req FetchRequest) (FetchResult, error) {
	return f(ctx, req)
}
