package logsource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/logtail"
)

// DefaultTimeField is the record field holding the timestamp.
const DefaultTimeField = "@timestamp"

// FileSource serves chunks from a JSON-lines file, one object per line. The
// file is re-read whenever it changes, so an appended log shows up on the
// next fetch.
type FileSource struct {
	path      string
	maxLines  int
	timeField string
	logger    *slog.Logger

	mu      sync.Mutex
	version logtail.Version
	loaded  bool
	records []dataaccess.Record
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithMaxLines bounds how many lines from the end of the file are read.
func WithMaxLines(n int) FileOption {
	return func(s *FileSource) { s.maxLines = n }
}

// WithTimeField changes the timestamp field name.
func WithTimeField(name string) FileOption {
	return func(s *FileSource) {
		if name != "" {
			s.timeField = name
		}
	}
}

// WithFileLogger sets the source's logger.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(s *FileSource) { s.logger = l }
}

// NewFileSource returns a source reading path.
func NewFileSource(path string, opts ...FileOption) *FileSource {
	s := &FileSource{
		path:      path,
		timeField: DefaultTimeField,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ dataaccess.Fetcher = (*FileSource)(nil)

// FetchChunk implements dataaccess.Fetcher.
func (s *FileSource) FetchChunk(ctx context.Context, req dataaccess.FetchRequest) (dataaccess.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return dataaccess.FetchResult{}, err
	}
	m, err := newMatcher(req)
	if err != nil {
		return dataaccess.FetchResult{}, err
	}
	records, err := s.load()
	if err != nil {
		return dataaccess.FetchResult{}, err
	}

	var matched []dataaccess.Record
	for i, r := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return dataaccess.FetchResult{}, err
			}
		}
		if !req.TimeRange.Contains(r.Cursor.Time) || !m.match(r) {
			continue
		}
		matched = append(matched, r)
	}
	return Slice(matched, req), nil
}

// load returns the parsed records, re-reading the file when its version
// changed. The returned slice is shared and must not be modified.
func (s *FileSource) load() ([]dataaccess.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := logtail.Stat(s.path)
	if err != nil {
		return nil, err
	}
	if s.loaded && version == s.version {
		return s.records, nil
	}
	lines, err := logtail.Read(s.path, s.maxLines)
	if err != nil {
		return nil, err
	}
	records := make([]dataaccess.Record, 0, len(lines))
	var skipped int
	for _, line := range lines {
		r, err := s.parse(line)
		if err != nil {
			skipped++
			s.logger.Debug("skipping log line", "path", s.path, "line", line.No, "error", err)
			continue
		}
		records = append(records, r)
	}
	slices.SortStableFunc(records, func(a, b dataaccess.Record) int { return a.Cursor.Compare(b.Cursor) })
	s.records, s.version, s.loaded = records, version, true
	s.logger.Info("log file loaded", "path", s.path, "records", len(records), "skipped", skipped)
	return records, nil
}

func (s *FileSource) parse(line logtail.Line) (dataaccess.Record, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line.Text), &fields); err != nil {
		return dataaccess.Record{}, fmt.Errorf("decode line: %w", err)
	}
	raw, ok := lookup(fields, s.timeField)
	if !ok {
		return dataaccess.Record{}, fmt.Errorf("missing %s", s.timeField)
	}
	ts, err := parseTime(raw)
	if err != nil {
		return dataaccess.Record{}, fmt.Errorf("field %s: %w", s.timeField, err)
	}
	return dataaccess.Record{
		Cursor: dataaccess.Cursor{Time: ts, Tiebreaker: line.No},
		Fields: fields,
	}, nil
}

// parseTime accepts RFC 3339 strings and epoch milliseconds.
func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts.UTC(), nil
		}
		if ms, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("unrecognized time %q", t)
	case float64:
		return time.UnixMilli(int64(t)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %v", v)
}
