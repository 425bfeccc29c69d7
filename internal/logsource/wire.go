package logsource

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/filters"
)

// ChunkPath is the HTTP endpoint serving chunks.
const ChunkPath = "/api/chunks"

// ChunkResponse is the JSON body returned by ChunkPath.
type ChunkResponse struct {
	Records  []WireRecord `json:"records"`
	Boundary WireCursor   `json:"boundary"`
}

// WireCursor is a cursor on the wire.
type WireCursor struct {
	Time time.Time `json:"time"`
	Seq  int64     `json:"seq"`
}

// WireRecord is a record on the wire.
type WireRecord struct {
	WireCursor
	Fields map[string]any `json:"fields"`
}

func encodeRequest(req dataaccess.FetchRequest) (url.Values, error) {
	values := url.Values{}
	if dv := strings.TrimSpace(req.DataView); dv != "" {
		values.Set("data_view", dv)
	}
	values.Set("direction", string(req.Direction))
	values.Set("size", strconv.Itoa(req.Size))
	values.Set("anchor", req.Anchor.Time.Format(time.RFC3339Nano))
	values.Set("seq", strconv.FormatInt(req.Anchor.Tiebreaker, 10))
	values.Set("from", req.TimeRange.From.Format(time.RFC3339Nano))
	values.Set("to", req.TimeRange.To.Format(time.RFC3339Nano))
	if q := strings.TrimSpace(req.Query.Text); q != "" {
		values.Set("query", q)
		values.Set("language", req.Query.Language)
	}
	if len(req.Columns) > 0 {
		values.Set("columns", strings.Join(req.Columns, ","))
	}
	if len(req.Filters) > 0 {
		data, err := json.Marshal(req.Filters)
		if err != nil {
			return nil, fmt.Errorf("encode filters: %w", err)
		}
		values.Set("filters", string(data))
	}
	return values, nil
}

func decodeRequest(values url.Values) (dataaccess.FetchRequest, error) {
	req := dataaccess.FetchRequest{
		DataView:  values.Get("data_view"),
		Direction: dataaccess.Direction(values.Get("direction")),
		Query: dataaccess.Query{
			Language: values.Get("language"),
			Text:     values.Get("query"),
		},
	}
	switch req.Direction {
	case dataaccess.Before, dataaccess.After, dataaccess.Around:
	default:
		return req, fmt.Errorf("invalid direction %q", req.Direction)
	}
	var err error
	if req.Size, err = strconv.Atoi(values.Get("size")); err != nil {
		return req, fmt.Errorf("invalid size: %w", err)
	}
	if req.Anchor.Time, err = time.Parse(time.RFC3339Nano, values.Get("anchor")); err != nil {
		return req, fmt.Errorf("invalid anchor: %w", err)
	}
	if s := values.Get("seq"); s != "" {
		if req.Anchor.Tiebreaker, err = strconv.ParseInt(s, 10, 64); err != nil {
			return req, fmt.Errorf("invalid seq: %w", err)
		}
	}
	if req.TimeRange.From, err = time.Parse(time.RFC3339Nano, values.Get("from")); err != nil {
		return req, fmt.Errorf("invalid from: %w", err)
	}
	if req.TimeRange.To, err = time.Parse(time.RFC3339Nano, values.Get("to")); err != nil {
		return req, fmt.Errorf("invalid to: %w", err)
	}
	if cols := values.Get("columns"); cols != "" {
		req.Columns = strings.Split(cols, ",")
	}
	if raw := values.Get("filters"); raw != "" {
		var list []filters.Filter
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return req, fmt.Errorf("invalid filters: %w", err)
		}
		req.Filters = list
	}
	return req, nil
}

func encodeResult(res dataaccess.FetchResult) ChunkResponse {
	out := ChunkResponse{
		Records:  make([]WireRecord, 0, len(res.Records)),
		Boundary: WireCursor{Time: res.Boundary.Time, Seq: res.Boundary.Tiebreaker},
	}
	for _, r := range res.Records {
		out.Records = append(out.Records, WireRecord{
			WireCursor: WireCursor{Time: r.Cursor.Time, Seq: r.Cursor.Tiebreaker},
			Fields:     r.Fields,
		})
	}
	return out
}

func decodeResult(resp ChunkResponse) dataaccess.FetchResult {
	out := dataaccess.FetchResult{
		Boundary: dataaccess.Cursor{Time: resp.Boundary.Time, Tiebreaker: resp.Boundary.Seq},
	}
	for _, r := range resp.Records {
		out.Records = append(out.Records, dataaccess.Record{
			Cursor: dataaccess.Cursor{Time: r.Time, Tiebreaker: r.Seq},
			Fields: r.Fields,
		})
	}
	return out
}
