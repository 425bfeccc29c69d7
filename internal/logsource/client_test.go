package logsource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/filters"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBind {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBind)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_EncodesRequest(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotUserAgent string
	when := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query()
		if r.URL.Path != ChunkPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ChunkResponse{
			Records: []WireRecord{{WireCursor: WireCursor{Time: when, Seq: 3}, Fields: map[string]any{"message": "hi"}}},
		})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	res, err := c.FetchChunk(ctx, dataaccess.FetchRequest{
		DataView:  "logs-*",
		Anchor:    dataaccess.Cursor{Time: when, Tiebreaker: 9},
		Direction: dataaccess.Before,
		Size:      50,
		TimeRange: dataaccess.TimeRange{From: when.Add(-time.Hour), To: when},
		Filters:   []filters.Filter{filters.Exists("logs", "host")},
		Query:     dataaccess.Query{Language: LanguageText, Text: "error"},
		Columns:   []string{"message", "host"},
	})
	if err != nil {
		t.Fatalf("FetchChunk returned error: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].Cursor.Tiebreaker != 3 || res.Records[0].Fields["message"] != "hi" {
		t.Fatalf("FetchChunk records = %#v", res.Records)
	}
	if gotQuery.Get("data_view") != "logs-*" ||
		gotQuery.Get("direction") != "before" ||
		gotQuery.Get("size") != "50" ||
		gotQuery.Get("seq") != "9" ||
		gotQuery.Get("query") != "error" ||
		gotQuery.Get("language") != "text" ||
		gotQuery.Get("columns") != "message,host" ||
		!strings.Contains(gotQuery.Get("filters"), `"exists"`) {
		t.Fatalf("FetchChunk query = %v, want params encoded", gotQuery)
	}
	if !strings.HasPrefix(gotUserAgent, "scout/") {
		t.Fatalf("User-Agent = %q, want scout/*", gotUserAgent)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
			return
		}
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	req := dataaccess.FetchRequest{Direction: dataaccess.Around, Size: 1}

	_, err = c.FetchChunk(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("first FetchChunk error = %v, want decode response error", err)
	}
	_, err = c.FetchChunk(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("second FetchChunk error = %v, want status 500 error", err)
	}
}

func TestClient_CancelledIsAborted(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = c.FetchChunk(ctx, dataaccess.FetchRequest{Direction: dataaccess.Around, Size: 1})
	if !dataaccess.IsAborted(err) {
		t.Fatalf("FetchChunk error = %v, want an abort", err)
	}
}

func TestHandler_ServesFileSourceThroughClient(t *testing.T) {
	t.Parallel()

	path := writeLog(t, sampleLines)
	server := httptest.NewServer(Handler(NewFileSource(path), nil))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	req := dataaccess.FetchRequest{
		Anchor:    dataaccess.Cursor{Time: base.Add(2 * time.Minute)},
		Direction: dataaccess.Around,
		Size:      10,
		TimeRange: dayRange,
		Filters:   []filters.Filter{filters.Phrase("logs", "level", "error")},
	}
	got, err := c.FetchChunk(context.Background(), req)
	if err != nil {
		t.Fatalf("FetchChunk returned error: %v", err)
	}
	want, err := NewFileSource(path).FetchChunk(context.Background(), req)
	if err != nil {
		t.Fatalf("direct FetchChunk returned error: %v", err)
	}
	if diff := cmp.Diff(messages(want.Records), messages(got.Records)); diff != "" {
		t.Fatalf("served records (-direct +http):\n%s", diff)
	}

	req.Query = dataaccess.Query{Language: LanguageExpr, Text: "level =="}
	_, err = c.FetchChunk(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "status 422") || errors.Is(err, dataaccess.ErrAborted) {
		t.Fatalf("bad query error = %v, want status 422", err)
	}
}
