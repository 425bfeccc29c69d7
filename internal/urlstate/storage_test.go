package urlstate

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/scout/internal/history"
	"github.com/five82/scout/internal/sessionstore"
)

type timeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type globalState struct {
	Time *timeRange `json:"time,omitempty"`
}

type appState struct {
	Index   string   `json:"index,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Query   string   `json:"query,omitempty"`
}

func TestSet_KeyOrderIsStable(t *testing.T) {
	hist := history.NewMemory("/")
	s := New(hist)

	if err := s.Set(AppKey, appState{Index: "test"}, SetOptions{Replace: true}); err != nil {
		t.Fatalf("Set app: %v", err)
	}
	if err := s.Set(GlobalKey, globalState{Time: &timeRange{From: "a", To: "b"}}, SetOptions{Replace: true}); err != nil {
		t.Fatalf("Set global: %v", err)
	}

	want := "/#?_g=(time:(from:a,to:b))&_a=(index:test)"
	if got := s.Href(); got != want {
		t.Fatalf("Href = %q, want %q", got, want)
	}
	if hist.Len() != 1 {
		t.Fatalf("replace writes created %d entries, want 1", hist.Len())
	}
}

func TestSet_ExistingKeysKeepPosition(t *testing.T) {
	hist := history.NewMemory("/#?_a=(index:x)&other=1&_g=(time:(from:a,to:b))")
	s := New(hist)
	if err := s.Set(AppKey, appState{Index: "y"}, SetOptions{Replace: true}); err != nil {
		t.Fatal(err)
	}
	want := "/#?_a=(index:y)&other=1&_g=(time:(from:a,to:b))"
	if got := s.Href(); got != want {
		t.Fatalf("Href = %q, want %q", got, want)
	}
}

func TestSet_EmptyValueRemovesKey(t *testing.T) {
	hist := history.NewMemory("/#?_g=(time:(from:a,to:b))&_a=(index:x)")
	s := New(hist)
	if err := s.Set(GlobalKey, globalState{}, SetOptions{Replace: true}); err != nil {
		t.Fatal(err)
	}
	if got, want := s.Href(), "/#?_a=(index:x)"; got != want {
		t.Fatalf("Href = %q, want %q", got, want)
	}
}

func TestSet_PushCreatesEntry(t *testing.T) {
	hist := history.NewMemory("/")
	s := New(hist)
	_ = s.Set(AppKey, appState{Index: "a"}, SetOptions{})
	_ = s.Set(AppKey, appState{Index: "b"}, SetOptions{})
	_ = s.Set(AppKey, appState{Index: "b"}, SetOptions{})
	if hist.Len() != 3 {
		t.Fatalf("Len = %d, want 3 (identical write must not push)", hist.Len())
	}
}

func TestBatch_CommitsOnce(t *testing.T) {
	hist := history.NewMemory("/")
	s := New(hist)
	pushes := 0
	hist.Listen(func(_ history.Location, a history.Action) {
		if a == history.Push {
			pushes++
		}
	})

	s.Batch(func() {
		_ = s.Set(GlobalKey, globalState{Time: &timeRange{From: "a", To: "b"}}, SetOptions{Replace: true})
		_ = s.Set(AppKey, appState{Index: "x"}, SetOptions{})
		if got := s.Href(); got != "/" {
			t.Fatalf("Href inside batch = %q, want uncommitted /", got)
		}
		var a appState
		if !s.Get(AppKey, &a) || a.Index != "x" {
			t.Fatalf("Get inside batch should see pending write, got %+v", a)
		}
	})

	if pushes != 1 {
		t.Fatalf("pushes = %d, want 1", pushes)
	}
	if got, want := s.Href(), "/#?_g=(time:(from:a,to:b))&_a=(index:x)"; got != want {
		t.Fatalf("Href = %q, want %q", got, want)
	}
}

func TestCancel_DropsPending(t *testing.T) {
	hist := history.NewMemory("/")
	s := New(hist)
	s.Batch(func() {
		_ = s.Set(AppKey, appState{Index: "x"}, SetOptions{})
		s.Cancel()
	})
	if got := s.Href(); got != "/" {
		t.Fatalf("Href = %q, want /", got)
	}
	if s.Flush() {
		t.Fatalf("Flush after Cancel reported a change")
	}
}

func TestGet_RoundTrip(t *testing.T) {
	hist := history.NewMemory("/")
	s := New(hist)
	in := appState{Index: "logs", Columns: []string{"message", "host.name"}, Query: "status:500 and it's & more"}
	if err := s.Set(AppKey, in, SetOptions{Replace: true}); err != nil {
		t.Fatal(err)
	}

	href := s.Href()
	if strings.Contains(href, " ") || strings.Count(href, "&") != 0 {
		t.Fatalf("href %q carries unescaped space or ampersand", href)
	}
	if !strings.Contains(href, "%20") {
		t.Fatalf("href %q should encode spaces as %%20", href)
	}

	fresh := New(history.NewMemory(href))
	var out appState
	if !fresh.Get(AppKey, &out) {
		t.Fatalf("Get = false for %q", href)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGet_MalformedIsAbsent(t *testing.T) {
	tests := []string{
		"/#?_a=(index:",
		"/#?_a=%zz",
		"/#?_a=(index:!(1,2))",
		"/#?_a=h@abcdef0",
		"/#/",
		"/",
	}
	for _, href := range tests {
		s := New(history.NewMemory(href))
		a := appState{Index: "keep"}
		if s.Get(AppKey, &a) {
			t.Fatalf("Get(%q) = true, want false", href)
		}
		if a.Index != "keep" {
			t.Fatalf("Get(%q) modified target: %+v", href, a)
		}
	}
}

func TestSet_PreservesUndecodablePairs(t *testing.T) {
	hist := history.NewMemory("/#?x=%zz")
	s := New(hist)
	_ = s.Set(AppKey, appState{Index: "a"}, SetOptions{Replace: true})
	if got, want := s.Href(), "/#?_a=(index:a)&x=%zz"; got != want {
		t.Fatalf("Href = %q, want %q", got, want)
	}
}

func TestOnChange(t *testing.T) {
	hist := history.NewMemory("/#?_g=(time:(from:a,to:b))")
	s := New(hist)

	type call struct {
		raw     string
		present bool
	}
	var calls []call
	unsub := s.OnChange(GlobalKey, func(raw string, present bool) { calls = append(calls, call{raw, present}) })

	_ = s.Set(GlobalKey, globalState{Time: &timeRange{From: "c", To: "d"}}, SetOptions{})
	if len(calls) != 0 {
		t.Fatalf("own write notified: %v", calls)
	}

	hist.Back()
	hist.Push("/#?_a=(index:x)")
	hist.Replace("/#?_a=(index:y)")
	hist.Push("/#/")

	want := []call{
		{"(time:(from:a,to:b))", true},
		{"", false},
	}
	if diff := cmp.Diff(want, calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}

	unsub()
	unsub()
	hist.Push("/#?_g=(time:(from:e,to:f))")
	if len(calls) != 2 {
		t.Fatalf("listener called after unsubscribe")
	}
}

func TestBinding(t *testing.T) {
	hist := history.NewMemory("/")
	s := New(hist)
	b := Bind[appState](s, AppKey)

	if _, ok := b.Get(); ok {
		t.Fatalf("Get on empty URL = true")
	}
	if err := b.Set(appState{Index: "logs"}, SetOptions{}); err != nil {
		t.Fatal(err)
	}
	got, ok := b.Get()
	if !ok || got.Index != "logs" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}

	var seen []appState
	var presence []bool
	b.OnChange(func(v appState, present bool) {
		seen = append(seen, v)
		presence = append(presence, present)
	})
	hist.Push("/#?_a=(index:other)")
	hist.Push("/#?_a=(index:")

	if len(seen) != 2 || seen[0].Index != "other" || !presence[0] || presence[1] {
		t.Fatalf("OnChange deliveries = %+v %v", seen, presence)
	}
}

func TestHashedMode(t *testing.T) {
	store := sessionstore.New("", 0)
	hist := history.NewMemory("/")
	s := New(hist, WithHashStore(store))

	if err := s.Set(AppKey, appState{Index: "logs"}, SetOptions{Replace: true}); err != nil {
		t.Fatal(err)
	}
	href := s.Href()
	if !strings.HasPrefix(href, "/#?_a=h@") {
		t.Fatalf("Href = %q, want hashed reference", href)
	}

	var a appState
	if !s.Get(AppKey, &a) || a.Index != "logs" {
		t.Fatalf("Get = %+v", a)
	}

	// Plain links still work in hashed mode.
	plain := New(history.NewMemory("/#?_a=(index:plain)"), WithHashStore(store))
	if !plain.Get(AppKey, &a) || a.Index != "plain" {
		t.Fatalf("plain Get = %+v", a)
	}

	// A reference from another session cannot be resolved.
	other := New(history.NewMemory(href), WithHashStore(sessionstore.New("", 0)))
	if other.Get(AppKey, &a) {
		t.Fatalf("foreign hash resolved")
	}
}

func TestSetPath(t *testing.T) {
	hist := history.NewMemory("/#?_a=(index:x)")
	s := New(hist)
	s.SetPath("/view/abc", SetOptions{})
	if got, want := s.Href(), "/#/view/abc?_a=(index:x)"; got != want {
		t.Fatalf("Href = %q, want %q", got, want)
	}
	if s.Path() != "/view/abc" {
		t.Fatalf("Path = %q", s.Path())
	}
	if hist.Len() != 2 {
		t.Fatalf("Len = %d, want 2", hist.Len())
	}
}

func TestClose_StopsListening(t *testing.T) {
	hist := history.NewMemory("/")
	s := New(hist)
	calls := 0
	s.OnChange(AppKey, func(string, bool) { calls++ })
	s.Close()
	hist.Push("/#?_a=(index:x)")
	if calls != 0 {
		t.Fatalf("calls = %d after Close", calls)
	}
}
