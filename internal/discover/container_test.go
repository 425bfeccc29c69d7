package discover

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/scout/internal/clock"
	"github.com/five82/scout/internal/filters"
	"github.com/five82/scout/internal/history"
	"github.com/five82/scout/internal/savedview"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	hist  *history.Memory
	clock *clock.FakeClock
	c     *Container
}

func newFixture(t *testing.T, href string, mutate ...func(*Options)) fixture {
	t.Helper()
	hist := history.NewMemory(href)
	clk := clock.Fake(epoch)
	opts := Options{
		History:         hist,
		DefaultAppState: AppState{Index: "test"},
		Clock:           clk,
	}
	for _, m := range mutate {
		m(&opts)
	}
	c := New(opts)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(c.Stop)
	return fixture{hist: hist, clock: clk, c: c}
}

func TestFlushToURL_GlobalThenApp(t *testing.T) {
	f := newFixture(t, "/")
	f.c.SetGlobalState(GlobalState{Time: &TimeRange{From: "a", To: "b"}})

	want := "/#?_g=(time:(from:a,to:b))&_a=(index:test)"
	if got := f.c.FlushToURL(); got != want {
		t.Fatalf("FlushToURL = %q, want %q", got, want)
	}
}

func TestFlushToURL_AppOnly(t *testing.T) {
	f := newFixture(t, "/")
	f.c.SetAppState(AppState{Index: "modified"})
	if got, want := f.c.FlushToURL(), "/#?_a=(index:modified)"; got != want {
		t.Fatalf("FlushToURL = %q, want %q", got, want)
	}
}

func TestFlushToURL_Idempotent(t *testing.T) {
	f := newFixture(t, "/")
	f.c.SetGlobalState(GlobalState{Time: &TimeRange{From: "now-15m", To: "now"}})
	f.c.SetAppState(AppState{Index: "logs", Columns: []string{"message"}, Query: &Query{Language: LanguageText, Query: "error"}})

	first := f.c.FlushToURL()
	entries := f.hist.Len()
	second := f.c.FlushToURL()
	if first != second {
		t.Fatalf("FlushToURL changed the URL: %q then %q", first, second)
	}
	if f.hist.Len() != entries {
		t.Fatalf("second flush created a history entry")
	}
}

func TestDirtyTracking(t *testing.T) {
	f := newFixture(t, "/")
	if f.c.IsAppStateDirty() {
		t.Fatalf("fresh container is dirty")
	}
	f.c.SetAppState(AppState{Index: "modified"})
	if !f.c.IsAppStateDirty() {
		t.Fatalf("IsAppStateDirty = false after change")
	}
	if diff := f.c.AppStateDiff(); !strings.Contains(diff, `- `) || !strings.Contains(diff, `"index": "modified"`) {
		t.Fatalf("AppStateDiff = %q", diff)
	}

	f.c.ResetInitialAppState()
	if f.c.IsAppStateDirty() {
		t.Fatalf("IsAppStateDirty = true after ResetInitialAppState")
	}
	if f.c.AppStateDiff() != "" {
		t.Fatalf("AppStateDiff not empty for clean state")
	}
}

func TestDirtyTracking_FilterOrderIsNotDirty(t *testing.T) {
	a := filters.Phrase("logs", "host", "a")
	b := filters.Exists("logs", "user")
	f := newFixture(t, "/", func(o *Options) {
		o.DefaultAppState = AppState{Index: "logs", Filters: []filters.Filter{a, b}}
	})
	f.c.SetAppState(AppState{Index: "logs", Filters: []filters.Filter{b, a}})
	if f.c.IsAppStateDirty() {
		t.Fatalf("reordered filters marked dirty")
	}
}

func TestPreviousAppState(t *testing.T) {
	f := newFixture(t, "/")
	f.c.SetAppState(AppState{Index: "one"})
	f.c.SetAppState(AppState{Index: "two"})
	if got := f.c.PreviousAppState().Index; got != "one" {
		t.Fatalf("PreviousAppState().Index = %q, want one", got)
	}
	f.c.UpdateAppState(func(s *AppState) { s.Columns = []string{"message"} })
	prev := f.c.PreviousAppState()
	if prev.Index != "two" || len(prev.Columns) != 0 {
		t.Fatalf("PreviousAppState = %+v", prev)
	}
}

func TestStart_HydratesFromURL(t *testing.T) {
	f := newFixture(t, "/#?_g=(time:(from:now-1h,to:now))&_a=(columns:!(host,message),index:logs)")
	app := f.c.AppState()
	if app.Index != "logs" || len(app.Columns) != 2 {
		t.Fatalf("AppState = %+v", app)
	}
	if g := f.c.GlobalState(); g.Time == nil || g.Time.From != "now-1h" {
		t.Fatalf("GlobalState = %+v", g)
	}
	if f.c.IsAppStateDirty() {
		t.Fatalf("hydrated state should be the baseline")
	}
}

func TestStart_MalformedURLKeepsDefaults(t *testing.T) {
	f := newFixture(t, "/#?_a=(index:!(broken")
	if got := f.c.AppState().Index; got != "test" {
		t.Fatalf("Index = %q, want default test", got)
	}
}

func TestURLAbsencePreservesGlobalState(t *testing.T) {
	f := newFixture(t, "/#?_g=(time:(from:a,to:b))")
	f.hist.Push("/#/")

	want := GlobalState{Time: &TimeRange{From: "a", To: "b"}}
	if diff := cmp.Diff(want, f.c.GlobalState()); diff != "" {
		t.Fatalf("global state changed (-want +got):\n%s", diff)
	}
}

func TestAbsentPolicy(t *testing.T) {
	tests := []struct {
		policy    AbsentPolicy
		wantIndex string
	}{
		{PreservePrevious, "logs"},
		{ResetToDefault, "test"},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			f := newFixture(t, "/#?_g=(time:(from:a,to:b))&_a=(index:logs)", func(o *Options) {
				o.AbsentPolicy = tt.policy
			})
			f.hist.Push("/#/")
			if got := f.c.AppState().Index; got != tt.wantIndex {
				t.Fatalf("Index = %q, want %q", got, tt.wantIndex)
			}
			if g := f.c.GlobalState(); g.Time == nil || g.Time.From != "a" {
				t.Fatalf("global state lost: %+v", g)
			}
		})
	}
}

func TestAbsentPolicy_OneKeyAbsentNeverResets(t *testing.T) {
	f := newFixture(t, "/#?_g=(time:(from:a,to:b))&_a=(index:logs)", func(o *Options) {
		o.AbsentPolicy = ResetToDefault
	})
	f.hist.Push("/#?_g=(time:(from:c,to:d))")
	if got := f.c.AppState().Index; got != "logs" {
		t.Fatalf("Index = %q, want logs", got)
	}
	if got := f.c.GlobalState().Time.From; got != "c" {
		t.Fatalf("Time.From = %q, want c", got)
	}
}

func TestParseAbsentPolicy(t *testing.T) {
	for in, want := range map[string]AbsentPolicy{"": PreservePrevious, "preserve": PreservePrevious, " Reset ": ResetToDefault} {
		got, err := ParseAbsentPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseAbsentPolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseAbsentPolicy("sometimes"); err == nil {
		t.Fatalf("ParseAbsentPolicy(sometimes) returned nil error")
	}
}

func TestBackRestoresState(t *testing.T) {
	f := newFixture(t, "/")
	f.c.NavigateAppState(func(s *AppState) { s.Index = "second" })
	f.c.NavigateAppState(func(s *AppState) { s.Index = "third" })

	f.hist.Back()
	if got := f.c.AppState().Index; got != "second" {
		t.Fatalf("after Back Index = %q, want second", got)
	}
	f.hist.Forward()
	if got := f.c.AppState().Index; got != "third" {
		t.Fatalf("after Forward Index = %q, want third", got)
	}
}

func TestSetFilters_SplitsByStore(t *testing.T) {
	f := newFixture(t, "/")
	pinned := filters.Exists("logs", "user").Pinned()
	app := filters.Phrase("logs", "host", "a")
	entries := f.hist.Len()

	f.c.SetFilters([]filters.Filter{app, pinned, app.Clone()})

	if got := f.c.GlobalState().Filters; len(got) != 1 || !got[0].IsPinned() {
		t.Fatalf("global filters = %+v", got)
	}
	if got := f.c.AppState().Filters; len(got) != 1 {
		t.Fatalf("app filters = %+v", got)
	}
	if len(f.c.Filters()) != 2 {
		t.Fatalf("Filters() = %d, want 2", len(f.c.Filters()))
	}
	if f.hist.Len() != entries {
		t.Fatalf("SetFilters pushed history entries")
	}
	href := f.c.Href()
	if !strings.Contains(href, "_g=(filters:!(") || !strings.Contains(href, "_a=(filters:!(") {
		t.Fatalf("Href = %q, want filters under both keys", href)
	}
}

func TestReplaceURLAppState(t *testing.T) {
	f := newFixture(t, "/")
	f.c.ReplaceURLAppState(func(s *AppState) { s.Columns = []string{"message"} })
	if got, want := f.c.Href(), "/#?_a=(columns:!(message),index:test)"; got != want {
		t.Fatalf("Href = %q, want %q", got, want)
	}
	if f.hist.Len() != 1 {
		t.Fatalf("Len = %d, want 1", f.hist.Len())
	}
}

func TestFetchTrigger_Debounces(t *testing.T) {
	f := newFixture(t, "/")
	trigger := f.c.FetchTrigger()

	for _, q := range []string{"e", "er", "err"} {
		f.c.UpdateAppState(func(s *AppState) { s.Query = &Query{Language: LanguageText, Query: q} })
		f.clock.Advance(50 * time.Millisecond)
	}
	f.c.SetGlobalState(GlobalState{Time: &TimeRange{From: "now-1h", To: "now"}})

	select {
	case c := <-trigger.C():
		t.Fatalf("trigger fired early with %v", c)
	default:
	}

	f.clock.Advance(DefaultDebounce)
	select {
	case c := <-trigger.C():
		if c != ChangeQuery|ChangeTimeRange {
			t.Fatalf("change = %v, want query|timeRange", c)
		}
	default:
		t.Fatalf("trigger did not fire after quiet period")
	}

	select {
	case c := <-trigger.C():
		t.Fatalf("second fire %v", c)
	default:
	}
}

func TestFetchTrigger_EqualSetIsSilent(t *testing.T) {
	f := newFixture(t, "/")
	f.c.SetAppState(AppState{Index: "test"})
	f.clock.Advance(time.Second)
	if p := f.c.FetchTrigger().Pending(); p != 0 {
		t.Fatalf("Pending = %v, want none", p)
	}
	select {
	case c := <-f.c.FetchTrigger().C():
		t.Fatalf("equal state fired %v", c)
	default:
	}
}

func TestStop_CancelsTrigger(t *testing.T) {
	f := newFixture(t, "/")
	f.c.SetAppState(AppState{Index: "other"})
	f.c.Stop()
	f.c.Stop()
	f.clock.Advance(time.Second)
	select {
	case c := <-f.c.FetchTrigger().C():
		t.Fatalf("stopped trigger fired %v", c)
	default:
	}

	f.hist.Push("/#?_a=(index:fromurl)")
	if got := f.c.AppState().Index; got != "other" {
		t.Fatalf("URL change reached stopped container: %q", got)
	}
}

func TestStop_BeforeStart(t *testing.T) {
	c := New(Options{History: history.NewMemory("/"), Clock: clock.Fake(epoch)})
	c.Stop()
	c.Stop()
}

func TestHashedURLs(t *testing.T) {
	store := &mapHashStore{m: map[string]string{}}
	f := newFixture(t, "/", func(o *Options) { o.HashStore = store })
	f.c.SetGlobalState(GlobalState{Time: &TimeRange{From: "a", To: "b"}})
	href := f.c.FlushToURL()
	if !strings.Contains(href, "_g=h@") || !strings.Contains(href, "_a=h@") {
		t.Fatalf("Href = %q, want hashed keys", href)
	}

	other := New(Options{History: history.NewMemory(href), HashStore: store, Clock: clock.Fake(epoch)})
	if err := other.Start(); err != nil {
		t.Fatal(err)
	}
	defer other.Stop()
	if got := other.AppState().Index; got != "test" {
		t.Fatalf("hashed app state not restored: %+v", other.AppState())
	}
}

type mapHashStore struct{ m map[string]string }

func (s *mapHashStore) Put(v string) string {
	ref := "h@" + strings.Repeat("0", 6) + string(rune('a'+len(s.m)))
	for k, existing := range s.m {
		if existing == v {
			return k
		}
	}
	s.m[ref] = v
	return ref
}

func (s *mapHashStore) Lookup(ref string) (string, bool) {
	v, ok := s.m[ref]
	return v, ok
}

func TestSaveAndLoadView(t *testing.T) {
	ctx := context.Background()
	store := savedview.NewFileStore(t.TempDir())
	f := newFixture(t, "/", func(o *Options) { o.Views = store })

	f.c.SetAppState(AppState{Index: "logs", Columns: []string{"message"}})
	if !f.c.IsAppStateDirty() {
		t.Fatalf("expected dirty before save")
	}
	saved, err := f.c.SaveView(ctx, "errors", false)
	if err != nil {
		t.Fatalf("SaveView: %v", err)
	}
	if f.c.IsAppStateDirty() {
		t.Fatalf("dirty after save")
	}
	if got := f.c.CurrentViewID(); got != saved.ID {
		t.Fatalf("CurrentViewID = %q, want %q", got, saved.ID)
	}
	if !strings.HasPrefix(f.c.Href(), "/#/view/"+saved.ID+"?") {
		t.Fatalf("Href = %q", f.c.Href())
	}

	f.c.SetAppState(AppState{Index: "other"})
	entries := f.hist.Len()
	if _, err := f.c.LoadView(ctx, saved.ID); err != nil {
		t.Fatalf("LoadView: %v", err)
	}
	if got := f.c.AppState(); got.Index != "logs" || len(got.Columns) != 1 {
		t.Fatalf("AppState after LoadView = %+v", got)
	}
	if f.c.IsAppStateDirty() {
		t.Fatalf("dirty after load")
	}
	if f.hist.Len() != entries+1 {
		t.Fatalf("LoadView pushed %d entries, want 1", f.hist.Len()-entries)
	}

	again, err := f.c.SaveView(ctx, "errors v2", false)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != saved.ID {
		t.Fatalf("SaveView on open view created a new id")
	}
}

func TestLoadView_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "/")
	if _, err := f.c.LoadView(ctx, "x"); !errors.Is(err, ErrNoViewStore) {
		t.Fatalf("LoadView without store = %v", err)
	}

	g := newFixture(t, "/", func(o *Options) { o.Views = savedview.NewFileStore(t.TempDir()) })
	if _, err := g.c.LoadView(ctx, "6f1b2a52-8f3e-4a55-9a43-0f4a7c5d9e10"); !errors.Is(err, savedview.ErrNotFound) {
		t.Fatalf("LoadView unknown id = %v, want ErrNotFound", err)
	}
}
