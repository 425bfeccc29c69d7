package statesync

import (
	"errors"
	"testing"

	"github.com/five82/scout/internal/history"
	"github.com/five82/scout/internal/statecontainer"
	"github.com/five82/scout/internal/urlstate"
)

type timeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type global struct {
	Time *timeRange `json:"time,omitempty"`
}

func equalGlobal(a, b global) bool {
	if a.Time == nil || b.Time == nil {
		return a.Time == b.Time
	}
	return *a.Time == *b.Time
}

func emptyGlobal(g global) bool { return g.Time == nil }

func newSync(t *testing.T, href string, initial global) (*history.Memory, *urlstate.Storage, *statecontainer.Container[global], *Syncer[global]) {
	t.Helper()
	hist := history.NewMemory(href)
	storage := urlstate.New(hist)
	container := statecontainer.New(initial)
	s := New(Config[global]{
		Container: container,
		URL:       urlstate.Bind[global](storage, urlstate.GlobalKey),
		Equal:     equalGlobal,
		IsEmpty:   emptyGlobal,
	})
	return hist, storage, container, s
}

func TestStart_HydratesFromURL(t *testing.T) {
	_, _, container, s := newSync(t, "/#?_g=(time:(from:a,to:b))", global{Time: &timeRange{"x", "y"}})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if got := container.Get().Time; got == nil || *got != (timeRange{"a", "b"}) {
		t.Fatalf("Time = %+v, want a..b", got)
	}
}

func TestStart_EmptyURLValueKeepsDefaults(t *testing.T) {
	_, _, container, s := newSync(t, "/#?_g=()", global{Time: &timeRange{"x", "y"}})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	if got := container.Get().Time; got == nil || got.From != "x" {
		t.Fatalf("empty URL value replaced defaults: %+v", got)
	}
}

func TestStart_SeedsURLWhenAbsent(t *testing.T) {
	hist, storage, _, s := newSync(t, "/", global{Time: &timeRange{"now-15m", "now"}})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	if got, want := storage.Href(), "/#?_g=(time:(from:now-15m,to:now))"; got != want {
		t.Fatalf("Href = %q, want %q", got, want)
	}
	if hist.Len() != 1 {
		t.Fatalf("seeding created %d entries, want 1", hist.Len())
	}
}

func TestStart_Twice(t *testing.T) {
	_, _, _, s := newSync(t, "/", global{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	if err := s.Start(); !errors.Is(err, ErrStarted) {
		t.Fatalf("second Start = %v, want ErrStarted", err)
	}
}

func TestContainerChangeReplacesURL(t *testing.T) {
	hist, storage, container, s := newSync(t, "/", global{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	container.Set(global{Time: &timeRange{"a", "b"}})
	if got, want := storage.Href(), "/#?_g=(time:(from:a,to:b))"; got != want {
		t.Fatalf("Href = %q, want %q", got, want)
	}
	if hist.Len() != 1 {
		t.Fatalf("container change pushed an entry")
	}

	s.Navigate(func() { container.Set(global{Time: &timeRange{"c", "d"}}) })
	if hist.Len() != 2 {
		t.Fatalf("Navigate did not push, Len = %d", hist.Len())
	}
}

func TestURLChangeUpdatesContainer(t *testing.T) {
	hist, _, container, s := newSync(t, "/#?_g=(time:(from:a,to:b))", global{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	sets := 0
	container.Subscribe(func(global) { sets++ })

	hist.Push("/#?_g=(time:(from:c,to:d))")
	if got := container.Get().Time; got == nil || got.From != "c" {
		t.Fatalf("Time = %+v, want c..d", got)
	}
	// Same value under a different href is not applied again.
	hist.Push("/#/other?_g=(time:(from:c,to:d))")
	if sets != 1 {
		t.Fatalf("sets = %d, want 1", sets)
	}
	if hist.Len() != 3 {
		t.Fatalf("applying URL state wrote back to history, Len = %d", hist.Len())
	}
}

func TestURLAbsencePreservesState(t *testing.T) {
	hist, _, container, s := newSync(t, "/#?_g=(time:(from:a,to:b))", global{})
	absent := 0
	s.cfg.OnAbsent = func() { absent++ }
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	hist.Push("/#/")
	if got := container.Get().Time; got == nil || *got != (timeRange{"a", "b"}) {
		t.Fatalf("Time = %+v after navigating to #/, want a..b", got)
	}
	if absent != 1 {
		t.Fatalf("OnAbsent calls = %d, want 1", absent)
	}

	hist.Push("/#?_g=(time:(from:")
	if got := container.Get().Time; got == nil || got.From != "a" {
		t.Fatalf("malformed URL overwrote state: %+v", got)
	}
}

func TestStop(t *testing.T) {
	hist, storage, container, s := newSync(t, "/", global{})
	s.Stop()
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	s.Stop()
	if s.Running() {
		t.Fatalf("Running = true after Stop")
	}

	container.Set(global{Time: &timeRange{"a", "b"}})
	if got := storage.Href(); got != "/" {
		t.Fatalf("container change after Stop reached URL: %q", got)
	}
	hist.Push("/#?_g=(time:(from:c,to:d))")
	if container.Get().Time.From != "a" {
		t.Fatalf("URL change after Stop reached container")
	}
	if container.Len() != 0 {
		t.Fatalf("container still has %d subscriptions", container.Len())
	}
}

type fakeSyncable struct {
	name string
	err  error
	log  *[]string
}

func (f fakeSyncable) Start() error {
	*f.log = append(*f.log, "start "+f.name)
	return f.err
}

func (f fakeSyncable) Stop() { *f.log = append(*f.log, "stop "+f.name) }

func TestGroup(t *testing.T) {
	var log []string
	g := Group{
		fakeSyncable{name: "g", log: &log},
		fakeSyncable{name: "a", log: &log, err: errors.New("boom")},
	}
	if err := g.Start(); err == nil {
		t.Fatalf("Start = nil, want error")
	}
	want := []string{"start g", "start a", "stop g"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log = %v, want %v", log, want)
		}
	}
}
