package dataaccess

// Phase is the top-level state of the machine.
type Phase int

const (
	Uninitialized Phase = iota
	LoadingAround
	Loaded
	Reloading
	FailedNoData
)

func (p Phase) String() string {
	switch p {
	case LoadingAround:
		return "loadingAround"
	case Loaded:
		return "loaded"
	case Reloading:
		return "reloading"
	case FailedNoData:
		return "failedNoData"
	}
	return "uninitialized"
}

// ChunkStatus is the state of one edge while Loaded.
type ChunkStatus int

const (
	ChunkUninitialized ChunkStatus = iota
	ChunkLoading
	ChunkExtending
	ChunkLoaded
	ChunkFailed
)

func (c ChunkStatus) String() string {
	switch c {
	case ChunkLoading:
		return "loading"
	case ChunkExtending:
		return "extending"
	case ChunkLoaded:
		return "loaded"
	case ChunkFailed:
		return "failed"
	}
	return "uninitialized"
}

// InFlight reports whether a fetch is outstanding for the edge.
func (c ChunkStatus) InFlight() bool {
	return c == ChunkLoading || c == ChunkExtending
}

// Chunk describes one edge of the loaded window.
type Chunk struct {
	Status ChunkStatus
	// Boundary is the outermost cursor loaded on this edge.
	Boundary Cursor
	// Count is the number of records this edge has added to the window.
	Count int
	// Exhausted is set once a fetch came back short: nothing further
	// exists on this side within the time range.
	Exhausted bool
	Err       error
	RequestID uint64
}

// State is an immutable snapshot of the machine. The zero value is
// Uninitialized. Transition never modifies a State it is given.
type State struct {
	Phase  Phase
	Params Params
	// Records is the loaded window in ascending cursor order.
	Records []Record
	Top     Chunk
	Bottom  Chunk
	// Err holds the failure that led to FailedNoData.
	Err       error
	RequestID uint64
	seq       uint64
}

// Is answers the named states: the phases by name, plus loadingTop,
// loadingBottom, extendingTop and extendingBottom, which are Loaded with
// the edge in that status.
func (s State) Is(name string) bool {
	switch name {
	case "loadingTop":
		return s.Phase == Loaded && s.Top.Status == ChunkLoading
	case "loadingBottom":
		return s.Phase == Loaded && s.Bottom.Status == ChunkLoading
	case "extendingTop":
		return s.Phase == Loaded && s.Top.Status == ChunkExtending
	case "extendingBottom":
		return s.Phase == Loaded && s.Bottom.Status == ChunkExtending
	}
	return s.Phase.String() == name
}

// Name is the most specific state name, e.g. "loaded" or "extendingTop".
// When both edges are busy the top edge wins.
func (s State) Name() string {
	if s.Phase != Loaded {
		return s.Phase.String()
	}
	for _, n := range []string{"loadingTop", "extendingTop", "loadingBottom", "extendingBottom"} {
		if s.Is(n) {
			return n
		}
	}
	return "loaded"
}

// Busy reports whether any fetch is outstanding.
func (s State) Busy() bool {
	return s.Phase == LoadingAround || s.Phase == Reloading ||
		(s.Phase == Loaded && (s.Top.Status.InFlight() || s.Bottom.Status.InFlight()))
}

// Window returns the cursors of the first and last loaded records.
func (s State) Window() (first, last Cursor, ok bool) {
	if len(s.Records) == 0 {
		return Cursor{}, Cursor{}, false
	}
	return s.Records[0].Cursor, s.Records[len(s.Records)-1].Cursor, true
}

func (s *State) nextID() uint64 {
	s.seq++
	return s.seq
}
