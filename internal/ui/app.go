package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/scout/internal/config"
	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/discover"
	"github.com/five82/scout/internal/prefs"
	"github.com/five82/scout/internal/savedview"
	"github.com/five82/scout/internal/state"
)

// Sender delivers events to the data access machine.
type Sender interface {
	Send(e dataaccess.Event) bool
}

// Navigator moves through the URL history.
type Navigator interface {
	Back() bool
	Forward() bool
}

// ViewLister lists saved views for the picker.
type ViewLister interface {
	List(ctx context.Context) ([]savedview.View, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Machine   Sender
	Discover  *discover.Container
	History   Navigator
	Views     ViewLister
	Config    *config.Config
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	// Source names where records come from, shown in the header.
	Source string
}

// overlayKind is the overlay drawn over the table, if any.
type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayHelp
	overlayDetail
	overlayDiff
	overlayViews
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	machine   Sender
	discover  *discover.Container
	history   Navigator
	views     ViewLister
	config    *config.Config
	prefs     prefs.Prefs
	prefsPath string
	source    string
	pollTick  time.Duration
	keys      keyMap
	now       func() time.Time

	// UI state
	theme  Theme
	wrap   bool
	width  int
	height int
	ready  bool

	// Data state
	snapshot state.Snapshot
	aroundID uint64

	// Table state
	selected       int
	offset         int
	selectedCursor dataaccess.Cursor
	hasSelection   bool
	lastVisible    *[2]dataaccess.Cursor

	// Overlays
	overlay       overlayKind
	viewport      viewport.Model
	viewportTitle string
	viewList      []savedview.View
	viewIndex     int

	// Prompt
	prompt     textinput.Model
	promptKind promptKind

	// Footer status line
	status    string
	statusErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	prompt := textinput.New()
	prompt.CharLimit = 512

	return Model{
		ctx:       ctx,
		store:     opts.Store,
		machine:   opts.Machine,
		discover:  opts.Discover,
		history:   opts.History,
		views:     opts.Views,
		config:    opts.Config,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		source:    opts.Source,
		pollTick:  pollTick,
		keys:      DefaultKeyMap(),
		now:       time.Now,
		theme:     GetTheme(opts.Prefs.Theme),
		wrap:      opts.Prefs.WrapLines,
		viewport:  viewport.New(overlayWidth, 10),
		prompt:    prompt,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.prompt.Width = max(m.width-16, 10)
		m.resizeViewport()
		m.ensureVisible()
		m.reportVisible()
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		cmds = append(cmds, tickCmd(m.pollTick))
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case statusMsg:
		m.status, m.statusErr = msg.text, msg.err
		return m, nil

	case viewsMsg:
		if msg.err != nil {
			m.status, m.statusErr = "list views: "+msg.err.Error(), true
			return m, nil
		}
		if len(msg.views) == 0 {
			m.status, m.statusErr = "no saved views", false
			return m, nil
		}
		m.viewList, m.viewIndex = msg.views, 0
		m.overlay = overlayViews
		return m, nil
	}

	if m.promptKind != promptNone {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applySnapshot takes a new snapshot, keeping the selection on the same
// record when only the window around it changed.
func (m *Model) applySnapshot(snap state.Snapshot) {
	changed := snap.Generation != m.snapshot.Generation
	m.snapshot = snap
	if !changed {
		return
	}
	if snap.Data.RequestID != m.aroundID {
		// A fresh load around the anchor: select the anchor.
		m.aroundID = snap.Data.RequestID
		m.hasSelection = false
		m.lastVisible = nil
	}
	m.syncSelection()
	m.reportVisible()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	switch m.overlay {
	case overlayHelp:
		return m.renderHelp()
	case overlayDetail, overlayDiff:
		return m.renderViewport()
	case overlayViews:
		return m.renderViews()
	}
	return m.renderMain()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	return m.renderHeader() + "\n" +
		m.renderCommandBar() + "\n" +
		m.renderTable() + "\n" +
		m.renderFooter()
}

func (m *Model) send(e dataaccess.Event) {
	if m.machine == nil {
		return
	}
	if !m.machine.Send(e) {
		m.status, m.statusErr = "scout is shutting down", true
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type statusMsg struct {
	text string
	err  bool
}

type viewsMsg struct {
	views []savedview.View
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
