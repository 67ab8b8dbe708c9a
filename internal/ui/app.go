package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/atlas/internal/notify"
	"github.com/five82/atlas/internal/prefs"
	"github.com/five82/atlas/internal/restcountries"
	"github.com/five82/atlas/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewList View = iota
	ViewFavorites
	ViewDetail
)

// BorderFetcher resolves neighbouring countries for the detail view.
// *restcountries.Client implements it.
type BorderFetcher interface {
	FetchByCodes(ctx context.Context, codes []string) ([]restcountries.Country, error)
}

// Options configures the UI.
type Options struct {
	Context      context.Context
	Catalog      *state.Catalog
	Filter       *state.FilterStore
	Favorites    *state.FavoriteStore
	Theme        *prefs.ThemePreference
	Notifier     *notify.Notifier
	Client       BorderFetcher
	DarkPalette  string
	LightPalette string
	PollTick     time.Duration
	Log          logrus.FieldLogger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	catalog   *state.Catalog
	filter    *state.FilterStore
	favorites *state.FavoriteStore
	pref      *prefs.ThemePreference
	notifier  *notify.Notifier
	client    BorderFetcher
	log       logrus.FieldLogger
	pollTick  time.Duration
	keys      keyMap

	// UI state
	darkPalette  string
	lightPalette string
	theme        Theme
	currentView  View
	returnView   View
	width        int
	height       int
	ready        bool
	showHelp     bool
	status       string

	// Data state
	snapshot    state.CatalogSnapshot
	rows        []restcountries.Country
	selectedRow int

	// Search state
	search    textinput.Model
	searching bool
	favQuery  string

	// Detail state
	detail     viewport.Model
	detailCode string
	borders    []restcountries.Country
	bordersErr error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search by name"
	search.CharLimit = 64

	m := Model{
		ctx:          ctx,
		catalog:      opts.Catalog,
		filter:       opts.Filter,
		favorites:    opts.Favorites,
		pref:         opts.Theme,
		notifier:     opts.Notifier,
		client:       opts.Client,
		log:          log,
		pollTick:     pollTick,
		keys:         DefaultKeyMap(),
		darkPalette:  GetTheme(opts.DarkPalette, true).Name,
		lightPalette: GetTheme(opts.LightPalette, false).Name,
		currentView:  ViewList,
		search:       search,
	}
	m.applyTheme()
	if m.catalog != nil {
		m.snapshot = m.catalog.Snapshot()
	}
	m.refreshRows()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.catalog != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.catalog))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model. The resulting rows are fed to the notifier's
// structural heuristic here so View stays free of storage reads.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.handle(msg)
	if nm, ok := next.(Model); ok {
		nm.observeFrame()
		return nm, cmd
	}
	return next, cmd
}

func (m Model) handle(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.detail = viewport.New(m.width, m.bodyHeight())
		}
		m.ready = true
		m.detail.Width = m.width
		m.detail.Height = m.bodyHeight()
		m.updateDetailViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.CatalogSnapshot(msg)
		m.refreshRows()
		m.updateDetailViewport()
		return m, nil

	case storeChangedMsg:
		m.handleStoreChanged(notify.Event(msg))
		return m, nil

	case bordersMsg:
		if msg.code == m.detailCode {
			m.borders = msg.countries
			m.bordersErr = msg.err
			m.updateDetailViewport()
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var body string
	if m.currentView == ViewDetail {
		body = m.detail.View()
	} else {
		body = m.renderRows(m.bodyHeight())
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// observeFrame hands the rendered list body to the notifier.
func (m Model) observeFrame() {
	if m.notifier == nil || !m.ready || m.showHelp || m.currentView == ViewDetail {
		return
	}
	m.notifier.ObserveFrame(m.renderRows(m.bodyHeight()))
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.ToggleTheme):
		if m.pref != nil {
			m.noteError("theme", m.pref.Toggle(m.ctx))
		}
		m.applyTheme()
		return m, nil

	case key.Matches(msg, m.keys.CyclePalette):
		if m.theme.Dark {
			m.darkPalette = NextTheme(m.darkPalette)
		} else {
			m.lightPalette = NextTheme(m.lightPalette)
		}
		m.applyTheme()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.listView() == ViewList {
			m.switchView(ViewFavorites)
		} else {
			m.switchView(ViewList)
		}
		return m, nil

	case key.Matches(msg, m.keys.ViewList):
		m.switchView(ViewList)
		return m, nil

	case key.Matches(msg, m.keys.ViewFavorites):
		m.switchView(ViewFavorites)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewDetail {
			m.switchView(m.returnView)
		}
		return m, nil
	}

	if m.currentView == ViewDetail {
		return m.handleDetailKey(msg)
	}
	return m.handleRowsKey(msg)
}

// handleRowsKey processes keyboard input for the list and favorites views.
func (m Model) handleRowsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		if m.currentView == ViewList {
			m.search.SetValue(m.filter.State().SearchTerm)
			m.search.Placeholder = "Search by name"
		} else {
			m.search.SetValue(m.favQuery)
			m.search.Placeholder = "Search favorites by name or region"
		}
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.CycleRegion):
		if m.currentView == ViewList {
			next := state.NextRegion(m.filter.State().Region)
			m.noteError("region", m.filter.SetRegion(m.ctx, next))
			m.selectedRow = 0
			m.refreshRows()
		}
		return m, nil

	case key.Matches(msg, m.keys.ClearFilter):
		if m.currentView == ViewList {
			m.noteError("filter", m.filter.Clear(m.ctx))
		} else {
			m.favQuery = ""
		}
		m.selectedRow = 0
		m.refreshRows()
		return m, nil
	}

	count := len(m.rows)
	if count == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	case key.Matches(msg, m.keys.PageDown):
		m.selectedRow = min(count-1, m.selectedRow+m.pageSize())
	case key.Matches(msg, m.keys.PageUp):
		m.selectedRow = max(0, m.selectedRow-m.pageSize())
	case key.Matches(msg, m.keys.ToggleFavorite):
		m.toggleFavorite(m.rows[m.selectedRow].CCA3)
	case key.Matches(msg, m.keys.Open):
		return m, m.openDetail(m.rows[m.selectedRow])
	}
	return m, nil
}

// handleDetailKey scrolls the detail pane and toggles the shown country.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ToggleFavorite) {
		m.toggleFavorite(m.detailCode)
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// handleSearchKey feeds the search input. Every edit is applied immediately.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Confirm) || key.Matches(msg, m.keys.Escape) {
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	value := m.search.Value()
	if m.currentView == ViewList {
		if value != m.filter.State().SearchTerm {
			m.noteError("search", m.filter.SetSearchTerm(m.ctx, value))
		}
	} else {
		m.favQuery = value
	}
	m.selectedRow = 0
	m.refreshRows()
	return m, cmd
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.catalog != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.catalog))
	}
	return m, tea.Batch(cmds...)
}

// handleStoreChanged re-reads the store behind ev.Channel.
func (m *Model) handleStoreChanged(ev notify.Event) {
	m.log.WithFields(logrus.Fields{
		"channel":  ev.Channel,
		"detector": ev.Detector.String(),
		"local":    ev.Local,
	}).Debug("store changed")

	switch ev.Channel {
	case notify.Theme:
		m.applyTheme()
		return
	case notify.Filter:
		if m.searching && m.currentView == ViewList {
			m.search.SetValue(m.filter.State().SearchTerm)
		}
	}
	m.refreshRows()
	m.updateDetailViewport()
}

func (m *Model) switchView(v View) {
	if v == ViewDetail {
		return
	}
	m.currentView = v
	m.selectedRow = 0
	m.refreshRows()
}

// listView is the row view currently shown or the one detail returns to.
func (m Model) listView() View {
	if m.currentView == ViewDetail {
		return m.returnView
	}
	return m.currentView
}

func (m *Model) refreshRows() {
	countries := m.snapshot.Countries
	switch {
	case m.listView() == ViewFavorites && m.favorites != nil:
		m.rows = m.favorites.SearchFavorites(countries, m.favQuery)
	case m.filter != nil:
		m.rows = m.filter.DeriveView(countries)
	default:
		m.rows = countries
	}
	if m.selectedRow >= len(m.rows) {
		m.selectedRow = max(0, len(m.rows)-1)
	}
}

func (m *Model) toggleFavorite(code string) {
	if m.favorites == nil || code == "" {
		return
	}
	m.noteError("favorites", m.favorites.Toggle(m.ctx, code))
	m.refreshRows()
	m.updateDetailViewport()
}

func (m *Model) applyTheme() {
	dark := true
	if m.pref != nil {
		dark = m.pref.Dark()
	}
	name := m.lightPalette
	if dark {
		name = m.darkPalette
	}
	m.theme = GetTheme(name, dark)
	m.updateDetailViewport()
}

// noteError surfaces a persistence failure in the footer. The change itself
// has already been applied in memory.
func (m *Model) noteError(what string, err error) {
	if err == nil {
		m.status = ""
		return
	}
	m.status = fmt.Sprintf("%s not saved: %v", what, err)
}

func (m *Model) openDetail(c restcountries.Country) tea.Cmd {
	m.returnView = m.currentView
	m.currentView = ViewDetail
	m.detailCode = c.CCA3
	m.borders = nil
	m.bordersErr = nil
	m.updateDetailViewport()
	m.detail.GotoTop()
	return fetchBordersCmd(m.ctx, m.client, c)
}

func (m Model) bodyHeight() int {
	// header, command bar, footer
	return max(1, m.height-3)
}

func (m Model) pageSize() int {
	return max(1, m.bodyHeight()-1)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.CatalogSnapshot

type storeChangedMsg notify.Event

type bordersMsg struct {
	code      string
	countries []restcountries.Country
	err       error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(catalog *state.Catalog) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(catalog.Snapshot())
	}
}

func fetchBordersCmd(ctx context.Context, client BorderFetcher, c restcountries.Country) tea.Cmd {
	if client == nil || len(c.Borders) == 0 {
		return nil
	}
	code := c.CCA3
	codes := append([]string(nil), c.Borders...)
	return func() tea.Msg {
		countries, err := client.FetchByCodes(ctx, codes)
		return bordersMsg{code: code, countries: countries, err: err}
	}
}

// sender is the part of *tea.Program the store bridge needs.
type sender interface {
	Send(msg tea.Msg)
}

// bridgeStores forwards every store channel into the program. Send blocks
// until the event loop reads, and local publishes arrive from inside Update,
// so each event is sent from its own goroutine.
func bridgeStores(n *notify.Notifier, p sender) func() {
	if n == nil {
		return func() {}
	}
	forward := func(ev notify.Event) {
		go p.Send(storeChangedMsg(ev))
	}
	unsubs := []func(){
		n.Subscribe(notify.Favorites, forward),
		n.Subscribe(notify.Filter, forward),
		n.Subscribe(notify.Theme, forward),
	}
	return func() {
		for _, unsubscribe := range unsubs {
			unsubscribe()
		}
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	stop := bridgeStores(opts.Notifier, p)
	defer stop()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
