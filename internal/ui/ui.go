package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/player"
	"github.com/desertthunder/arcana/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CardListView ViewState = iota
	PlaylistView
)

// RefreshInterval is how often the player indicator is re-read.
const RefreshInterval = time.Second

// Opener loads the view behind a card.
type Opener interface {
	OpenCard(ctx context.Context, card models.Card, timeRange models.TimeRange) (*models.PlaylistView, error)
}

// Playback is the part of [player.Controller] the TUI drives.
type Playback interface {
	State() player.State
	Session() models.PlayerSession
	Play(ctx context.Context, uri string) error
	Restart(ctx context.Context, uri string) error
	Pause(ctx context.Context) error
}

// Login starts a login from inside the TUI. [auth.Orchestrator] implements it.
type Login interface {
	StartLogin(ctx context.Context) error
}

// Options wires the TUI to its collaborators. Player and Login may be nil.
type Options struct {
	Deck        models.Deck
	Cards       Opener
	Player      Playback
	Login       Login
	Diagnostics <-chan error
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	cards       Opener
	player      Playback
	login       Login
	diagnostics <-chan error

	width     int
	height    int
	cardList  list.Model
	trackList list.Model
	card      models.Card
	playlist  *models.PlaylistView
	timeRange models.TimeRange
	loading   bool

	state   player.State
	session models.PlayerSession
	status  string
	failed  bool

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model over the given deck.
func NewModel(ctx context.Context, opts Options) *Model {
	cardList := list.New(cardItems(opts.Deck), list.NewDefaultDelegate(), 0, 0)
	cardList.Title = "Draw a card"

	trackList := list.New(nil, list.NewDefaultDelegate(), 0, 0)

	return &Model{
		ctx:         ctx,
		view:        CardListView,
		cards:       opts.Cards,
		player:      opts.Player,
		login:       opts.Login,
		diagnostics: opts.Diagnostics,
		cardList:    cardList,
		trackList:   trackList,
		timeRange:   models.ShortTerm,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the player indicator refresh and the diagnostics listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForDiagnostic())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.cardList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CardListView:
			return m.handleCardListKeys(msg)
		case PlaylistView:
			return m.handlePlaylistKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCardOpened:
		data := msg.data.(cardOpened)
		m.loading = false
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}

		m.card = data.card
		m.playlist = data.view
		m.refreshSession()
		m.trackList.Title = m.playlistTitle()
		m.trackList.ResetSelected()
		m.view = PlaylistView
		m.clearStatus()
		return m, m.trackList.SetItems(trackItems(data.view.Tracks, m.session))

	case MsgPlayback:
		data := msg.data.(playbackDone)
		if data.err != nil {
			m.setError(data.err)
		} else {
			m.setStatus(m.describe(data))
		}
		return m, m.refreshTracks()

	case MsgDiagnostic:
		if err, _ := msg.data.(error); err != nil {
			m.setError(err)
		}
		return m, m.waitForDiagnostic()

	case MsgTick:
		return m, tea.Batch(m.refreshTracks(), m.tick())

	case MsgLogin:
		if err, _ := msg.data.(error); err != nil {
			m.setError(err)
		} else {
			m.setStatus("Finish logging in with Spotify in your browser.")
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case CardListView:
		body = m.renderCardList()
	case PlaylistView:
		body = m.renderPlaylist()
	}
	return fmt.Sprintf("%s\n%s", body, m.renderStatus())
}

func (m *Model) handleCardListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.cardList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.login):
		return m, m.startLogin()
	case key.Matches(msg, m.keys.open):
		if m.loading {
			return m, nil
		}
		if selected, ok := m.cardList.SelectedItem().(cardItem); ok {
			return m, m.openCard(selected.card, m.timeRange)
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CardListView
		m.playlist = nil
		m.clearStatus()
		return m, nil
	case key.Matches(msg, m.keys.play):
		if track, ok := m.selectedTrack(); ok {
			return m, m.playback("play", track.URI)
		}
		return m, nil
	case key.Matches(msg, m.keys.restart):
		if track, ok := m.selectedTrack(); ok {
			return m, m.playback("restart", track.URI)
		}
		return m, nil
	case key.Matches(msg, m.keys.pause):
		return m, m.playback("pause", "")
	case key.Matches(msg, m.keys.timeRange):
		if !m.card.TopSongs {
			return m, nil
		}
		m.timeRange = nextTimeRange(m.timeRange)
		return m, m.openCard(m.card, m.timeRange)
	}

	return m.updateLists(msg)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CardListView:
		m.cardList, cmd = m.cardList.Update(msg)
	case PlaylistView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) selectedTrack() (models.Track, bool) {
	item, ok := m.trackList.SelectedItem().(trackItem)
	if !ok {
		return models.Track{}, false
	}
	return item.track, true
}

func (m *Model) openCard(card models.Card, timeRange models.TimeRange) tea.Cmd {
	m.loading = true
	m.setStatus(fmt.Sprintf("Drawing %s…", card.Name))
	return func() tea.Msg {
		view, err := m.cards.OpenCard(m.ctx, card, timeRange)
		return cardOpenedMsg(card, view, err)
	}
}

func (m *Model) playback(action, uri string) tea.Cmd {
	p := m.player
	return func() tea.Msg {
		if p == nil {
			return playbackMsg(action, uri, shared.ErrNotAuthenticated)
		}

		var err error
		switch action {
		case "play":
			err = p.Play(m.ctx, uri)
		case "restart":
			err = p.Restart(m.ctx, uri)
		case "pause":
			err = p.Pause(m.ctx)
		}
		return playbackMsg(action, uri, err)
	}
}

func (m *Model) startLogin() tea.Cmd {
	if m.login == nil {
		return nil
	}
	login := m.login
	return func() tea.Msg {
		return loginMsg(login.StartLogin(m.ctx))
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) waitForDiagnostic() tea.Cmd {
	if m.diagnostics == nil {
		return nil
	}
	ch := m.diagnostics
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return diagnosticMsg(err)
	}
}

func (m *Model) refreshSession() {
	if m.player == nil {
		return
	}
	m.state = m.player.State()
	m.session = m.player.Session()
}

// refreshTracks re-reads the session and redraws the playing marker.
func (m *Model) refreshTracks() tea.Cmd {
	m.refreshSession()
	if m.playlist == nil {
		return nil
	}
	return m.trackList.SetItems(trackItems(m.playlist.Tracks, m.session))
}

func (m *Model) describe(d playbackDone) string {
	name := d.uri
	if m.playlist != nil {
		for _, t := range m.playlist.Tracks {
			if t.URI == d.uri {
				name = t.Name
				break
			}
		}
	}

	switch d.action {
	case "restart":
		return "Restarted " + name
	case "pause":
		return "Paused"
	default:
		if m.player != nil && m.player.Session().Paused && m.player.Session().CurrentTrackURI == d.uri {
			return "Paused " + name
		}
		return "Playing " + name
	}
}

func (m *Model) setError(err error) {
	m.status = shared.UserMessage(err)
	m.failed = true
	if errors.Is(err, shared.ErrPlaybackAuth) || errors.Is(err, shared.ErrNotAuthenticated) {
		m.status += " Press L to log in."
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.failed = false
}

func (m *Model) clearStatus() {
	m.status = ""
	m.failed = false
}

func (m *Model) playlistTitle() string {
	if m.playlist == nil {
		return ""
	}
	title := fmt.Sprintf("%s · %s", m.card.Title(), m.playlist.Playlist.Name)
	if m.card.TopSongs {
		title = fmt.Sprintf("%s (%s)", title, m.timeRange.Label())
	}
	return title
}

func nextTimeRange(tr models.TimeRange) models.TimeRange {
	switch tr {
	case models.ShortTerm:
		return models.MediumTerm
	case models.MediumTerm:
		return models.LongTerm
	default:
		return models.ShortTerm
	}
}

func (m *Model) renderCardList() string {
	helpKeys := []key.Binding{m.keys.open, m.keys.login, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.cardList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderPlaylist() string {
	helpKeys := []key.Binding{m.keys.play, m.keys.pause, m.keys.restart}
	if m.card.TopSongs {
		helpKeys = append(helpKeys, m.keys.timeRange)
	}
	helpKeys = append(helpKeys, m.keys.back, m.keys.quit)

	var header string
	if m.playlist != nil && m.playlist.Playlist.SpotifyURL != "" {
		header = styles.help.Render(m.playlist.Playlist.SpotifyURL) + "\n"
	}
	return fmt.Sprintf("%s%s\n\n%s", header, m.trackList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderStatus() string {
	var b strings.Builder

	if m.player != nil {
		switch m.state {
		case player.Ready:
			b.WriteString(styles.ok.Render("● player ready"))
		case player.Connecting:
			b.WriteString(styles.warn.Render("◌ player connecting"))
		case player.NotReady:
			b.WriteString(styles.warn.Render("○ player offline"))
		default:
			b.WriteString(styles.help.Render("○ player idle"))
		}
	}

	if m.status != "" {
		if b.Len() > 0 {
			b.WriteString("  ")
		}
		if m.failed {
			b.WriteString(styles.err.Render(m.status))
		} else {
			b.WriteString(styles.help.Render(m.status))
		}
	}
	return b.String()
}
