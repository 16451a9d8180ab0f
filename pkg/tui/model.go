package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gnoclaim/pkg/connection"
	"gnoclaim/pkg/session"
)

// Version is set by Start()
var Version = "dev"

const (
	// statusDuration is how long a transient message stays on screen.
	statusDuration = 5 * time.Second
	// postClaimRefreshDelay gives the chain a moment to settle before
	// the automatic refresh after a claim. One shot, no receipt polling.
	postClaimRefreshDelay = 8 * time.Second
)

// --- Messages ---

type (
	reconnectedMsg     struct{ account string }
	connectedMsg       struct {
		account string
		err     error
	}
	rewardsMsg struct {
		rewards session.Rewards
		err     error
	}
	claimResultMsg struct {
		hash string
		err  error
	}
	lookupResultMsg struct {
		rewards session.Rewards
		err     error
	}
	clearStatusMsg      struct{ seq int }
	postClaimRefreshMsg struct{}
	sessionEventMsg     session.Event
)

type statusKind int

const (
	statusNone statusKind = iota
	statusSuccess
	statusError
)

// --- Model ---

type model struct {
	sess   *session.Session
	events session.Subscriber

	width  int
	height int

	account string
	mode    connection.Mode

	connecting bool
	loading    bool
	claiming   bool
	lookingUp  bool

	rewards session.Rewards
	history []float64

	statusKind statusKind
	statusText string
	statusSeq  int

	lookupActive bool
	lookupInput  textinput.Model
	lookupResult *session.Rewards

	showHelp  bool
	showGraph bool

	spinner spinner.Model
}

func initialModel(sess *session.Session) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "0x..."
	ti.Width = 44
	ti.CharLimit = 42

	m := model{
		sess:        sess,
		spinner:     s,
		lookupInput: ti,
	}
	if sess != nil {
		m.events = sess.Subscribe()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		listenForSession(m.events),
		m.reconnectCmd(),
	)
}

// busy reports whether any operation is in flight; the spinner runs
// while this is true.
func (m model) busy() bool {
	return m.connecting || m.loading || m.claiming || m.lookingUp
}

// setStatus replaces the transient message and returns the timer that
// will clear it. The sequence number guards the clear: a newer message
// invalidates every older timer, so a superseded message is never
// wiped early.
func (m *model) setStatus(kind statusKind, text string) tea.Cmd {
	m.statusKind = kind
	m.statusText = text
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func listenForSession(sub session.Subscriber) tea.Cmd {
	return func() tea.Msg {
		return sessionEventMsg(<-sub)
	}
}
