package tui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"gnoclaim/pkg/codec"
	"gnoclaim/pkg/session"
	"gnoclaim/pkg/utils"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case reconnectedMsg:
		m.connecting = false
		if msg.account != "" {
			m.account = msg.account
			m.mode = m.sess.Mode(context.Background())
			m.loading = true
			return m, m.refreshCmd()
		}
		return m, nil

	case connectedMsg:
		m.connecting = false
		if msg.err != nil {
			return m, m.setStatus(statusError, "connect failed: "+msg.err.Error())
		}
		m.account = msg.account
		m.mode = m.sess.Mode(context.Background())
		m.loading = true
		return m, tea.Batch(
			m.refreshCmd(),
			m.setStatus(statusSuccess, "connected "+utils.ShortenAddress(msg.account)),
		)

	case rewardsMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.setStatus(statusError, "refresh failed: "+msg.err.Error())
		}
		m.rewards = msg.rewards
		_, m.history = m.sess.Snapshot()
		return m, nil

	case claimResultMsg:
		m.claiming = false
		if msg.err != nil {
			return m, m.setStatus(statusError, "claim failed: "+msg.err.Error())
		}
		return m, tea.Batch(
			postClaimRefresh(),
			m.setStatus(statusSuccess, "claim submitted: "+utils.TruncateString(msg.hash, 18)),
		)

	case postClaimRefreshMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.refreshCmd()

	case lookupResultMsg:
		m.lookingUp = false
		if msg.err != nil {
			return m, m.setStatus(statusError, "lookup failed: "+msg.err.Error())
		}
		r := msg.rewards
		m.lookupResult = &r
		return m, nil

	case clearStatusMsg:
		// Only the timer belonging to the current message may clear it.
		if msg.seq == m.statusSeq {
			m.statusKind = statusNone
			m.statusText = ""
		}
		return m, nil

	case sessionEventMsg:
		return m.handleEvent(session.Event(msg))
	}

	return m, nil
}

func (m model) handleEvent(ev session.Event) (tea.Model, tea.Cmd) {
	// Keep listening regardless of what the event was.
	relisten := listenForSession(m.events)

	switch ev.Type {
	case session.EventConnected:
		if account, ok := ev.Data.(string); ok && account != m.account {
			m.account = account
			m.loading = true
			return m, tea.Batch(relisten, m.refreshCmd())
		}
	case session.EventDisconnected:
		m.account = ""
		m.rewards = session.Rewards{}
		m.history = nil
		return m, tea.Batch(relisten, m.setStatus(statusError, "wallet disconnected"))
	case session.EventChainChanged:
		// Everything derived from the old chain is stale. Bail out
		// rather than limp along with mixed state.
		return m, tea.Sequence(
			tea.Printf("chain changed, please restart"),
			tea.Quit,
		)
	case session.EventRewardsUpdated:
		m.rewards, m.history = m.sess.Snapshot()
	}
	return m, relisten
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Lookup input captures everything except escape and enter.
	if m.lookupActive {
		switch msg.String() {
		case "esc":
			m.lookupActive = false
			m.lookupInput.Blur()
			return m, nil
		case "enter":
			address := m.lookupInput.Value()
			if !codec.IsValidAddress(address) {
				return m, m.setStatus(statusError, "invalid address: "+utils.TruncateString(address, 20))
			}
			m.lookupActive = false
			m.lookupInput.Blur()
			m.lookingUp = true
			return m, m.lookupCmd(address)
		default:
			var cmd tea.Cmd
			m.lookupInput, cmd = m.lookupInput.Update(msg)
			return m, cmd
		}
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.showGraph {
		switch msg.String() {
		case "g", "q", "esc":
			m.showGraph = false
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "c":
		if m.connecting {
			return m, nil
		}
		m.connecting = true
		return m, m.connectCmd()

	case "r":
		if m.account == "" {
			return m, m.setStatus(statusError, "not connected")
		}
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.refreshCmd()

	case "w":
		if m.account == "" {
			return m, m.setStatus(statusError, "not connected")
		}
		if m.claiming {
			return m, nil
		}
		m.claiming = true
		return m, m.claimCmd()

	case "l":
		m.lookupActive = true
		m.lookupResult = nil
		m.lookupInput.SetValue("")
		return m, m.lookupInput.Focus()

	case "y":
		if m.account == "" {
			return m, nil
		}
		if err := clipboard.WriteAll(m.account); err != nil {
			return m, m.setStatus(statusError, "copy failed: "+err.Error())
		}
		return m, m.setStatus(statusSuccess, "address copied")

	case "g":
		m.showGraph = !m.showGraph
		return m, nil

	case "e":
		if m.account == "" {
			return m, nil
		}
		url := fmt.Sprintf("%s/address/%s", m.sess.Config().Chain.ExplorerURL, m.account)
		return m, m.setStatus(statusSuccess, url)

	case "?":
		m.showHelp = true
		return m, nil
	}

	return m, nil
}
