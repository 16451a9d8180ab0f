package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func (m model) reconnectCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		account := sess.Reconnect(context.Background())
		return reconnectedMsg{account: account}
	}
}

func (m model) connectCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		account, err := sess.Connect(context.Background())
		return connectedMsg{account: account, err: err}
	}
}

func (m model) refreshCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		rewards, err := sess.Refresh(context.Background())
		return rewardsMsg{rewards: rewards, err: err}
	}
}

func (m model) claimCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		hash, err := sess.Claim(context.Background())
		return claimResultMsg{hash: hash, err: err}
	}
}

func (m model) lookupCmd(address string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		rewards, err := sess.Lookup(context.Background(), address)
		return lookupResultMsg{rewards: rewards, err: err}
	}
}

func postClaimRefresh() tea.Cmd {
	return tea.Tick(postClaimRefreshDelay, func(time.Time) tea.Msg {
		return postClaimRefreshMsg{}
	})
}
