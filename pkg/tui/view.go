package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"gnoclaim/pkg/connection"
	"gnoclaim/pkg/utils"
)

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}

	if m.showGraph {
		return m.viewGraph()
	}

	title := "Gnosis Validator Rewards"
	if m.mode == connection.ModeSafe {
		title += " (Safe)"
	}
	header := titleStyle.Render(title)

	var body []string
	body = append(body, header, "")

	if m.account == "" {
		body = append(body,
			"Not connected.",
			"",
			subtleStyle.Render("Press 'c' to connect a wallet"),
		)
	} else {
		body = append(body, fmt.Sprintf("Account: %s", utils.ShortenAddress(m.account)), "")
		body = append(body, m.renderRewards(m.rewards.Withdrawable, m.rewards.Balance, m.rewards.Validators)...)
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body...))

	if m.lookupActive || m.lookupResult != nil {
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", m.viewLookup())
	}

	// Footer
	spinnerView := ""
	if m.busy() {
		spinnerView = m.spinner.View() + " "
	}
	keys := "c:con • r:ref • w:clm • l:lkp • y:cpy • g:grf • ?:hlp • q:quit"
	footer := subtleStyle.Render(spinnerView + keys + fmt.Sprintf(" • v%s", Version))

	if m.statusText != "" {
		style := infoStyle
		if m.statusKind == statusError {
			style = errStyle
		}
		footer = lipgloss.JoinVertical(lipgloss.Center, style.Render(m.statusText), footer)
	}

	if m.width == 0 {
		return lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer)
	}
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer),
	)
}

func (m model) renderRewards(withdrawable, balance string, validators int) []string {
	if withdrawable == "" {
		return []string{subtleStyle.Render("Press 'r' to load rewards")}
	}
	return []string{
		labelStyle.Render("Withdrawable") + amountStyle.Render(withdrawable+" GNO"),
		labelStyle.Render("GNO Balance") + fmt.Sprintf("%s GNO", balance),
		labelStyle.Render("Validators") + utils.AddCommas(strconv.Itoa(validators)),
	}
}

func (m model) viewLookup() string {
	header := titleStyle.Render("Lookup Address")

	var body []string
	body = append(body, header, "")
	if m.lookupActive {
		body = append(body, m.lookupInput.View(), "", subtleStyle.Render("Enter to look up • Esc to cancel"))
	}
	if m.lookupResult != nil {
		body = append(body, fmt.Sprintf("Address: %s", utils.ShortenAddress(m.lookupResult.Account)), "")
		body = append(body, m.renderRewards(m.lookupResult.Withdrawable, m.lookupResult.Balance, m.lookupResult.Validators)...)
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}

func (m model) viewGraph() string {
	header := titleStyle.Render("Withdrawable History (GNO)")

	var graph string
	if len(m.history) > 1 {
		width := m.width - 14
		if width < 10 {
			width = 10
		}
		height := m.height - 10
		if height < 1 {
			height = 1
		}
		graph = asciigraph.Plot(m.history,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption("Withdrawable over time"),
		)
	} else {
		graph = "Not enough data to draw graph."
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", graph))
	footer := subtleStyle.Render("g/q/esc: back")

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

func (m model) viewHelp() string {
	shortcuts := []string{
		"c: Connect Wallet",
		"r: Refresh Rewards",
		"w: Claim Withdrawable",
		"l: Lookup Address",
		"y: Copy Address",
		"e: Show Explorer URL",
		"g: Toggle History Graph",
		"q: Quit",
		"?: Toggle Help",
	}

	header := titleStyle.Render("Help")
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "\n", strings.Join(shortcuts, "\n")))
	footer := subtleStyle.Render("Press any key to close")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer),
	)
}
