package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"gnoclaim/pkg/session"
)

func Start(sess *session.Session, version string) {
	Version = version
	p := tea.NewProgram(
		initialModel(sess),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
