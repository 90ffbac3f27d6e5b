package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// ErrorStyle renders request and subscription errors.
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	// EventStyle renders the timestamp prefix of streamed events.
	EventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)
