// Package cliui holds the shared terminal styles and markdown rendering
// used by trail CLI commands.
package cliui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	NameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// RenderMarkdown renders markdown content for terminal display using glamour.
// On error the raw content is returned so callers can still print something.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
