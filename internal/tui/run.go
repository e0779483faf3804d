package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"textsearch/internal/analyzer"
)

// Run shows live progress on out until the pool reports Done or the user quits.
func Run(files []string, updates <-chan analyzer.Event, cfg Config, out io.Writer) error {
	m := initialModel(files, updates, cfg)
	p := tea.NewProgram(m, tea.WithOutput(out)) // AltScreen OFF: 종료 후에도 마지막 화면이 남는다
	_, err := p.Run()
	return err
}
