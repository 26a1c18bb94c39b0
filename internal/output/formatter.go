package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

// FormatError styles an error heading for terminal display. Styling is
// disabled when stderr is not a terminal so the output stays clean in
// pipes and scripts.
func FormatError(message string) string {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return message
	}
	return errorStyle.Render(message)
}
