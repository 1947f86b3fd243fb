// Package report formats expansion reports for terminal output.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arthur-debert/forge/pkg/scaffold"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	noteStyle   = lipgloss.NewStyle().Faint(true)
)

// Format renders an expansion report as a listing. When styled is false the
// output is plain text suitable for pipes and logs.
func Format(r *scaffold.ExpansionReport, styled bool) string {
	var sb strings.Builder

	header := fmt.Sprintf("Expanded %d files", len(r.Files))
	if r.DryRun {
		header = fmt.Sprintf("Would expand %d files", len(r.Files))
	}
	if r.Verbatim > 0 {
		header += fmt.Sprintf(" (%d copied verbatim)", r.Verbatim)
	}
	if styled {
		header = headerStyle.Render(header)
	}
	sb.WriteString(header)
	sb.WriteString("\n")

	for _, path := range r.Files {
		line := "  " + path
		if styled {
			line = "  " + pathStyle.Render(path)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if r.DryRun {
		note := "Dry run: nothing was written."
		if styled {
			note = noteStyle.Render(note)
		}
		sb.WriteString(note)
		sb.WriteString("\n")
	}

	return sb.String()
}
