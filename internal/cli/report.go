package cli

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/nbtidy/internal/pass"
)

type report struct {
	info    pass.Info
	result  pass.Result
	path    string
	saved   bool
	skipped bool
}

var badgeColors = map[pass.Status]lipgloss.Color{
	pass.StatusCompleted: lipgloss.Color("#50C878"),
	pass.StatusNoOp:      lipgloss.Color("#5B8DEF"),
	pass.StatusFailed:    lipgloss.Color("#FF6B6B"),
}

func (r report) render(w io.Writer) string {
	renderer := lipgloss.NewRenderer(w)
	color, ok := badgeColors[r.result.Status]
	if !ok {
		color = lipgloss.Color("#888888")
	}
	badge := renderer.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#1E1E1E")).
		Background(color).
		Padding(0, 1).
		Render(strings.ToUpper(string(r.result.Status)))
	title := renderer.NewStyle().
		Bold(true).
		Render(r.info.Name + " · " + filepath.Base(r.path))
	detail := renderer.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	footer := renderer.NewStyle().Foreground(lipgloss.Color("#888888"))

	lines := []string{badge + " " + title, r.result.Message}
	for _, d := range r.result.Details {
		lines = append(lines, detail.Render("  • "+d))
	}
	switch {
	case r.saved:
		lines = append(lines, footer.Render("wrote "+r.path))
	case r.skipped:
		lines = append(lines, footer.Render("dry run: changes not written"))
	}
	return strings.Join(lines, "\n")
}
