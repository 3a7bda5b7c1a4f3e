package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	clrBrand  = lipgloss.Color("39") // blue
	clrGreen  = lipgloss.Color("114")
	clrRed    = lipgloss.Color("203")
	clrYellow = lipgloss.Color("220")
	clrCyan   = lipgloss.Color("81")
	clrDim    = lipgloss.Color("245")
	clrWhite  = lipgloss.Color("255")
)

// styles wraps lipgloss renderers that respect TTY detection. When output is
// not a terminal (piped, redirected, --json) every style is a no-op.
type styles struct {
	enabled bool

	Brand   lipgloss.Style
	Header  lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	URL     lipgloss.Style
	Dim     lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
}

func newStyles(w io.Writer, jsonMode bool) styles {
	enabled := false
	if !jsonMode {
		if f, ok := w.(*os.File); ok {
			enabled = term.IsTerminal(int(f.Fd()))
		}
	}

	if !enabled {
		noop := lipgloss.NewStyle()
		return styles{
			Brand: noop, Header: noop, Key: noop, Value: noop, URL: noop,
			Dim: noop, Warning: noop, Error: noop, Success: noop,
		}
	}
	return styles{
		enabled: true,
		Brand:   lipgloss.NewStyle().Bold(true).Foreground(clrBrand),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(clrBrand),
		Key:     lipgloss.NewStyle().Foreground(clrDim),
		Value:   lipgloss.NewStyle().Foreground(clrWhite),
		URL:     lipgloss.NewStyle().Foreground(clrCyan).Underline(true),
		Dim:     lipgloss.NewStyle().Foreground(clrDim),
		Warning: lipgloss.NewStyle().Foreground(clrYellow).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(clrRed).Bold(true),
		Success: lipgloss.NewStyle().Foreground(clrGreen),
	}
}

func (s styles) banner() string {
	return s.Brand.Render("indexchat")
}

// kv formats a key-value pair like "  key:  value".
func (s styles) kv(key, value string) string {
	return fmt.Sprintf("  %s %s",
		s.Key.Render(fmt.Sprintf("%-20s", key+":")),
		s.Value.Render(value),
	)
}

func (s styles) sectionHeader(title string) string {
	return s.Header.Render(title)
}

func (s styles) dim(text string) string {
	return s.Dim.Render(text)
}

func (s styles) errPrefix() string {
	return s.Error.Render("ERROR:")
}

func (s styles) warnPrefix() string {
	return s.Warning.Render("WARNING:")
}

// stat formats a labeled count like "documents=412".
func (s styles) stat(label string, value interface{}) string {
	return fmt.Sprintf("%s=%s", s.Dim.Render(label), s.Value.Render(fmt.Sprintf("%v", value)))
}

// separator returns a thin horizontal rule.
func (s styles) separator(width int) string {
	if width <= 0 {
		width = 40
	}
	return s.Dim.Render(strings.Repeat("─", width))
}

// PrintError writes err to w with the styled ERROR: prefix.
func PrintError(w io.Writer, err error) {
	s := newStyles(w, globalFlags.JSON)
	fmt.Fprintln(w, s.errPrefix(), err.Error())
}
