package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yolodolo42/safebot/internal/chain"
	"github.com/yolodolo42/safebot/internal/report"
	"github.com/yolodolo42/safebot/internal/ui"
	"golang.org/x/term"
)

const (
	defaultWidth = 80
	maxLabel     = 28
)

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// renderDocument lays a report out for the terminal, one box per section.
func renderDocument(width int, doc report.Document) string {
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render(doc.Title))
	b.WriteString("\n")
	if doc.Empty() {
		return b.String()
	}

	inner := width - 4 // border and padding
	if inner < 20 {
		inner = 20
	}
	for _, s := range doc.Sections {
		b.WriteString(ui.ReportBox.Render(renderSection(inner, s)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderSection(width int, s report.Section) string {
	var b strings.Builder
	b.WriteString(ui.SectionStyle.Render(s.Title))

	keyW := 0
	for _, l := range s.Lines {
		if n := lipgloss.Width(l.Label); n > keyW {
			keyW = n
		}
	}
	if keyW > maxLabel {
		keyW = maxLabel
	}

	for _, l := range s.Lines {
		b.WriteString("\n")
		if l.Label == "" {
			b.WriteString(truncate(l.Value, width))
			continue
		}
		key := padRight(truncate(l.Label, keyW), keyW)
		valW := width - keyW - 2
		b.WriteString(ui.LabelStyle.Render(key))
		b.WriteString("  ")
		b.WriteString(styleValue(truncate(l.Value, valW)))
	}
	return b.String()
}

func styleValue(v string) string {
	switch v {
	case report.Yes.String():
		return ui.YesStyle.Render(v)
	case report.No.String():
		return ui.NoStyle.Render(v)
	default:
		return v
	}
}

// renderChains prints one chain per line with the ID column aligned.
func renderChains(width int, chains []chain.Chain) string {
	idW := 0
	for _, c := range chains {
		if len(c.ID) > idW {
			idW = len(c.ID)
		}
	}

	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render(fmt.Sprintf("Supported chains (%d)", len(chains))))
	b.WriteString("\n")
	for _, c := range chains {
		line := padRight(c.ID, idW) + "  " + c.Name
		b.WriteString(truncate(line, width))
		b.WriteString("\n")
	}
	return b.String()
}

func padRight(s string, w int) string {
	n := lipgloss.Width(s)
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}

func truncate(s string, w int) string {
	if w <= 0 || lipgloss.Width(s) <= w {
		return s
	}
	r := []rune(s)
	if w <= 3 {
		return string(r[:min(w, len(r))])
	}
	for len(r) > 0 && lipgloss.Width(string(r)) > w-3 {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
