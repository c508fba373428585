// ABOUTME: Renders match reports as the classic text listing, indented JSON, or a table.
// ABOUTME: Text headings are styled with lipgloss when writing to a colour terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/2389-research/ctlmatch/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Output formats accepted by Render.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatTable = "table"
)

// PreviewLen is the number of characters of prose shown per unit.
const PreviewLen = 200

const separator = "--------------------------------------------------"

// Options selects the output format and styling.
type Options struct {
	Format string
	Color  bool
}

// Render writes r to w in the requested format. An empty format means text.
func Render(w io.Writer, r *models.Report, opts Options) error {
	switch opts.Format {
	case "", FormatText:
		return renderText(w, r, newStyles(w, opts.Color))
	case FormatJSON:
		return renderJSON(w, r)
	case FormatTable:
		return renderTable(w, r)
	default:
		return fmt.Errorf("unsupported report format %q (want text, json, or table)", opts.Format)
	}
}

// ShouldColorize reports whether w is a terminal that can show styled output.
func ShouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Preview returns the first PreviewLen characters of text, marking truncation with "...".
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLen {
		return text
	}
	return string(runes[:PreviewLen]) + "..."
}

// paint styles a single line of output.
type paint func(string) string

func plain(s string) string { return s }

func styled(st lipgloss.Style) paint {
	return func(s string) string { return st.Render(s) }
}

type styles struct {
	title   paint
	source  paint
	matched paint
	missing paint
	score   paint
}

func newStyles(w io.Writer, color bool) styles {
	if !color {
		return styles{title: plain, source: plain, matched: plain, missing: plain, score: plain}
	}
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   styled(r.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))),
		source:  styled(r.NewStyle().Bold(true)),
		matched: styled(r.NewStyle().Foreground(lipgloss.Color("42"))),
		missing: styled(r.NewStyle().Foreground(lipgloss.Color("241"))),
		score:   styled(r.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))),
	}
}

func renderText(w io.Writer, r *models.Report, st styles) error {
	var b strings.Builder

	b.WriteString(st.title("--- Potential Control Matches Report ---"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Finding top %d matches for each control part in '%s' with a similarity score > %s\n\n",
		r.TopK, r.MergeName, strconv.FormatFloat(r.Threshold, 'f', -1, 64))

	for _, e := range r.Entries {
		b.WriteString(separator + "\n")
		b.WriteString(st.source(fmt.Sprintf("[*] Source Control Part from '%s':", r.MergeName)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "    Control ID: %s\n", e.Unit.ParentControl.DisplayID())
		fmt.Fprintf(&b, "    Part ID: %s\n", e.Unit.DisplayID())
		fmt.Fprintf(&b, "    Text: \"%s\"\n", Preview(e.Unit.Text))
		b.WriteString(separator + "\n")

		if !e.HasMatches() {
			b.WriteString(st.missing("  -> No strong matches found in the base catalog."))
			b.WriteString("\n\n")
			continue
		}

		b.WriteString(st.matched(fmt.Sprintf("  -> Potential Matches in '%s':", r.BaseName)))
		b.WriteString("\n")
		for _, m := range e.Matches {
			fmt.Fprintf(&b, "    - Match Score: %s\n", st.score(fmt.Sprintf("%.2f", m.Score)))
			fmt.Fprintf(&b, "      Control ID: %s\n", m.Base.ParentControl.DisplayID())
			fmt.Fprintf(&b, "      Part ID: %s\n", m.Base.DisplayID())
			fmt.Fprintf(&b, "      Text: \"%s\"\n\n", Preview(m.Base.Text))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderJSON(w io.Writer, r *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
