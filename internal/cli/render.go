package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"saldo/internal/core"
	"saldo/internal/projection"
)

// Theme colors
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorYellow    = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	dayStyles = map[core.DayClass]lipgloss.Style{
		core.DayHighlight: lipgloss.NewStyle().Bold(true).Foreground(ColorYellow),
		core.DayPositive:  lipgloss.NewStyle().Foreground(ColorGreen),
		core.DayNegative:  lipgloss.NewStyle().Foreground(ColorRed),
		core.DayNeutral:   mutedStyle,
	}
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows. The first
// column is left-aligned and the others right-aligned.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 {
		numCols = len(t.Rows[0])
	}
	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(fmt.Sprintf(" %-*s ", widths[i], h)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		rule("├", "┼", "┤")
	}

	for _, row := range t.Rows {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(valueStyle.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(valueStyle.Render(" " + pad + cell + " "))
			}
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}
	rule("╰", "┴", "╯")

	return b.String()
}

// RenderCalendar lays a month out as a Monday-first grid. Each cell shows the
// day number and its net total, colored by class.
func RenderCalendar(days []core.DayAggregate) string {
	if len(days) == 0 {
		return ""
	}
	var cells []string
	for i := 0; i < projection.Weekday(days[0].Date); i++ {
		cells = append(cells, "")
	}
	for _, d := range days {
		label := fmt.Sprintf("%2d", d.Date.Day())
		if !d.Total.IsZero() {
			label += " " + d.Total.String()
		}
		cells = append(cells, dayStyles[d.Class].Render(label))
	}

	headers := make([]string, 7)
	for i := range headers {
		headers[i] = FormatDayOfWeek(i)
	}
	var rows [][]string
	for len(cells) > 0 {
		n := min(7, len(cells))
		rows = append(rows, cells[:n])
		cells = cells[n:]
	}
	return RenderTable(Table{Headers: headers, Rows: rows})
}

// RenderTransactions renders transactions as a table in store order.
func RenderTransactions(title string, txs []core.Transaction) string {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", t.ID),
			t.Date.String(),
			t.Description,
			FormatMoney(t.Amount),
			t.Category.Label(),
		})
	}
	return RenderTable(Table{
		Title:   title,
		Headers: []string{"ID", "Date", "Description", "Amount", "Category"},
		Rows:    rows,
	})
}

// Muted renders s in the muted style.
func Muted(s string) string { return mutedStyle.Render(s) }
