package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/five82/atlas/internal/restcountries"
)

const (
	codeWidth    = 5
	nameWidth    = 32
	regionWidth  = 10
	capitalWidth = 20
)

// renderRows renders the visible window of m.rows.
func (m Model) renderRows(height int) string {
	styles := m.theme.Styles()

	if len(m.rows) == 0 {
		return m.renderEmpty(styles)
	}

	start := 0
	if m.selectedRow >= height {
		start = m.selectedRow - height + 1
	}
	end := min(len(m.rows), start+height)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := m.formatRow(m.rows[i])
		if i == m.selectedRow {
			line = styles.Selected.Render(runewidth.FillRight(line, max(m.width, runewidth.StringWidth(line))))
		} else {
			line = styles.Text.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) formatRow(c restcountries.Country) string {
	star := " "
	if m.favorites != nil && m.favorites.Contains(c.CCA3) {
		star = "★"
	}
	cols := []string{
		star,
		column(c.CCA3, codeWidth),
		column(c.Name.Common, nameWidth),
		column(orDash(c.Region), regionWidth),
		column(orDash(c.CapitalName()), capitalWidth),
		formatPopulation(c.Population),
	}
	return strings.Join(cols, " ")
}

func (m Model) renderEmpty(styles Styles) string {
	switch {
	case !m.snapshot.Loaded && m.snapshot.LastError != nil:
		return styles.DangerText.Render("Could not load countries: ") +
			styles.MutedText.Render(m.snapshot.LastError.Error())
	case !m.snapshot.Loaded:
		return styles.MutedText.Render("Loading countries...")
	case m.listView() == ViewFavorites && m.favQuery == "":
		return styles.MutedText.Render("No favorites yet. Press f on a country to add it.")
	case m.listView() == ViewFavorites:
		return styles.MutedText.Render("No favorites match your search.")
	default:
		return styles.MutedText.Render("No countries match the current filter.")
	}
}

// column truncates or pads s to exactly width cells.
func column(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
