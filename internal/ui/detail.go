package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/atlas/internal/restcountries"
)

// updateDetailViewport re-renders the detail pane for the shown country.
func (m *Model) updateDetailViewport() {
	if !m.ready || m.detailCode == "" {
		return
	}
	m.detail.SetContent(m.renderDetail())
}

func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	c, ok := m.snapshot.Lookup(m.detailCode)
	if !ok {
		return styles.MutedText.Render("Country " + m.detailCode + " is not in the loaded dataset.")
	}

	var b strings.Builder
	title := styles.Text.Bold(true).Render(c.Name.Common)
	if m.favorites != nil && m.favorites.Contains(c.CCA3) {
		title += " " + styles.WarningText.Render("★")
	}
	b.WriteString(title)
	b.WriteString("  ")
	b.WriteString(styles.RegionStyle(c.Region).Render(orDash(c.Region)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(c.Name.Official))
	b.WriteString("\n\n")

	fields := []struct {
		label string
		value string
	}{
		{"Native name", c.NativeCommonName()},
		{"Code", c.CCA3},
		{"Population", formatPopulation(c.Population)},
		{"Region", orDash(c.Region)},
		{"Subregion", orDash(c.Subregion)},
		{"Capital", orDash(c.CapitalName())},
		{"Top level domain", orDash(c.TopLevelDomain())},
		{"Currencies", joinOrDash(c.CurrencyNames())},
		{"Languages", joinOrDash(c.LanguageNames())},
		{"Flag", orDash(flagText(c.Flags))},
	}
	label := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Accent)).
		Width(18)
	for _, f := range fields {
		b.WriteString(label.Render(f.label))
		b.WriteString(styles.Text.Render(f.value))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render("Border countries"))
	b.WriteString("\n")
	b.WriteString(m.renderBorders(c, styles))
	return b.String()
}

func (m Model) renderBorders(c restcountries.Country, styles Styles) string {
	if len(c.Borders) == 0 {
		return styles.MutedText.Render("None")
	}
	if m.bordersErr != nil {
		return styles.DangerText.Render("Could not load neighbours: ") +
			styles.MutedText.Render(strings.Join(c.Borders, ", "))
	}
	if m.borders == nil {
		// Fall back to the loaded dataset until the lookup returns.
		names := make([]string, 0, len(c.Borders))
		for _, code := range c.Borders {
			if n, ok := m.snapshot.Lookup(code); ok {
				names = append(names, n.Name.Common)
			} else {
				names = append(names, code)
			}
		}
		return styles.Text.Render(strings.Join(names, ", "))
	}
	badges := make([]string, 0, len(m.borders))
	for _, n := range m.borders {
		badges = append(badges, styles.RegionStyle(n.Region).Render(n.Name.Common))
	}
	return strings.Join(badges, " ")
}

func flagText(f restcountries.Flags) string {
	if f.Alt != "" {
		return f.Alt
	}
	if f.SVG != "" {
		return f.SVG
	}
	return f.PNG
}

// formatPopulation groups digits in threes: 83240525 -> "83,240,525".
func formatPopulation(n int64) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func joinOrDash(values []string) string {
	return orDash(strings.Join(values, ", "))
}
