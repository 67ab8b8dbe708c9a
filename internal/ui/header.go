package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the logo line with dataset and store summaries.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	parts := []string{styles.Logo.Render("atlas")}
	switch {
	case m.snapshot.Loaded:
		parts = append(parts, styles.Text.Render(fmt.Sprintf("%d countries", len(m.snapshot.Countries))))
	case m.snapshot.LastError != nil:
		parts = append(parts, styles.DangerText.Render("offline"))
	default:
		parts = append(parts, styles.MutedText.Render("loading"))
	}
	if m.snapshot.IsOffline() {
		parts = append(parts, styles.WarningText.Render(fmt.Sprintf("%d failed fetches", m.snapshot.ConsecutiveFailures)))
	}
	if m.favorites != nil {
		parts = append(parts, styles.WarningText.Render(fmt.Sprintf("★ %d", m.favorites.Count())))
	}
	mode := "light"
	if m.theme.Dark {
		mode = "dark"
	}
	parts = append(parts, styles.MutedText.Render(fmt.Sprintf("%s · %s", mode, m.theme.Name)))

	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

// renderCommandBar renders the view tabs plus the active filter or search.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()

	tab := func(label string, v View) string {
		if m.listView() == v {
			return styles.Selected.Padding(0, 1).Render(label)
		}
		return styles.MutedText.Padding(0, 1).Render(label)
	}
	parts := []string{tab("1 All", ViewList), tab("2 Favorites", ViewFavorites)}

	switch {
	case m.searching:
		parts = append(parts, m.search.View())
	case m.listView() == ViewList && m.filter != nil:
		f := m.filter.State()
		region := f.Region
		if region == "" {
			region = "All regions"
		}
		parts = append(parts, styles.AccentText.Render("region: ")+styles.Text.Render(region))
		if f.SearchTerm != "" {
			parts = append(parts, styles.AccentText.Render("search: ")+styles.Text.Render(f.SearchTerm))
		}
		parts = append(parts, styles.FaintText.Render(fmt.Sprintf("%d shown", len(m.rows))))
	case m.listView() == ViewFavorites:
		if m.favQuery != "" {
			parts = append(parts, styles.AccentText.Render("search: ")+styles.Text.Render(m.favQuery))
		}
		parts = append(parts, styles.FaintText.Render(fmt.Sprintf("%d shown", len(m.rows))))
	}
	return lipgloss.NewStyle().Width(m.width).Render(strings.Join(parts, "  "))
}

// renderFooter shows a persistence warning when one is pending, otherwise
// the most useful keys for the current view.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.status != "" {
		return styles.Footer.Width(m.width).Render(styles.WarningText.Render(m.status))
	}

	var hints []string
	switch {
	case m.searching:
		hints = []string{"enter/esc done"}
	case m.currentView == ViewDetail:
		hints = []string{"j/k scroll", "f favorite", "esc back"}
	case m.currentView == ViewFavorites:
		hints = []string{"/ search", "c clear", "f remove", "enter detail"}
	default:
		hints = []string{"/ search", "r region", "c clear", "f favorite", "enter detail"}
	}
	hints = append(hints, "T theme", "? help", "q quit")
	return styles.Footer.Width(m.width).Render(strings.Join(hints, " · "))
}
