package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/five82/atlas/internal/restcountries"
)

const defaultWidth = 100

// isTerminal returns true if w is a terminal.
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// outputWidth is the terminal width of w, or defaultWidth when w is not a
// terminal.
func outputWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// printCountries writes one line per country, truncated to the output width.
func printCountries(w io.Writer, countries []restcountries.Country, favorite func(string) bool) {
	width := outputWidth(w)
	for _, c := range countries {
		mark := " "
		if favorite != nil && favorite(c.CCA3) {
			mark = "*"
		}
		line := strings.Join([]string{
			mark,
			c.CCA3,
			runewidth.FillRight(runewidth.Truncate(c.Name.Common, 32, "…"), 32),
			runewidth.FillRight(c.Region, 9),
			runewidth.FillRight(runewidth.Truncate(c.CapitalName(), 20, "…"), 20),
			groupDigits(c.Population),
		}, " ")
		fmt.Fprintln(w, runewidth.Truncate(line, width, "…"))
	}
}

// printCountry writes the detail block for c.
func printCountry(w io.Writer, c restcountries.Country, favorite bool, borders []string) {
	title := c.Name.Common
	if favorite {
		title += " *"
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, c.Name.Official)
	fmt.Fprintln(w)
	rows := [][2]string{
		{"Native name", c.NativeCommonName()},
		{"Code", c.CCA3},
		{"Population", groupDigits(c.Population)},
		{"Region", c.Region},
		{"Subregion", c.Subregion},
		{"Capital", c.CapitalName()},
		{"Top level domain", c.TopLevelDomain()},
		{"Currencies", strings.Join(c.CurrencyNames(), ", ")},
		{"Languages", strings.Join(c.LanguageNames(), ", ")},
		{"Borders", strings.Join(borders, ", ")},
		{"Flag", c.Flags.PNG},
	}
	for _, r := range rows {
		value := r[1]
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		fmt.Fprintf(w, "%-18s%s\n", r[0], value)
	}
}

func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + groupDigits(-n)
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
