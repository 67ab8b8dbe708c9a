package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/atlas/internal/app"
	"github.com/five82/atlas/internal/prefs"
)

var themeCmd = &cobra.Command{
	Use:       "theme [dark|light|toggle]",
	Short:     "Show or change the theme",
	Long:      `Show the current theme, or set it to dark or light, or toggle it. Running instances switch immediately.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{prefs.ThemeDark, prefs.ThemeLight, "toggle"},
	RunE:      runTheme,
}

func init() {
	rootCmd.AddCommand(themeCmd)
}

func runTheme(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, sess *app.Session, out io.Writer) error {
		var err error
		if len(args) == 1 {
			switch args[0] {
			case prefs.ThemeDark:
				err = sess.Theme.SetDark(ctx, true)
			case prefs.ThemeLight:
				err = sess.Theme.SetDark(ctx, false)
			case "toggle":
				err = sess.Theme.Toggle(ctx)
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, sess.Theme.Name())
		return nil
	})
}
