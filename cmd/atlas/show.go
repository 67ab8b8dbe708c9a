package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/atlas/internal/app"
	"github.com/five82/atlas/internal/state"
)

var showCmd = &cobra.Command{
	Use:   "show CODE",
	Short: "Show one country",
	Long: `Show the detail of one country by its three-letter code (cca3).

Border countries are resolved to their common names.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	code, err := state.NormalizeCode(args[0])
	if err != nil {
		return err
	}
	return withSession(cmd, func(ctx context.Context, sess *app.Session, out io.Writer) error {
		country, err := sess.Client.FetchByCode(ctx, code)
		if err != nil {
			return err
		}

		borders := country.Borders
		if len(borders) > 0 {
			neighbours, err := sess.Client.FetchByCodes(ctx, borders)
			if err != nil {
				sess.Log.WithError(err).Warn("border lookup failed; showing codes")
			} else {
				borders = make([]string, 0, len(neighbours))
				for _, n := range neighbours {
					borders = append(borders, n.Name.Common)
				}
			}
		}

		printCountry(out, country, sess.Favorites.Contains(country.CCA3), borders)
		return nil
	})
}
