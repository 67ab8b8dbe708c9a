package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/atlas/internal/app"
	"github.com/five82/atlas/internal/state"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List countries",
	Long: `List countries narrowed by the saved filter.

--search and --region override the saved filter for this listing only;
use "atlas filter set" to change it for every instance.

Favorites are marked with *.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listSearch string
	listRegion string
)

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive name search")
	listCmd.Flags().StringVarP(&listRegion, "region", "r", "", "one of Africa, Americas, Asia, Europe, Oceania")
	listCmd.RegisterFlagCompletionFunc("region", completeRegions)

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, sess *app.Session, out io.Writer) error {
		filter := sess.Filter.State()
		if cmd.Flags().Changed("search") {
			filter.SearchTerm = listSearch
		}
		if cmd.Flags().Changed("region") {
			if !state.ValidRegion(listRegion) {
				return fmt.Errorf("%w: %q", state.ErrUnknownRegion, listRegion)
			}
			filter.Region = listRegion
		}

		snap, err := loadCatalog(ctx, sess)
		if err != nil {
			return err
		}
		rows := state.ApplyFilter(filter, snap.Countries)
		printCountries(out, rows, sess.Favorites.Contains)
		return nil
	})
}

func completeRegions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return state.Regions, cobra.ShellCompDirectiveNoFileComp
}
