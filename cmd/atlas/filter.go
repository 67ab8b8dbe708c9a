package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/atlas/internal/app"
	"github.com/five82/atlas/internal/state"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Show or change the saved filter",
	Long: `Show or change the saved search term and region.

The filter lives in profile scope and is shared with running instances.`,
	Args: cobra.NoArgs,
	RunE: runFilterShow,
}

var filterShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved filter",
	Args:  cobra.NoArgs,
	RunE:  runFilterShow,
}

var filterSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the search term and/or region",
	Long: `Change the saved filter. Only the flags given are changed.

  atlas filter set --search ger
  atlas filter set --region Europe
  atlas filter set --region ""     # all regions`,
	Args: cobra.NoArgs,
	RunE: runFilterSet,
}

var filterClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset the search term and region",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, sess *app.Session, out io.Writer) error {
			if err := sess.Filter.Clear(ctx); err != nil {
				return err
			}
			printFilter(out, sess.Filter.State())
			return nil
		})
	},
}

var (
	filterSearch string
	filterRegion string
)

func init() {
	filterSetCmd.Flags().StringVarP(&filterSearch, "search", "s", "", "search term")
	filterSetCmd.Flags().StringVarP(&filterRegion, "region", "r", "", "region, or empty for all")
	filterSetCmd.RegisterFlagCompletionFunc("region", completeRegions)
	filterSetCmd.MarkFlagsOneRequired("search", "region")

	filterCmd.AddCommand(filterShowCmd, filterSetCmd, filterClearCmd)
	rootCmd.AddCommand(filterCmd)
}

func runFilterShow(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, sess *app.Session, out io.Writer) error {
		printFilter(out, sess.Filter.State())
		return nil
	})
}

func runFilterSet(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("region") && !state.ValidRegion(filterRegion) {
		return fmt.Errorf("%w: %q", state.ErrUnknownRegion, filterRegion)
	}
	return withSession(cmd, func(ctx context.Context, sess *app.Session, out io.Writer) error {
		if cmd.Flags().Changed("search") {
			if err := sess.Filter.SetSearchTerm(ctx, filterSearch); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("region") {
			if err := sess.Filter.SetRegion(ctx, filterRegion); err != nil {
				return err
			}
		}
		printFilter(out, sess.Filter.State())
		return nil
	})
}

func printFilter(w io.Writer, f state.Filter) {
	region := f.Region
	if region == "" {
		region = "(all)"
	}
	fmt.Fprintf(w, "search: %q\nregion: %s\n", f.SearchTerm, region)
}
