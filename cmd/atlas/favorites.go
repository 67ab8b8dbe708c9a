package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/atlas/internal/app"
	"github.com/five82/atlas/internal/config"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage favorite countries",
	Long: `Manage favorite countries.

Favorites live in session scope. With session_backend = "memory" they end
with the process, so set session_backend = "redis" to keep them between
commands and share them with running instances.`,
	Args: cobra.NoArgs,
	RunE: runFavoritesList,
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite countries",
	Args:  cobra.NoArgs,
	RunE:  runFavoritesList,
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle CODE",
	Short: "Add a country if absent, remove it if present",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateFavorites(cmd, args[0], func(ctx context.Context, sess *app.Session, code string) error {
			return sess.Favorites.Toggle(ctx, code)
		})
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add CODE",
	Short: "Add a country to favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateFavorites(cmd, args[0], func(ctx context.Context, sess *app.Session, code string) error {
			return sess.Favorites.Add(ctx, code)
		})
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:     "remove CODE",
	Aliases: []string{"rm"},
	Short:   "Remove a country from favorites",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateFavorites(cmd, args[0], func(ctx context.Context, sess *app.Session, code string) error {
			return sess.Favorites.Remove(ctx, code)
		})
	},
}

var favoritesQuery string

func init() {
	favoritesListCmd.Flags().StringVarP(&favoritesQuery, "query", "q", "", "match favorites by name or region")
	favoritesCmd.Flags().StringVarP(&favoritesQuery, "query", "q", "", "match favorites by name or region")

	favoritesCmd.AddCommand(favoritesListCmd, favoritesToggleCmd, favoritesAddCmd, favoritesRemoveCmd)
	rootCmd.AddCommand(favoritesCmd)
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, sess *app.Session, out io.Writer) error {
		warnEphemeralFavorites(cmd, sess)
		if sess.Favorites.Count() == 0 {
			fmt.Fprintln(out, "No favorites yet.")
			return nil
		}
		snap, err := loadCatalog(ctx, sess)
		if err != nil {
			return err
		}
		rows := sess.Favorites.SearchFavorites(snap.Countries, favoritesQuery)
		printCountries(out, rows, sess.Favorites.Contains)
		return nil
	})
}

func mutateFavorites(cmd *cobra.Command, id string, mutate func(context.Context, *app.Session, string) error) error {
	return withSession(cmd, func(ctx context.Context, sess *app.Session, out io.Writer) error {
		warnEphemeralFavorites(cmd, sess)
		if err := mutate(ctx, sess, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "%d favorites: %v\n", sess.Favorites.Count(), sess.Favorites.All())
		return nil
	})
}

func warnEphemeralFavorites(cmd *cobra.Command, sess *app.Session) {
	if sess.Config.Storage.SessionBackend == config.BackendMemory {
		fmt.Fprintln(cmd.ErrOrStderr(), `note: session_backend is "memory"; favorites end with this command`)
	}
}
