// Package main is the entry point for the atlas CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/atlas/internal/app"
	"github.com/five82/atlas/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

var configPath string

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "atlas: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "atlas - browse the countries of the world",
	Long: `atlas is a terminal country directory backed by the REST Countries API.

Run without a subcommand on a terminal to open the interactive browser.
Favorites, the search filter and the dark/light theme are shared with
every other atlas instance using the same storage backends.

When stdout is not a terminal, atlas prints the filtered country list.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal(os.Stdout) {
			return runList(cmd, args)
		}
		return app.Run(cmd.Context(), app.Options{ConfigPath: configPath})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "config file (TOML, or YAML by extension)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("atlas version {{.Version}}\n")
}
