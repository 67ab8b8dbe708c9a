package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/five82/atlas/internal/config"
	"github.com/five82/atlas/internal/logtail"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the end of the atlas log",
	Long: `Print the last entries of the log file named by log_file.

The TUI owns the terminal while it runs, so warnings such as failed
writes or failed dataset fetches only show up here.`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsLines int
	logsLevel string
)

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of entries to print")
	logsCmd.Flags().StringVarP(&logsLevel, "level", "l", "trace", "minimum level (error, warn, info, debug, trace)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logsLevel)
	if err != nil {
		return fmt.Errorf("level %q: %w", logsLevel, err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lines, err := logtail.Read(cfg.LogFile, logsLines, level)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return nil
}
