// Package logtail reads the end of the atlas log file.
//
// The TUI owns the terminal, so everything atlas logs goes to the file named
// by log_file. Read returns the last N entries, optionally dropping those
// below a logrus level, without loading the whole file:
//
//	lines, err := logtail.Read(cfg.LogFile, 50, logrus.WarnLevel)
//
// Entries are matched by the level=... field of logrus' text formatter.
// Continuation lines and lines written by other formatters carry no level
// and are always kept. Blank lines are skipped.
//
// A ring buffer of maxLines entries keeps memory bounded regardless of file
// size. Lines up to 1MB are supported.
package logtail
