package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Read returns at most maxLines entries from the end of the log at path,
// keeping only entries at minLevel or more severe. Lines without a level
// field are kept. A missing file reads as empty.
func Read(path string, maxLines int, minLevel logrus.Level) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		line := scanner.Text()
		if !keep(line, minLevel) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// LineLevel extracts the level=... field logrus' text formatter writes.
func LineLevel(line string) (logrus.Level, bool) {
	for _, field := range strings.Fields(line) {
		value, ok := strings.CutPrefix(field, "level=")
		if !ok {
			continue
		}
		level, err := logrus.ParseLevel(strings.Trim(value, `"`))
		if err != nil {
			return 0, false
		}
		return level, true
	}
	return 0, false
}

func keep(line string, minLevel logrus.Level) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	level, ok := LineLevel(line)
	if !ok {
		return true
	}
	// logrus orders levels from panic (0) to trace (6).
	return level <= minLevel
}
