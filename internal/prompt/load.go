package prompt

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads one passage per line from path. Blank lines and lines starting
// with '#' are skipped.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only prompt file.
			_ = cerr
		}
	}()

	var out []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("prompt file %s is empty", path)
	}
	return out, nil
}

// Printable reports whether every rune of s can be typed as a single key
// on a plain keyboard layout.
func Printable(s string) bool {
	for _, r := range s {
		if r < ' ' || r > '~' {
			return false
		}
	}
	return s != ""
}

// FilterPrintable drops passages that contain characters outside printable ASCII.
func FilterPrintable(passages []string) []string {
	out := passages[:0:0]
	for _, p := range passages {
		if Printable(p) {
			out = append(out, p)
		}
	}
	return out
}
