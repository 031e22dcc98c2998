package file

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadList reads an input list: one path or URL per line. Blank lines and
// lines starting with '#' (after trimming) are skipped; order is preserved.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input list: %w", err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input list %s: %w", path, err)
	}
	return out, nil
}
