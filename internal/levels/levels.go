// Package levels extracts the internal level number encoded in a level
// file's name and enumerates the level numbers currently present in a
// project's configured levels folder.
package levels

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
)

// Extension is the file extension level files are stored with.
const Extension = ".mwl"

// NumberFromFilename extracts the internal level number from a level file's
// name. Level numbers are hexadecimal (the same numbering Lunar Magic
// displays), encoded as the trailing run of hex digits in the filename
// stem, optionally prefixed (e.g. "105.mwl" is level 0x105, "level1A5.mwl"
// is level 0x1A5).
func NumberFromFilename(name string) (int, error) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	digits := stem
	if idx := strings.LastIndexFunc(stem, func(r rune) bool { return !isHexDigit(r) }); idx >= 0 {
		digits = stem[idx+1:]
	}

	if digits == "" {
		return 0, fmt.Errorf("no level number found in filename %q", name)
	}

	n, err := strconv.ParseInt(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid level number in filename %q: %w", name, err)
	}

	return int(n), nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// CurrentNumbers enumerates the level numbers present as *.mwl files in
// levelsDir. A missing directory or an unparseable filename is reported as
// an InsertionError, matching the fatal treatment the engine gives both
// conditions.
func CurrentNumbers(levelsDir string) (map[int]bool, error) {
	entries, err := os.ReadDir(levelsDir)
	if err != nil {
		return nil, buildsignal.Insertion("configured levels folder %s does not exist: %v", levelsDir, err)
	}

	numbers := make(map[int]bool)

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != Extension {
			continue
		}

		n, err := NumberFromFilename(entry.Name())
		if err != nil {
			return nil, buildsignal.Insertion("failed to determine level number for %s: %v", entry.Name(), err)
		}

		numbers[n] = true
	}

	return numbers, nil
}
