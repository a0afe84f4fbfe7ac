// Package cleanup undoes a reinserting module's prior ROM writes before it
// is reassembled, driving the assembler the same way the engine's other
// external-tool integrations do: resolve a path, build arguments, run,
// interpret the exit code.
package cleanup

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Norgate-AV/insert-engine/internal/assembler"
	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
	"github.com/Norgate-AV/insert-engine/internal/toolrunner"
)

// ReadAddresses parses a cleanup file: one decimal address per line, blank
// lines ignored. A missing file is reported back to the caller as an
// *os.PathError so it can be translated into MustRebuild.
func ReadAddresses(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var addresses []uint32

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		addr, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			return nil, buildsignal.Insertion("invalid address %q in cleanup file %s: %v", line, path, err)
		}

		addresses = append(addresses, uint32(addr))
	}

	if err := scanner.Err(); err != nil {
		return nil, buildsignal.Insertion("failed to read cleanup file %s: %v", path, err)
	}

	return addresses, nil
}

// BuildAutocleanSource emits the temporary assembly source containing one
// autoclean directive per address, six hex digits, uppercase.
func BuildAutocleanSource(addresses []uint32) string {
	var b strings.Builder

	for _, addr := range addresses {
		fmt.Fprintf(&b, "autoclean $%06X\n", addr)
	}

	return b.String()
}

// Apply reads cleanupFilePath's addresses, writes the autoclean source to a
// sibling temporary file, and runs the assembler against romPath so the
// module's prior writes are undone before it is reassembled. A missing
// cleanup file surfaces as an *os.PathError for the caller to translate
// into MustRebuild; an assembler failure is already a MustRebuildError,
// since a module whose cleanup can't be undone can't be safely reinserted.
func Apply(runner *toolrunner.Runner, cleanupFilePath, romPath string) error {
	addresses, err := ReadAddresses(cleanupFilePath)
	if err != nil {
		return err
	}

	source := BuildAutocleanSource(addresses)

	patchPath := cleanupFilePath + ".asm"
	if err := os.WriteFile(patchPath, []byte(source), 0o644); err != nil {
		return buildsignal.Insertion("failed to write autoclean source: %v", err)
	}
	defer os.Remove(patchPath)

	if err := assembler.Apply(runner, patchPath, romPath); err != nil {
		return buildsignal.MustRebuild("module cleanup failed for %s: %v", cleanupFilePath, err)
	}

	return nil
}
