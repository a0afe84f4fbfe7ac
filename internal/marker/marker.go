// Package marker writes and reads the small identifying tag this engine
// stamps into every ROM it produces, and links a project's graphics
// directories to the ones nested alongside the output ROM.
package marker

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// tag is the fixed marker string appended to the end of the ROM. It is
// checked for, not relied on structurally.
const tag = "INSERT-ENGINE-QUICKBUILD"

// Write stamps romPath with the engine's marker by appending it to the end
// of the file, which grows the file by len(tag) bytes. It is a no-op if the
// marker is already present anywhere in the file.
func Write(romPath string) error {
	data, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("failed to read rom for marking: %w", err)
	}

	if bytes.Contains(data, []byte(tag)) {
		return nil
	}

	data = append(data, []byte(tag)...)

	return os.WriteFile(romPath, data, 0o644)
}

// Present reports whether romPath already carries the engine's marker.
func Present(romPath string) (bool, error) {
	data, err := os.ReadFile(romPath)
	if err != nil {
		return false, err
	}

	return bytes.Contains(data, []byte(tag)), nil
}

// LinkGraphicsDirectories links the project's Graphics and ExGraphics
// source directories into the sidecar directory named after the output ROM:
// each sidecar entry is replaced by a symlink pointing at the project
// directory. No link is made from the project tree back to the sidecar, and
// a project directory that does not exist is skipped.
func LinkGraphicsDirectories(projectRoot, outputROM string) error {
	sidecarRoot := outputROM[:len(outputROM)-len(filepath.Ext(outputROM))]

	for _, dirName := range []string{"Graphics", "ExGraphics"} {
		projectDir := filepath.Join(projectRoot, dirName)
		sidecarDir := filepath.Join(sidecarRoot, dirName)

		if err := linkDirectory(projectDir, sidecarDir); err != nil {
			return err
		}
	}

	return nil
}

func linkDirectory(projectDir, sidecarDir string) error {
	if _, err := os.Stat(projectDir); os.IsNotExist(err) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(sidecarDir), 0o755); err != nil {
		return fmt.Errorf("failed to create sidecar graphics parent: %w", err)
	}

	if _, err := os.Lstat(sidecarDir); err == nil {
		if err := os.Remove(sidecarDir); err != nil {
			return fmt.Errorf("failed to replace existing sidecar graphics link: %w", err)
		}
	}

	if err := os.Symlink(projectDir, sidecarDir); err != nil {
		return fmt.Errorf("failed to link %s to %s: %w", sidecarDir, projectDir, err)
	}

	return nil
}
