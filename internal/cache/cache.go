// Package cache provides caching for per-module assembly outputs across
// quick builds.
//
// Re-inserting a module that has not changed means copying its previously
// assembled symbol data back into the live build rather than re-running the
// assembler on it. The cache addresses this by:
//
//  1. Indexing, per module source path, the list of output files last cached
//     and their cached byte size, in BoltDB.
//  2. Storing the actual output bytes in a filesystem mirror tree alongside
//     the index.
//
// Consulting the index before copying lets a missing or truncated cached
// file surface as a cache miss before the copy loop runs, instead of failing
// partway through restoring a module's outputs.
package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// sourceExtension is the user module source file's own extension. It lives
// in the same directory as the symbol files assembly produces, so
// CollectOutputs excludes it: the source is an input to reassembly, never
// something to cache and restore as an output.
const sourceExtension = ".asm"

const bucketName = "module_outputs"

// Cache manages cached per-module assembly outputs using BoltDB for the
// index and a filesystem mirror tree for the bytes.
type Cache struct {
	db   *bbolt.DB
	root string // mirror tree root, e.g. .cache/module_symbols
}

// Open opens (creating if necessary) the module-output cache rooted at
// mirrorDir, with its BoltDB index at indexPath.
func Open(indexPath, mirrorDir string) (*Cache, error) {
	if err := os.MkdirAll(mirrorDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create module cache directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create module cache index directory: %w", err)
	}

	db, err := bbolt.Open(indexPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open module cache index: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create module cache bucket: %w", err)
	}

	return &Cache{db: db, root: mirrorDir}, nil
}

// Close closes the cache index.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}

	return nil
}

// Entry is the index record for one cached module.
type Entry struct {
	ModulePath string    `json:"module_path"`
	Outputs    []string  `json:"outputs"`
	Sizes      []int64   `json:"sizes"`
	CachedAt   time.Time `json:"cached_at"`
}

// Lookup returns the index entry for modulePath, or nil on a cache miss.
func (c *Cache) Lookup(modulePath string) (*Entry, error) {
	var entry Entry
	found := false

	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data := b.Get([]byte(modulePath))
		if data == nil {
			return nil
		}

		found = true
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return &entry, nil
}

// Valid reports whether every output file the index recorded for modulePath
// is still present on disk with the size that was cached.
func (c *Cache) Valid(modulePath string) (bool, error) {
	entry, err := c.Lookup(modulePath)
	if err != nil {
		return false, err
	}

	if entry == nil {
		return false, nil
	}

	for i, output := range entry.Outputs {
		info, err := os.Stat(filepath.Join(c.mirrorDir(modulePath), output))
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}

			return false, err
		}

		if info.Size() != entry.Sizes[i] {
			return false, nil
		}
	}

	return true, nil
}

// Store copies outputs (paths relative to sourceDir) into the mirror tree
// for modulePath and records their sizes in the index.
func (c *Cache) Store(modulePath, sourceDir string, outputs []string) error {
	destDir := c.mirrorDir(modulePath)

	if err := mirrorOutputs(sourceDir, destDir, outputs); err != nil {
		return fmt.Errorf("failed to cache module outputs: %w", err)
	}

	sizes := make([]int64, len(outputs))
	for i, output := range outputs {
		info, err := os.Stat(filepath.Join(destDir, output))
		if err != nil {
			return fmt.Errorf("failed to stat cached output %s: %w", output, err)
		}

		sizes[i] = info.Size()
	}

	entry := Entry{
		ModulePath: modulePath,
		Outputs:    outputs,
		Sizes:      sizes,
		CachedAt:   time.Now(),
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		return b.Put([]byte(modulePath), data)
	})
}

// Restore copies the cached outputs for modulePath into destDir.
func (c *Cache) Restore(modulePath, destDir string) error {
	entry, err := c.Lookup(modulePath)
	if err != nil {
		return err
	}

	if entry == nil {
		return fmt.Errorf("no cached outputs for module %s", modulePath)
	}

	return restoreOutputs(c.mirrorDir(modulePath), destDir, entry.Outputs)
}

// Remove drops the cached outputs and index entry for modulePath.
func (c *Cache) Remove(modulePath string) error {
	if err := os.RemoveAll(c.mirrorDir(modulePath)); err != nil {
		return fmt.Errorf("failed to remove cached module outputs: %w", err)
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Delete([]byte(modulePath))
	})
}

// Stats returns the number of cached modules and the total size in bytes of
// their cached outputs.
func (c *Cache) Stats() (count int, totalSize int64, err error) {
	err = c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		return b.ForEach(func(_, data []byte) error {
			var entry Entry
			if err := json.Unmarshal(data, &entry); err != nil {
				return err
			}

			count++
			for _, size := range entry.Sizes {
				totalSize += size
			}

			return nil
		})
	})

	return count, totalSize, err
}

// mirrorDir returns the directory under the mirror tree that holds
// modulePath's cached outputs, keyed by a filesystem-safe encoding of the
// module's own path.
func (c *Cache) mirrorDir(modulePath string) string {
	return filepath.Join(c.root, sanitizeKey(modulePath))
}

func sanitizeKey(modulePath string) string {
	safe := filepath.ToSlash(modulePath)
	safe = filepath.Clean(safe)

	return safe
}

// mirrorOutputs copies a module's freshly assembled outputs (paths relative
// to sourceDir, the module's own directory) into its mirror tree entry.
func mirrorOutputs(sourceDir, destDir string, outputs []string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create mirror directory: %w", err)
	}

	for _, output := range outputs {
		src := filepath.Join(sourceDir, output)
		dst := filepath.Join(destDir, output)

		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to mirror %s: %w", output, err)
		}
	}

	return nil
}

// restoreOutputs copies a module's mirrored outputs back into destDir, the
// live module directory, when the module itself didn't change this build.
func restoreOutputs(mirrorDir, destDir string, outputs []string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create module output directory: %w", err)
	}

	for _, output := range outputs {
		src := filepath.Join(mirrorDir, output)
		dst := filepath.Join(destDir, output)

		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to restore %s: %w", output, err)
		}
	}

	return nil
}

// CollectOutputs scans a module's own directory and returns the symbol
// files its last assembly produced, excluding the module's own assembly
// source. Used both to populate a fresh cache entry (Cache.Store) and, for
// a module whose insertable has no cache of its own yet, to describe what
// a bare reassembly just produced (ModuleInsertable.Outputs).
func CollectOutputs(dir string) ([]string, error) {
	var outputs []string

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read module output directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if filepath.Ext(name) == sourceExtension {
			continue
		}

		outputs = append(outputs, name)
	}

	return outputs, nil
}

// copyFile copies a single file from src to dst, creating dst's parent
// directory and preserving src's permissions.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	return os.Chmod(dst, srcInfo.Mode())
}
