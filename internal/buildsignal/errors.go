// Package buildsignal defines the engine's error vocabulary: a MustRebuild
// signal (not an error in the ordinary sense — a mode switch the caller
// acts on) and the fatal error kinds that abort a quick build outright.
package buildsignal

import "fmt"

// MustRebuildError signals that an incremental build is unsafe or
// impossible; the caller is expected to run a full rebuild.
type MustRebuildError struct {
	Reason string
}

func (e *MustRebuildError) Error() string {
	return fmt.Sprintf("must rebuild: %s", e.Reason)
}

// MustRebuild constructs a MustRebuildError.
func MustRebuild(format string, args ...interface{}) error {
	return &MustRebuildError{Reason: fmt.Sprintf(format, args...)}
}

// InsertionError signals a fatal, resource-level invariant violation (for
// example an unparseable level filename, or a missing levels folder).
type InsertionError struct {
	Reason string
}

func (e *InsertionError) Error() string {
	return fmt.Sprintf("insertion error: %s", e.Reason)
}

// Insertion constructs an InsertionError.
func Insertion(format string, args ...interface{}) error {
	return &InsertionError{Reason: fmt.Sprintf(format, args...)}
}

// ToolNotFoundError signals that an external tool or assembler library is
// unavailable.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Tool)
}

// ToolNotFound constructs a ToolNotFoundError.
func ToolNotFound(tool string) error {
	return &ToolNotFoundError{Tool: tool}
}

// ResourceNotFoundError signals that an expected input file is missing.
type ResourceNotFoundError struct {
	Path string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Path)
}

// ResourceNotFound constructs a ResourceNotFoundError.
func ResourceNotFound(path string) error {
	return &ResourceNotFoundError{Path: path}
}

// NoDependencyReportFoundError signals that an insertable cannot describe
// its own resource dependencies. It is recoverable within a run: the
// driver falls back to insert() for every subsequent reinsertion and
// deletes the build report at commit instead of persisting it.
type NoDependencyReportFoundError struct {
	Descriptor string
}

func (e *NoDependencyReportFoundError) Error() string {
	return fmt.Sprintf("%s reported no dependency information", e.Descriptor)
}

// NoDependencyReportFound constructs a NoDependencyReportFoundError.
func NoDependencyReportFound(descriptor string) error {
	return &NoDependencyReportFoundError{Descriptor: descriptor}
}
