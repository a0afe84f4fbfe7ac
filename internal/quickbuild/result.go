package quickbuild

// Result is the three-way outcome of a quick-build invocation.
type Result string

const (
	// Success means the quick build ran to completion and the output ROM
	// was replaced.
	Success Result = "success"

	// NoWork means every entry was unchanged; the output ROM was left
	// untouched.
	NoWork Result = "no_work"
)
