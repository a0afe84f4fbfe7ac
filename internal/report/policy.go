package report

import "fmt"

// Policy controls what a violated dependency forces: a full rebuild, or
// just reinsertion of the owning entry.
type Policy string

const (
	Rebuild  Policy = "REBUILD"
	Reinsert Policy = "REINSERT"
)

// ParsePolicy validates and returns a Policy from its wire representation.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case Rebuild, Reinsert:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown policy %q", s)
	}
}
