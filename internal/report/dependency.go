package report

import (
	"os"
)

// ConfigurationDependency records the value a configuration leaf held at
// the time of the last insertion, and what a change in that value demands.
type ConfigurationDependency struct {
	ConfigKeys string      `json:"config_keys"`
	Value      interface{} `json:"value"`
	Policy     Policy      `json:"policy"`
}

// ResourceDependency records the filesystem timestamp a dependent path held
// at the time of the last insertion. LastWriteTime is nil iff the file did
// not exist at observation time.
//
// Equality and hashing are by DependentPath only; ResourceDependencySet
// below enforces that.
type ResourceDependency struct {
	DependentPath string  `json:"dependent_path"`
	LastWriteTime *uint64 `json:"last_write_time"`
	Policy        Policy  `json:"policy"`
}

// NewResourceDependency observes the current timestamp of path and builds
// a ResourceDependency with the given policy.
func NewResourceDependency(path string, policy Policy) (ResourceDependency, error) {
	ts, err := observeTimestamp(path)
	if err != nil {
		return ResourceDependency{}, err
	}

	return ResourceDependency{DependentPath: path, LastWriteTime: ts, Policy: policy}, nil
}

// observeTimestamp returns the current modification timestamp of path, or
// nil if the path does not exist.
func observeTimestamp(path string) (*uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	ts := uint64(info.ModTime().UnixNano())
	return &ts, nil
}

// CurrentMatches reports whether the dependent path's current timestamp
// still matches the recorded one.
func (r ResourceDependency) CurrentMatches() (bool, error) {
	current, err := observeTimestamp(r.DependentPath)
	if err != nil {
		return false, err
	}

	if current == nil || r.LastWriteTime == nil {
		return current == nil && r.LastWriteTime == nil, nil
	}

	return *current == *r.LastWriteTime, nil
}

// ResourceDependencySet deduplicates ResourceDependency values by path,
// matching the source's set-of-ResourceDependency semantics (equality and
// hashing by path only).
type ResourceDependencySet struct {
	byPath map[string]ResourceDependency
}

// NewResourceDependencySet builds an empty set.
func NewResourceDependencySet() *ResourceDependencySet {
	return &ResourceDependencySet{byPath: make(map[string]ResourceDependency)}
}

// Add inserts dep, keyed by its path; a later Add with the same path
// overwrites the earlier one.
func (s *ResourceDependencySet) Add(dep ResourceDependency) {
	s.byPath[dep.DependentPath] = dep
}

// Slice returns the set's members in no particular order.
func (s *ResourceDependencySet) Slice() []ResourceDependency {
	out := make([]ResourceDependency, 0, len(s.byPath))
	for _, dep := range s.byPath {
		out = append(out, dep)
	}
	return out
}
