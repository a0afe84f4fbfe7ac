package detect

import (
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/report"
)

// Classification is the outcome of classifying one build-order entry.
type Classification struct {
	MustReinsert bool
	Reason       string // the changed config key or resource path, for logging
}

// ClassifyEntry decides whether entry must be reinserted this run. It walks
// the entry's Reinsert-policy configuration dependencies first; the first
// mismatch wins. If none mismatch, it walks the Reinsert-policy resource
// dependencies the same way.
func ClassifyEntry(entry report.Entry, cfg *config.Config) (Classification, error) {
	for _, dep := range entry.ConfigurationDependencies {
		if dep.Policy != report.Reinsert {
			continue
		}

		current := config.GetByKey(dep.ConfigKeys)
		if !valuesEqual(current, dep.Value) {
			return Classification{MustReinsert: true, Reason: dep.ConfigKeys}, nil
		}
	}

	for _, dep := range entry.ResourceDependencies {
		if dep.Policy != report.Reinsert {
			continue
		}

		matches, err := dep.CurrentMatches()
		if err != nil {
			return Classification{}, err
		}

		if !matches {
			return Classification{MustReinsert: true, Reason: dep.DependentPath}, nil
		}
	}

	return Classification{MustReinsert: false}, nil
}
