package engine

import "sort"

// computeUnused runs the transitive-unused closure and applies the safe
// list to the final report.
//
// The closure is a monotonic least fixed point: the used set starts from
// dependencies with direct file evidence and grows by one rule: a
// dependency becomes used when any of its requirers is used. Growth stops
// when an iteration adds nothing, bounded by the number of declared
// dependencies, and the result is independent of iteration order. A
// dependency whose only requirers stay unused is therefore never rescued.
//
// Safe-list filtering applies only to the final report, never to the
// closure computation, so a safe dependency's own (lack of) usage cannot
// distort the facts recorded for dependencies that rely on it.
func (e *Engine) computeUnused(records map[string]*DependencyRecord) []string {
	used := make(map[string]struct{})
	for name, record := range records {
		if len(record.UsedInFiles) > 0 {
			used[name] = struct{}{}
		}
	}

	for {
		grew := false
		for name, record := range records {
			if _, ok := used[name]; ok {
				continue
			}
			for requirer := range record.RequiredByPackages {
				if _, ok := used[requirer]; ok {
					used[name] = struct{}{}
					record.HasSubDependencyUsage = true
					grew = true
					break
				}
			}
		}
		if !grew {
			break
		}
	}

	for name, record := range records {
		if _, ok := used[name]; ok {
			record.State = StateUsed
		} else {
			record.State = StateUnusedCandidate
		}
	}

	safe := make(map[string]struct{}, len(e.opts.SafeDependencies))
	for _, name := range e.opts.SafeDependencies {
		safe[name] = struct{}{}
	}

	var unused []string
	for name := range records {
		if _, ok := used[name]; ok {
			continue
		}
		if _, ok := safe[name]; ok {
			continue
		}
		unused = append(unused, name)
	}
	sort.Strings(unused)
	return unused
}
