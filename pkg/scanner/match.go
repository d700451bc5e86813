package scanner

import (
	"strings"

	"github.com/sweeplabs/sweep/pkg/depgraph"
)

// MatchesDependency reports whether an import specifier references the
// dependency. A match requires the specifier to equal the dependency name,
// start with it as a subpath prefix ("lodash/debounce" for "lodash"), or
// match on the unscoped name after stripping any scope prefix from both
// sides. @types/ packages additionally match imports of the package they
// provide declarations for.
func MatchesDependency(specifier, dep string) bool {
	if specifier == "" || dep == "" {
		return false
	}

	if specifier == dep || strings.HasPrefix(specifier, dep+"/") {
		return true
	}

	if strings.HasPrefix(dep, depgraph.TypesPrefix) {
		base := depgraph.BasePackage(dep)
		if specifier == base || strings.HasPrefix(specifier, base+"/") {
			return true
		}
	}

	specUnscoped := stripScope(specifier)
	depUnscoped := stripScope(dep)
	if specUnscoped == "" || depUnscoped == "" {
		return false
	}
	if specUnscoped == depUnscoped || strings.HasPrefix(specUnscoped, depUnscoped+"/") {
		// At least one side must actually be scoped; otherwise this
		// reduces to the exact/subpath checks above.
		return strings.HasPrefix(specifier, "@") || strings.HasPrefix(dep, "@")
	}
	return false
}

// stripScope removes a leading @scope/ segment. Unscoped names pass
// through unchanged; a bare scope with no name yields "".
func stripScope(name string) string {
	if !strings.HasPrefix(name, "@") {
		return name
	}
	if _, rest, ok := strings.Cut(name[1:], "/"); ok {
		return rest
	}
	return ""
}

// needles returns the literal strings whose presence in raw content is a
// precondition for the dependency being referenced there. The fast
// substring pre-check and the dynamic-import pattern both operate on these.
func needles(dep string) []string {
	out := []string{dep}
	if strings.HasPrefix(dep, depgraph.TypesPrefix) {
		out = append(out, depgraph.BasePackage(dep))
	}
	if unscoped := stripScope(dep); unscoped != dep && unscoped != "" {
		out = append(out, unscoped)
	}
	return out
}
