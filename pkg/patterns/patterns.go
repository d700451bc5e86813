// Package patterns generates the regular-expression families used to catch
// naming-convention references to a dependency inside non-source text.
package patterns

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// suffix groups commonly derived from a package's name.
var (
	configSuffixes = []string{"config", "rc", "settings", "options", "setup"}
	pluginSuffixes = []string{"plugin", "extension", "addon", "middleware"}
	presetSuffixes = []string{"preset", "recommended", "standard", "defaults"}

	// role tokens combined with the name in both orders.
	roleTokens = []string{"cli", "core", "utils", "helpers", "tools", "node", "browser", "types"}

	// role-noun and framework-integration suffixes, optionally pluralized.
	roleNounSuffix = `(loader|parser|transformer|formatter|linter|compiler|resolver|runner)s?`
)

// toolingPrefixes are the naming-convention families for which raw-content
// fallback matching applies even when parsing succeeds.
var toolingPrefixes = []string{
	"webpack", "babel", "@babel", "eslint", "@eslint", "jest", "@jest",
	"typescript", "ts-", "@types", "tslint", "rollup", "@rollup",
	"vite", "@vitejs", "postcss", "prettier", "stylelint", "parcel",
}

var cache sync.Map // name -> []*regexp.Regexp

// For returns the compiled pattern family for a dependency name. Patterns
// are pure functions of the name; results are memoized process-wide since
// they carry no per-run state.
func For(name string) []*regexp.Regexp {
	if cached, ok := cache.Load(name); ok {
		return cached.([]*regexp.Regexp)
	}
	compiled := build(name)
	cache.Store(name, compiled)
	return compiled
}

func build(name string) []*regexp.Regexp {
	quoted := regexp.QuoteMeta(name)
	exprs := []string{
		// Exact name, word-boundary delimited. \b misbehaves around '@',
		// '/' and '-', so boundaries are spelled out.
		boundary(quoted),
	}

	if !strings.HasPrefix(name, "@") {
		// Scoped-package prefix form: @scope/<name>.
		exprs = append(exprs, boundary(`@[a-z0-9~][\w.-]*/`+quoted))
	}

	var suffixed []string
	suffixed = append(suffixed, configSuffixes...)
	suffixed = append(suffixed, pluginSuffixes...)
	suffixed = append(suffixed, presetSuffixes...)
	for _, suffix := range suffixed {
		exprs = append(exprs, boundary(quoted+`[-._]`+suffix))
	}

	for _, role := range roleTokens {
		exprs = append(exprs, boundary(quoted+`-`+role))
		exprs = append(exprs, boundary(role+`-`+quoted))
	}

	exprs = append(exprs, boundary(quoted+`-`+roleNounSuffix))

	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		compiled = append(compiled, regexp.MustCompile(expr))
	}
	return compiled
}

// boundary wraps an expression so it only matches when delimited by
// characters that cannot be part of a package name.
func boundary(expr string) string {
	return fmt.Sprintf(`(^|[^\w@/.-])%s($|[^\w@/.-])`, expr)
}

// IsToolingFamily reports whether a dependency name belongs to one of the
// known tooling naming families (bundlers, transpilers, linters, test
// runners) for which raw-content fallback matching applies.
func IsToolingFamily(name string) bool {
	for _, prefix := range toolingPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// MatchAny reports whether any pattern in the family matches the text.
func MatchAny(name string, text []byte) bool {
	for _, re := range For(name) {
		if re.Match(text) {
			return true
		}
	}
	return false
}
