package depgraph

import (
	"sort"
	"strings"
)

// TypesPrefix marks DefinitelyTyped declaration packages.
const TypesPrefix = "@types/"

// BasePackage returns the package a @types/ name provides declarations for.
// DefinitelyTyped encodes scopes with double underscores: @types/babel__core
// declares types for @babel/core.
func BasePackage(typesName string) string {
	base := strings.TrimPrefix(typesName, TypesPrefix)
	if scope, name, ok := strings.Cut(base, "__"); ok {
		return "@" + scope + "/" + name
	}
	return base
}

// frameworkCores maps a detected front-end framework's core package to the
// build and dev packages the framework implicitly requires. Declaring the
// core short-circuits the analysis for the listed names.
var frameworkCores = map[string][]string{
	"react-scripts": {
		"webpack", "@babel/core", "babel-loader", "eslint", "jest",
		"postcss", "typescript",
	},
	"next": {
		"webpack", "@babel/core", "postcss", "typescript",
	},
	"nuxt": {
		"webpack", "vite", "typescript", "vue",
	},
	"@angular/core": {
		"typescript", "zone.js", "rxjs", "@angular/compiler",
	},
	"@vue/cli-service": {
		"webpack", "@vue/compiler-sfc", "vue-loader", "eslint",
	},
	"vite": {
		"esbuild", "rollup", "postcss",
	},
	"gatsby": {
		"webpack", "@babel/core", "eslint",
	},
	"@remix-run/dev": {
		"esbuild", "typescript",
	},
	"astro": {
		"vite", "typescript",
	},
	"@sveltejs/kit": {
		"vite", "svelte", "typescript",
	},
}

// FrameworkRequirers returns the declared framework core packages that
// implicitly require dep. declared is the predicate "is this package a
// declared top-level dependency".
func FrameworkRequirers(dep string, declared func(string) bool) []string {
	var cores []string
	for core, implied := range frameworkCores {
		if !declared(core) {
			continue
		}
		for _, name := range implied {
			if name == dep {
				cores = append(cores, core)
				break
			}
		}
	}
	sort.Strings(cores)
	return cores
}
