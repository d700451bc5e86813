package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sweeplabs/sweep/pkg/manifest"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestScanner(t *testing.T, root string, manifestDoc string) *Scanner {
	t.Helper()
	path := writeFile(t, root, "package.json", manifestDoc)
	m, err := manifest.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return New(&Context{
		Root:     root,
		Manifest: m,
		Scripts:  m.Scripts,
	})
}

func TestUsesStaticImport(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestScanner(t, tmpDir, `{"name":"x"}`)

	file := writeFile(t, tmpDir, "src/app.ts", `
import debounce from "lodash/debounce";
import { useState } from "react";
`)

	if !s.Uses("lodash", file) {
		t.Error("subpath import should count as usage")
	}
	if !s.Uses("react", file) {
		t.Error("named import should count as usage")
	}
	if s.Uses("lodash-es", file) {
		t.Error("lodash import must not count for lodash-es")
	}
	if s.Uses("express", file) {
		t.Error("absent dependency should not match")
	}
}

func TestUsesRequireAndDynamicImport(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestScanner(t, tmpDir, `{"name":"x"}`)

	file := writeFile(t, tmpDir, "src/load.js", `
const dayjs = require("dayjs");
async function lazy() {
	return import("chalk/source");
}
`)

	if !s.Uses("dayjs", file) {
		t.Error("require should count as usage")
	}
	if !s.Uses("chalk", file) {
		t.Error("dynamic import with subpath should count as usage")
	}
}

func TestUsesLiteralPrecheckShortCircuits(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestScanner(t, tmpDir, `{"name":"x"}`)

	file := writeFile(t, tmpDir, "src/app.ts", `export const unrelated = 1;`)

	if s.Uses("lodash", file) {
		t.Error("file without the name as a substring can never match")
	}
}

func TestUsesParseFailureSafety(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestScanner(t, tmpDir, `{"name":"x"}`)

	// Mentions the name but is not valid syntax and not an import form.
	broken := writeFile(t, tmpDir, "src/broken.ts", `
{{{ lodash !!! not a program
`)
	if s.Uses("lodash", broken) {
		t.Error("bare mention in unparseable source is not usage evidence")
	}

	// The dynamic-import pattern still applies to unparseable files.
	brokenDyn := writeFile(t, tmpDir, "src/brokendyn.ts", `
{{{ not a program
import("lodash")
`)
	if !s.Uses("lodash", brokenDyn) {
		t.Error("dynamic-import pattern should survive parse failure")
	}
}

func TestUsesToolingFallbackInOpaqueFiles(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestScanner(t, tmpDir, `{"name":"x"}`)

	// An unknown extension never reaches the syntax tree; tooling-family
	// names still match on raw content.
	file := writeFile(t, tmpDir, "Dockerfile", `RUN npx webpack --mode production`)

	if !s.Uses("webpack", file) {
		t.Error("tooling-family name should match raw content")
	}
	if s.Uses("lodash", file) {
		t.Error("non-tooling name has no raw-content fallback")
	}
}

func TestUsesToolingFallbackNamingConventions(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestScanner(t, tmpDir, `{"name":"x"}`)

	// Derived names in opaque files count for the base package: webpack
	// via its cli, babel via a loader, ts via ts-loader.
	file := writeFile(t, tmpDir, "ci.sh", `
npx webpack-cli build
npx babel-loader --version
`)
	if !s.Uses("webpack", file) {
		t.Error("webpack-cli should count as a webpack reference")
	}
	if !s.Uses("babel", file) {
		t.Error("babel-loader should count as a babel reference")
	}

	// A third-party preset that merely embeds the name does not count.
	preset := writeFile(t, tmpDir, "lint.sh", `npx eslint-config-airbnb`)
	if s.Uses("eslint", preset) {
		t.Error("eslint-config-airbnb is not an eslint reference")
	}
}

func TestUsesManifestScriptsAndValues(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestScanner(t, tmpDir, `{
		"name": "x",
		"dependencies": {"rimraf": "^5.0.0", "lodash": "^4.0.0"},
		"scripts": {"clean": "rimraf dist", "start": "node server.js"},
		"husky": {"hooks": {"pre-commit": "lint-staged"}}
	}`)

	manifestPath := filepath.Join(tmpDir, "package.json")

	if !s.Uses("rimraf", manifestPath) {
		t.Error("script token should count as manifest usage")
	}
	if !s.Uses("lint-staged", manifestPath) {
		t.Error("nested config value should count as manifest usage")
	}
	if s.Uses("lodash", manifestPath) {
		t.Error("a dependency declaration alone is not usage")
	}
}

func TestUsesConfigEntries(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestScanner(t, tmpDir, `{"name":"x"}`)
	s.ctx.Configs = map[string]any{
		".babelrc": map[string]any{
			"presets": []any{"@babel/preset-env"},
		},
	}

	file := writeFile(t, tmpDir, ".babelrc", `{"presets": ["@babel/preset-env"]}`)

	if !s.Uses("@babel/preset-env", file) {
		t.Error("pre-parsed config entry should count as usage")
	}
	if s.Uses("rollup", file) {
		t.Error("absent name should not match config entry")
	}
}

func TestUsesTypesPackages(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestScanner(t, tmpDir, `{"name":"x"}`)

	file := writeFile(t, tmpDir, "src/app.ts", `import _ from "lodash";`)

	if !s.Uses("@types/lodash", file) {
		t.Error("importing the base package should count for its @types package")
	}

	scoped := writeFile(t, tmpDir, "src/scoped.ts", `import { parse } from "@babel/core";`)
	if !s.Uses("@types/babel__core", scoped) {
		t.Error("double-underscore scope encoding should resolve to @babel/core")
	}
}

func TestUsesUnreadableAndBinary(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestScanner(t, tmpDir, `{"name":"x"}`)

	if s.Uses("lodash", filepath.Join(tmpDir, "missing.ts")) {
		t.Error("unreadable file should degrade to false")
	}

	binPath := filepath.Join(tmpDir, "blob.js")
	if err := os.WriteFile(binPath, []byte{'l', 'o', 'd', 'a', 's', 'h', 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	if s.Uses("lodash", binPath) {
		t.Error("binary content should degrade to false")
	}
}

func TestScriptsReference(t *testing.T) {
	scripts := map[string]string{
		"build": "webpack --config webpack.config.js",
		"test":  "node_modules/.bin/jest --coverage",
		"gen":   "openapi-generator/cli generate",
	}

	if !scriptsReference(scripts, "webpack") {
		t.Error("plain token should match")
	}
	if !scriptsReference(scripts, "jest") {
		t.Error("path-suffixed token should match")
	}
	if !scriptsReference(scripts, "openapi-generator") {
		t.Error("path-prefixed token should match")
	}
	if scriptsReference(scripts, "web") {
		t.Error("partial token should not match")
	}
}
