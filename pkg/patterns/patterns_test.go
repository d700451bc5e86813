package patterns

import "testing"

func TestMatchAnyNameBoundaries(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{`"lodash"`, true},
		{`plugins: [lodash]`, true},
		{`uses lodash here`, true},
		{`lodash`, true},
		{`"lodash-es"`, false},
		{`"lodash.debounce"`, false},
		{`"@lodash/x"`, false},
		{`mylodash`, false},
	}

	for _, tt := range tests {
		if got := MatchAny("lodash", []byte(tt.text)); got != tt.want {
			t.Errorf("MatchAny(lodash, %q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestMatchAnyNamingFamilies(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"eslint", `"extends": "eslint-config-airbnb"`, false},
		{"eslint", `"eslint-config"`, true},
		{"babel", `"babel.config"`, true},
		{"webpack", `"webpack-plugin"`, true},
		{"jest", `"preset-jest"`, false},
		{"jest", `"jest-preset"`, true},
		{"ts", `"ts-loader"`, true},
		{"vite", `"vite-node"`, true},
		{"rollup", `"unrelated-text"`, false},
		{"express", `uses @apollo/express somewhere`, true},
	}

	for _, tt := range tests {
		if got := MatchAny(tt.name, []byte(tt.text)); got != tt.want {
			t.Errorf("MatchAny(%q, %q) = %v, want %v", tt.name, tt.text, got, tt.want)
		}
	}
}

func TestForIsMemoized(t *testing.T) {
	a := For("prettier")
	b := For("prettier")
	if len(a) == 0 {
		t.Fatal("For() should compile at least one pattern")
	}
	if &a[0] != &b[0] {
		t.Error("For() should return the memoized slice")
	}
}

func TestIsToolingFamily(t *testing.T) {
	for _, name := range []string{
		"webpack-cli", "babel-core", "@babel/preset-env", "eslint-plugin-react",
		"ts-node", "@types/node", "jest", "postcss-nested", "prettier",
	} {
		if !IsToolingFamily(name) {
			t.Errorf("IsToolingFamily(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"lodash", "react", "express", "@apollo/client"} {
		if IsToolingFamily(name) {
			t.Errorf("IsToolingFamily(%q) = true, want false", name)
		}
	}
}
