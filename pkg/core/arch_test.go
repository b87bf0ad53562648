package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePath = "github.com/leapstack-labs/sqlerm"

// importsOf returns the non-test imports of every Go file in dir, keyed by file name.
func importsOf(t *testing.T, dir string) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}

	out := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
			continue
		}
		if strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}
		for _, imp := range f.Imports {
			out[entry.Name()] = append(out[entry.Name()], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return out
}

// TestCoreImportsOnlyStdlib verifies pkg/core has no dependencies outside the standard library.
func TestCoreImportsOnlyStdlib(t *testing.T) {
	for file, imports := range importsOf(t, ".") {
		for _, importPath := range imports {
			// Stdlib paths have no dot in the first element
			if strings.Contains(strings.Split(importPath, "/")[0], ".") {
				t.Errorf("%s imports forbidden package: %s", file, importPath)
			}
		}
	}
}

// TestPackageLayering verifies each pkg/ package only reaches down the stack:
// core <- ddl, registry <- marshal <- database.
func TestPackageLayering(t *testing.T) {
	tests := []struct {
		dir       string
		forbidden []string
	}{
		{dir: "../ddl", forbidden: []string{"/pkg/registry", "/pkg/marshal", "/pkg/database", "/internal/"}},
		{dir: "../registry", forbidden: []string{"/pkg/ddl", "/pkg/marshal", "/pkg/database", "/internal/"}},
		{dir: "../marshal", forbidden: []string{"/pkg/ddl", "/pkg/database", "/internal/"}},
		{dir: "../database", forbidden: []string{"/internal/"}},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.dir), func(t *testing.T) {
			for file, imports := range importsOf(t, tt.dir) {
				for _, importPath := range imports {
					if !strings.HasPrefix(importPath, modulePath) {
						continue
					}
					for _, f := range tt.forbidden {
						if strings.Contains(importPath, f) {
							t.Errorf("%s/%s imports %s", filepath.Base(tt.dir), file, importPath)
						}
					}
				}
			}
		})
	}
}
