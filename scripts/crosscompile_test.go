package main

import (
	"bufio"
	"go/build/constraint"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildExpr reads the //go:build line of a source file.
func buildExpr(t *testing.T, path string) constraint.Expr {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if constraint.IsGoBuild(line) {
			expr, err := constraint.Parse(line)
			if err != nil {
				t.Fatalf("parse %s: %v", path, err)
			}
			return expr
		}
		if strings.HasPrefix(line, "package ") {
			break
		}
	}
	t.Fatalf("%s has no build constraint", path)
	return nil
}

func TestTargetsRegisterSQLite(t *testing.T) {
	t.Parallel()

	for _, file := range []string{"sqlite.go", "chai.go"} {
		expr := buildExpr(t, filepath.Join("..", "pkg", "database", "drivers", file))
		for goos, archs := range targets {
			for _, goarch := range archs {
				ok := expr.Eval(func(tag string) bool {
					switch tag {
					case goos, goarch:
						return true
					case "linux":
						return goos == "android"
					case "darwin":
						return goos == "ios"
					}
					return false
				})
				if !ok {
					t.Errorf("%s is not built for %s/%s", file, goos, goarch)
				}
			}
		}
	}
}
