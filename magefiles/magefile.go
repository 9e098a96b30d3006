//go:build mage

// Package main provides build targets for the entities project using Mage.
//
// Usage:
//
//	mage build          Compile entities binary to bin/
//	mage test:all       Run all tests
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Run all tests and write coverage.out
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install entities to GOPATH/bin
//	mage stats          Print production and test line counts per package
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "entities"
	binaryDir  = "bin"
	cmdDir     = "./cmd/entities"
	modulePath = "github.com/mesh-intelligence/entities"
)

// Default runs when mage is invoked without a target.
var Default = Build

// Build compiles the entities binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	if err := os.RemoveAll(coverProfile); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// sourceRoots are the directories whose packages Stats reports.
var sourceRoots = []string{"cmd", "internal", "pkg"}

// Stats prints production and test line counts for every package.
func Stats() error {
	type counts struct{ prod, test int }
	byPkg := map[string]*counts{}

	for _, root := range sourceRoots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			pkg := filepath.ToSlash(filepath.Dir(path))
			c, ok := byPkg[pkg]
			if !ok {
				c = &counts{}
				byPkg[pkg] = c
			}
			n := bytes.Count(data, []byte("\n"))
			if strings.HasSuffix(path, "_test.go") {
				c.test += n
			} else {
				c.prod += n
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	pkgs := make([]string, 0, len(byPkg))
	for pkg := range byPkg {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "package\tprod\ttest\t")
	var total counts
	for _, pkg := range pkgs {
		c := byPkg[pkg]
		fmt.Fprintf(w, "%s\t%d\t%d\t\n", pkg, c.prod, c.test)
		total.prod += c.prod
		total.test += c.test
	}
	fmt.Fprintf(w, "total\t%d\t%d\t\n", total.prod, total.test)
	return w.Flush()
}
