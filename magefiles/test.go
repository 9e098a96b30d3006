//go:build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const coverProfile = "coverage.out"

// Test groups test targets.
type Test mg.Namespace

// All runs all tests.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Race runs all tests with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs all tests, writes coverage.out and prints per-package totals.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	out, err := sh.Output(binGo, "tool", "cover", "-func="+coverProfile)
	if err != nil {
		return err
	}
	lines := strings.Split(out, "\n")
	if len(lines) > 0 {
		fmt.Println(lines[len(lines)-1])
	}
	return nil
}

// Pkg runs the tests of one package, e.g. mage test:pkg internal/sqlite.
func (Test) Pkg(pkg string) error {
	return sh.RunV(binGo, "test", "-v", modulePath+"/"+strings.TrimPrefix(pkg, "./"))
}
