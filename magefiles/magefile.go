//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

const binaryName = "histsync"

// Build builds the binary
func Build() error {
	fmt.Println("Building...")
	return sh.Run("go", "build", "-o", binaryName, "./cmd/histsync")
}

// Test runs the unit tests with the race detector
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "-race", "-shuffle=on", "-coverprofile=coverage.out", "./...")
}

// TestIntegration runs the end-to-end backup scenarios against real temp dirs
func TestIntegration() error {
	fmt.Println("Running integration tests...")
	return sh.RunV("go", "test", "-tags=integration", "-race", "./internal/syncengine/...")
}

// Vet runs go vet, including files behind the integration tag
func Vet() error {
	fmt.Println("Vetting...")
	return sh.RunV("go", "vet", "-tags=integration", "./...")
}

// Fmt formats the code
func Fmt() error {
	fmt.Println("Formatting code...")
	return sh.Run("gofmt", "-s", "-w", "cmd", "internal", "pkg")
}

// Check formats, vets and tests
func Check() {
	mg.SerialDeps(Fmt, Vet, Test, TestIntegration)
}

// Coverage writes an HTML coverage report
func Coverage() error {
	mg.Deps(Test)
	fmt.Println("Generating coverage report...")
	return sh.Run("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Install installs the binary
func Install() error {
	fmt.Println("Installing...")
	return sh.Run("go", "install", "./cmd/histsync")
}

// Clean removes build artifacts
func Clean() {
	fmt.Println("Cleaning...")
	for _, artifact := range []string{binaryName, "coverage.out", "coverage.html"} {
		_ = os.Remove(artifact)
	}
}
