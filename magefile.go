//go:build mage

package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binPath = "bin/profitlens"

// Default target - build the binary
var Default = Build

// Build builds the profitlens binary
func Build() error {
	mg.Deps(Vet)
	fmt.Println("Building profitlens...")
	ldflags := fmt.Sprintf("-s -w -X main.version=%s", gitVersion())
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath, "./cmd/profitlens")
}

// Test runs the unit tests with the race detector
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm("bin")
}

func gitVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty", "--match=v*").Output()
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(out))
}
