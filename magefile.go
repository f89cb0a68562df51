//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
var Default = Build

// Build compiles every executable into ./bin
func Build() error {
	mg.Deps(BuildCalibExtract, BuildCalibLoad)
	fmt.Println("Compilation finished")
	return nil
}

func BuildCalibExtract() error {
	fmt.Println("Building calibextract executable...")
	return goBuild("./bin/calibextract", "./calibextract")
}

func BuildCalibLoad() error {
	fmt.Println("Building calibload executable...")
	return goBuild("./bin/calibload", "./calibload")
}

// Test runs the unit tests. HDF5 needs cgo, as for the build.
func Test() error {
	cmd := exec.Command("go", "test", "./...")
	cmd.Env = cgoEnv()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func goBuild(output string, pkg string) error {
	cmd := exec.Command("go", "build", "-o", output, pkg)
	cmd.Env = cgoEnv()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func cgoEnv() []string {
	return append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", os.Getenv("CGO_LDFLAGS")),
		fmt.Sprintf("CGO_CFLAGS=%s", os.Getenv("CGO_CFLAGS")))
}
