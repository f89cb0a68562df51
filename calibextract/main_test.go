package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/next-exp/calib_go/logging"
	calib "github.com/next-exp/calib_go/pkg"
)

func testLogger() (logging.Logger, *bytes.Buffer) {
	var errOut bytes.Buffer
	return logging.NewLoggerTo(&bytes.Buffer{}, &errOut, true), &errOut
}

func TestRunWritesTable(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "run.root")
	events := []calib.EventRecord{
		{Evt: 1, Channel: [2]uint16{3, 130}, Ampl: [2]float64{1000, 1200}},
	}
	if err := calib.WriteRootFile(input, "tree", events); err != nil {
		t.Fatalf("WriteRootFile: %v", err)
	}
	out := filepath.Join(dir, "energy.csv")
	t.Setenv("CALIB_FILE_OUT", out)

	logger, errOut := testLogger()
	if code := run([]string{input}, logger); code != 0 {
		t.Fatalf("exit code %d, errors: %s", code, errOut.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), input) {
		t.Fatalf("input file not listed in header:\n%s", data)
	}
}

func TestRunWithoutFiles(t *testing.T) {
	logger, _ := testLogger()
	if code := run(nil, logger); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestRunMissingFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "energy.csv")
	t.Setenv("CALIB_FILE_OUT", out)

	logger, errOut := testLogger()
	if code := run([]string{filepath.Join(dir, "missing.root")}, logger); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "missing.root") {
		t.Fatalf("error does not name the missing file: %s", errOut.String())
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output file should not exist, stat: %v", err)
	}
}
