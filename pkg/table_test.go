package calib

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteCalibrationTable(t *testing.T) {
	records := []CalibRecord{
		{Channel: 0, Empty: true},
		{Channel: 5, Mean: 2001.25, MeanErr: 0.5},
		{Channel: 125, Mean: 1799.875, MeanErr: 0.375},
	}
	var buf bytes.Buffer
	now := time.Date(2016, 11, 2, 18, 4, 5, 0, time.UTC)
	if err := WriteCalibrationTable(&buf, records, []string{"a.root", "b.root"}, now); err != nil {
		t.Fatal(err)
	}
	want := `# DPGA energy calibration constants (creation date: 2016-11-02 18:04:05, input files: a.root b.root)
# Calibration constant defined as the number of ADC counts corresponding to 511 keV
# iChannelAbs240 calibConstant calibConstantError
0 0 0
5 2001.25 0.5
125 1799.875 0.375
`
	if buf.String() != want {
		t.Fatalf("unexpected table:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestReadCalibrationFile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "energy.csv")
	records := []CalibRecord{
		{Channel: 0, Empty: true},
		{Channel: 5, Mean: 2000.5, MeanErr: 0.25},
		{Channel: 239, Mean: 1700, MeanErr: 1.5},
	}
	if err := WriteCalibrationFile(fname, records, []string{"x.root"}, time.Now()); err != nil {
		t.Fatal(err)
	}

	got, err := ReadCalibrationFile(fname)
	if err != nil {
		t.Fatalf("ReadCalibrationFile: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(got))
	}
	for i, r := range got {
		want := records[i]
		if r.Channel != want.Channel || r.Mean != want.Mean || r.MeanErr != want.MeanErr || r.Empty != want.Empty {
			t.Errorf("record %d: got %+v, want %+v", i, r, want)
		}
	}
	if got[0].EnergyCoefficient() != 0 {
		t.Errorf("sentinel channel must have a null coefficient")
	}
	if c := got[1].EnergyCoefficient(); c != 511/2000.5 {
		t.Errorf("unexpected coefficient %g", c)
	}
}

func TestReadCalibrationFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadCalibrationFile(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("# header\n250 2000 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadCalibrationFile(bad)
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestWriteCalibrationFileReplaces(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "energy.csv")
	if err := os.WriteFile(fname, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteCalibrationFile(fname, []CalibRecord{{Channel: 1, Empty: true}}, nil, time.Now()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "\n1 0 0\n") {
		t.Fatalf("file not replaced:\n%s", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestWriteCalibrationFileBadDir(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "nodir", "energy.csv")
	if err := WriteCalibrationFile(fname, nil, nil, time.Now()); err == nil {
		t.Fatal("expected error")
	}
}
