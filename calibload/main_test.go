package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/next-exp/calib_go/logging"
	calib "github.com/next-exp/calib_go/pkg"
)

func writeTable(t *testing.T, dir string) string {
	t.Helper()
	fname := filepath.Join(dir, "energy.csv")
	records := []calib.CalibRecord{
		{Channel: 0, Empty: true},
		{Channel: 5, Mean: 2001.5, MeanErr: 0.5, Sigma: 50},
	}
	if err := calib.WriteCalibrationFile(fname, records, []string{"run.root"}, time.Now()); err != nil {
		t.Fatalf("WriteCalibrationFile: %v", err)
	}
	return fname
}

func TestLoadIntoSqlite(t *testing.T) {
	dir := t.TempDir()
	table := writeTable(t, dir)
	dbFile := filepath.Join(dir, "calib.db")
	t.Setenv("CALIB_USE_DB", "true")
	t.Setenv("CALIB_DB_DRIVER", "sqlite")
	t.Setenv("CALIB_DB_NAME", dbFile)
	t.Setenv("CALIB_PERIOD", "A1")

	var out, errOut bytes.Buffer
	logger := logging.NewLoggerTo(&out, &errOut, true)
	if code := run([]string{table}, logger); code != 0 {
		t.Fatalf("exit code %d, errors: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "Read 2 channels (1 without calibration)") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}

	db, err := calib.ConnectToDatabase(calib.Configuration{DBDriver: "sqlite", DBName: dbFile})
	if err != nil {
		t.Fatalf("ConnectToDatabase: %v", err)
	}
	defer db.Close()
	calibID, err := calib.LatestCalibID(db, "A1")
	if err != nil {
		t.Fatalf("LatestCalibID: %v", err)
	}
	records, err := calib.LoadCalibrationFromDB(db, calibID)
	if err != nil {
		t.Fatalf("LoadCalibrationFromDB: %v", err)
	}
	if len(records) != 2 || records[1].Mean != 2001.5 {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestBadArguments(t *testing.T) {
	logger := logging.NewLoggerTo(&bytes.Buffer{}, &bytes.Buffer{}, true)
	if code := run([]string{"a.csv", "b.csv"}, logger); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if code := run([]string{filepath.Join(t.TempDir(), "missing.csv")}, logger); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}
