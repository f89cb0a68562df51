package calib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go-hep.org/x/hep/csvutil"
)

const timeLayout = "2006-01-02 15:04:05"

// WriteCalibrationTable writes the header and one row per record.
func WriteCalibrationTable(w io.Writer, records []CalibRecord, inputs []string, now time.Time) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# DPGA energy calibration constants (creation date: %s, input files: %s)\n",
		now.Format(timeLayout), strings.Join(inputs, " "))
	fmt.Fprintf(bw, "# Calibration constant defined as the number of ADC counts corresponding to %g keV\n", ReferenceEnergy)
	fmt.Fprintln(bw, "# iChannelAbs240 calibConstant calibConstantError")
	for _, r := range records {
		if r.Empty {
			fmt.Fprintf(bw, "%d 0 0\n", r.Channel)
			continue
		}
		fmt.Fprintf(bw, "%d %s %s\n", r.Channel, formatFloat(r.Mean), formatFloat(r.MeanErr))
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCalibrationFile writes the table to a temporary file next to fname
// and renames it, so fname is either complete or untouched.
func WriteCalibrationFile(fname string, records []CalibRecord, inputs []string, now time.Time) error {
	tmp, err := os.CreateTemp(filepath.Dir(fname), "."+filepath.Base(fname)+".*")
	if err != nil {
		return &ErrOpenFile{Filename: fname, Err: err}
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &ErrOpenFile{Filename: tmpName, Err: err}
	}
	if err := WriteCalibrationTable(tmp, records, inputs, now); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error writing calibration table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error closing calibration table: %w", err)
	}
	if err := os.Rename(tmpName, fname); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error moving calibration table into place: %w", err)
	}
	return nil
}

type tableRow struct {
	Channel uint16
	Mean    float64
	MeanErr float64
}

// ReadCalibrationFile reads back a table written by WriteCalibrationFile.
func ReadCalibrationFile(fname string) ([]CalibRecord, error) {
	tbl, err := csvutil.Open(fname)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	defer tbl.Close()
	tbl.Reader.Comma = ' '
	tbl.Reader.Comment = '#'

	rows, err := tbl.ReadRows(0, -1)
	if err != nil {
		return nil, fmt.Errorf("could not read rows of %s: %w", fname, err)
	}
	defer rows.Close()

	var records []CalibRecord
	for rows.Next() {
		var row tableRow
		if err := rows.Scan(&row); err != nil {
			return nil, fmt.Errorf("error reading row %d of %s: %w", len(records), fname, err)
		}
		if int(row.Channel) >= NChannels {
			return nil, fmt.Errorf("%s: channel %d out of range", fname, row.Channel)
		}
		records = append(records, CalibRecord{
			Channel: row.Channel,
			Mean:    row.Mean,
			MeanErr: row.MeanErr,
			Empty:   row.Mean == 0 && row.MeanErr == 0,
		})
	}
	if err := rows.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading %s: %w", fname, err)
	}
	return records, nil
}
