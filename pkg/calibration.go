package calib

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ReferenceEnergy is the energy of the photopeak used as calibration
// anchor, in keV.
const ReferenceEnergy = 511.0

// CalibRecord is one row of the calibration table. Empty channels carry
// a zero mean and error.
type CalibRecord struct {
	Channel uint16
	Mean    float64
	MeanErr float64
	Sigma   float64
	Empty   bool
}

// EnergyCoefficient returns the keV per ADC count of the channel, 0 for
// channels without calibration.
func (r CalibRecord) EnergyCoefficient() float64 {
	if r.Mean == 0 {
		return 0
	}
	return ReferenceEnergy / r.Mean
}

type Result struct {
	Records    []CalibRecord
	Unresolved []int
	Events     int64
	Histos     *ChannelHistos
	Fits       [NChannels]*PeakFit
}

// Ingest fills the channel histograms from src. The first event violating
// the hemisphere assignment stops the ingestion.
func Ingest(src EventSource, histos *ChannelHistos, verbosity int) (int64, error) {
	var nevts int64
	err := src.Scan(func(entry int64, evt EventRecord) error {
		if err := evt.Validate(entry); err != nil {
			return err
		}
		histos.Fill(evt)
		nevts++
		if verbosity > 1 && nevts%100000 == 0 {
			logger.Info(fmt.Sprintf("Processed %s events", humanize.Comma(nevts)), "ingest")
		}
		return nil
	})
	return nevts, err
}

// FitChannels fits every channel in index order.
func FitChannels(histos *ChannelHistos, cfg Configuration) *Result {
	histos.Freeze()
	res := &Result{Histos: histos}
	for ch := 0; ch < NChannels; ch++ {
		if histos.Entries(ch) == 0 {
			res.Records = append(res.Records, CalibRecord{Channel: uint16(ch), Empty: true})
			if cfg.Verbosity > 1 {
				logger.Info(fmt.Sprintf("channel %d: no entries", ch), "fit")
			}
			continue
		}

		pf, err := FitPhotopeak(histos.H[ch], ch, cfg)
		if err == nil {
			res.Fits[ch] = &pf
			err = pf.Accept(ch, cfg)
		}
		if err != nil {
			logger.Warn(fmt.Sprintf("unresolved: %v", err), "fit")
			res.Unresolved = append(res.Unresolved, ch)
			continue
		}
		if cfg.Verbosity > 0 {
			logger.Info(fmt.Sprintf("channel %d: mean %g +- %g, sigma %g", ch, pf.Mean, pf.MeanErr, pf.Sigma), "fit")
		}
		res.Records = append(res.Records, CalibRecord{
			Channel: uint16(ch),
			Mean:    pf.Mean,
			MeanErr: pf.MeanErr,
			Sigma:   pf.Sigma,
		})
	}
	return res
}

// Extract runs the ingestion and the fits. No partial result is returned
// on error.
func Extract(src EventSource, cfg Configuration) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	histos := NewChannelHistos(cfg.NBins, cfg.XMin, cfg.XMax, cfg.Observable)
	nevts, err := Ingest(src, histos, cfg.Verbosity)
	if err != nil {
		return nil, err
	}
	if cfg.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Read %s events", humanize.Comma(nevts)), "ingest")
	}
	res := FitChannels(histos, cfg)
	res.Events = nevts
	return res, nil
}

// Run extracts the calibration of the given ROOT files and writes every
// configured output. Outputs are only written once the whole input has
// been processed.
func Run(cfg Configuration, files []string) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	chain, err := OpenRootChain(cfg.TreeName, files)
	if err != nil {
		return nil, err
	}
	defer chain.Close()
	if cfg.Verbosity > 0 {
		message := fmt.Sprintf("Chain of %d files with %s entries", len(files), humanize.Comma(chain.Entries()))
		logger.Info(message, "main")
	}

	res, err := Extract(chain, cfg)
	if err != nil {
		return nil, err
	}
	if err := WriteOutputs(res, cfg, files, time.Now()); err != nil {
		return res, err
	}
	return res, nil
}

// WriteOutputs writes the calibration table and the optional HDF5 file,
// database rows and diagnostics plot.
func WriteOutputs(res *Result, cfg Configuration, files []string, now time.Time) error {
	if err := WriteCalibrationFile(cfg.FileOut, res.Records, files, now); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Wrote %d calibration rows (%d unresolved channels) to %s",
		len(res.Records), len(res.Unresolved), cfg.FileOut), "main")

	var errs []error
	if cfg.FileOutH5 != "" {
		if err := WriteHDF5(cfg.FileOutH5, res, cfg); err != nil {
			errs = append(errs, fmt.Errorf("error writing hdf5 file: %w", err))
		}
	}
	if cfg.PlotFile != "" {
		if err := PlotSpectra(cfg.PlotFile, res, DefaultPlotStyle()); err != nil {
			errs = append(errs, fmt.Errorf("error plotting spectra: %w", err))
		}
	}
	if cfg.UseDB {
		db, err := ConnectToDatabase(cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("error connecting to database: %w", err))
		} else {
			calibID, err := StoreCalibration(db, cfg.Period, files, res.Records, now)
			if err != nil {
				errs = append(errs, fmt.Errorf("error storing calibration: %w", err))
			} else {
				logger.Info(fmt.Sprintf("Stored calibration %s", calibID), "database")
			}
			db.Close()
		}
	}
	return errors.Join(errs...)
}
