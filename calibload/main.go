package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/next-exp/calib_go/logging"
	calib "github.com/next-exp/calib_go/pkg"
)

func main() {
	os.Exit(run(os.Args[1:], logging.NewLogger()))
}

func run(args []string, logger logging.Logger) int {
	fs := flag.NewFlagSet("calibload", flag.ContinueOnError)
	configFilename := fs.String("config", "", "Configuration file path")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: calibload [-config file.json] energy.csv\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}
	tableFile := fs.Arg(0)

	configuration, err := calib.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return 1
	}
	calib.SetLogger(logger)
	if configuration.Verbosity > 0 {
		calib.PrintConfiguration(configuration, logger)
	}

	records, err := calib.ReadCalibrationFile(tableFile)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}

	nEmpty := 0
	for _, r := range records {
		if r.Empty {
			nEmpty++
		}
		if configuration.Verbosity > 0 {
			message := fmt.Sprintf("channel %d: %g ADC counts per %g keV, A = %g keV/ADC",
				r.Channel, r.Mean, calib.ReferenceEnergy, r.EnergyCoefficient())
			logger.Info(message, "calibload")
		}
	}
	logger.Info(fmt.Sprintf("Read %d channels (%d without calibration) from %s", len(records), nEmpty, tableFile), "calibload")

	if !configuration.UseDB {
		return 0
	}
	db, err := calib.ConnectToDatabase(configuration)
	if err != nil {
		message := fmt.Errorf("Error connecting to database: %w", err)
		logger.Error(message.Error())
		return 1
	}
	defer db.Close()

	calibID, err := calib.StoreCalibration(db, configuration.Period, []string{tableFile}, records, time.Now())
	if err != nil {
		logger.Error(err.Error())
		return 1
	}
	logger.Info(fmt.Sprintf("Stored calibration %s for period %q", calibID, configuration.Period), "calibload")
	return 0
}
