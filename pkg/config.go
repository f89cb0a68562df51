package calib

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

type Observable string

const (
	Amplitude Observable = "ampl"
	Charge    Observable = "charge"
)

type Configuration struct {
	Verbosity        int        `json:"verbosity" env:"CALIB_VERBOSITY"`
	TreeName         string     `json:"tree_name" env:"CALIB_TREE_NAME"`
	Observable       Observable `json:"observable" env:"CALIB_OBSERVABLE"`
	NBins            int        `json:"nbins" env:"CALIB_NBINS"`
	XMin             float64    `json:"xmin" env:"CALIB_XMIN"`
	XMax             float64    `json:"xmax" env:"CALIB_XMAX"`
	PeakSearchMin    float64    `json:"peak_search_min" env:"CALIB_PEAK_SEARCH_MIN"`
	PeakSearchMax    float64    `json:"peak_search_max" env:"CALIB_PEAK_SEARCH_MAX"`
	WindowFraction   float64    `json:"window_fraction" env:"CALIB_WINDOW_FRACTION"`
	SigmaMax         float64    `json:"sigma_max" env:"CALIB_SIGMA_MAX"`
	MaxRelError      float64    `json:"max_rel_error" env:"CALIB_MAX_REL_ERROR"`
	FileOut          string     `json:"file_out" env:"CALIB_FILE_OUT"`
	FileOutH5        string     `json:"file_out_h5" env:"CALIB_FILE_OUT_H5"`
	CompressionLevel int        `json:"compression_level" env:"CALIB_COMPRESSION_LEVEL"`
	PlotFile         string     `json:"plot_file" env:"CALIB_PLOT_FILE"`
	UseDB            bool       `json:"use_db" env:"CALIB_USE_DB"`
	DBDriver         string     `json:"db_driver" env:"CALIB_DB_DRIVER"`
	Host             string     `json:"host" env:"CALIB_DB_HOST"`
	User             string     `json:"user" env:"CALIB_DB_USER"`
	Passwd           string     `json:"pass" env:"CALIB_DB_PASS"`
	DBName           string     `json:"dbname" env:"CALIB_DB_NAME"`
	Period           string     `json:"period" env:"CALIB_PERIOD"`
}

// DefaultConfiguration returns the settings of the DPGA energy calibration:
// 200 bins over the 12-bit ADC range, a +-20% fit window around the most
// populated bin and the sigma/error quality gate.
func DefaultConfiguration() Configuration {
	return Configuration{
		Verbosity:        0,
		TreeName:         "tree",
		Observable:       Amplitude,
		NBins:            200,
		XMin:             0,
		XMax:             4095,
		PeakSearchMin:    0,
		PeakSearchMax:    4095,
		WindowFraction:   0.20,
		SigmaMax:         500,
		MaxRelError:      0.20,
		FileOut:          "energy.csv",
		CompressionLevel: 4,
		UseDB:            false,
		DBDriver:         "mysql",
		Host:             "localhost",
		User:             "dpgareader",
		DBName:           "DPGA",
	}
}

func (c Configuration) Validate() error {
	var errs []error
	if c.TreeName == "" {
		errs = append(errs, errors.New("tree name is empty"))
	}
	switch c.Observable {
	case Amplitude, Charge:
	default:
		errs = append(errs, fmt.Errorf("unknown observable %q", c.Observable))
	}
	if c.NBins <= 0 {
		errs = append(errs, fmt.Errorf("nbins must be positive, got %d", c.NBins))
	}
	if c.XMax <= c.XMin {
		errs = append(errs, fmt.Errorf("invalid histogram range [%v, %v]", c.XMin, c.XMax))
	}
	if c.PeakSearchMax <= c.PeakSearchMin {
		errs = append(errs, fmt.Errorf("invalid peak search range [%v, %v]", c.PeakSearchMin, c.PeakSearchMax))
	}
	if c.WindowFraction <= 0 || c.WindowFraction >= 1 {
		errs = append(errs, fmt.Errorf("window fraction must be in (0, 1), got %v", c.WindowFraction))
	}
	if c.SigmaMax <= 0 {
		errs = append(errs, fmt.Errorf("sigma max must be positive, got %v", c.SigmaMax))
	}
	if c.MaxRelError <= 0 {
		errs = append(errs, fmt.Errorf("max relative error must be positive, got %v", c.MaxRelError))
	}
	if c.FileOut == "" {
		errs = append(errs, errors.New("output file is empty"))
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		errs = append(errs, fmt.Errorf("compression level must be in [0, 9], got %d", c.CompressionLevel))
	}
	if c.UseDB && c.DBDriver != "mysql" && c.DBDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.DBDriver))
	}
	return errors.Join(errs...)
}

// LoadConfiguration starts from the defaults, applies the JSON file when
// filename is not empty and then the CALIB_* environment variables.
func LoadConfiguration(filename string) (Configuration, error) {
	config := DefaultConfiguration()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return config, err
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("error parsing %s: %w", filename, err)
		}
	}
	if err := env.Parse(&config); err != nil {
		return config, fmt.Errorf("error parsing environment: %w", err)
	}
	return config, nil
}

func PrintConfiguration(config Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Tree name: %s", config.TreeName), "config")
	logger.Info(fmt.Sprintf("Observable: %s", config.Observable), "config")
	logger.Info(fmt.Sprintf("Binning: %d bins in [%g, %g]", config.NBins, config.XMin, config.XMax), "config")
	logger.Info(fmt.Sprintf("Peak search range: [%g, %g]", config.PeakSearchMin, config.PeakSearchMax), "config")
	logger.Info(fmt.Sprintf("Fit window fraction: %g", config.WindowFraction), "config")
	logger.Info(fmt.Sprintf("Sigma max: %g", config.SigmaMax), "config")
	logger.Info(fmt.Sprintf("Max relative error: %g", config.MaxRelError), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("File out HDF5: %s", config.FileOutH5), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Plot file: %s", config.PlotFile), "config")
	logger.Info(fmt.Sprintf("Use DB: %t", config.UseDB), "config")
	logger.Info(fmt.Sprintf("DB driver: %s", config.DBDriver), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Period: %s", config.Period), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}
