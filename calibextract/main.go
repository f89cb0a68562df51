package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/next-exp/calib_go/logging"
	calib "github.com/next-exp/calib_go/pkg"
)

func main() {
	os.Exit(run(os.Args[1:], logging.NewLogger()))
}

func run(args []string, logger logging.Logger) int {
	fs := flag.NewFlagSet("calibextract", flag.ContinueOnError)
	configFilename := fs.String("config", "", "Configuration file path")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: calibextract [-config file.json] file1.root [file2.root ...]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	files := fs.Args()
	if len(files) == 0 {
		fs.Usage()
		return 1
	}

	configuration, err := calib.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return 1
	}
	calib.SetLogger(logger)

	if configuration.Verbosity > 0 {
		if *configFilename != "" {
			logger.Info(fmt.Sprintf("Reading configuration file: %s", *configFilename), "main")
		}
		calib.PrintConfiguration(configuration, logger)
	}

	res, err := calib.Run(configuration, files)
	if err != nil {
		message := fmt.Errorf("Error extracting energy calibration: %w", err)
		logger.Error(message.Error())
		return 1
	}
	if len(res.Unresolved) > 0 {
		logger.Warn(fmt.Sprintf("Unresolved channels: %v", res.Unresolved), "main")
	}
	return 0
}
