/*
Copyright © 2024 the firedanger authors.
This file is part of firedanger.

firedanger is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

firedanger is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with firedanger.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package firecli is the command-line interface, grounded on
// inmaputil/cmd.go's cobra+viper wiring and cmd/inmapweb/main.go's
// logrus setup. One "run" command reads a run date, a config file, and
// an input path, builds and drives the configured model, and returns a
// distinguishable exit code for each failure class per spec.md §6/§7.
package firecli

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cimafoundation/firedanger/internal/config"
	"github.com/cimafoundation/firedanger/internal/engine"
)

// Exit codes, distinguished per spec.md §6's "the run command returns a
// distinguishable exit code per failure class" requirement.
const (
	ExitOK = iota
	ExitBadRunDate
	ExitBadConfig
	ExitBadInput
)

const runDateLayout = "200601021504"

var (
	logLevel string
	logFile  string
	logger   = logrus.StandardLogger()
)

// RootCmd is the firedanger CLI's main command.
var RootCmd = &cobra.Command{
	Use:   "firedanger",
	Short: "Run a fire-danger model over a timeline of fused weather input.",
}

var runCmd = &cobra.Command{
	Use:   "run <run_date> <config_path> <input_path>",
	Short: "Run one fire-danger model simulation.",
	Long: "run parses a run date in the form YYYYmmDDHHMM, loads the model " +
		"configuration and cell/vegetation properties, drives the configured " +
		"model over the fused input at input_path, and writes output and " +
		"warm-state checkpoints per the configuration.",
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModel(args[0], args[1], args[2])
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level: debug, info, warn, error.")
	RootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to write logs to, in addition to stderr.")
	RootCmd.AddCommand(runCmd)
}

// Execute runs the CLI, returning the process exit code to use. Unlike
// cobra's default os.Exit(1) convention, every failure class gets its
// own code per spec.md §6/§7, so the caller exits explicitly rather
// than through cobra's own error path.
func Execute() int {
	if err := RootCmd.Execute(); err != nil {
		return exitCodeOf(err)
	}
	return ExitOK
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCodeOf(err error) int {
	var ee *exitError
	if e, ok := err.(*exitError); ok {
		ee = e
	}
	if ee != nil {
		return ee.code
	}
	return ExitBadConfig
}

func setupLogging() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %v", logLevel, err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening --log-file %q: %v", logFile, err)
		}
		logger.SetOutput(f)
	}
	return nil
}

func runModel(runDateArg, configPath, inputPath string) error {
	if err := setupLogging(); err != nil {
		return &exitError{ExitBadConfig, err}
	}

	runDate, err := time.Parse(runDateLayout, runDateArg)
	if err != nil {
		return &exitError{ExitBadRunDate, fmt.Errorf("parsing run date %q (want YYYYmmDDHHMM): %v", runDateArg, err)}
	}
	logger.WithField("run_date", runDate).Info("starting run")

	cfg, err := config.Load(configPath)
	if err != nil {
		return &exitError{ExitBadConfig, err}
	}

	veg, err := engine.LoadVegetation(cfg.VegetationFile)
	if err != nil {
		return &exitError{ExitBadConfig, err}
	}
	props, err := engine.LoadCells(cfg.CellsFilePath, veg)
	if err != nil {
		return &exitError{ExitBadConfig, err}
	}
	if cfg.PPFFile != "" {
		if err := engine.LoadPPF(cfg.PPFFile, props.Cells); err != nil {
			return &exitError{ExitBadConfig, err}
		}
	}

	lats := make([]float32, len(props.Cells))
	lons := make([]float32, len(props.Cells))
	for i, c := range props.Cells {
		lats[i], lons[i] = c.Lat, c.Lon
	}

	outputTypes, err := buildOutputTypes(cfg, lats, lons)
	if err != nil {
		return &exitError{ExitBadConfig, err}
	}

	warmFile, warmTime, haveWarm := engine.FindWarmState(cfg.WarmStatePath, runDate.AddDate(0, 0, -cfg.WarmStateOffset))
	var scanner *engine.WarmStateLineScanner
	if haveWarm {
		defer warmFile.Close()
		scanner = engine.NewWarmStateLineScanner(warmFile)
	} else {
		warmTime = runDate.AddDate(0, 0, -1)
		logger.Warn("no warm-state file found in the lookback window; starting from default state")
	}

	model, err := buildModel(cfg, props.Cells, warmTime, scanner, haveWarm)
	if err != nil {
		return &exitError{ExitBadConfig, err}
	}

	timeline, err := newInputTimeline(inputPath, cfg, props.Cells)
	if err != nil {
		return &exitError{ExitBadInput, err}
	}

	driver := engine.NewDriver(runDate, lats, lons, outputTypes)
	driver.Log = logger
	if err := driver.Run(model, timeline); err != nil {
		return &exitError{ExitBadInput, err}
	}

	logger.Info("run complete")
	return nil
}
