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

package engine

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Timeline supplies the ascending sequence of timestamps the driver
// advances over, and the fused input at each one. Real timelines (NetCDF
// time dimension, legacy binary directory scan) are out of the core's
// scope per spec.md §1; callers adapt them to this shape.
type Timeline interface {
	Times() []time.Time
	InputAt(t time.Time) InputFrame
}

// Driver is the C7 simulation driver: it advances one model over a
// Timeline, gating output writes on cadence and triggering warm-state
// checkpoints, per spec.md §4.7. One Driver instance runs one model; a
// failed model does not abort other models, matching spec.md §5's
// "a failed model does not abort other models" (the CLI builds and runs a
// single model per invocation).
type Driver struct {
	RunDate     time.Time
	OutputTypes []OutputType
	Lats, Lons  []float32
	Log         *logrus.Logger
}

// NewDriver builds a Driver, defaulting Log to logrus's standard logger
// the way the teacher wires sirupsen/logrus throughout inmaputil.
func NewDriver(runDate time.Time, lats, lons []float32, outputTypes []OutputType) *Driver {
	return &Driver{RunDate: runDate, Lats: lats, Lons: lons, OutputTypes: outputTypes, Log: logrus.StandardLogger()}
}

// Run executes the per-model loop of spec.md §4.7.
func (d *Driver) Run(model Model, timeline Timeline) error {
	times := timeline.Times()
	for _, t := range times {
		input := timeline.InputAt(t)

		switch model.Cadence() {
		case Hourly:
			model.Update(input)
		case Daily:
			model.Store(input)
		}

		if model.ShouldWriteOutput(t, d.RunDate) {
			output := model.Output(input)
			if err := d.writeOutput(output, t); err != nil {
				d.Log.WithError(err).Warn("output write failed")
			}
		}

		if shouldCheckpoint, checkpointTime := model.ShouldCheckpoint(t); shouldCheckpoint {
			writer, closeFn, err := d.openCheckpoint(model, checkpointTime)
			if err != nil {
				d.Log.WithError(err).Warn("warm state checkpoint failed")
				continue
			}
			if err := model.SaveWarmState(writer); err != nil {
				d.Log.WithError(err).Warn("warm state write failed")
			}
			if err := closeFn(); err != nil {
				d.Log.WithError(err).Warn("warm state close failed")
			}
		}
	}
	return nil
}

// writeOutput fans the output frame out to every configured output
// type, collecting but not propagating per-variable failures (only a
// summary is logged), per spec.md §6/§7.
func (d *Driver) writeOutput(output OutputFrame, t time.Time) error {
	var aggregated []error
	for _, ot := range d.OutputTypes {
		if err := FanOut(ot, d.Lats, d.Lons, output, t); err != nil {
			aggregated = append(aggregated, err)
		}
	}
	if len(aggregated) == 0 {
		return nil
	}
	return &AggregatedError{Errs: aggregated}
}

func (d *Driver) openCheckpoint(model Model, checkpointTime time.Time) (WarmStateWriter, func() error, error) {
	base, ok := model.(interface{ WarmStateBase() string })
	if !ok {
		return nil, nil, fmt.Errorf("engine.Driver: model does not expose a warm-state base path")
	}
	return CreateWarmStateWriter(base.WarmStateBase(), checkpointTime)
}
