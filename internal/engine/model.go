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

import "time"

// ModelCadence distinguishes hourly-advance models (RISICO) from
// daily-advance models (FWI, Mark-5, KBDI, Nesterov, Orieux, Portuguese,
// Angstrom, Fosberg, Sharples, HDW), selecting whether the driver calls
// Update or Store at each input timestep, per spec.md §4.7's pseudocode.
type ModelCadence int

const (
	Hourly ModelCadence = iota
	Daily
)

// Model is the outer contract every per-model state machine satisfies.
// The nine fire-danger models are a closed family, matched once at
// config time to choose which package builds the Model for a run; the
// per-cell hot loop inside each implementation operates over concrete
// slices with no further virtual dispatch (see DESIGN.md's note on the
// "plug-in family of models" design guidance).
type Model interface {
	// Cadence reports whether the driver should call Update or Store
	// at each input timestep for this model.
	Cadence() ModelCadence

	// Update advances state given one input frame. Side-effect only.
	// Hourly-cadence models implement their substantive work here.
	Update(input InputFrame)

	// Store accumulates daily aggregates without producing output.
	// Daily-cadence models implement their substantive work here;
	// hourly models no-op.
	Store(input InputFrame)

	// Output produces one OutputFrame from current state, optionally
	// consulting the just-supplied input for input-echo fields.
	Output(input InputFrame) OutputFrame

	// ShouldWriteOutput reports whether an output should be written at
	// t, given the run's start date.
	ShouldWriteOutput(t, runDate time.Time) bool

	// ShouldCheckpoint reports whether warm state should be persisted
	// at t, and the checkpoint timestamp to persist it under.
	ShouldCheckpoint(t time.Time) (bool, time.Time)

	// SaveWarmState persists current state through w.
	SaveWarmState(w WarmStateWriter) error
}

// WarmStateWriter is the narrow capability C3 needs from a destination:
// one line of warm state per cell, in the model's own field order.
type WarmStateWriter interface {
	WriteLine(fields ...float32) error
}
