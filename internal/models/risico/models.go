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

package risico

import (
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

// Config holds the model-version tag and feature toggles resolved at
// config time, ported from original_source's RISICOModelConfig — as an
// enum+branch rather than stored function pointers, per spec.md §9.
type Config struct {
	Version           ModelVersion
	UseTemperature    bool
	UseNDVI           bool
	WarmStatePath     string
}

// StateElement is the per-cell RISICO state of spec.md §3: dffm, snow
// cover + timestamp, MSI + TTL, NDVI + timestamp, NDWI + timestamp.
type StateElement struct {
	Dffm float32

	SnowCover     float32
	SnowCoverTime float32 // seconds since epoch of last valid observation

	MSI    float32
	MSITTL int

	NDVI     float32
	NDVITime float32

	NDWI     float32
	NDWITime float32

	lastUpdate time.Time
}

// DefaultStateElement matches original_source's WarmState::default (dffm=40).
func DefaultStateElement() StateElement {
	return StateElement{
		Dffm: 40, SnowCover: 0, SnowCoverTime: 0,
		MSI: 0, MSITTL: 0, NDVI: 0, NDVITime: 0, NDWI: 0, NDWITime: 0,
	}
}

// State is the whole-grid RISICO state machine, satisfying engine.Model.
type State struct {
	Time  time.Time
	Data  []StateElement
	Props []engine.Properties
	Cfg   Config
	base  string
}

// NewState builds a State from loaded warm state, per spec.md §4.7.
func NewState(warm []StateElement, warmTime time.Time, props []engine.Properties, cfg Config) *State {
	return &State{Time: warmTime, Data: warm, Props: props, Cfg: cfg, base: cfg.WarmStatePath}
}

func (s *State) WarmStateBase() string { return s.base }

func (s *State) Cadence() engine.ModelCadence { return engine.Hourly }

// Store is a no-op for RISICO: it is an hourly model (spec.md §4.4.1).
func (s *State) Store(input engine.InputFrame) {}

// ShouldWriteOutput gates on output_time_resolution hours since run
// date, including t = run_date + 0h (spec.md §9's resolved Open
// Question).
func (s *State) ShouldWriteOutput(t, runDate time.Time) bool {
	return shouldWriteOutput(t, runDate, 3)
}

// ShouldCheckpoint for RISICO triggers at local-midnight day boundaries;
// RISICO is otherwise hourly so its warm state checkpoint cadence is
// once per day at the step whose hour equals 0.
func (s *State) ShouldCheckpoint(t time.Time) (bool, time.Time) {
	if t.Hour() == 0 {
		return true, t
	}
	return false, time.Time{}
}

func (s *State) SaveWarmState(w engine.WarmStateWriter) error {
	for _, st := range s.Data {
		if err := w.WriteLine(st.Dffm, st.SnowCover, st.SnowCoverTime, st.MSI, float32(st.MSITTL), st.NDVI, st.NDVITime, st.NDWI, st.NDWITime); err != nil {
			return err
		}
	}
	return nil
}

func shouldWriteOutput(t, runDate time.Time, resolutionHours int) bool {
	hours := int(t.Sub(runDate).Hours())
	if resolutionHours <= 0 {
		resolutionHours = 3
	}
	return hours%resolutionHours == 0
}
