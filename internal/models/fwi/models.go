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

package fwi

import (
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

// ModelVersion selects the formula variant, matching the enum+branch
// pattern used across every model package rather than FWIModelConfig's
// stored function pointers (original_source/fwi/config.rs), per
// spec.md §9.
type ModelVersion int

const (
	Legacy ModelVersion = iota
)

// Config holds FWI's resolved model version.
type Config struct {
	Version ModelVersion
}

// rainSample is one hourly rain observation, kept in a 24h rolling
// window, ported from FWIStateElement's *_history Vec<(DateTime, f32)>
// fields in original_source/fwi/models.rs.
type rainSample struct {
	Time time.Time
	Rain float32
}

// StateElement is FWI's per-cell state: the three running moisture
// codes plus the rolling 24h rain window and the most recently observed
// meteorological inputs, which the original_source's history-filtering
// pattern (FWIStateElement::get_24h/add_value) approximates by storing
// every channel's full history; a fixed rolling window achieves the
// same 24h aggregation with O(1) amortized memory per cell.
type StateElement struct {
	Ffmc, Dmc, Dc float32
	RainWindow    []rainSample
	LastTemp      float32
	LastHumidity  float32
	LastWindSpeed float32
}

// DefaultStateElement matches original_source's FWIWarmState::default,
// seeded at the standard CFFWIS reference values.
func DefaultStateElement() StateElement {
	return StateElement{Ffmc: ffmcInit, Dmc: dmcInit, Dc: dcInit,
		LastTemp: engine.NoData, LastHumidity: engine.NoData, LastWindSpeed: engine.NoData}
}

// State is the whole-grid FWI state machine, satisfying engine.Model.
type State struct {
	Time  time.Time
	Data  []StateElement
	Props []engine.Properties
	Cfg   Config
	base  string
}

// NewState builds a State from loaded warm state.
func NewState(warm []StateElement, warmTime time.Time, props []engine.Properties, cfg Config, warmStatePath string) *State {
	return &State{Time: warmTime, Data: warm, Props: props, Cfg: cfg, base: warmStatePath}
}

func (s *State) WarmStateBase() string { return s.base }

// Cadence is Daily: FWI's codes are daily aggregates over a 24h rain
// window, per spec.md §4.4.2 and original_source's TIME_WINDOW=24h.
func (s *State) Cadence() engine.ModelCadence { return engine.Daily }

// Update is a no-op: FWI has no hourly substep, only Store's daily
// accumulation and Output's once-daily index recompute.
func (s *State) Update(input engine.InputFrame) {}

// ShouldWriteOutput fires once per day, at the model's reference hour.
func (s *State) ShouldWriteOutput(t, runDate time.Time) bool {
	return t.Hour() == 12
}

// ShouldCheckpoint triggers alongside the daily output write.
func (s *State) ShouldCheckpoint(t time.Time) (bool, time.Time) {
	if t.Hour() == 12 {
		return true, t
	}
	return false, time.Time{}
}

func (s *State) SaveWarmState(w engine.WarmStateWriter) error {
	for _, st := range s.Data {
		if err := w.WriteLine(st.Ffmc, st.Dmc, st.Dc, rain24(st, s.Time)); err != nil {
			return err
		}
	}
	return nil
}
