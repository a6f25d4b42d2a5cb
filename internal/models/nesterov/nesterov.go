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

// Package nesterov implements the Nesterov ignition index, ported from
// original_source/src/lib/modules/nesterov/{models,functions,constants}.rs.
package nesterov

import (
	"runtime"
	"sync"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

// Ported from original_source/nesterov/constants.rs.
const (
	nesterovInit    = 0.0
	timeWeatherHour = 15 // local time
	rainTh          = 3.0
)

type StateElement struct {
	Nesterov  float32
	Temp15    float32
	TempDew15 float32
	CumRain   float32
}

func DefaultStateElement() StateElement {
	return StateElement{Nesterov: nesterovInit, Temp15: engine.NoData, TempDew15: engine.NoData}
}

type State struct {
	Time  time.Time
	Data  []StateElement
	Props []engine.Properties // Properties.TZName, resolved once at init
	base  string
}

func NewState(warm []StateElement, warmTime time.Time, props []engine.Properties, warmStatePath string) *State {
	return &State{Time: warmTime, Data: warm, Props: props, base: warmStatePath}
}

func (s *State) WarmStateBase() string        { return s.base }
func (s *State) Cadence() engine.ModelCadence { return engine.Daily }
func (s *State) Update(input engine.InputFrame) {}

func (s *State) ShouldWriteOutput(t, runDate time.Time) bool { return t.Hour() == 12 }

func (s *State) ShouldCheckpoint(t time.Time) (bool, time.Time) {
	if t.Hour() == 12 {
		return true, t
	}
	return false, time.Time{}
}

func (s *State) SaveWarmState(w engine.WarmStateWriter) error {
	for _, st := range s.Data {
		if err := w.WriteLine(st.Nesterov); err != nil {
			return err
		}
	}
	return nil
}

// localHour resolves t into props.TZName (cached per-cell at init, per
// internal/engine.Properties's doc comment) and returns its local hour,
// falling back to UTC if the zone name is unset or unrecognized.
func localHour(t time.Time, tzName string) int {
	if tzName == "" {
		return t.UTC().Hour()
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return t.UTC().Hour()
	}
	return t.In(loc).Hour()
}

// Store implements original_source's store_day_fn: cumulate rain, and
// sample temperature/dew-point once at the cell's local 15:00.
func (s *State) Store(input engine.InputFrame) {
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				st := &s.Data[i]
				in := input.Values[i]
				if !engine.IsNoData(in.Rain) && in.Rain > 0 {
					st.CumRain += in.Rain
				}
				if localHour(input.Time, s.Props[i].TZName) == timeWeatherHour {
					st.Temp15 = in.Temperature
					st.TempDew15 = in.TempDew
				}
			}
		}(p)
	}
	wg.Wait()
	s.Time = input.Time
}

// nesterovUpdate implements original_source's nesterov_update: the
// index resets to 0 after a rain event above rainTh, otherwise
// accumulates temperature*(temperature-dewpoint), floored at 0.
func nesterovUpdate(nesterov, temp15, tempDew15, dailyRain float32) float32 {
	if dailyRain > rainTh {
		return 0
	}
	next := nesterov + temp15*(temp15-tempDew15)
	if next < 0 {
		return 0
	}
	return next
}

// Output implements original_source's update_fn/get_output_fn, then
// resets the daily accumulators.
func (s *State) Output(input engine.InputFrame) engine.OutputFrame {
	out := make([]engine.Output, len(s.Data))
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				st := &s.Data[i]
				o := engine.NewOutput()
				if !engine.IsNoData(st.Temp15) && !engine.IsNoData(st.TempDew15) {
					st.Nesterov = nesterovUpdate(st.Nesterov, st.Temp15, st.TempDew15, st.CumRain)
					o.Nesterov = st.Nesterov
					o.Temperature = st.Temp15
					o.TempDewPoint = st.TempDew15
					o.Rain = st.CumRain
				}
				out[i] = o
			}
		}(p)
	}
	wg.Wait()

	for i := range s.Data {
		s.Data[i].Temp15 = engine.NoData
		s.Data[i].TempDew15 = engine.NoData
		s.Data[i].CumRain = 0
	}
	return engine.OutputFrame{Time: s.Time, Values: out}
}
