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

// Package portuguese implements the Portuguese fire danger index, ported
// from original_source/src/lib/modules/portuguese/{models,functions}.rs.
package portuguese

import (
	"runtime"
	"sync"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

// timeWeatherHour is inferred from a comment in the filtered
// functions.rs ("Store the daily info at 12:00 local time") since this
// model has no constants.rs file in original_source at all.
const timeWeatherHour = 12

type StateElement struct {
	Ign      float32
	SumIgn   float32
	CumIndex float32
	FireIndex float32

	Temp12    float32
	TempDew12 float32
	CumRain   float32
}

func DefaultStateElement() StateElement {
	return StateElement{Temp12: engine.NoData, TempDew12: engine.NoData, FireIndex: engine.NoData, Ign: engine.NoData}
}

type State struct {
	Time  time.Time
	Data  []StateElement
	Props []engine.Properties // Properties.TZName
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
		if err := w.WriteLine(st.SumIgn, st.CumIndex); err != nil {
			return err
		}
	}
	return nil
}

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
// sample temperature/dew-point once at the cell's local 12:00.
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
					st.Temp12 = in.Temperature
					st.TempDew12 = in.TempDew
				}
			}
		}(p)
	}
	wg.Wait()
	s.Time = input.Time
}

// ignitionIndex implements original_source's ignition_index.
func ignitionIndex(temp12, tempDew12 float32) float32 {
	return temp12 * (temp12 - tempDew12)
}

// rainCoefficient implements original_source's cumulative-rain lookup
// used to discount the running ignition sum after rain.
func rainCoefficient(cumRain float32) float32 {
	switch {
	case cumRain <= 1.0:
		return 1.0
	case cumRain <= 2.0:
		return 0.8
	case cumRain <= 3.0:
		return 0.6
	case cumRain <= 4.0:
		return 0.4
	case cumRain <= 10.0:
		return 0.2
	default:
		return 0.1
	}
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
				out[i] = outputCell(&s.Data[i])
			}
		}(p)
	}
	wg.Wait()

	for i := range s.Data {
		s.Data[i].Temp12 = engine.NoData
		s.Data[i].TempDew12 = engine.NoData
		s.Data[i].CumRain = 0
	}
	return engine.OutputFrame{Time: s.Time, Values: out}
}

func outputCell(st *StateElement) engine.Output {
	o := engine.NewOutput()
	if engine.IsNoData(st.Temp12) || engine.IsNoData(st.TempDew12) {
		return o
	}

	ign := ignitionIndex(st.Temp12, st.TempDew12)
	st.Ign = ign
	st.SumIgn += ign
	st.FireIndex = st.Ign + st.CumIndex
	st.CumIndex = rainCoefficient(st.CumRain) * st.SumIgn

	o.PortugueseIgn = st.Ign
	o.PortugueseFDI = st.FireIndex
	o.Temperature = st.Temp12
	o.TempDewPoint = st.TempDew12
	o.Rain = st.CumRain
	return o
}
