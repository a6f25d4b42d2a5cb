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

// Package fosberg implements the Fosberg Fire Weather Index, ported
// from original_source/src/lib/modules/fosberg/{models,functions}.rs.
package fosberg

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

type StateElement struct {
	Temp      float32
	Humidity  float32
	WindSpeed float32 // m/h, engine.Input's convention
}

func DefaultStateElement() StateElement {
	return StateElement{Temp: engine.NoData, Humidity: engine.NoData, WindSpeed: engine.NoData}
}

type State struct {
	Time time.Time
	Data []StateElement
	base string
}

func NewState(warm []StateElement, warmTime time.Time, warmStatePath string) *State {
	return &State{Time: warmTime, Data: warm, base: warmStatePath}
}

func (s *State) WarmStateBase() string          { return s.base }
func (s *State) Cadence() engine.ModelCadence   { return engine.Daily }
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
		if err := w.WriteLine(st.Temp, st.Humidity, st.WindSpeed); err != nil {
			return err
		}
	}
	return nil
}

// Store implements original_source's store: an unconditional snapshot
// overwrite, matching Angstrom's direct-copy semantics.
func (s *State) Store(input engine.InputFrame) {
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				s.Data[i].Temp = input.Values[i].Temperature
				s.Data[i].Humidity = input.Values[i].Humidity
				s.Data[i].WindSpeed = input.Values[i].WindSpeed
			}
		}(p)
	}
	wg.Wait()
	s.Time = input.Time
}

// emc implements original_source's emc: the Simard fine-fuel moisture
// content formulation, branched on relative humidity.
func emc(temperature, humidity float32) float32 {
	tempF := temperature*9/5 + 32
	switch {
	case humidity < 10.0:
		return 0.03229 + 0.281073*humidity - 0.000578*tempF*humidity
	case humidity < 50.0:
		return 2.22749 + 0.160107*humidity - 0.01478*tempF
	default:
		return 21.0606 + 0.005565*humidity*humidity - 0.00035*tempF*humidity - 0.483199*humidity
	}
}

// ffwi implements original_source's ffwi: the Fosberg Fire Weather
// Index, clamped to [0, 100].
func ffwi(temperature, humidity, windSpeedMH float32) float32 {
	wsMph := windSpeedMH / 1609.344
	e := emc(temperature, humidity)
	emcEff := 1 - 2*(e/30) + 1.5*float32(math.Pow(float64(e/30), 2)) - 0.5*float32(math.Pow(float64(e/30), 3))
	f := emcEff * float32(math.Sqrt(1+float64(wsMph*wsMph))) / 0.3002
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}

// Output implements original_source's get_output_fn.
func (s *State) Output(input engine.InputFrame) engine.OutputFrame {
	out := make([]engine.Output, len(s.Data))
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				st := s.Data[i]
				o := engine.NewOutput()
				if !engine.IsNoData(st.Temp) && !engine.IsNoData(st.Humidity) && !engine.IsNoData(st.WindSpeed) {
					o.FFWI = ffwi(st.Temp, st.Humidity, st.WindSpeed)
					o.Temperature = st.Temp
					o.Humidity = st.Humidity
					o.WindSpeed = st.WindSpeed / 3600.0 // m/h -> m/s on output
				}
				out[i] = o
			}
		}(p)
	}
	wg.Wait()
	return engine.OutputFrame{Time: s.Time, Values: out}
}
