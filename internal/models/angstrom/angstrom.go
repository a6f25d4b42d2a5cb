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

// Package angstrom implements the Angstrom fire danger index, ported
// from original_source/src/lib/modules/angstrom/{models,functions}.rs.
package angstrom

import (
	"runtime"
	"sync"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

// StateElement holds only the most recently stored weather snapshot,
// per original_source's AngstromStateElement: there is no daily
// accumulation at all, unlike Nesterov/Orieux/Portuguese.
type StateElement struct {
	Temp     float32
	Humidity float32
}

func DefaultStateElement() StateElement {
	return StateElement{Temp: engine.NoData, Humidity: engine.NoData}
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
		if err := w.WriteLine(st.Temp, st.Humidity); err != nil {
			return err
		}
	}
	return nil
}

// Store implements original_source's store: directly overwrites the
// snapshot each call, rather than accumulating, matching the Rust
// AngstromState::store's unconditional field copy.
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
			}
		}(p)
	}
	wg.Wait()
	s.Time = input.Time
}

// angstromIndex implements original_source's angstrom_index.
func angstromIndex(temp, humidity float32) float32 {
	return humidity/20.0 + (27.0-temp)/10.0
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
				if !engine.IsNoData(st.Temp) && !engine.IsNoData(st.Humidity) {
					o.Angstrom = angstromIndex(st.Temp, st.Humidity)
					o.Temperature = st.Temp
					o.Humidity = st.Humidity
				}
				out[i] = o
			}
		}(p)
	}
	wg.Wait()
	return engine.OutputFrame{Time: s.Time, Values: out}
}
