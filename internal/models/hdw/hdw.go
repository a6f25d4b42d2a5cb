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

// Package hdw implements the Hot-Dry-Windy index, ported from
// original_source/src/lib/modules/hdw/{models,functions}.rs.
package hdw

import (
	"runtime"
	"sync"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

type StateElement struct {
	VPD       float32 // hPa
	WindSpeed float32 // m/h, engine.Input's convention
}

func DefaultStateElement() StateElement {
	return StateElement{VPD: engine.NoData, WindSpeed: engine.NoData}
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
		if err := w.WriteLine(st.VPD, st.WindSpeed); err != nil {
			return err
		}
	}
	return nil
}

// Store implements original_source's store: an unconditional snapshot
// overwrite, matching Angstrom/Fosberg/Sharples's direct-copy semantics.
func (s *State) Store(input engine.InputFrame) {
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				s.Data[i].VPD = input.Values[i].VPD
				s.Data[i].WindSpeed = input.Values[i].WindSpeed
			}
		}(p)
	}
	wg.Wait()
	s.Time = input.Time
}

// hdw implements original_source's hdw: wind speed (m/s) times VPD.
func hdw(vpdHPa, windSpeedMH float32) float32 {
	ws := windSpeedMH / 3600.0
	return ws * vpdHPa
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
				if !engine.IsNoData(st.VPD) && !engine.IsNoData(st.WindSpeed) {
					o.HDW = hdw(st.VPD, st.WindSpeed)
					o.VPD = st.VPD
					o.WindSpeed = st.WindSpeed / 3600.0 // m/h -> m/s on output
				}
				out[i] = o
			}
		}(p)
	}
	wg.Wait()
	return engine.OutputFrame{Time: s.Time, Values: out}
}
