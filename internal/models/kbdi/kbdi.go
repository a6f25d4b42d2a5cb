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

// Package kbdi implements the Keetch-Byram Drought Index, ported from
// original_source/src/lib/modules/kbdi/{models,functions,constants}.rs.
package kbdi

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

// Ported from original_source/kbdi/constants.rs.
const (
	kbdiInit       = 0.0
	kbdiRainRunoff = 5.0 // mm, from Finkele et al. 2006
	timeWindowDays = 20
)

// ModelVersion selects the formula variant. original_source's
// KBDIModelConfig only ever resolves to one function regardless of the
// model_version string, so this is a one-member enum rather than a
// reproduced dead branch, per spec.md §9.
type ModelVersion int

const (
	Legacy ModelVersion = iota
)

type Config struct {
	Version ModelVersion
}

// rainSample is one daily rain total, kept in a rolling window, ported
// from KBDIStateElement's dates/daily_rain parallel Vecs.
type rainSample struct {
	Time time.Time
	Rain float32
}

// StateElement is KBDI's per-cell state.
type StateElement struct {
	KBDI       float32
	RainWindow []rainSample
	CumRain    float32 // today's accumulating rain
	MaxTemp    float32 // today's running daily maximum temperature
}

func DefaultStateElement() StateElement {
	return StateElement{KBDI: kbdiInit, MaxTemp: engine.NoData}
}

// State is the whole-grid KBDI state machine, satisfying engine.Model.
type State struct {
	Time     time.Time
	Data     []StateElement
	Props    []engine.Properties // Properties.MeanRain is the mean annual rainfall
	Cfg      Config
	base     string
}

func NewState(warm []StateElement, warmTime time.Time, props []engine.Properties, cfg Config, warmStatePath string) *State {
	return &State{Time: warmTime, Data: warm, Props: props, Cfg: cfg, base: warmStatePath}
}

func (s *State) WarmStateBase() string { return s.base }

func (s *State) Cadence() engine.ModelCadence { return engine.Daily }

func (s *State) Update(input engine.InputFrame) {}

func (s *State) ShouldWriteOutput(t, runDate time.Time) bool {
	return t.Hour() == 12
}

func (s *State) ShouldCheckpoint(t time.Time) (bool, time.Time) {
	if t.Hour() == 12 {
		return true, t
	}
	return false, time.Time{}
}

func (s *State) SaveWarmState(w engine.WarmStateWriter) error {
	for _, st := range s.Data {
		if err := w.WriteLine(st.KBDI); err != nil {
			return err
		}
	}
	return nil
}

// Store implements original_source's store_day_fn: accumulate rain and
// track the daily running maximum temperature.
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
				if !engine.IsNoData(in.Rain) {
					st.CumRain += in.Rain
				}
				if engine.IsNoData(st.MaxTemp) || (!engine.IsNoData(in.Temperature) && in.Temperature > st.MaxTemp) {
					st.MaxTemp = in.Temperature
				}
			}
		}(p)
	}
	wg.Wait()
	s.Time = input.Time
}

// kbdiUpdateMM implements original_source's kbdi_update_mm: the
// Keetch-Byram water-balance update in millimeters of soil moisture
// deficit, 0 (wet) to 200 (dry).
func kbdiUpdateMM(kbdi, temp float32, historyRain []float32, meanAnnualRain float32) float32 {
	if len(historyRain) == 0 {
		return kbdi
	}
	dayRain := historyRain[len(historyRain)-1]
	var lastRain float32
	idx := len(historyRain) - 2
	for idx > 0 && historyRain[idx] > 0 {
		lastRain += historyRain[idx]
		idx--
	}
	effectiveRain := float32(math.Max(0, float64(dayRain-float32(math.Max(0, float64(kbdiRainRunoff-lastRain))))))
	const dt = 1.0
	evapoTransp := (((203.2 - kbdi) * (0.968*float32(math.Exp(0.0875*float64(temp)+1.5552)) - 8.3) * dt) /
		(1 + 10.88*float32(math.Exp(-0.001736*float64(meanAnnualRain))))) * 10e-3
	return kbdi - effectiveRain + evapoTransp
}

func timeWindow(st StateElement, now time.Time) []float32 {
	cutoff := now.AddDate(0, 0, -timeWindowDays)
	var out []float32
	for _, s := range st.RainWindow {
		if s.Time.After(cutoff) {
			out = append(out, s.Rain)
		}
	}
	return out
}

// Output implements original_source's get_output_fn/kbdi_update_mm
// composition: append today's cum_rain to the rolling window, update
// KBDI from the 20-day history, then reset the daily accumulators.
func (s *State) Output(input engine.InputFrame) engine.OutputFrame {
	out := make([]engine.Output, len(s.Data))
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				out[i] = outputCell(&s.Data[i], s.Props[i], s.Time)
			}
		}(p)
	}
	wg.Wait()

	for i := range s.Data {
		s.Data[i].CumRain = 0
		s.Data[i].MaxTemp = engine.NoData
	}
	return engine.OutputFrame{Time: s.Time, Values: out}
}

func outputCell(st *StateElement, props engine.Properties, t time.Time) engine.Output {
	o := engine.NewOutput()
	st.RainWindow = append(st.RainWindow, rainSample{Time: t, Rain: st.CumRain})
	cutoff := t.AddDate(0, 0, -timeWindowDays)
	trimmed := st.RainWindow[:0]
	for _, s := range st.RainWindow {
		if s.Time.After(cutoff) {
			trimmed = append(trimmed, s)
		}
	}
	st.RainWindow = trimmed

	history := timeWindow(*st, t)
	st.KBDI = kbdiUpdateMM(st.KBDI, st.MaxTemp, history, props.MeanRain)

	o.KBDI = st.KBDI
	o.Rain = st.CumRain
	o.Temperature = st.MaxTemp
	return o
}
