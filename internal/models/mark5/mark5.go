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

// Package mark5 implements the McArthur Mark 5 Forest Fire Danger
// Index (FFDI) with its embedded Keetch-Byram drought factor, ported
// from original_source/src/lib/modules/mark5/{models,functions,constants}.rs.
package mark5

import (
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

// Ported from original_source/mark5/constants.rs.
const (
	smdInit        = 100.0
	kbdiRainRunoff = 5.0
	timeWindowDays = 20
	rainTh         = 2.0
	timeWeatherHour = 15
)

// ModelVersion selects how daily weather is sampled into the state:
// Legacy and DayExtremes both resolve to the same drought-factor/FFDI
// pipeline in original_source/mark5/config.rs, differing only in
// store_day_fn (store_day_local_time vs. store_day_extremes).
type ModelVersion int

const (
	Legacy ModelVersion = iota
	DayExtremes
)

func ParseModelVersion(s string) ModelVersion {
	if s == "legacy" {
		return Legacy
	}
	return DayExtremes
}

type Config struct {
	Version ModelVersion
}

type rainSample struct {
	Time time.Time
	Rain float32
}

// StateElement is Mark-5's per-cell state: the 20-day rolling daily
// rain history, the running soil-moisture-deficit (KBDI-like) value,
// and today's accumulating/sampled weather.
type StateElement struct {
	RainWindow []rainSample
	Smd        float32

	CumRain     float32
	Temperature float32
	Humidity    float32
	WindSpeed   float32

	weatherSampled bool // Legacy: has today's 15:00-local sample been taken yet
}

func DefaultStateElement() StateElement {
	return StateElement{Smd: smdInit, Temperature: engine.NoData, Humidity: engine.NoData, WindSpeed: engine.NoData}
}

type State struct {
	Time  time.Time
	Data  []StateElement
	Props []engine.Properties // Properties.MeanRain, Properties.TZName
	Cfg   Config
	base  string
}

func NewState(warm []StateElement, warmTime time.Time, props []engine.Properties, cfg Config, warmStatePath string) *State {
	return &State{Time: warmTime, Data: warm, Props: props, Cfg: cfg, base: warmStatePath}
}

func (s *State) WarmStateBase() string        { return s.base }
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
		if err := w.WriteLine(st.Smd); err != nil {
			return err
		}
	}
	return nil
}

// Store implements original_source's store_day_fn: accumulate the
// day's rain, and sample temperature/humidity/wind either as running
// extremes (store_day_extremes) or at the 15:00 local-time step
// (store_day_local_time — not present in the filtered functions.rs;
// approximated here from constants.rs's TIME_WEATHER=15, see DESIGN.md).
func (s *State) Store(input engine.InputFrame) {
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				t := input.Time
				if tz := s.Props[i].TZName; tz != "" {
					if loc, err := time.LoadLocation(tz); err == nil {
						t = t.In(loc)
					}
				}
				storeCell(&s.Data[i], input.Values[i], t, s.Cfg.Version)
			}
		}(p)
	}
	wg.Wait()
	s.Time = input.Time
}

func storeCell(st *StateElement, in engine.Input, t time.Time, version ModelVersion) {
	if !engine.IsNoData(in.Rain) {
		st.CumRain += in.Rain
	}

	switch version {
	case Legacy:
		if t.Hour() == timeWeatherHour && !st.weatherSampled {
			st.Temperature = in.Temperature
			st.Humidity = in.Humidity
			st.WindSpeed = in.WindSpeed
			st.weatherSampled = true
		}
	default: // DayExtremes
		if engine.IsNoData(st.Temperature) || (!engine.IsNoData(in.Temperature) && in.Temperature > st.Temperature) {
			st.Temperature = in.Temperature
		}
		if engine.IsNoData(st.Humidity) || (!engine.IsNoData(in.Humidity) && in.Humidity < st.Humidity) {
			st.Humidity = in.Humidity
		}
		if engine.IsNoData(st.WindSpeed) || (!engine.IsNoData(in.WindSpeed) && in.WindSpeed > st.WindSpeed) {
			st.WindSpeed = in.WindSpeed
		}
	}
}

// kbdiUpdate implements original_source's kbdi_update water-balance
// step, shared in shape with internal/models/kbdi's kbdiUpdateMM.
func kbdiUpdate(smd, temp, effectiveRain, meanAnnualRain float32) float32 {
	evapoTransp := (((203.2 - smd) * (0.968*float32(math.Exp(0.0875*float64(temp)+1.5552)) - 8.3) * 1.0) /
		(1 + 10.88*float32(math.Exp(-0.001736*float64(meanAnnualRain))))) * 10e-3
	return smd - effectiveRain + evapoTransp
}

// ffdi implements original_source's ffdi: the McArthur Mark-5 Forest
// Fire Danger Index.
func ffdi(temp, rh, windSpeedMH, droughtFactor float32) float32 {
	windKmh := (windSpeedMH / 1000) * 3.6
	return 2.0 * float32(math.Exp(float64(-0.45+0.987*float32(math.Log(float64(droughtFactor)))-0.0345*rh+0.0338*temp+0.0234*windKmh)))
}

// droughtFactor implements original_source's drought_factor.
func droughtFactor(smd, rainfallEffect float32) float32 {
	df := 10.5 * (1 - float32(math.Exp(float64(-(smd+30)/40)))) *
		((41*rainfallEffect*rainfallEffect + rainfallEffect) / (40*rainfallEffect*rainfallEffect + rainfallEffect + 1))
	if df > 10 {
		return 10
	}
	return df
}

// rainfallEffect implements original_source's rainfall_effect.
func rainfallEffect(smd, rainfallEvent float32, eventAge int) float32 {
	var x float32
	switch {
	case rainfallEvent < rainTh:
		x = 1
	case eventAge == 0:
		x = float32(math.Pow(0.8, 1.3)) / (float32(math.Pow(0.8, 1.3)) + rainfallEvent - rainTh)
	default:
		age13 := float32(math.Pow(float64(eventAge), 1.3))
		x = age13 / (age13 + rainfallEvent - rainTh)
	}
	var xlim float32
	if smd < 20 {
		xlim = 1 / (1 + 0.1135*smd)
	} else {
		xlim = 75 / (270.525 - 1.267*smd)
	}
	if x < xlim {
		return x
	}
	return xlim
}

// rainEvent is a run of consecutive rainy days above rainTh.
type rainEvent struct {
	totalRain float32
	ageDays   int
}

// rainEvents implements original_source's rain_events: groups the
// rolling daily-rain history into consecutive-rainy-day events.
func rainEvents(now time.Time, samples []rainSample) []rainEvent {
	var events []rainEvent
	i := 0
	for i < len(samples) {
		j := i
		var cum, maxRain float32
		maxIdx := j
		for j < len(samples) && samples[j].Rain > rainTh {
			cum += samples[j].Rain
			if samples[j].Rain > maxRain {
				maxRain = samples[j].Rain
				maxIdx = j
			}
			j++
		}
		if cum > 0 {
			age := int(now.Sub(samples[maxIdx].Time).Hours() / 24)
			events = append(events, rainEvent{totalRain: cum, ageDays: age})
		}
		if j == i {
			i++
		} else {
			i = j
		}
	}
	return events
}

func windowedHistory(st *StateElement, now time.Time) []rainSample {
	cutoff := now.AddDate(0, 0, -timeWindowDays)
	var out []rainSample
	for _, s := range st.RainWindow {
		if s.Time.After(cutoff) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Output implements original_source's get_output_fn/kbdi_update
// composition: append today's rain to the history, recompute the
// drought factor from consecutive-rain events, update SMD, compute
// FFDI, then reset daily accumulators.
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
		s.Data[i].Temperature = engine.NoData
		s.Data[i].Humidity = engine.NoData
		s.Data[i].WindSpeed = engine.NoData
		s.Data[i].weatherSampled = false
	}
	return engine.OutputFrame{Time: s.Time, Values: out}
}

func outputCell(st *StateElement, props engine.Properties, t time.Time) engine.Output {
	o := engine.NewOutput()

	// kbdi_update: today's effective rain is offset against the trailing
	// consecutive rainy days already in history, BEFORE today is pushed.
	priorHistory := windowedHistory(st, t)
	var lastRain float32
	idx := len(priorHistory) - 1
	for idx >= 0 && priorHistory[idx].Rain > 0 {
		lastRain += priorHistory[idx].Rain
		idx--
	}
	effectiveRain := float32(math.Max(0, float64(st.CumRain-float32(math.Max(0, float64(kbdiRainRunoff-lastRain))))))
	st.Smd = kbdiUpdate(st.Smd, st.Temperature, effectiveRain, props.MeanRain)

	// state.update: push today into the rolling window now that smd has
	// been updated from the pre-today history, per kbdi_update's ordering.
	st.RainWindow = append(st.RainWindow, rainSample{Time: t, Rain: st.CumRain})
	history := windowedHistory(st, t)
	st.RainWindow = history

	events := rainEvents(t, history)
	minEffect := float32(1)
	if len(events) > 0 {
		minEffect = rainfallEffect(st.Smd, events[0].totalRain, events[0].ageDays)
		for _, e := range events[1:] {
			eff := rainfallEffect(st.Smd, e.totalRain, e.ageDays)
			if eff < minEffect {
				minEffect = eff
			}
		}
	}
	df := droughtFactor(st.Smd, minEffect)
	fdi := ffdi(st.Temperature, st.Humidity, st.WindSpeed, df)

	o.KBDI = st.Smd
	o.DF = df
	o.FFDI = fdi
	o.Temperature = st.Temperature
	o.Rain = st.CumRain
	o.WindSpeed = st.WindSpeed
	o.Humidity = st.Humidity
	return o
}
