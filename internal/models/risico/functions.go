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
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

// Update advances every cell's state given one input frame, data-parallel
// over cells per spec.md §5 ("embarrassingly parallel over cells").
func (s *State) Update(input engine.InputFrame) {
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				updateCell(&s.Data[i], s.Props[i], input.Values[i], s.Time, input.Time, s.Cfg)
			}
		}(p)
	}
	wg.Wait()
	s.Time = input.Time
}

func updateCell(st *StateElement, props engine.Properties, in engine.Input, oldTime, newTime time.Time, cfg Config) {
	updateSnowCover(st, in, oldTime)
	updateSatellite(st, in, newTime)
	updateMoisture(st, props, in, oldTime, newTime, cfg)
}

// updateSnowCover implements spec.md §4.4.1 substep 1.
func updateSnowCover(st *StateElement, in engine.Input, now time.Time) {
	if !engine.IsNoData(in.SnowCover) {
		st.SnowCover = in.SnowCover
		st.SnowCoverTime = float32(now.Unix())
		return
	}
	if float32(now.Unix())-st.SnowCoverTime > snowValidityHours*3600 {
		st.SnowCover = engine.NoData
	}
}

// updateSatellite implements spec.md §4.4.1 substep 2. NDVI/NDWI validity
// is tracked as a Unix timestamp of the last valid observation, the same
// way updateSnowCover tracks SnowCoverTime, not a per-call counter: dt
// between successive Update calls ranges 1-72 simulated hours (see
// updateMoisture), so a call-count TTL would invalidate after a fixed
// number of calls instead of after satelliteValidityHours of elapsed
// simulated time, and would also corrupt round-tripping through the
// warm-state file (spec.md §6's NDVI/NDVI_TIME pair).
func updateSatellite(st *StateElement, in engine.Input, now time.Time) {
	if !engine.IsNoData(in.MSI) && in.MSI >= 0 && in.MSI <= 1 {
		st.MSI = in.MSI
		st.MSITTL = msiTTLStart
	} else if st.MSITTL > 0 {
		st.MSITTL--
	} else {
		st.MSI = engine.NoData
	}

	nowSec := float32(now.Unix())
	refreshBand := func(cur, lastValidSec *float32, newVal float32) {
		if !engine.IsNoData(newVal) && newVal >= 0 && newVal <= 1 {
			*cur = newVal
			*lastValidSec = nowSec
			return
		}
		if nowSec-*lastValidSec > satelliteValidityHours*3600 {
			*cur = engine.NoData
		}
	}
	refreshBand(&st.NDVI, &st.NDVITime, in.NDVI)
	refreshBand(&st.NDWI, &st.NDWITime, in.NDWI)
}

// updateMoisture implements spec.md §4.4.1 substep 3, the dffm update.
func updateMoisture(st *StateElement, props engine.Properties, in engine.Input, oldTime, newTime time.Time, cfg Config) {
	veg := props.Vegetation
	if veg == nil || veg.D0 <= 0 {
		st.Dffm = engine.NoData
		return
	}
	dt := float32(newTime.Sub(oldTime).Hours())
	if dt < 1 {
		dt = 1
	} else if dt > 72 {
		dt = 72
	}

	if !engine.IsNoData(st.SnowCover) && st.SnowCover > 1 {
		st.Dffm = veg.Sat
		return
	}
	if engine.IsNoData(in.Temperature) || engine.IsNoData(in.Humidity) {
		return
	}

	if !engine.IsNoData(in.Rain) && in.Rain > maxRain {
		r := in.Rain
		sat := veg.Sat
		st.Dffm += r * r1Legacy * float32(math.Exp(float64(-r2Legacy/((sat+1)-st.Dffm)))) * (1 - float32(math.Exp(float64(-r3Legacy/r))))
		if st.Dffm > sat {
			st.Dffm = sat
		}
		return
	}

	emc, k := equilibriumMoistureAndK(in.Temperature, in.Humidity, in.WindSpeed, veg.T0, cfg.Version)
	g := (emc - st.Dffm) / (100 - st.Dffm)
	decay := float32(math.Exp(float64(-dt / k)))
	dffmNew := (emc - 100*g*decay) / (1 - g*decay)
	if dffmNew < 0 {
		dffmNew = 0
	} else if dffmNew > veg.Sat {
		dffmNew = veg.Sat
	}
	st.Dffm = dffmNew
}

// equilibriumMoistureAndK computes the dry-branch EMC and time constant
// K, ported from original_source's update_dffm_dry[_legacy]. v2023/v2025
// share the legacy EMC/K shape but parameterize relative to "standard"
// T/W/H per functions.rs; the exact legacy coefficients (A1-A7,
// B1-B3, GAMMA*, DELTA*) are ported verbatim from constants.rs, the
// v2023-only B*_D/B*_W/C*_D/C*_W coefficients are the assumed defaults
// noted in constants.go.
func equilibriumMoistureAndK(t, h, windSpeedMH, t0 float32, version ModelVersion) (emc, k float32) {
	windMS := windSpeedMH / 3600
	switch version {
	case Legacy:
		emc = a1Legacy*h + a2Legacy*float32(math.Exp(float64(-h/10))) +
			a3Legacy*float32(math.Exp(float64((h-100)/10))) - a4Legacy*(t-a5Legacy*h)
		k = b1Legacy + b2Legacy*windMS - b3Legacy*(t/t0)
	default: // V2023, V2025 share the standard-relative EMC/K shape
		tRel := t - tStandard
		wRel := windMS - wStandard
		hRel := h - hStandard
		emc = hStandard + c1Dry*hRel - c2Dry*tRel + c3Dry*wRel
		k = b1Dry - b2Dry*(t0/30) + b3Dry*windMS
	}
	if k < 1 {
		k = 1
	}
	return emc, k
}

// ppf returns the seasonal PPF blend of spec.md §4.4.1's output step,
// piecewise-linear between winter (Dec-Mar) and summer (Jun-Sep) with
// ramps in Apr-May and Oct-Nov, matching original_source's get_ppf day-
// of-year boundaries (march31=89, april1=90, may31=150, june1=151,
// september30=272, october1=273, november30=334, december1=335).
func ppf(t time.Time, summer, winter float32) float32 {
	doy := t.YearDay()
	switch {
	case doy <= 89 || doy >= 335:
		return winter
	case doy >= 151 && doy <= 272:
		return summer
	case doy >= 90 && doy <= 150:
		frac := float32(doy-90) / float32(150-90+1)
		return winter + (summer-winter)*frac
	default: // 273..334
		frac := float32(doy-273) / float32(334-273+1)
		return summer + (winter-summer)*frac
	}
}

// moistureEffect computes the dimensionless moisture factor on spread
// rate, per spec.md §4.4.1: legacy exponential or v2023/v2025 5th-order
// polynomial of x=(dffm/100)/Mx clamped to [0,1].
func moistureEffect(dffm float32, mx float32, version ModelVersion) float32 {
	if version == Legacy {
		return float32(math.Exp(-math.Pow(float64(dffm)/20, 2)))
	}
	x := (dffm / 100) / mx
	if x < 0 {
		x = 0
	} else if x > 1 {
		x = 1
	}
	x2 := x * x
	x3 := x2 * x
	x4 := x3 * x
	x5 := x4 * x
	v := m0 + m1*x + m2*x2 + m3*x3 + m4*x4 + m5*x5
	if v < 0 {
		v = 0
	}
	return v
}

// windSlopeEffect sweeps angle theta in [0, 2*pi) and returns the
// maximum combined directional wind+slope factor, per spec.md §4.4.1.
// Legacy mode computes only the aligned (theta=windDir) factor.
func windSlopeEffect(windSpeedMH, windDir, slope, aspect float32, version ModelVersion) float32 {
	windMS := windSpeedMH / 3600
	windFactor := func(theta float32) float32 {
		a := float32(0.4)
		return float32(math.Tanh(float64(windMS/2))) / (1 - a*float32(math.Cos(float64(theta-windDir))))
	}
	slopeFactor := func(theta float32) float32 {
		s := float32(math.Atan(float64(float32(math.Cos(float64(aspect-theta))) * float32(math.Tan(float64(slope))))))
		sign := float32(1)
		if s < 0 {
			sign = -1
		}
		return float32(math.Pow(2, math.Tanh(float64((s*3)*(s*3)*sign))))
	}

	if version == Legacy {
		return windFactor(windDir) * slopeFactor(windDir)
	}

	var best float32
	for i := 0; i < nAnglesROS; i++ {
		theta := float32(i) / float32(nAnglesROS) * 2 * float32(math.Pi)
		combined := windFactor(theta) * slopeFactor(theta)
		if combined > best {
			best = combined
		}
	}
	return best
}

// meteoIndex looks up the ordinal meteo index on a 5x6 table keyed by
// (dffm, wind_effect), per spec.md §4.4.1; thresholds differ between
// legacy and v2023, matching original_source's FWI_TABLE lookups.
func meteoIndex(dffm, windEffect float32, version ModelVersion) float32 {
	var dffmBins []float32
	var windBins []float32
	if version == Legacy {
		dffmBins = []float32{10, 20, 30, 40}
		windBins = []float32{1, 2, 3, 4, 5}
	} else {
		dffmBins = []float32{3.5, 5.9, 10.3, 15.9, 25.0}
		windBins = []float32{1.24, 2.1, 2.44, 3.38}
	}
	row := len(dffmBins)
	for i, b := range dffmBins {
		if dffm <= b {
			row = i
			break
		}
	}
	col := len(windBins)
	for i, b := range windBins {
		if windEffect <= b {
			col = i
			break
		}
	}
	// higher dffm (drier opposite convention: lower dffm = drier) and
	// higher wind => higher index; invert row so low dffm => high index.
	maxRow := len(dffmBins)
	return float32((maxRow-row)*len(windBins) + col)
}

// lhvDff and lhvL1 return the low heat value of dead fine fuel and live
// fuel respectively, per spec.md §4.4.1's intensity formula inputs.
func lhvDff(hhv, dffm float32) float32 {
	return hhv - qConst*(dffm/100)
}

func lhvL1(hhv, umid float32) float32 {
	return hhv - qConst*(umid/100)
}

// Output produces one OutputFrame per spec.md §4.4.1's output step.
func (s *State) Output(input engine.InputFrame) engine.OutputFrame {
	out := make([]engine.Output, len(s.Data))
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				out[i] = outputCell(s.Data[i], s.Props[i], input.Values[i], s.Time, s.Cfg)
			}
		}(p)
	}
	wg.Wait()
	return engine.OutputFrame{Time: s.Time, Values: out}
}

func outputCell(st StateElement, props engine.Properties, in engine.Input, t time.Time, cfg Config) engine.Output {
	o := engine.NewOutput()
	veg := props.Vegetation
	if veg == nil || veg.D0 <= 0 || engine.IsNoData(st.Dffm) {
		return o
	}

	o.Dffm = st.Dffm
	o.PPF = ppf(t, props.PPFSummer, props.PPFWinter)

	ndviFactor := float32(1)
	if veg.UseNDVI && !engine.IsNoData(st.NDVI) {
		ndviFactor = st.NDVI
		if ndviFactor < 0 {
			ndviFactor = 0
		} else if ndviFactor > 1 {
			ndviFactor = 1
		}
		o.NDVIFactor = ndviFactor
	}
	if !engine.IsNoData(st.NDWI) {
		ndwiFactor := st.NDWI
		if ndwiFactor < 0 {
			ndwiFactor = 0
		} else if ndwiFactor > 1 {
			ndwiFactor = 1
		}
		o.NDWIFactor = ndwiFactor
	}

	mx := float32(1)
	me := moistureEffect(st.Dffm, mx, cfg.Version)

	tEffect := float32(1)
	if cfg.UseTemperature && !engine.IsNoData(in.Temperature) {
		tEffect = float32(math.Exp(0.0171 * float64(in.Temperature)))
	}

	var we float32
	if !engine.IsNoData(in.WindSpeed) && !engine.IsNoData(in.WindDir) {
		we = windSlopeEffect(in.WindSpeed, in.WindDir, props.Slope, props.Aspect, cfg.Version)
	}
	o.W = we

	v := veg.V0 * me * we * tEffect
	if (!engine.IsNoData(st.SnowCover) && st.SnowCover > 0) || veg.D0 == engine.NoData {
		v = 0
	}
	o.V = v

	o.MeteoIndex = meteoIndex(st.Dffm, we, cfg.Version)

	lhvDffVal := lhvDff(veg.HHV, st.Dffm)
	lhvL1Val := lhvL1(veg.HHV, veg.Umid)
	o.I = v * (lhvDffVal*veg.D0 + lhvL1Val*veg.D1*(1-ndviFactor)) / 3600

	o.Temperature = in.Temperature
	o.Rain = in.Rain
	if !engine.IsNoData(in.WindSpeed) {
		o.WindSpeed = in.WindSpeed / 3600
	}
	if !engine.IsNoData(in.WindDir) {
		o.WindDir = in.WindDir * 180 / float32(math.Pi)
	}
	o.Humidity = in.Humidity
	o.SnowCover = st.SnowCover
	return o
}
