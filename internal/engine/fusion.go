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

package engine

import "math"

// RawChannel is one named raw variable source sampled at a timestep,
// covering N cells. Fuse takes sources in merge order: each field keeps
// the value of the earliest source that supplies it, and later sources
// only fill fields that are still NoData.
type RawChannel struct {
	Name   string
	Values []float32 // length N; NoData entries are treated as absent
}

// FusionSource is the C1 contract: a handler that knows how to produce,
// for a given channel name, the raw values at a timestep. Real sources
// (NetCDF readers, legacy binary readers) are out of the core's scope
// per spec.md §1; callers adapt them to this shape.
type FusionSource interface {
	Channel(name string) (RawChannel, bool)
}

// recognized canonical channel names. Fuse fills each field only where it
// is still NoData, so for any channel the earliest source in a caller's
// list that supplies it wins.
const (
	ChanTemperature = "T"
	ChanTempK       = "TK" // temperature in Kelvin, converted if > 200
	ChanRain        = "R"
	ChanWindSpeed   = "W"
	ChanWindDir     = "D"
	ChanWindU       = "U"
	ChanWindV       = "V"
	ChanHumidity    = "H"
	ChanSnowCover   = "SNOW"
	ChanTempDew     = "TDEW"
	ChanSpecificHum = "Q"
	ChanPressure    = "PSFC"
	ChanNDVI        = "NDVI"
	ChanNDWI        = "NDWI"
	ChanMSI         = "M"
	ChanSWI         = "SWI"
)

// Fuse merges raw channels from sources (in the given order; a field set
// by an earlier source is kept, later sources only fill fields still
// NoData) into N canonical Input
// records, performing unit normalization and humidity/dew-point/VPD
// derivation per spec.md §4.1.
func Fuse(n int, sources ...FusionSource) []Input {
	out := make([]Input, n)
	for i := range out {
		out[i] = NewInput()
	}

	for _, src := range sources {
		fillTemperature(out, src)
		fillRain(out, src)
		fillWind(out, src)
		fillHumidityAndDerivatives(out, src)
		fillDirect(out, src, ChanSnowCover, func(r *Input) *float32 { return &r.SnowCover })
		fillDirect(out, src, ChanNDVI, func(r *Input) *float32 { return &r.NDVI })
		fillDirect(out, src, ChanNDWI, func(r *Input) *float32 { return &r.NDWI })
		fillDirect(out, src, ChanMSI, func(r *Input) *float32 { return &r.MSI })
		fillDirect(out, src, ChanSWI, func(r *Input) *float32 { return &r.SWI })
	}
	return out
}

func fillDirect(out []Input, src FusionSource, name string, field func(*Input) *float32) {
	ch, ok := src.Channel(name)
	if !ok {
		return
	}
	for i := range out {
		if i >= len(ch.Values) {
			break
		}
		v := ch.Values[i]
		if IsNoData(v) {
			continue
		}
		f := field(&out[i])
		if IsNoData(*f) {
			*f = v
		}
	}
}

func fillTemperature(out []Input, src FusionSource) {
	if ch, ok := src.Channel(ChanTempK); ok {
		for i := range out {
			if i >= len(ch.Values) || !IsNoData(out[i].Temperature) {
				continue
			}
			v := ch.Values[i]
			if IsNoData(v) {
				continue
			}
			if v > 200 {
				v -= 273.15
			}
			out[i].Temperature = v
		}
	}
	fillDirect(out, src, ChanTemperature, func(r *Input) *float32 { return &r.Temperature })
}

func fillRain(out []Input, src FusionSource) {
	fillDirect(out, src, ChanRain, func(r *Input) *float32 { return &r.Rain })
}

func fillWind(out []Input, src FusionSource) {
	u, hasU := src.Channel(ChanWindU)
	v, hasV := src.Channel(ChanWindV)
	if hasU && hasV {
		for i := range out {
			if i >= len(u.Values) || i >= len(v.Values) {
				continue
			}
			uu, vv := u.Values[i], v.Values[i]
			if IsNoData(uu) || IsNoData(vv) {
				continue
			}
			if IsNoData(out[i].WindSpeed) {
				out[i].WindSpeed = float32(math.Hypot(float64(uu), float64(vv))) * 3600
			}
			if IsNoData(out[i].WindDir) {
				out[i].WindDir = wrap2Pi(float32(math.Atan2(float64(uu), float64(vv))))
			}
		}
	}
	if ch, ok := src.Channel(ChanWindSpeed); ok {
		// raw speed channels are assumed m/s; convert to m/h.
		for i := range out {
			if i >= len(ch.Values) || !IsNoData(out[i].WindSpeed) {
				continue
			}
			sv := ch.Values[i]
			if IsNoData(sv) {
				continue
			}
			out[i].WindSpeed = sv * 3600
		}
	}
	if ch, ok := src.Channel(ChanWindDir); ok {
		// raw direction channels are assumed degrees; convert to radians.
		for i := range out {
			if i >= len(ch.Values) || !IsNoData(out[i].WindDir) {
				continue
			}
			dv := ch.Values[i]
			if IsNoData(dv) {
				continue
			}
			out[i].WindDir = wrap2Pi(dv * float32(math.Pi) / 180)
		}
	}
}

func wrap2Pi(rad float32) float32 {
	twoPi := float32(2 * math.Pi)
	r := float32(math.Mod(float64(rad), float64(twoPi)))
	if r < 0 {
		r += twoPi
	}
	return r
}

// fillHumidityAndDerivatives implements the dew-point and
// specific-humidity derivation branches of spec.md §4.1 step 3, then the
// observed-humidity/forecast-humidity fallback of step 4.
func fillHumidityAndDerivatives(out []Input, src FusionSource) {
	tCh, hasT := src.Channel(ChanTemperature)
	tkCh, hasTK := src.Channel(ChanTempK)
	dewCh, hasDew := src.Channel(ChanTempDew)
	qCh, hasQ := src.Channel(ChanSpecificHum)
	pCh, hasP := src.Channel(ChanPressure)
	hCh, hasH := src.Channel(ChanHumidity)

	tempAt := func(i int) (float32, bool) {
		if hasT && i < len(tCh.Values) && !IsNoData(tCh.Values[i]) {
			return tCh.Values[i], true
		}
		if hasTK && i < len(tkCh.Values) && !IsNoData(tkCh.Values[i]) {
			v := tkCh.Values[i]
			if v > 200 {
				v -= 273.15
			}
			return v, true
		}
		return 0, false
	}

	for i := range out {
		t, okT := tempAt(i)

		if hasDew && i < len(dewCh.Values) && okT {
			r := dewCh.Values[i]
			if !IsNoData(r) {
				humidity := 100 * expMagnus(r) / expMagnus(t)
				if IsNoData(out[i].Humidity) {
					out[i].Humidity = humidity
				}
				if IsNoData(out[i].TempDew) {
					out[i].TempDew = r
				}
				continue
			}
		}

		if hasQ && hasP && i < len(qCh.Values) && i < len(pCh.Values) && okT {
			q, p := qCh.Values[i], pCh.Values[i]
			if !IsNoData(q) && !IsNoData(p) {
				pHpa := p / 100
				e := q * pHpa / (0.622 + q)
				esat := 6.112 * expMagnusFromConstants(t)
				humidity := 100 * (e / esat)
				if IsNoData(out[i].Humidity) {
					out[i].Humidity = humidity
				}
				gamma := float32(math.Log(float64(humidity/100))) + (17.625*t)/(t+243.04)
				dew := 243.04 * gamma / (17.625 - gamma)
				if IsNoData(out[i].TempDew) {
					out[i].TempDew = dew
				}
				vpd := esat - e
				if IsNoData(out[i].VPD) {
					out[i].VPD = vpd
				}
				continue
			}
		}

		if hasH && i < len(hCh.Values) {
			hv := hCh.Values[i]
			if !IsNoData(hv) && IsNoData(out[i].Humidity) {
				out[i].Humidity = hv
			}
		}
	}
}

// expMagnus returns exp(17.67*t/(t+243.5)), the Magnus-formula saturation
// vapor pressure term (unscaled), used both for T and for the dew point R
// per spec.md §4.1's humidity = 100*exp(17.67R/(R+243.5))/exp(17.67T/(T+243.5)).
func expMagnus(t float32) float64 {
	return math.Exp(float64(17.67 * t / (t + 243.5)))
}

// expMagnusFromConstants is the same Magnus term used in the
// specific-humidity branch (spec.md §4.1's 6.112*exp(17.67T/(T+243.5))
// saturation vapor pressure formula), named separately to mirror the two
// distinct formula call sites in spec.md.
func expMagnusFromConstants(t float32) float32 {
	return float32(expMagnus(t))
}
