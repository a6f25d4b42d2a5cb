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
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

// Store appends this step's rain and caches the latest valid readings,
// trimming the rolling window to timeWindowHours, per
// original_source's FWIStateElement::add_value/get_24h pattern.
func (s *State) Store(input engine.InputFrame) {
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				storeCell(&s.Data[i], input.Values[i], input.Time)
			}
		}(p)
	}
	wg.Wait()
	s.Time = input.Time
}

func storeCell(st *StateElement, in engine.Input, t time.Time) {
	rain := in.Rain
	if engine.IsNoData(rain) {
		rain = 0
	}
	st.RainWindow = append(st.RainWindow, rainSample{Time: t, Rain: rain})
	cutoff := t.Add(-timeWindowHours * time.Hour)
	trimmed := st.RainWindow[:0]
	for _, s := range st.RainWindow {
		if s.Time.After(cutoff) {
			trimmed = append(trimmed, s)
		}
	}
	st.RainWindow = trimmed

	if !engine.IsNoData(in.Temperature) {
		st.LastTemp = in.Temperature
	}
	if !engine.IsNoData(in.Humidity) {
		st.LastHumidity = in.Humidity
	}
	if !engine.IsNoData(in.WindSpeed) {
		st.LastWindSpeed = in.WindSpeed / 3600 // m/h -> m/s
	}
}

func rain24(st StateElement, now time.Time) float32 {
	var total float32
	cutoff := now.Add(-timeWindowHours * time.Hour)
	for _, s := range st.RainWindow {
		if s.Time.After(cutoff) {
			total += s.Rain
		}
	}
	return total
}

// fromFFMCToMoisture and fromMoistureToFFMC implement
// original_source's from_ffmc_to_moisture/from_moisture_to_ffmc.
func fromFFMCToMoisture(ffmc float32) float32 {
	return ffmcS1 * (101 - ffmc) / (ffmcS2 + ffmc)
}

func fromMoistureToFFMC(moisture float32) float32 {
	return ffmcS3 * ((250 - moisture) / (ffmcS1 + moisture))
}

// ffmcRainEffect implements original_source's ffmc_rain_effect.
func ffmcRainEffect(moisture, rain24 float32) float32 {
	moistureNew := moisture
	rainEff := rain24 - ffmcMinRain
	if rain24 > ffmcMinRain {
		moistureNew = moisture + ffmcR1*rainEff*float32(math.Exp(-100/float64(251-moisture)))*(1-float32(math.Exp(float64(-ffmcR2/rainEff))))
	}
	if moisture > ffmcNormalCond {
		moistureNew += ffmcR3 * float32(math.Pow(float64(moisture-ffmcNormalCond), ffmcR4)) * float32(math.Pow(float64(rainEff), ffmcR5))
	}
	return moistureNew
}

// updateFFMC implements original_source's update_ffmc.
func updateFFMC(ffmc, rain24, hum, temp, wSpeed float32) float32 {
	moisture := fromFFMCToMoisture(ffmc)
	moistureNew := ffmcRainEffect(moisture, rain24)

	emcDry := ffmcA1D*float32(math.Pow(float64(hum), ffmcA2D)) + ffmcA3D*float32(math.Exp(float64(hum-100)/ffmcA4D)) +
		ffmcA5D*(21.1-temp)*(1-float32(math.Exp(float64(-ffmcA5D*hum))))
	emcWet := ffmcA1W*float32(math.Pow(float64(hum), ffmcA2W)) + ffmcA3W*float32(math.Exp(float64(hum-100)/ffmcA4W)) +
		ffmcA5W*(21.1-temp)*(1-float32(math.Exp(float64(-ffmcA5W*hum))))

	switch {
	case moistureNew < emcDry:
		k0 := ffmcB1*(1-float32(math.Pow(float64(hum)/100, ffmcB2))) + ffmcB3*float32(math.Pow(float64(wSpeed), ffmcB4))*(1-float32(math.Pow(float64(hum)/100, ffmcB5)))
		k := ffmcB6 * k0 * float32(math.Exp(float64(ffmcB7*temp)))
		moistureNew = emcDry + (moistureNew-emcDry)*float32(math.Pow(10, float64(-k)))
	case moistureNew > emcWet:
		k0 := ffmcB1*(1-float32(math.Pow(float64(100-hum)/100, ffmcB2))) + ffmcB3*float32(math.Pow(float64(wSpeed), ffmcB4))*(1-float32(math.Pow(float64(100-hum)/100, ffmcB5)))
		k := ffmcB6 * k0 * float32(math.Exp(float64(ffmcB7*temp)))
		moistureNew = emcWet + (moistureNew-emcWet)*float32(math.Pow(10, float64(-k)))
	}

	return fromMoistureToFFMC(moistureNew)
}

// dmcRainEffect implements original_source's dmc_rain_effect.
func dmcRainEffect(dmc, rain24 float32) float32 {
	if rain24 < dmcMinRain {
		return dmc
	}
	re := dmcR1*rain24 - dmcR2
	var b float32
	switch {
	case dmc <= dmcA1:
		b = 100 / (dmcR3 + dmcR4*dmc)
	case dmc > dmcA2:
		b = dmcR7*float32(math.Log(float64(dmc))) - dmcR8
	default:
		b = dmcR5 - dmcR6*float32(math.Log(float64(dmc)))
	}
	m0 := dmcR9 + float32(math.Exp(float64(-(dmc-dmcR10)/dmcR11)))
	mr := m0 + 1000*(re/(dmcR12+b*re))
	dmcNew := dmcR10 - dmcR11*float32(math.Log(float64(mr-dmcR9)))
	if dmcNew < 0 {
		dmcNew = 0
	}
	return dmcNew
}

// updateDMC implements original_source's update_dmc, with the day-length
// factor Le looked up by month rather than threaded through as a
// caller-supplied argument.
func updateDMC(dmc, rain24, temp, hum float32, month time.Month) float32 {
	dmcNew := dmcRainEffect(dmc, rain24)
	if temp >= dmcMinTemp {
		le := monthlyLe[int(month)]
		k := dmcT1 * (temp + dmcT2) * (100 - hum) * le * 1e-6
		dmcNew += 100 * k
	}
	if dmcNew < 0 {
		dmcNew = 0
	}
	return dmcNew
}

// dcRainEffect implements original_source's dc_rain_effect.
func dcRainEffect(dc, rain24 float32) float32 {
	if rain24 < dcMinRain {
		return dc
	}
	rd := dcR1*rain24 - dcR2
	q0 := dcR3 * float32(math.Exp(float64(-dc/dcR4)))
	qr := q0 + dcR5*rd
	return dcR4 * float32(math.Log(float64(dcR3/qr)))
}

// updateDC implements original_source's update_dc, with the day-length
// factor Lf looked up by month.
func updateDC(dc, rain24, temp float32, month time.Month) float32 {
	dcNew := dcRainEffect(dc, rain24)
	if temp >= dcMinTemp {
		lf := monthlyLf[int(month)]
		dcNew += dcT3 * (dcT1*(temp+dcT2) + lf)
	}
	if dcNew < 0 {
		dcNew = 0
	}
	return dcNew
}

// updateISI implements original_source's update_isi.
func updateISI(ffmc, wSpeed float32) float32 {
	moisture := fromFFMCToMoisture(ffmc)
	fw := float32(math.Exp(float64(isiA0 * wSpeed)))
	ff := isiA1 * float32(math.Exp(float64(isiA2*moisture))) * (1 + float32(math.Pow(float64(moisture), isiA3))/isiA4*1e8)
	return isiA5 * fw * ff
}

// updateBUI implements original_source's update_bui.
func updateBUI(dmc, dc float32) float32 {
	switch {
	case dmc == 0:
		return 0
	case dmc <= buiA1*dc:
		return buiA2 * ((dmc * dc) / (dmc + buiA1*dc))
	default:
		return dmc - (1-buiA2*(dc/(dmc+buiA1*dc)))*(buiA3+float32(math.Pow(float64(buiA4*dmc), buiA5)))
	}
}

// computeFWI implements original_source's compute_fwi.
func computeFWI(bui, isi float32) float32 {
	var fd float32
	if bui <= 80 {
		fd = fwiA1*float32(math.Pow(float64(bui), fwiA2)) + fwiA3
	} else {
		fd = 1000 / (fwiA4 + fwiA5*float32(math.Exp(float64(fwiA6*bui))))
	}
	b := 0.1 * isi * fd
	var fwi float32
	if b > 1 {
		fwi = float32(math.Exp(float64(fwiA7 * float32(math.Pow(float64(fwiA8*float32(math.Log(float64(b)))), fwiA9)))))
	} else {
		fwi = b
	}
	if fwi < 0 {
		fwi = 0
	}
	return fwi
}

// computeIFWI derives the Italian IFWI rescaling from constants.rs's
// IFWI_A1..A3 (no formula body survived filtering in functions.rs; see
// DESIGN.md) as the power law A1 * FWI^A2 * exp(-A3), and 0 for FWI <= 0.
func computeIFWI(fwi float32) float32 {
	if fwi <= 0 {
		return 0
	}
	return ifwiA1 * float32(math.Pow(float64(fwi), ifwiA2)) * float32(math.Exp(float64(-ifwiA3)))
}

// Output computes the once-daily FFMC/DMC/DC/ISI/BUI/FWI/IFWI update
// using the 24h rolling rain window and latest observed weather, then
// persists the new codes back into state before returning the frame.
func (s *State) Output(input engine.InputFrame) engine.OutputFrame {
	out := make([]engine.Output, len(s.Data))
	month := s.Time.Month()
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(s.Data); i += nprocs {
				out[i] = outputCell(&s.Data[i], s.Time, month)
			}
		}(p)
	}
	wg.Wait()
	return engine.OutputFrame{Time: s.Time, Values: out}
}

func outputCell(st *StateElement, t time.Time, month time.Month) engine.Output {
	o := engine.NewOutput()
	if engine.IsNoData(st.LastTemp) || engine.IsNoData(st.LastHumidity) {
		return o
	}
	wind := st.LastWindSpeed
	if engine.IsNoData(wind) {
		wind = 0
	}
	r24 := rain24(*st, t)

	st.Ffmc = updateFFMC(st.Ffmc, r24, st.LastHumidity, st.LastTemp, wind)
	st.Dmc = updateDMC(st.Dmc, r24, st.LastTemp, st.LastHumidity, month)
	st.Dc = updateDC(st.Dc, r24, st.LastTemp, month)

	isi := updateISI(st.Ffmc, wind)
	bui := updateBUI(st.Dmc, st.Dc)
	fwi := computeFWI(bui, isi)
	ifwi := computeIFWI(fwi)

	o.FFMC = st.Ffmc
	o.DMC = st.Dmc
	o.DC = st.Dc
	o.ISI = isi
	o.BUI = bui
	o.FWI = fwi
	o.IFWI = ifwi
	o.Temperature = st.LastTemp
	o.Humidity = st.LastHumidity
	o.Rain = r24
	o.WindSpeed = wind
	return o
}
