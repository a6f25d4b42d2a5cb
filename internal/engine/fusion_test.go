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

import (
	"math"
	"testing"
)

type mapSource map[string]RawChannel

func (m mapSource) Channel(name string) (RawChannel, bool) {
	ch, ok := m[name]
	return ch, ok
}

func TestFuseAllNoDataSourceYieldsAllNoDataOutput(t *testing.T) {
	src := mapSource{}
	out := Fuse(3, src)
	for i, in := range out {
		if !IsNoData(in.Temperature) || !IsNoData(in.Rain) || !IsNoData(in.WindSpeed) {
			t.Errorf("record %d: expected all-NoData when no source channels exist, got %+v", i, in)
		}
	}
}

func TestFuseDirectTemperatureChannel(t *testing.T) {
	src := mapSource{ChanTemperature: {Name: ChanTemperature, Values: []float32{21.5}}}
	out := Fuse(1, src)
	if out[0].Temperature != 21.5 {
		t.Errorf("Temperature = %v, want 21.5", out[0].Temperature)
	}
}

func TestFuseConvertsKelvinAboveThreshold(t *testing.T) {
	src := mapSource{ChanTempK: {Name: ChanTempK, Values: []float32{300}}}
	out := Fuse(1, src)
	want := float32(300 - 273.15)
	if out[0].Temperature != want {
		t.Errorf("Temperature from Kelvin = %v, want %v", out[0].Temperature, want)
	}
}

func TestFuseLaterSourceDoesNotOverrideEarlierValue(t *testing.T) {
	forecast := mapSource{ChanTemperature: {Name: ChanTemperature, Values: []float32{10}}}
	observed := mapSource{ChanTemperature: {Name: ChanTemperature, Values: []float32{20}}}
	out := Fuse(1, forecast, observed)
	if out[0].Temperature != 10 {
		t.Errorf("expected the first (forecast) source's value to win since it already filled the field, got %v", out[0].Temperature)
	}
}

func TestFuseObservedFillsWhatForecastLeftNoData(t *testing.T) {
	forecast := mapSource{} // no temperature at all
	observed := mapSource{ChanTemperature: {Name: ChanTemperature, Values: []float32{20}}}
	out := Fuse(1, forecast, observed)
	if out[0].Temperature != 20 {
		t.Errorf("expected the observed source to fill the still-NoData field, got %v", out[0].Temperature)
	}
}

func TestFuseWindFromUVComponents(t *testing.T) {
	src := mapSource{
		ChanWindU: {Name: ChanWindU, Values: []float32{3}},
		ChanWindV: {Name: ChanWindV, Values: []float32{4}},
	}
	out := Fuse(1, src)
	wantSpeed := float32(math.Hypot(3, 4)) * 3600
	if out[0].WindSpeed != wantSpeed {
		t.Errorf("WindSpeed = %v, want %v", out[0].WindSpeed, wantSpeed)
	}
	if out[0].WindDir < 0 || out[0].WindDir >= 2*math.Pi {
		t.Errorf("WindDir = %v, want a value in [0, 2pi)", out[0].WindDir)
	}
}

func TestFuseWindDirFromDegreesWraps(t *testing.T) {
	src := mapSource{ChanWindDir: {Name: ChanWindDir, Values: []float32{-90}}}
	out := Fuse(1, src)
	if out[0].WindDir < 0 || out[0].WindDir >= 2*math.Pi {
		t.Errorf("WindDir = %v, want a value in [0, 2pi)", out[0].WindDir)
	}
}

func TestFuseDewPointDerivesHumidity(t *testing.T) {
	src := mapSource{
		ChanTemperature: {Name: ChanTemperature, Values: []float32{20}},
		ChanTempDew:     {Name: ChanTempDew, Values: []float32{20}},
	}
	out := Fuse(1, src)
	// dew point == temperature implies saturation.
	if out[0].Humidity < 99 || out[0].Humidity > 101 {
		t.Errorf("Humidity at dew point == temperature = %v, want ~100", out[0].Humidity)
	}
}

func TestFuseSpecificHumidityDerivesHumidityAndVPD(t *testing.T) {
	src := mapSource{
		ChanTemperature: {Name: ChanTemperature, Values: []float32{20}},
		ChanSpecificHum: {Name: ChanSpecificHum, Values: []float32{0.01}},
		ChanPressure:    {Name: ChanPressure, Values: []float32{101325}},
	}
	out := Fuse(1, src)
	if IsNoData(out[0].Humidity) {
		t.Error("expected Humidity to be derived from specific humidity + pressure")
	}
	if IsNoData(out[0].VPD) {
		t.Error("expected VPD to be derived from specific humidity + pressure")
	}
}

func TestFuseObservedHumidityFallback(t *testing.T) {
	src := mapSource{ChanHumidity: {Name: ChanHumidity, Values: []float32{55}}}
	out := Fuse(1, src)
	if out[0].Humidity != 55 {
		t.Errorf("Humidity = %v, want 55 from the direct humidity channel", out[0].Humidity)
	}
}

func TestFuseDirectChannelsSkipNoDataEntries(t *testing.T) {
	src := mapSource{ChanNDVI: {Name: ChanNDVI, Values: []float32{NoData, 0.5}}}
	out := Fuse(2, src)
	if !IsNoData(out[0].NDVI) {
		t.Errorf("expected NoData to remain NoData, got %v", out[0].NDVI)
	}
	if out[1].NDVI != 0.5 {
		t.Errorf("NDVI = %v, want 0.5", out[1].NDVI)
	}
}
