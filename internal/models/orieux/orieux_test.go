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

package orieux

import (
	"testing"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

func oneCellState() *State {
	props := []engine.Properties{{Lon: 2, Lat: 44, HeatIndex: 50}}
	return NewState([]StateElement{DefaultStateElement()}, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), props, "")
}

func TestDaylightHoursPeaksNearSummerSolstice(t *testing.T) {
	solstice := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	winter := time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC)
	if daylightHours(45, solstice) <= daylightHours(45, winter) {
		t.Fatalf("expected longer daylight near the summer solstice at mid-latitude")
	}
}

func TestEvapotranspirationZeroBelowFreezing(t *testing.T) {
	got := evapotranspirationThornthwaite(-5, 45, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 50)
	if got != 0 {
		t.Fatalf("expected 0 ET below freezing, got %v", got)
	}
}

func TestEvapotranspirationPositiveInWarmWeather(t *testing.T) {
	got := evapotranspirationThornthwaite(20, 45, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), 50)
	if got <= 0 {
		t.Fatalf("expected positive ET in warm weather, got %v", got)
	}
}

func TestFireClassLowReserveHighWindIsSevere(t *testing.T) {
	got := fireClass(20, 50*1000/3.6) // 50 km/h expressed back as m/h
	if got != 3 {
		t.Fatalf("expected class 3 for low reserve + high wind, got %v", got)
	}
}

func TestFireClassHighReserveIsZero(t *testing.T) {
	got := fireClass(150, 10*1000/3.6)
	if got != 0 {
		t.Fatalf("expected class 0 for saturated reserve, got %v", got)
	}
}

func TestOutputMissingWithoutTemperatureExtremes(t *testing.T) {
	s := oneCellState()
	out := s.Output(engine.InputFrame{Time: s.Time})
	if !engine.IsNoData(out.Values[0].OrieuxWR) {
		t.Fatalf("expected NoData without any stored temperature, got %v", out.Values[0].OrieuxWR)
	}
}

func TestOutputUpdatesReserveAndResetsAccumulators(t *testing.T) {
	s := oneCellState()
	in := engine.NewInput()
	in.Temperature = 28
	in.WindSpeed = 30 * 1000 / 3.6
	in.Rain = 5
	frame := engine.InputFrame{Time: time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC), Values: []engine.Input{in}}
	s.Store(frame)
	out := s.Output(frame)
	if engine.IsNoData(out.Values[0].OrieuxWR) {
		t.Fatalf("expected a computed reserve value")
	}
	if s.Data[0].CumRain != 0 || !engine.IsNoData(s.Data[0].MaxTemp) || !engine.IsNoData(s.Data[0].MinTemp) {
		t.Fatalf("expected daily accumulators reset after Output, got %+v", s.Data[0])
	}
}

func TestOutputReserveClampedToRange(t *testing.T) {
	s := oneCellState()
	s.Data[0].OrieuxWR = rMax
	in := engine.NewInput()
	in.Temperature = 10
	in.Rain = 1000 // huge rain event
	frame := engine.InputFrame{Time: time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC), Values: []engine.Input{in}}
	s.Store(frame)
	s.Output(frame)
	if s.Data[0].OrieuxWR > rMax || s.Data[0].OrieuxWR < 0 {
		t.Fatalf("expected reserve clamped to [0, rMax], got %v", s.Data[0].OrieuxWR)
	}
}

func TestShouldWriteOutputAndCheckpointAtNoon(t *testing.T) {
	s := oneCellState()
	noon := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	if !s.ShouldWriteOutput(noon, noon) {
		t.Fatalf("expected ShouldWriteOutput true at noon")
	}
	ok, _ := s.ShouldCheckpoint(noon)
	if !ok {
		t.Fatalf("expected ShouldCheckpoint true at noon")
	}
}
