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

package mark5

import (
	"testing"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

func oneCellState(version ModelVersion) *State {
	props := []engine.Properties{{Lon: 12, Lat: 43, MeanRain: 900}}
	return NewState([]StateElement{DefaultStateElement()}, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		props, Config{Version: version}, "/tmp/mark5-warm")
}

func runDay(s *State, temp, hum, wind, rain float32, day time.Time) {
	for h := 0; h < 24; h++ {
		in := engine.NewInput()
		in.Temperature = temp
		in.Humidity = hum
		in.WindSpeed = wind * 3600
		in.Rain = 0
		if h == 12 {
			in.Rain = rain
		}
		s.Store(engine.InputFrame{Time: day.Add(time.Duration(h) * time.Hour), Values: []engine.Input{in}})
	}
}

func TestDayExtremesTracksMaxTempMinHumidity(t *testing.T) {
	s := oneCellState(DayExtremes)
	day := s.Time
	runDay(s, 28, 60, 2, 0, day)
	out := s.Output(engine.InputFrame{Time: s.Time, Values: []engine.Input{engine.NewInput()}})
	if out.Values[0].Temperature != 28 {
		t.Fatalf("expected max temp 28, got %v", out.Values[0].Temperature)
	}
	if out.Values[0].Humidity != 60 {
		t.Fatalf("expected min humidity 60, got %v", out.Values[0].Humidity)
	}
}

func TestSMDDropsAfterRainEvent(t *testing.T) {
	s := oneCellState(DayExtremes)
	s.Data[0].Smd = 150
	day := s.Time
	runDay(s, 20, 70, 1, 50, day)
	out := s.Output(engine.InputFrame{Time: s.Time, Values: []engine.Input{engine.NewInput()}})
	if out.Values[0].KBDI >= 150 {
		t.Fatalf("expected SMD to drop after a rain event, got %v", out.Values[0].KBDI)
	}
}

func TestDroughtFactorClampedToTen(t *testing.T) {
	df := droughtFactor(200, 1)
	if df > 10 {
		t.Fatalf("expected drought factor clamped to 10, got %v", df)
	}
}

func TestRainfallEffectBoundedByXlim(t *testing.T) {
	eff := rainfallEffect(10, 0, 0)
	if eff > 1 {
		t.Fatalf("expected rainfall effect <= 1, got %v", eff)
	}
}

func TestRainEventsGroupsConsecutiveDays(t *testing.T) {
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	samples := []rainSample{
		{Time: base, Rain: 5},
		{Time: base.AddDate(0, 0, 1), Rain: 10},
		{Time: base.AddDate(0, 0, 2), Rain: 0},
		{Time: base.AddDate(0, 0, 3), Rain: 8},
	}
	events := rainEvents(base.AddDate(0, 0, 3), samples)
	if len(events) != 2 {
		t.Fatalf("expected 2 rain events, got %d: %+v", len(events), events)
	}
	if events[0].totalRain != 15 {
		t.Fatalf("expected first event total rain 15, got %v", events[0].totalRain)
	}
}

func TestLegacySamplesWeatherOnceAt15Local(t *testing.T) {
	s := oneCellState(Legacy)
	day := s.Time
	for h := 0; h < 24; h++ {
		in := engine.NewInput()
		in.Temperature = float32(h)
		in.Humidity = 50
		s.Store(engine.InputFrame{Time: day.Add(time.Duration(h) * time.Hour), Values: []engine.Input{in}})
	}
	if s.Data[0].Temperature != 15 {
		t.Fatalf("expected temperature sampled at hour 15, got %v", s.Data[0].Temperature)
	}
}
