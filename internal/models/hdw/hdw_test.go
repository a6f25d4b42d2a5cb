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

package hdw

import (
	"testing"
	"time"

	"github.com/cimafoundation/firedanger/internal/engine"
)

func oneCellState() *State {
	return NewState([]StateElement{DefaultStateElement()}, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), "")
}

func TestHDWFormula(t *testing.T) {
	got := hdw(10, 3600) // 1 m/s
	if got != 10 {
		t.Fatalf("got %v want 10", got)
	}
}

func TestOutputMissingWithoutSnapshot(t *testing.T) {
	s := oneCellState()
	out := s.Output(engine.InputFrame{Time: s.Time})
	if !engine.IsNoData(out.Values[0].HDW) {
		t.Fatalf("expected NoData before any store, got %v", out.Values[0].HDW)
	}
}

func TestOutputComputesAfterStore(t *testing.T) {
	s := oneCellState()
	in := engine.NewInput()
	in.VPD = 15
	in.WindSpeed = 7200 // 2 m/s
	s.Store(engine.InputFrame{Time: s.Time, Values: []engine.Input{in}})
	out := s.Output(engine.InputFrame{Time: s.Time})
	if out.Values[0].HDW != 30 {
		t.Fatalf("got %v want 30", out.Values[0].HDW)
	}
	if out.Values[0].WindSpeed != 2 {
		t.Fatalf("expected 2 m/s on output, got %v", out.Values[0].WindSpeed)
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
