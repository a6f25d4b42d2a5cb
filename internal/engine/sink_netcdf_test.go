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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/cdf"
)

func TestNetCDFSinkAppendsSuccessiveTimeRecords(t *testing.T) {
	dir := t.TempDir()
	sink := NewNetCDFSink(dir, "test-version")
	grid := NewRegularGrid(2, 2, 0, 1, 0, 1)
	meta := Variable{Name: "dffm"}

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := sink.Write(t0, grid, meta, []float32{1, 2, 3, 4}); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := sink.Write(t0.Add(time.Hour), grid, meta, []float32{5, 6, 7, 8}); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "dffm.nc"))
	if err != nil {
		t.Fatalf("opening written file: %v", err)
	}
	defer f.Close()
	cf, err := cdf.Open(f)
	if err != nil {
		t.Fatalf("cdf.Open: %v", err)
	}

	got := make([]float32, 8)
	r := cf.Reader("dffm", nil, nil)
	if _, err := r.Read(got); err != nil {
		t.Fatalf("reading back variable: %v", err)
	}
	want := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNetCDFSinkRejectsIrregularGrid(t *testing.T) {
	sink := NewNetCDFSink(t.TempDir(), "v")
	grid := NewIrregularGrid([]float32{0}, []float32{0})
	if err := sink.Write(time.Now(), grid, Variable{Name: "dffm"}, []float32{1}); err == nil {
		t.Fatal("expected NetCDFSink.Write to reject a non-regular grid")
	}
}
