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
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPNGSinkWritesPNGAndBoundsSidecar(t *testing.T) {
	dir := t.TempDir()
	palette := &Palette{Entries: []PaletteEntry{{Value: 0, R: 1, G: 2, B: 3, A: 255}}}
	sink := &PNGSink{Root: dir, Palettes: map[string]*Palette{"dffm": palette}}
	grid := NewRegularGrid(2, 2, 0, 1, 0, 1)
	raster := []float32{1, 2, 3, 4}
	tm := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if err := sink.Write(tm, grid, Variable{Name: "dffm"}, raster); err != nil {
		t.Fatalf("Write: %v", err)
	}

	stamp := "dffm_" + tm.Format("200601021504")
	pf, err := os.Open(filepath.Join(dir, stamp+".png"))
	if err != nil {
		t.Fatalf("opening written PNG: %v", err)
	}
	defer pf.Close()
	img, err := png.Decode(pf)
	if err != nil {
		t.Fatalf("decoding PNG: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Errorf("PNG dimensions = %v, want 2x2", img.Bounds())
	}

	jf, err := os.Open(filepath.Join(dir, stamp+".json"))
	if err != nil {
		t.Fatalf("opening bounds sidecar: %v", err)
	}
	defer jf.Close()
	var bounds tileBounds
	if err := json.NewDecoder(jf).Decode(&bounds); err != nil {
		t.Fatalf("decoding bounds sidecar: %v", err)
	}
	if bounds.West != 0 || bounds.East != 1 || bounds.South != 0 || bounds.North != 1 {
		t.Errorf("bounds = %+v, want {West:0 East:1 South:0 North:1}", bounds)
	}
}

func TestPNGSinkRejectsIrregularGrid(t *testing.T) {
	sink := &PNGSink{Root: t.TempDir(), Palettes: map[string]*Palette{"dffm": {}}}
	grid := NewIrregularGrid([]float32{0}, []float32{0})
	if err := sink.Write(time.Now(), grid, Variable{Name: "dffm"}, []float32{1}); err == nil {
		t.Fatal("expected PNGSink.Write to reject a non-regular grid")
	}
}

func TestPNGSinkRequiresConfiguredPalette(t *testing.T) {
	sink := &PNGSink{Root: t.TempDir(), Palettes: map[string]*Palette{}}
	grid := NewRegularGrid(1, 1, 0, 0, 0, 0)
	if err := sink.Write(time.Now(), grid, Variable{Name: "unconfigured"}, []float32{1}); err == nil {
		t.Fatal("expected PNGSink.Write to reject a variable with no configured palette")
	}
}
