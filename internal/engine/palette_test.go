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
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func writePaletteFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "palette.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPaletteParsesRowsAndSortsByValue(t *testing.T) {
	path := writePaletteFile(t, "# comment\n50 255 0 0 255\n0 0 255 0 255\n\n100 0 0 255 255\n")
	p, err := LoadPalette(path)
	if err != nil {
		t.Fatalf("LoadPalette: %v", err)
	}
	if len(p.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(p.Entries))
	}
	for i := 1; i < len(p.Entries); i++ {
		if p.Entries[i-1].Value > p.Entries[i].Value {
			t.Fatalf("entries not sorted ascending by value: %+v", p.Entries)
		}
	}
}

func TestLoadPaletteRejectsMalformedRow(t *testing.T) {
	path := writePaletteFile(t, "0 1 2 3\n")
	if _, err := LoadPalette(path); err == nil {
		t.Fatal("expected an error for a row missing a field")
	}
}

func TestPaletteColorPicksGreatestBreakpointAtOrBelow(t *testing.T) {
	p := &Palette{Entries: []PaletteEntry{
		{Value: 0, R: 0, G: 255, B: 0, A: 255},
		{Value: 50, R: 255, G: 0, B: 0, A: 255},
		{Value: 100, R: 0, G: 0, B: 255, A: 255},
	}}

	if got := p.Color(25); got != (color.RGBA{R: 0, G: 255, B: 0, A: 255}) {
		t.Errorf("Color(25) = %+v, want the 0-breakpoint color", got)
	}
	if got := p.Color(50); got != (color.RGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Errorf("Color(50) = %+v, want the 50-breakpoint color", got)
	}
	if got := p.Color(1000); got != (color.RGBA{R: 0, G: 0, B: 255, A: 255}) {
		t.Errorf("Color(1000) = %+v, want the highest breakpoint's color", got)
	}
}

func TestPaletteColorEmptyReturnsZeroValue(t *testing.T) {
	p := &Palette{}
	if got := p.Color(10); got != (color.RGBA{}) {
		t.Errorf("Color on an empty palette = %+v, want the zero color", got)
	}
}
