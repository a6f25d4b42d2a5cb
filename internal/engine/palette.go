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
	"bufio"
	"fmt"
	"image/color"
	"os"
	"sort"
	"strconv"
	"strings"
)

// PaletteEntry is one breakpoint of a palette: values >= Value and below
// the next entry's Value map to this color.
type PaletteEntry struct {
	Value          float32
	R, G, B, A     uint8
}

// Palette maps a scalar field to an RGBA raster for the PNG sink, per
// spec.md §6's "text rows `value r g b a`" palette file format.
type Palette struct {
	Entries []PaletteEntry
}

// LoadPalette reads a palette file from path.
func LoadPalette(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("engine.LoadPalette: %v", err)
	}
	defer f.Close()

	var p Palette
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, fmt.Errorf("engine.LoadPalette: malformed row %q", line)
		}
		val, err := strconv.ParseFloat(fields[0], 32)
		if err != nil {
			return nil, fmt.Errorf("engine.LoadPalette: %v", err)
		}
		rgba := [4]uint8{}
		for i := 0; i < 4; i++ {
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("engine.LoadPalette: %v", err)
			}
			rgba[i] = uint8(n)
		}
		p.Entries = append(p.Entries, PaletteEntry{
			Value: float32(val), R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("engine.LoadPalette: %v", err)
	}
	sort.Slice(p.Entries, func(i, j int) bool { return p.Entries[i].Value < p.Entries[j].Value })
	return &p, nil
}

// Color returns the RGBA color for v, by the greatest breakpoint <= v
// (falling back to the first entry for v below every breakpoint).
func (p *Palette) Color(v float32) color.RGBA {
	if len(p.Entries) == 0 {
		return color.RGBA{}
	}
	best := p.Entries[0]
	for _, e := range p.Entries {
		if v >= e.Value {
			best = e
		}
	}
	return color.RGBA{R: best.R, G: best.G, B: best.B, A: best.A}
}
