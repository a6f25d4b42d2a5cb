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
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
)

// PNGSink writes one one-shot PNG+JSON tile per (variable, time): the
// PNG rasterizes the scalar field through the variable's palette, and a
// `.json` sidecar carries the tile's geographic bounds, per spec.md §6.
type PNGSink struct {
	Root     string
	Palettes map[string]*Palette
}

type tileBounds struct {
	West, East, South, North float64
}

func (s *PNGSink) Write(t time.Time, grid Grid, meta Variable, raster []float32) error {
	rg, ok := grid.(*RegularGrid)
	if !ok {
		return fmt.Errorf("engine.PNGSink.Write: requires a regular grid")
	}
	palette := s.Palettes[meta.Name]
	if palette == nil {
		return fmt.Errorf("engine.PNGSink.Write: no palette configured for %q", meta.Name)
	}

	img := image.NewRGBA(image.Rect(0, 0, rg.NColsVal, rg.NRowsVal))
	for i := 0; i < rg.NRowsVal; i++ {
		for j := 0; j < rg.NColsVal; j++ {
			v := raster[i*rg.NColsVal+j]
			var c = palette.Color(v)
			if IsNoData(v) {
				c.A = 0
			}
			draw.Draw(img, image.Rect(j, rg.NRowsVal-1-i, j+1, rg.NRowsVal-i), &image.Uniform{C: c}, image.Point{}, draw.Src)
		}
	}

	stamp := fmt.Sprintf("%s_%s", meta.Name, t.Format("200601021504"))
	pngPath := filepath.Join(s.Root, stamp+".png")
	f, err := os.Create(pngPath)
	if err != nil {
		return fmt.Errorf("engine.PNGSink.Write: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("engine.PNGSink.Write: %v", err)
	}

	jsonPath := filepath.Join(s.Root, stamp+".json")
	jf, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("engine.PNGSink.Write: %v", err)
	}
	defer jf.Close()
	bounds := tileBounds{
		West: float64(rg.MinLon), East: float64(rg.MaxLon),
		South: float64(rg.MinLat), North: float64(rg.MaxLat),
	}
	enc := json.NewEncoder(jf)
	return enc.Encode(bounds)
}
