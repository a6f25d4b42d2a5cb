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
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// ZBinSink writes one gzip-wrapped legacy binary file per (variable,
// time): little-endian is_regular/nrows/ncols, then the corner
// coordinates, then the data values, all as little-endian u32/f32.
// Only regular grids are written (is_regular=1); Write returns an error
// for any other Grid, so the irregular lat/lon-array layout is never
// produced.
type ZBinSink struct {
	Root string
}

func (s *ZBinSink) Write(t time.Time, grid Grid, meta Variable, raster []float32) error {
	name := fmt.Sprintf("%s_%s.zbin.gz", meta.Name, t.Format("200601021504"))
	path := filepath.Join(s.Root, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("engine.ZBinSink.Write: %v", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	rg, ok := grid.(*RegularGrid)
	if !ok {
		return fmt.Errorf("engine.ZBinSink.Write: zbin sink requires a regular grid")
	}

	if err := writeU32(gz, 1); err != nil { // is_regular, little-endian per spec.md §6
		return err
	}
	if err := writeU32(gz, uint32(rg.NRowsVal)); err != nil {
		return err
	}
	if err := writeU32(gz, uint32(rg.NColsVal)); err != nil {
		return err
	}
	for _, v := range []float32{rg.MinLat, rg.MaxLat, rg.MinLon, rg.MaxLon} {
		if err := writeF32(gz, v); err != nil {
			return err
		}
	}
	for _, v := range raster {
		if err := writeF32(gz, v); err != nil {
			return err
		}
	}
	return nil
}

func writeU32(w interface{ Write([]byte) (int, error) }, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeF32(w interface{ Write([]byte) (int, error) }, v float32) error {
	return writeU32(w, math.Float32bits(v))
}
