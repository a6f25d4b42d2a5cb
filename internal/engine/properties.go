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
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadVegetation reads the vegetation dictionary, per spec.md §6: rows
// of `id d0 d1 hhv umid v0 T0 sat [use_ndvi] name`. The trailing
// use_ndvi/name fields are optional, matching the teacher's
// tolerant-whitespace-row parsing idiom (framework.go's CSV readers).
func LoadVegetation(path string) (map[string]*Vegetation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("engine.LoadVegetation: %v", err)
	}
	defer f.Close()

	out := make(map[string]*Vegetation)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 8 {
			return nil, fmt.Errorf("engine.LoadVegetation: %s:%d: expected at least 8 fields, got %d", path, lineNo, len(fields))
		}
		v := &Vegetation{ID: fields[0]}
		floatFields := []*float32{&v.D0, &v.D1, &v.HHV, &v.Umid, &v.V0, &v.T0, &v.Sat}
		for i, ptr := range floatFields {
			val, err := strconv.ParseFloat(fields[i+1], 32)
			if err != nil {
				return nil, fmt.Errorf("engine.LoadVegetation: %s:%d: %v", path, lineNo, err)
			}
			*ptr = float32(val)
		}
		if len(fields) >= 9 {
			v.UseNDVI = fields[8] == "1" || strings.EqualFold(fields[8], "true")
		}
		if len(fields) >= 10 {
			v.Name = strings.Join(fields[9:], " ")
		}
		out[v.ID] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("engine.LoadVegetation: %v", err)
	}
	return out, nil
}

// approxTZName approximates an IANA zone name from longitude alone, as
// a fixed-width "Etc/GMT" offset. original_source resolves an exact zone
// via an external tz-polygon lookup at runtime (TZ_FINDER in
// original_source/.../nesterov/functions.rs); no such lookup library
// appears anywhere in the retrieved example pack, so cell timezones are
// approximated here from longitude and cached once at load, per the
// Properties.TZName field's "resolved once at init, cached" contract.
// Etc/GMT zone signs are inverted from the geographic convention.
func approxTZName(lon float32) string {
	offset := int(math.Round(-float64(lon) / 15))
	if offset == 0 {
		return "Etc/GMT"
	}
	if offset > 0 {
		return fmt.Sprintf("Etc/GMT+%d", offset)
	}
	return fmt.Sprintf("Etc/GMT%d", offset)
}

// LoadCells reads the cell properties file, per spec.md §6: rows of
// `lon lat slope_deg aspect_deg vegetation_id`, with two optional
// trailing columns `mean_annual_rain heat_index` used by Mark-5/KBDI
// and Orieux respectively (original_source loads these from parallel
// per-cell vectors; no separate file format for them appears in the
// retrieved pack, so they are carried as optional trailing columns on
// the same row rather than invented as a new file). Slope and aspect
// are converted from degrees to radians on load (spec.md §3 stores both
// in radians). Vegetation references are resolved against veg, shared
// by pointer across every cell referencing the same id (spec.md §3's
// "many cells may point to one vegetation").
func LoadCells(path string, veg map[string]*Vegetation) (*PropertiesContainer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("engine.LoadCells: %v", err)
	}
	defer f.Close()

	var cells []Properties
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, fmt.Errorf("engine.LoadCells: %s:%d: expected 5 fields, got %d", path, lineNo, len(fields))
		}
		lon, err := strconv.ParseFloat(fields[0], 32)
		if err != nil {
			return nil, fmt.Errorf("engine.LoadCells: %s:%d: %v", path, lineNo, err)
		}
		lat, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			return nil, fmt.Errorf("engine.LoadCells: %s:%d: %v", path, lineNo, err)
		}
		slopeDeg, err := strconv.ParseFloat(fields[2], 32)
		if err != nil {
			return nil, fmt.Errorf("engine.LoadCells: %s:%d: %v", path, lineNo, err)
		}
		aspectDeg, err := strconv.ParseFloat(fields[3], 32)
		if err != nil {
			return nil, fmt.Errorf("engine.LoadCells: %s:%d: %v", path, lineNo, err)
		}
		vegID := fields[4]
		v, ok := veg[vegID]
		if !ok {
			return nil, fmt.Errorf("engine.LoadCells: %s:%d: unknown vegetation id %q", path, lineNo, vegID)
		}
		p := Properties{
			Lon:        float32(lon),
			Lat:        float32(lat),
			Slope:      float32(slopeDeg * math.Pi / 180),
			Aspect:     float32(aspectDeg * math.Pi / 180),
			Vegetation: v,
			TZName:     approxTZName(float32(lon)),
		}
		if len(fields) >= 6 {
			meanRain, err := strconv.ParseFloat(fields[5], 32)
			if err != nil {
				return nil, fmt.Errorf("engine.LoadCells: %s:%d: %v", path, lineNo, err)
			}
			p.MeanRain = float32(meanRain)
		}
		if len(fields) >= 7 {
			heatIndex, err := strconv.ParseFloat(fields[6], 32)
			if err != nil {
				return nil, fmt.Errorf("engine.LoadCells: %s:%d: %v", path, lineNo, err)
			}
			p.HeatIndex = float32(heatIndex)
		}
		cells = append(cells, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("engine.LoadCells: %v", err)
	}
	return &PropertiesContainer{Cells: cells, Vegetations: veg}, nil
}

// LoadPPF applies per-cell summer/winter PPF coefficients from an
// optional ppf_file (spec.md §6: "optional, per-cell summer/winter PPF
// pairs"), matching cells positionally (one row per cell, in file order,
// the same convention the cells/vegetation files use).
func LoadPPF(path string, cells []Properties) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("engine.LoadPPF: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	i := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i >= len(cells) {
			return fmt.Errorf("engine.LoadPPF: %s: more rows than cells (%d)", path, len(cells))
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("engine.LoadPPF: %s: expected 2 fields, got %d", path, len(fields))
		}
		summer, err := strconv.ParseFloat(fields[0], 32)
		if err != nil {
			return fmt.Errorf("engine.LoadPPF: %v", err)
		}
		winter, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			return fmt.Errorf("engine.LoadPPF: %v", err)
		}
		cells[i].PPFSummer = float32(summer)
		cells[i].PPFWinter = float32(winter)
		i++
	}
	return scanner.Err()
}
