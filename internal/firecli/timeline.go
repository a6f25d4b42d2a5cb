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

package firecli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/cdf"

	"github.com/cimafoundation/firedanger/internal/config"
	"github.com/cimafoundation/firedanger/internal/engine"
)

// inputTimestampLayout names each per-timestep NetCDF file in
// input_path, the same layout the warm-state files use (spec.md §6).
const inputTimestampLayout = "200601021504"

// canonicalChannel maps the human-readable keys netcdf_input_configuration
// is written against to the Fuse merge channel codes of spec.md §4.1.
var canonicalChannel = map[string]string{
	"temperature":           engine.ChanTemperature,
	"temperature_k":         engine.ChanTempK,
	"rain":                  engine.ChanRain,
	"wind_speed":            engine.ChanWindSpeed,
	"wind_dir":              engine.ChanWindDir,
	"wind_u":                engine.ChanWindU,
	"wind_v":                engine.ChanWindV,
	"humidity":              engine.ChanHumidity,
	"snow_cover":            engine.ChanSnowCover,
	"dew_point_temperature": engine.ChanTempDew,
	"specific_humidity":     engine.ChanSpecificHum,
	"surface_pressure":      engine.ChanPressure,
	"ndvi":                  engine.ChanNDVI,
	"ndwi":                  engine.ChanNDWI,
	"msi":                   engine.ChanMSI,
	"swi":                   engine.ChanSWI,
}

// netCDFTimeline implements engine.Timeline over a directory of
// single-timestep NetCDF files, one flat per-cell array per configured
// input variable (spec.md §1 scopes the exact reader out of the core;
// this is the CLI's own adapter, grounded on the same ctessum/cdf
// reader API sink_netcdf.go already uses for writing).
type netCDFTimeline struct {
	dir      string
	times    []time.Time
	ncConfig map[string]config.NetCDFVariable
	ncells   int
}

func newInputTimeline(inputPath string, cfg *config.Config, cells []engine.Properties) (engine.Timeline, error) {
	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, fmt.Errorf("firecli: reading input_path %s: %v", inputPath, err)
	}
	var times []time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".nc") {
			continue
		}
		stamp := strings.TrimSuffix(e.Name(), ".nc")
		t, err := time.Parse(inputTimestampLayout, stamp)
		if err != nil {
			continue
		}
		times = append(times, t)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("firecli: no timestamped .nc files found in %s", inputPath)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	return &netCDFTimeline{dir: inputPath, times: times, ncConfig: cfg.NetCDFInputConfiguration, ncells: len(cells)}, nil
}

func (tl *netCDFTimeline) Times() []time.Time { return tl.times }

func (tl *netCDFTimeline) InputAt(t time.Time) engine.InputFrame {
	path := filepath.Join(tl.dir, t.Format(inputTimestampLayout)+".nc")
	src, err := tl.readSource(path)
	if err != nil {
		tl.logWarn(path, err)
		return engine.InputFrame{Time: t, Values: emptyInputs(tl.ncells)}
	}
	return engine.InputFrame{Time: t, Values: engine.Fuse(tl.ncells, src)}
}

func (tl *netCDFTimeline) logWarn(path string, err error) {
	logger.WithError(err).WithField("file", path).Warn("input read failed; using all-NoData input for this step")
}

func emptyInputs(n int) []engine.Input {
	out := make([]engine.Input, n)
	for i := range out {
		out[i] = engine.NewInput()
	}
	return out
}

// ncFileSource adapts one open NetCDF file's variables to engine.FusionSource.
type ncFileSource struct {
	channels map[string]engine.RawChannel
}

func (s *ncFileSource) Channel(name string) (engine.RawChannel, bool) {
	ch, ok := s.channels[name]
	return ch, ok
}

func (tl *netCDFTimeline) readSource(path string) (engine.FusionSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("cdf.Open: %v", err)
	}

	channels := make(map[string]engine.RawChannel, len(tl.ncConfig))
	for canonicalKey, ncVar := range tl.ncConfig {
		chanName, ok := canonicalChannel[canonicalKey]
		if !ok {
			continue
		}
		values := make([]float32, tl.ncells)
		r := cf.Reader(ncVar.VariableName, nil, nil)
		if r == nil {
			continue
		}
		if _, err := r.Read(values); err != nil {
			return nil, fmt.Errorf("reading variable %s: %v", ncVar.VariableName, err)
		}
		channels[chanName] = engine.RawChannel{Name: chanName, Values: values}
	}
	return &ncFileSource{channels: channels}, nil
}
