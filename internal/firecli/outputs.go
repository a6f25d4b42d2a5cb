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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cimafoundation/firedanger/internal/config"
	"github.com/cimafoundation/firedanger/internal/engine"
)

// loadGrid builds an output Grid from grid_path. spec.md §6 names
// grid_path as one of output_types' fields but, like every other
// file-format boundary, leaves its exact layout to "what the core
// requires" (spec.md §1's Non-goals). Two layouts are supported: a
// one-line "regular nrows ncols minlat maxlat minlon maxlon" descriptor
// for a RegularGrid, or an empty/"irregular" path, which falls back to
// an IrregularGrid built directly over the run's own scattered cell
// coordinates — the natural degenerate case when no separate output
// raster is configured.
func loadGrid(path string, cellLats, cellLons []float32) (engine.Grid, error) {
	if path == "" {
		return engine.NewIrregularGrid(cellLats, cellLons), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("firecli: loading grid_path %s: %v", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return engine.NewIrregularGrid(cellLats, cellLons), nil
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) == 0 || strings.EqualFold(fields[0], "irregular") {
		return engine.NewIrregularGrid(cellLats, cellLons), nil
	}
	if !strings.EqualFold(fields[0], "regular") || len(fields) != 7 {
		return nil, fmt.Errorf("firecli: malformed grid_path %s", path)
	}
	ints := make([]int, 2)
	for i := 0; i < 2; i++ {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, fmt.Errorf("firecli: malformed grid_path %s: %v", path, err)
		}
		ints[i] = v
	}
	floats := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(fields[i+3], 32)
		if err != nil {
			return nil, fmt.Errorf("firecli: malformed grid_path %s: %v", path, err)
		}
		floats[i] = v
	}
	return engine.NewRegularGrid(ints[0], ints[1], float32(floats[0]), float32(floats[1]), float32(floats[2]), float32(floats[3])), nil
}

// clusterModeOf maps the config's cluster_mode string to engine.ClusterMode,
// defaulting to ClusterMean for an empty/unrecognized value (config.Load
// already defaults the empty string to "Mean").
func clusterModeOf(s string) engine.ClusterMode {
	switch strings.ToLower(s) {
	case "min":
		return engine.ClusterMin
	case "max":
		return engine.ClusterMax
	case "median":
		return engine.ClusterMedian
	default:
		return engine.ClusterMean
	}
}

// buildOutputTypes constructs one engine.OutputType per configured
// destination, resolving its grid, sink, and variable list. ZARR and
// GEOTIFF formats have no concrete engine.Sink implementation (spec.md
// §1 scopes file-format readers/writers to "what the core requires",
// and the core only ever needed NetCDF/ZBIN/PNG+JSON sinks for its own
// testable behavior) so they're rejected here with a descriptive error
// rather than silently dropped.
func buildOutputTypes(cfg *config.Config, cellLats, cellLons []float32) ([]engine.OutputType, error) {
	out := make([]engine.OutputType, 0, len(cfg.OutputTypes))
	for _, ot := range cfg.OutputTypes {
		grid, err := loadGrid(ot.GridPath, cellLats, cellLons)
		if err != nil {
			return nil, err
		}

		var sink engine.Sink
		switch ot.Format {
		case "ZBIN":
			sink = &engine.ZBinSink{Root: ot.Path}
		case "NETCDF":
			sink = engine.NewNetCDFSink(ot.Path, cfg.ModelVersion)
		case "PNGWJSON":
			palettes, err := loadPalettes(ot.Variables, cfg.Palettes)
			if err != nil {
				return nil, err
			}
			sink = &engine.PNGSink{Root: ot.Path, Palettes: palettes}
		default:
			return nil, fmt.Errorf("firecli: output format %q is not implemented by any sink", ot.Format)
		}

		variables := make([]engine.Variable, len(ot.Variables))
		for i, v := range ot.Variables {
			variables[i] = engine.Variable{Name: v.Name, Expr: v.Expr, Cluster: clusterModeOf(v.Cluster), Precision: v.Precision}
		}

		if err := config.CheckOutputDir(ot.Path); err != nil {
			return nil, err
		}

		out = append(out, engine.OutputType{Name: ot.Name, Grid: grid, Sink: sink, Variables: variables})
	}
	return out, nil
}

func loadPalettes(vars []config.Variable, paths map[string]string) (map[string]*engine.Palette, error) {
	out := make(map[string]*engine.Palette, len(vars))
	for _, v := range vars {
		path, ok := paths[v.Name]
		if !ok {
			return nil, fmt.Errorf("firecli: no palette configured for variable %q", v.Name)
		}
		p, err := engine.LoadPalette(path)
		if err != nil {
			return nil, err
		}
		out[v.Name] = p
	}
	return out, nil
}
