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
	"strconv"
	"strings"
	"time"

	"github.com/cimafoundation/firedanger/internal/config"
	"github.com/cimafoundation/firedanger/internal/engine"
	"github.com/cimafoundation/firedanger/internal/models/angstrom"
	"github.com/cimafoundation/firedanger/internal/models/fosberg"
	"github.com/cimafoundation/firedanger/internal/models/fwi"
	"github.com/cimafoundation/firedanger/internal/models/hdw"
	"github.com/cimafoundation/firedanger/internal/models/kbdi"
	"github.com/cimafoundation/firedanger/internal/models/mark5"
	"github.com/cimafoundation/firedanger/internal/models/nesterov"
	"github.com/cimafoundation/firedanger/internal/models/orieux"
	"github.com/cimafoundation/firedanger/internal/models/portuguese"
	"github.com/cimafoundation/firedanger/internal/models/risico"
	"github.com/cimafoundation/firedanger/internal/models/sharples"
)

// warmStateSource supplies one line of warm-state fields per cell, or
// ok=false once exhausted. buildModel falls back to each model's
// DefaultStateElement for any cell beyond the warm file's line count,
// e.g. a cell added to the grid since the last checkpoint.
type warmStateSource interface {
	Next() (fields []string, ok bool)
}

func parseFloats(fields []string) []float32 {
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			out[i] = engine.NoData
			continue
		}
		out[i] = float32(v)
	}
	return out
}

// buildModel dispatches on cfg.ModelName to construct the right
// engine.Model implementation, restoring whatever warm-state fields
// each model actually persists (per its own SaveWarmState) and
// defaulting everything else, per spec.md §4.7's model construction
// step.
func buildModel(cfg *config.Config, props []engine.Properties, warmTime time.Time, warm warmStateSource, haveWarm bool) (engine.Model, error) {
	n := len(props)
	switch strings.ToLower(cfg.ModelName) {
	case "risico":
		data := make([]risico.StateElement, n)
		for i := range data {
			data[i] = risico.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 9 {
					v := parseFloats(fields)
					data[i].Dffm, data[i].SnowCover, data[i].SnowCoverTime = v[0], v[1], v[2]
					data[i].MSI, data[i].MSITTL = v[3], int(v[4])
					data[i].NDVI, data[i].NDVITime = v[5], v[6]
					data[i].NDWI, data[i].NDWITime = v[7], v[8]
				}
			}
		}
		rcfg := risico.Config{
			Version:       risico.ParseModelVersion(cfg.ModelVersion),
			UseTemperature: cfg.UseTemperatureEffect,
			UseNDVI:        cfg.UseNDVI,
			WarmStatePath:  cfg.WarmStatePath,
		}
		return risico.NewState(data, warmTime, props, rcfg), nil

	case "fwi":
		data := make([]fwi.StateElement, n)
		for i := range data {
			data[i] = fwi.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 3 {
					v := parseFloats(fields)
					data[i].Ffmc, data[i].Dmc, data[i].Dc = v[0], v[1], v[2]
				}
			}
		}
		return fwi.NewState(data, warmTime, props, fwi.Config{Version: fwi.Legacy}, cfg.WarmStatePath), nil

	case "kbdi":
		data := make([]kbdi.StateElement, n)
		for i := range data {
			data[i] = kbdi.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 1 {
					data[i].KBDI = parseFloats(fields)[0]
				}
			}
		}
		return kbdi.NewState(data, warmTime, props, kbdi.Config{Version: kbdi.Legacy}, cfg.WarmStatePath), nil

	case "mark5":
		data := make([]mark5.StateElement, n)
		for i := range data {
			data[i] = mark5.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 1 {
					data[i].Smd = parseFloats(fields)[0]
				}
			}
		}
		mcfg := mark5.Config{Version: mark5.ParseModelVersion(cfg.ModelVersion)}
		return mark5.NewState(data, warmTime, props, mcfg, cfg.WarmStatePath), nil

	case "nesterov":
		data := make([]nesterov.StateElement, n)
		for i := range data {
			data[i] = nesterov.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 1 {
					data[i].Nesterov = parseFloats(fields)[0]
				}
			}
		}
		return nesterov.NewState(data, warmTime, props, cfg.WarmStatePath), nil

	case "orieux":
		data := make([]orieux.StateElement, n)
		for i := range data {
			data[i] = orieux.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 1 {
					data[i].OrieuxWR = parseFloats(fields)[0]
				}
			}
		}
		return orieux.NewState(data, warmTime, props, cfg.WarmStatePath), nil

	case "portuguese":
		data := make([]portuguese.StateElement, n)
		for i := range data {
			data[i] = portuguese.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 2 {
					v := parseFloats(fields)
					data[i].SumIgn, data[i].CumIndex = v[0], v[1]
				}
			}
		}
		return portuguese.NewState(data, warmTime, props, cfg.WarmStatePath), nil

	case "angstrom":
		data := make([]angstrom.StateElement, n)
		for i := range data {
			data[i] = angstrom.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 2 {
					v := parseFloats(fields)
					data[i].Temp, data[i].Humidity = v[0], v[1]
				}
			}
		}
		return angstrom.NewState(data, warmTime, cfg.WarmStatePath), nil

	case "fosberg":
		data := make([]fosberg.StateElement, n)
		for i := range data {
			data[i] = fosberg.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 3 {
					v := parseFloats(fields)
					data[i].Temp, data[i].Humidity, data[i].WindSpeed = v[0], v[1], v[2]
				}
			}
		}
		return fosberg.NewState(data, warmTime, cfg.WarmStatePath), nil

	case "sharples":
		data := make([]sharples.StateElement, n)
		for i := range data {
			data[i] = sharples.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 3 {
					v := parseFloats(fields)
					data[i].Temp, data[i].Humidity, data[i].WindSpeed = v[0], v[1], v[2]
				}
			}
		}
		return sharples.NewState(data, warmTime, cfg.WarmStatePath), nil

	case "hdw":
		data := make([]hdw.StateElement, n)
		for i := range data {
			data[i] = hdw.DefaultStateElement()
			if haveWarm {
				if fields, ok := warm.Next(); ok && len(fields) >= 2 {
					v := parseFloats(fields)
					data[i].VPD, data[i].WindSpeed = v[0], v[1]
				}
			}
		}
		return hdw.NewState(data, warmTime, cfg.WarmStatePath), nil

	default:
		return nil, fmt.Errorf("firecli: unknown model_name %q", cfg.ModelName)
	}
}
