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

// Package engine holds the model-agnostic core: cell properties,
// vegetation descriptors, the canonical input record, the wide output
// record, grid indexing/projection, warm-state I/O, output assembly,
// sink fan-out, and the simulation driver. Per-model state machines live
// in sibling packages under internal/models and are driven through the
// Model interface defined here.
package engine

import "time"

// NoData is the sentinel marking an absent measurement or output channel.
// Per the data model invariant, any field <= NoData+1 must be treated as
// missing, not just fields exactly equal to NoData.
const NoData float32 = -9999

// IsNoData reports whether v should be treated as an absent value.
func IsNoData(v float32) bool {
	return v <= NoData+1
}

// Vegetation is an immutable descriptor shared by reference across many
// cells. It is never mutated after load.
type Vegetation struct {
	ID      string
	D0      float32 // dead fine fuel bulk density
	D1      float32 // live fuel bulk density
	HHV     float32 // high heat value
	Umid    float32 // live-fuel humidity
	V0      float32 // reference rate of spread
	T0      float32 // drying time constant
	Sat     float32 // saturation moisture
	UseNDVI bool
	Name    string
}

// Properties holds the immutable per-cell properties for one model's run.
// Many cells may share one Vegetation by pointer.
type Properties struct {
	Lon, Lat   float32
	Slope      float32 // radians
	Aspect     float32 // radians
	Vegetation *Vegetation
	PPFSummer  float32
	PPFWinter  float32
	MeanRain   float32 // mean annual rainfall, mm (Mark-5/KBDI)
	HeatIndex  float32 // Thornthwaite heat index (Orieux)
	TZName     string  // resolved once at init, cached (Design Note: TZ resolved at init)
}

// PropertiesContainer is one model's full set of per-cell properties plus
// the shared vegetation dictionary they reference.
type PropertiesContainer struct {
	Cells       []Properties
	Vegetations map[string]*Vegetation
}

// Input is one canonical per-cell input record at a single timestep.
type Input struct {
	Temperature float32 // °C
	Rain        float32 // mm over the step
	WindSpeed   float32 // m/h
	WindDir     float32 // radians in [0, 2π)
	Humidity    float32 // %
	SnowCover   float32 // mm
	TempDew     float32 // °C
	VPD         float32 // hPa
	NDVI        float32
	NDWI        float32
	MSI         float32
	SWI         float32
}

// NewInput returns an Input with every field set to NoData.
func NewInput() Input {
	return Input{
		Temperature: NoData, Rain: NoData, WindSpeed: NoData, WindDir: NoData,
		Humidity: NoData, SnowCover: NoData, TempDew: NoData, VPD: NoData,
		NDVI: NoData, NDWI: NoData, MSI: NoData, SWI: NoData,
	}
}

// InputFrame is one timestep's canonical records for the whole cell array.
type InputFrame struct {
	Time   time.Time
	Values []Input
}

// ClusterMode selects how multiple scattered cell values combine into one
// output raster pixel.
type ClusterMode int

// Supported cluster modes. Median is named by spec but left unimplemented,
// matching spec.md §4.2 ("Median(unimplemented)").
const (
	ClusterMean ClusterMode = iota
	ClusterMin
	ClusterMax
	ClusterMedian
)

// Output is the wide per-cell, per-output-timestep value object. Every
// field defaults to NoData when a model does not produce it.
type Output struct {
	V, I             float32 // rate of spread (m/h), intensity (kW/m)
	Dffm             float32
	W                float32 // wind effect
	FFMC, DMC, DC    float32
	ISI, BUI, FWI    float32
	IFWI             float32
	KBDI             float32
	DF, FFDI         float32
	Angstrom         float32
	FFWI             float32
	HDW              float32
	Nesterov         float32
	PET              float32
	OrieuxWR         float32
	OrieuxFD         float32
	PortugueseIgn    float32
	PortugueseFDI    float32
	MeteoIndex       float32
	PPF              float32
	Temperature      float32
	Rain             float32
	WindSpeed        float32 // m/s on output, per spec.md §3
	WindDir          float32 // degrees on output
	Humidity         float32
	TempDewPoint     float32
	SnowCover        float32
	NDVIFactor       float32
	NDWIFactor       float32
	VPD              float32 // vapor pressure deficit, hPa (HDW)
	FMI              float32 // fuel moisture index (Sharples)
	SharplesF        float32 // fire index (Sharples)
}

// NewOutput returns an Output with every field set to NoData.
func NewOutput() Output {
	nd := NoData
	return Output{
		V: nd, I: nd, Dffm: nd, W: nd, FFMC: nd, DMC: nd, DC: nd, ISI: nd, BUI: nd,
		FWI: nd, IFWI: nd, KBDI: nd, DF: nd, FFDI: nd, Angstrom: nd, FFWI: nd, HDW: nd,
		Nesterov: nd, PET: nd, OrieuxWR: nd, OrieuxFD: nd, PortugueseIgn: nd,
		PortugueseFDI: nd, MeteoIndex: nd, PPF: nd, Temperature: nd, Rain: nd,
		WindSpeed: nd, WindDir: nd, Humidity: nd, TempDewPoint: nd, SnowCover: nd,
		NDVIFactor: nd, NDWIFactor: nd, VPD: nd, FMI: nd, SharplesF: nd,
	}
}

// OutputFrame is one output timestep's records for the whole cell array.
type OutputFrame struct {
	Time   time.Time
	Values []Output
}
