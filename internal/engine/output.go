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

// FieldOf returns the named output field for one cell's Output record.
// Supported names cover the raw model outputs listed in spec.md §3 plus
// the derived products named in spec.md §4.5 (V*PPF, I*NDWI, V*PPF*NDVI).
// An unrecognized name returns NoData, ok=false.
func FieldOf(o Output, name string) (float32, bool) {
	switch name {
	case "V":
		return o.V, true
	case "I":
		return o.I, true
	case "dffm":
		return o.Dffm, true
	case "W":
		return o.W, true
	case "FFMC":
		return o.FFMC, true
	case "DMC":
		return o.DMC, true
	case "DC":
		return o.DC, true
	case "ISI":
		return o.ISI, true
	case "BUI":
		return o.BUI, true
	case "FWI":
		return o.FWI, true
	case "IFWI":
		return o.IFWI, true
	case "KBDI":
		return o.KBDI, true
	case "DF":
		return o.DF, true
	case "FFDI":
		return o.FFDI, true
	case "angstrom":
		return o.Angstrom, true
	case "FFWI":
		return o.FFWI, true
	case "HDW":
		return o.HDW, true
	case "nesterov":
		return o.Nesterov, true
	case "PET":
		return o.PET, true
	case "orieux_wr":
		return o.OrieuxWR, true
	case "orieux_fd":
		return o.OrieuxFD, true
	case "portuguese_ignition":
		return o.PortugueseIgn, true
	case "portuguese_fdi":
		return o.PortugueseFDI, true
	case "meteoIndex2":
		return o.MeteoIndex, true
	case "VPPF":
		return derivedProduct(o.V, o.PPF), true
	case "INDWI":
		return derivedProduct(o.I, o.NDWIFactor), true
	case "VPPFNDVI":
		return derivedProduct(derivedProduct(o.V, o.PPF), o.NDVIFactor), true
	case "temperature":
		return o.Temperature, true
	case "rain":
		return o.Rain, true
	case "windSpeed":
		return o.WindSpeed, true
	case "windDir":
		return o.WindDir, true
	case "humidity":
		return o.Humidity, true
	case "snowCover":
		return o.SnowCover, true
	case "NDVI":
		return o.NDVIFactor, true
	case "NDWI":
		return o.NDWIFactor, true
	case "PPF":
		return o.PPF, true
	case "vpd":
		return o.VPD, true
	case "fmi":
		return o.FMI, true
	case "f":
		return o.SharplesF, true
	default:
		return NoData, false
	}
}

// derivedProduct multiplies a and b, returning NoData when either factor
// is NoData (spec.md §4.5: "applied only when its factor is != NODATA").
func derivedProduct(a, b float32) float32 {
	if IsNoData(a) || IsNoData(b) {
		return NoData
	}
	return a * b
}

// ExtractArray returns the named variable for every cell in frame, the
// C5 contract ("given an Output record and a named variable, return a
// 1-D array of length N").
func ExtractArray(frame OutputFrame, name string) ([]float32, bool) {
	out := make([]float32, len(frame.Values))
	_, ok := FieldOf(NewOutput(), name)
	if !ok {
		return nil, false
	}
	for i, rec := range frame.Values {
		out[i], _ = FieldOf(rec, name)
	}
	return out, true
}
