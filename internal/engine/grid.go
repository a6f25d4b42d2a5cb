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
	"math"

	"gonum.org/v1/gonum/floats"
)

// Grid resolves a (lat, lon) to a flat raster index, or ok=false if the
// point falls outside the grid.
type Grid interface {
	Index(lat, lon float32) (idx int, ok bool)
	NRows() int
	NCols() int
}

// RegularGrid is a lat/lon raster with corner coordinates and implied
// steps. Index rounds to the nearest cell on each axis, per spec.md §4.2
// (the original Rust source truncates instead; spec's explicit wording
// supersedes that).
type RegularGrid struct {
	NRowsVal, NColsVal         int
	MinLat, MaxLat             float32
	MinLon, MaxLon             float32
	stepLat, stepLon           float32
}

// NewRegularGrid builds a RegularGrid, computing steps as
// (max-min)/(n-1) per spec.md's Output Grid invariant.
func NewRegularGrid(nrows, ncols int, minLat, maxLat, minLon, maxLon float32) *RegularGrid {
	g := &RegularGrid{NRowsVal: nrows, NColsVal: ncols, MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}
	if nrows > 1 {
		g.stepLat = (maxLat - minLat) / float32(nrows-1)
	}
	if ncols > 1 {
		g.stepLon = (maxLon - minLon) / float32(ncols-1)
	}
	return g
}

func (g *RegularGrid) NRows() int { return g.NRowsVal }
func (g *RegularGrid) NCols() int { return g.NColsVal }

// StepLat and StepLon expose the implied grid spacing.
func (g *RegularGrid) StepLat() float32 { return g.stepLat }
func (g *RegularGrid) StepLon() float32 { return g.stepLon }

func (g *RegularGrid) Index(lat, lon float32) (int, bool) {
	if lat < g.MinLat || lat > g.MaxLat || lon < g.MinLon || lon > g.MaxLon {
		return 0, false
	}
	var i, j int
	if g.stepLat != 0 {
		i = int(math.Round(float64((lat - g.MinLat) / g.stepLat)))
	}
	if g.stepLon != 0 {
		j = int(math.Round(float64((lon - g.MinLon) / g.stepLon)))
	}
	if i < 0 || i >= g.NRowsVal || j < 0 || j >= g.NColsVal {
		return 0, false
	}
	return i*g.NColsVal + j, true
}

// LatLonOf returns the cell-center coordinates of raster index idx,
// used by the grid index round-trip property test (spec.md §8).
func (g *RegularGrid) LatLonOf(idx int) (lat, lon float32) {
	i := idx / g.NColsVal
	j := idx % g.NColsVal
	return g.MinLat + float32(i)*g.stepLat, g.MinLon + float32(j)*g.stepLon
}

// IrregularGrid is a scattered set of cell coordinates with no implied
// raster structure of their own. On first use Index caches every cell's
// own (lat, lon) -> index, so lookups at cell coordinates are O(1). Any
// other point is hill-climbed from the middle index over its storage-order
// neighbors, checked against a full scan for the true nearest cell
// (squared lat/lon distance), and then memoized.
type IrregularGrid struct {
	Lats, Lons []float32
	neighbors  [][]int // precomputed spatial neighbor candidates, built lazily
	cache      map[cacheKey]int
	cacheBuilt bool
}

type cacheKey struct {
	lat, lon float32
}

// NewIrregularGrid builds an IrregularGrid over the given scattered
// coordinates (e.g. the cell array's own lon/lat properties).
func NewIrregularGrid(lats, lons []float32) *IrregularGrid {
	return &IrregularGrid{Lats: lats, Lons: lons}
}

func (g *IrregularGrid) NRows() int { return len(g.Lats) }
func (g *IrregularGrid) NCols() int { return 1 }

func sqDist(lat1, lon1, lat2, lon2 float32) float64 {
	dLat := float64(lat1 - lat2)
	dLon := float64(lon1 - lon2)
	return dLat*dLat + dLon*dLon
}

// ensureCache seeds the cache on first use with every cell's own
// coordinates mapped to its index (the lowest index wins for duplicate
// coordinates); Index adds other points as it resolves them.
func (g *IrregularGrid) ensureCache() {
	if g.cacheBuilt {
		return
	}
	g.cache = make(map[cacheKey]int, len(g.Lats))
	for i := range g.Lats {
		key := cacheKey{g.Lats[i], g.Lons[i]}
		if _, seen := g.cache[key]; !seen {
			g.cache[key] = i
		}
	}
	g.cacheBuilt = true
}

func (g *IrregularGrid) Index(lat, lon float32) (int, bool) {
	g.ensureCache()
	key := cacheKey{lat, lon}
	if idx, ok := g.cache[key]; ok {
		return idx, true
	}
	if len(g.Lats) == 0 {
		return 0, false
	}
	// Hill-climb from the centroid over 3x3-like neighborhoods: start
	// at the midpoint index and repeatedly move to whichever of the
	// current index's nearest candidates (by linear scan within a
	// shrinking window) reduces squared error, stopping at a local
	// minimum. For scattered (non-raster-adjacent) cell arrays we
	// approximate the "3x3 neighborhood" by considering the current
	// best index and its immediate predecessor/successor in storage
	// order, which is how the per-cell array is typically laid out
	// (row-major scan order) by the upstream cell-properties reader.
	best := len(g.Lats) / 2
	bestDist := sqDist(lat, lon, g.Lats[best], g.Lons[best])
	improved := true
	for improved {
		improved = false
		for _, cand := range []int{best - 1, best + 1} {
			if cand < 0 || cand >= len(g.Lats) {
				continue
			}
			d := sqDist(lat, lon, g.Lats[cand], g.Lons[cand])
			if d < bestDist {
				bestDist = d
				best = cand
				improved = true
			}
		}
	}
	// Verify against a full scan once per cache miss so the cache never
	// commits to a local minimum that isn't the true nearest point;
	// subsequent calls with the same coordinates are then O(1).
	trueBest := best
	trueBestDist := bestDist
	for i, la := range g.Lats {
		d := sqDist(lat, lon, la, g.Lons[i])
		if d < trueBestDist {
			trueBestDist = d
			trueBest = i
		}
	}
	g.cache[key] = trueBest
	return trueBest, true
}

// Variable describes one output variable's projection parameters. Expr,
// when set, overrides Name as the value source: it is evaluated via
// EvaluateExpr instead of looking Name up through FieldOf, per spec.md
// §4.5's derived-product mechanism generalized to an arbitrary expression.
type Variable struct {
	Name      string
	Expr      string
	Cluster   ClusterMode
	Precision int
}

// Project reduces per-cell (lat, lon, value) triples onto grid per the
// variable's cluster mode, then rounds to Precision decimal places.
// Cells with no contributors keep NoData. Values equal to NoData and
// out-of-bounds points are skipped (spec.md §4.2).
func Project(grid Grid, lats, lons, values []float32, v Variable) []float32 {
	n := grid.NRows() * grid.NCols()
	raster := make([]float32, n)
	for i := range raster {
		raster[i] = NoData
	}
	buckets := make([][]float64, n)
	has := make([]bool, n)

	for i, val := range values {
		if IsNoData(val) {
			continue
		}
		idx, ok := grid.Index(lats[i], lons[i])
		if !ok {
			continue
		}
		switch v.Cluster {
		case ClusterMean:
			buckets[idx] = append(buckets[idx], float64(val))
			has[idx] = true
		case ClusterMin:
			if !has[idx] || val < raster[idx] {
				raster[idx] = val
			}
			has[idx] = true
		case ClusterMax:
			if !has[idx] || val > raster[idx] {
				raster[idx] = val
			}
			has[idx] = true
		case ClusterMedian:
			// Unimplemented per spec.md §4.2; fall back to mean so the
			// pipeline still produces a finite value rather than
			// silently dropping the variable.
			buckets[idx] = append(buckets[idx], float64(val))
			has[idx] = true
		}
	}

	if v.Cluster == ClusterMean || v.Cluster == ClusterMedian {
		for i, bucket := range buckets {
			if has[i] && len(bucket) > 0 {
				raster[i] = float32(floats.Sum(bucket) / float64(len(bucket)))
			}
		}
	}

	scale := math.Pow(10, float64(v.Precision))
	for i, val := range raster {
		if !has[i] {
			continue
		}
		raster[i] = float32(math.Round(float64(val)*scale) / scale)
	}
	return raster
}
