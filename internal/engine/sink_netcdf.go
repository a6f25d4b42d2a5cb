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
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ctessum/cdf"
)

// NetCDFSink writes one append-only file per variable with dims
// latitude, longitude, and an unlimited time dimension, per spec.md §6.
// Every destination file is guarded by its own mutex so concurrent
// fan-out writers only contend when targeting the same file, per the
// Design Note on append-only sinks in spec.md §9.
type NetCDFSink struct {
	Root    string
	Version string

	mu    sync.Mutex
	files map[string]*netcdfFile
}

type netcdfFile struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	header *cdf.Header
	cdfF   *cdf.File
	nrecs  int
}

// NewNetCDFSink constructs a sink rooted at root.
func NewNetCDFSink(root, version string) *NetCDFSink {
	return &NetCDFSink{Root: root, Version: version, files: make(map[string]*netcdfFile)}
}

func (s *NetCDFSink) fileFor(meta Variable, grid *RegularGrid) (*netcdfFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nf, ok := s.files[meta.Name]; ok {
		return nf, nil
	}
	path := filepath.Join(s.Root, meta.Name+".nc")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("engine.NetCDFSink: %v", err)
	}
	h := cdf.NewHeader(
		[]string{"latitude", "longitude", "time"},
		[]int{grid.NRowsVal, grid.NColsVal, -1},
	)
	h.AddAttribute("", "engine", "firedanger")
	h.AddAttribute("", "engine_version", s.Version)
	h.AddAttribute("", "creation_date", time.Now().UTC().Format(time.RFC3339))
	h.AddVariable(meta.Name, []string{"time", "latitude", "longitude"}, []float32{0})
	h.AddAttribute(meta.Name, "missing_value", []float32{NoData})
	h.AddAttribute(meta.Name, "units", "unspecified")
	h.AddAttribute(meta.Name, "long_name", meta.Name)
	h.Define()

	cf, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("engine.NetCDFSink: %v", err)
	}
	nf := &netcdfFile{path: path, f: f, header: h, cdfF: cf}
	s.files[meta.Name] = nf
	return nf, nil
}

// Write appends one time record of raster to the variable's file,
// growing the unlimited time dimension, locking per-destination-file
// per spec.md §9.
func (s *NetCDFSink) Write(t time.Time, grid Grid, meta Variable, raster []float32) error {
	rg, ok := grid.(*RegularGrid)
	if !ok {
		return fmt.Errorf("engine.NetCDFSink.Write: requires a regular grid")
	}
	nf, err := s.fileFor(meta, rg)
	if err != nil {
		return err
	}
	nf.mu.Lock()
	defer nf.mu.Unlock()

	start := []int{nf.nrecs, 0, 0}
	end := []int{nf.nrecs + 1, rg.NRowsVal, rg.NColsVal}
	w := nf.cdfF.Writer(meta.Name, start, end)
	if _, err := w.Write(raster); err != nil {
		return fmt.Errorf("engine.NetCDFSink.Write: %v", err)
	}
	nf.nrecs++
	return cdf.UpdateNumRecs(nf.f)
}

// Close flushes and closes every open destination file.
func (s *NetCDFSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, nf := range s.files {
		if err := nf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
