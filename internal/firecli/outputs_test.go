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
	"os"
	"path/filepath"
	"testing"

	"github.com/cimafoundation/firedanger/internal/config"
	"github.com/cimafoundation/firedanger/internal/engine"
)

func TestLoadGridEmptyPathFallsBackToIrregular(t *testing.T) {
	g, err := loadGrid("", []float32{1, 2}, []float32{3, 4})
	if err != nil {
		t.Fatalf("loadGrid: %v", err)
	}
	if _, ok := g.(*engine.IrregularGrid); !ok {
		t.Fatalf("expected *engine.IrregularGrid, got %T", g)
	}
}

func TestLoadGridParsesRegularDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.txt")
	if err := os.WriteFile(path, []byte("regular 10 20 30.0 40.0 5.0 15.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := loadGrid(path, nil, nil)
	if err != nil {
		t.Fatalf("loadGrid: %v", err)
	}
	if _, ok := g.(*engine.RegularGrid); !ok {
		t.Fatalf("expected *engine.RegularGrid, got %T", g)
	}
}

func TestLoadGridRejectsMalformedDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.txt")
	if err := os.WriteFile(path, []byte("regular not-enough-fields\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadGrid(path, nil, nil); err == nil {
		t.Fatal("expected an error for a malformed grid descriptor")
	}
}

func TestClusterModeOfMapsKnownNames(t *testing.T) {
	cases := map[string]engine.ClusterMode{
		"Mean":    engine.ClusterMean,
		"min":     engine.ClusterMin,
		"MAX":     engine.ClusterMax,
		"Median":  engine.ClusterMedian,
		"bogus":   engine.ClusterMean,
		"":        engine.ClusterMean,
	}
	for in, want := range cases {
		if got := clusterModeOf(in); got != want {
			t.Errorf("clusterModeOf(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestBuildOutputTypesRejectsUnimplementedFormat(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		OutputTypes: []config.OutputType{
			{Name: "out", Path: filepath.Join(dir, "out.zarr"), Format: "ZARR", Variables: []config.Variable{{Name: "dffm"}}},
		},
	}
	if _, err := buildOutputTypes(cfg, nil, nil); err == nil {
		t.Fatal("expected ZARR to be rejected as unimplemented")
	}
}

func TestBuildOutputTypesBuildsZBinSink(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		OutputTypes: []config.OutputType{
			{
				Name:   "out",
				Path:   filepath.Join(dir, "run.zbin"),
				Format: "ZBIN",
				Variables: []config.Variable{
					{Name: "dffm", Cluster: "Mean", Precision: 2},
				},
			},
		},
	}
	outs, err := buildOutputTypes(cfg, []float32{1}, []float32{2})
	if err != nil {
		t.Fatalf("buildOutputTypes: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("expected one output type, got %d", len(outs))
	}
	if _, ok := outs[0].Sink.(*engine.ZBinSink); !ok {
		t.Fatalf("expected a *engine.ZBinSink, got %T", outs[0].Sink)
	}
	if outs[0].Variables[0].Cluster != engine.ClusterMean {
		t.Errorf("variable cluster mode not propagated correctly")
	}
}

func TestBuildOutputTypesPropagatesExpr(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		OutputTypes: []config.OutputType{
			{
				Name:      "out",
				Path:      filepath.Join(dir, "run.zbin"),
				Format:    "ZBIN",
				Variables: []config.Variable{{Name: "derived", Expr: "V * PPF"}},
			},
		},
	}
	outs, err := buildOutputTypes(cfg, []float32{1}, []float32{2})
	if err != nil {
		t.Fatalf("buildOutputTypes: %v", err)
	}
	if got := outs[0].Variables[0].Expr; got != "V * PPF" {
		t.Errorf("Expr = %q, want %q", got, "V * PPF")
	}
}

func TestBuildOutputTypesRequiresPaletteForPNGVariables(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		OutputTypes: []config.OutputType{
			{
				Name:      "out",
				Path:      filepath.Join(dir, "out.png"),
				Format:    "PNGWJSON",
				Variables: []config.Variable{{Name: "dffm"}},
			},
		},
	}
	if _, err := buildOutputTypes(cfg, nil, nil); err == nil {
		t.Fatal("expected an error when no palette is configured for a PNG variable")
	}
}
