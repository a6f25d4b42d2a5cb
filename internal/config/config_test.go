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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
model_name: risico
model_version: legacy
cells_file_path: /data/cells.txt
vegetation_file: /data/veg.txt
warm_state_path: /data/warm/risico_
warm_state_offset: 1
output_time_resolution: 3
use_temperature_effect: true
use_ndvi: false
output_types:
  - internal_name: risico_main
    name: RISICO
    path: /out/risico
    grid_path: /data/grid.txt
    format: ZBIN
    variables:
      - internal_name: dffm
        name: dffm
        cluster_mode: Mean
        precision: 2
palettes:
  dffm: /data/palettes/dffm.txt
netcdf_input_configuration:
  temperature:
    variable_name: T2M
    lat_name: latitude
    lon_name: longitude
    time_name: time
`

func writeConfigFile(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}
	return path
}

func TestLoadParsesStructuredYAML(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", sampleYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ModelName != "risico" {
		t.Fatalf("got model_name %q", cfg.ModelName)
	}
	if cfg.WarmStateOffset != 1 {
		t.Fatalf("got warm_state_offset %d", cfg.WarmStateOffset)
	}
	if len(cfg.OutputTypes) != 1 || cfg.OutputTypes[0].Format != "ZBIN" {
		t.Fatalf("unexpected output types: %+v", cfg.OutputTypes)
	}
	if len(cfg.OutputTypes[0].Variables) != 1 || cfg.OutputTypes[0].Variables[0].Precision != 2 {
		t.Fatalf("unexpected variables: %+v", cfg.OutputTypes[0].Variables)
	}
	if cfg.Palettes["dffm"] != "/data/palettes/dffm.txt" {
		t.Fatalf("unexpected palettes: %+v", cfg.Palettes)
	}
	nc, ok := cfg.NetCDFInputConfiguration["temperature"]
	if !ok || nc.VariableName != "T2M" {
		t.Fatalf("unexpected netcdf config: %+v", cfg.NetCDFInputConfiguration)
	}
}

func TestLoadDefaultsOutputTimeResolution(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
model_name: nesterov
cells_file_path: /data/cells.txt
vegetation_file: /data/veg.txt
warm_state_path: /data/warm/nesterov_
output_types:
  - internal_name: main
    name: main
    path: /out
    format: ZBIN
    variables:
      - internal_name: nesterov
        name: nesterov
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputTimeResolution != 3 {
		t.Fatalf("got %d want default 3", cfg.OutputTimeResolution)
	}
	if cfg.OutputTypes[0].Variables[0].Cluster != "Mean" {
		t.Fatalf("expected default cluster_mode Mean, got %q", cfg.OutputTypes[0].Variables[0].Cluster)
	}
}

func TestLoadRejectsMissingRequiredKeys(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", "model_name: risico\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing cells_file_path")
	}
}

func TestLoadRejectsUnsupportedFormat(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
model_name: risico
cells_file_path: /data/cells.txt
vegetation_file: /data/veg.txt
warm_state_path: /data/warm/risico_
output_types:
  - internal_name: main
    name: main
    path: /out
    format: BOGUS
    variables:
      - internal_name: x
        name: x
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	os.Setenv("FIREDANGER_TEST_ROOT", "/env/root")
	defer os.Unsetenv("FIREDANGER_TEST_ROOT")
	path := writeConfigFile(t, "config.yaml", `
model_name: risico
cells_file_path: ${FIREDANGER_TEST_ROOT}/cells.txt
vegetation_file: /data/veg.txt
warm_state_path: /data/warm/risico_
output_types:
  - internal_name: main
    name: main
    path: /out
    format: ZBIN
    variables:
      - internal_name: x
        name: x
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CellsFilePath != "/env/root/cells.txt" {
		t.Fatalf("got %q", cfg.CellsFilePath)
	}
}

func TestCheckLogFileDerivesDefault(t *testing.T) {
	got := CheckLogFile("", "/data/configs/run.yaml")
	if got != "/data/configs/run.log" {
		t.Fatalf("got %q", got)
	}
	got = CheckLogFile("/var/log/explicit.log", "/data/configs/run.yaml")
	if got != "/var/log/explicit.log" {
		t.Fatalf("expected explicit log file to pass through, got %q", got)
	}
}
