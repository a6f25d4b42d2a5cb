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

// Package config loads and validates a model run's configuration, per
// spec.md §6. A single viper.Viper instance backs both the structured
// YAML layout and the legacy flat key=value text format the original
// tool used, the way inmaputil/config.go backs InMAP's own config off
// one viper instance.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// Variable describes one output variable's projection, per spec.md §6's
// output_types[].variables[] entries.
type Variable struct {
	InternalName string `yaml:"internal_name,omitempty"`
	Name         string `yaml:"name"`
	Cluster      string `yaml:"cluster_mode,omitempty"` // Mean, Min, Max, Median
	Precision    int    `yaml:"precision,omitempty"`
	Expr         string `yaml:"expr,omitempty"` // optional derived-variable expression, evaluated in place of Name
}

// OutputType describes one configured output destination, per spec.md
// §6's output_types entries.
type OutputType struct {
	InternalName string     `yaml:"internal_name,omitempty"`
	Name         string     `yaml:"name"`
	Path         string     `yaml:"path"`
	GridPath     string     `yaml:"grid_path,omitempty"`
	Format       string     `yaml:"format"` // ZBIN, PNGWJSON, NETCDF, ZARR, GEOTIFF
	Variables    []Variable `yaml:"variables"`
}

// NetCDFVariable names the NetCDF variable a canonical input channel is
// read from, per spec.md §6's netcdf_input_configuration entries.
type NetCDFVariable struct {
	VariableName string `yaml:"variable_name"`
	LatName      string `yaml:"lat_name,omitempty"`
	LonName      string `yaml:"lon_name,omitempty"`
	TimeName     string `yaml:"time_name,omitempty"`
}

// Config is one model run's fully resolved configuration, per spec.md §6.
type Config struct {
	ModelName            string `yaml:"model_name"`
	ModelVersion         string `yaml:"model_version,omitempty"`
	CellsFilePath        string `yaml:"cells_file_path"`
	VegetationFile       string `yaml:"vegetation_file"`
	WarmStatePath        string `yaml:"warm_state_path"`
	WarmStateOffset      int    `yaml:"warm_state_offset,omitempty"`
	PPFFile              string `yaml:"ppf_file,omitempty"`
	OutputTimeResolution int    `yaml:"output_time_resolution,omitempty"`
	UseTemperatureEffect bool   `yaml:"use_temperature_effect,omitempty"`
	UseNDVI              bool   `yaml:"use_ndvi,omitempty"`

	OutputTypes []OutputType      `yaml:"output_types"`
	Palettes    map[string]string `yaml:"palettes,omitempty"`

	NetCDFInputConfiguration map[string]NetCDFVariable `yaml:"netcdf_input_configuration,omitempty"`
}

// Load reads a configuration file at path, which may be either the
// structured YAML layout or the legacy flat key=value text layout;
// viper's own format sniffing (by extension, falling back to content
// probing) picks between them, the same single-instance approach
// inmaputil's config.go uses for InMAP's own config.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config.Load: reading %s: %v", path, err)
	}
	return FromViper(v)
}

// FromViper builds and validates a Config from an already-populated
// viper instance; Load calls it after reading the config file.
func FromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		ModelName:            os.ExpandEnv(v.GetString("model_name")),
		ModelVersion:         os.ExpandEnv(v.GetString("model_version")),
		CellsFilePath:        os.ExpandEnv(v.GetString("cells_file_path")),
		VegetationFile:       os.ExpandEnv(v.GetString("vegetation_file")),
		WarmStatePath:        os.ExpandEnv(v.GetString("warm_state_path")),
		WarmStateOffset:      v.GetInt("warm_state_offset"),
		PPFFile:              os.ExpandEnv(v.GetString("ppf_file")),
		OutputTimeResolution: v.GetInt("output_time_resolution"),
		UseTemperatureEffect: v.GetBool("use_temperature_effect"),
		UseNDVI:              v.GetBool("use_ndvi"),
	}
	if c.OutputTimeResolution == 0 {
		c.OutputTimeResolution = 3
	}

	if c.ModelName == "" {
		return nil, fmt.Errorf("config: model_name is required")
	}
	if c.CellsFilePath == "" {
		return nil, fmt.Errorf("config: cells_file_path is required")
	}
	if c.VegetationFile == "" {
		return nil, fmt.Errorf("config: vegetation_file is required")
	}
	if c.WarmStatePath == "" {
		return nil, fmt.Errorf("config: warm_state_path is required")
	}

	outputTypes, err := parseOutputTypes(v)
	if err != nil {
		return nil, fmt.Errorf("config: output_types: %v", err)
	}
	if len(outputTypes) == 0 {
		return nil, fmt.Errorf("config: at least one entry in output_types is required")
	}
	c.OutputTypes = outputTypes

	c.Palettes = expandStringMap(getStringMapString(v, "palettes"))

	netcdfCfg, err := parseNetCDFInputConfiguration(v)
	if err != nil {
		return nil, fmt.Errorf("config: netcdf_input_configuration: %v", err)
	}
	c.NetCDFInputConfiguration = netcdfCfg

	return c, nil
}

func parseOutputTypes(v *viper.Viper) ([]OutputType, error) {
	raw, ok := v.Get("output_types").([]interface{})
	if !ok {
		return nil, nil
	}
	out := make([]OutputType, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("entry %d: expected a mapping", i)
		}
		ot := OutputType{
			InternalName: os.ExpandEnv(cast.ToString(m["internal_name"])),
			Name:         os.ExpandEnv(cast.ToString(m["name"])),
			Path:         os.ExpandEnv(cast.ToString(m["path"])),
			GridPath:     os.ExpandEnv(cast.ToString(m["grid_path"])),
			Format:       strings.ToUpper(cast.ToString(m["format"])),
		}
		switch ot.Format {
		case "ZBIN", "PNGWJSON", "NETCDF", "ZARR", "GEOTIFF":
		default:
			return nil, fmt.Errorf("entry %d: unsupported format %q", i, ot.Format)
		}
		varsRaw, _ := m["variables"].([]interface{})
		for j, vi := range varsRaw {
			vm, ok := vi.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("entry %d: variable %d: expected a mapping", i, j)
			}
			variable := Variable{
				InternalName: os.ExpandEnv(cast.ToString(vm["internal_name"])),
				Name:         os.ExpandEnv(cast.ToString(vm["name"])),
				Cluster:      cast.ToString(vm["cluster_mode"]),
				Precision:    cast.ToInt(vm["precision"]),
				Expr:         os.ExpandEnv(cast.ToString(vm["expr"])),
			}
			if variable.Cluster == "" {
				variable.Cluster = "Mean"
			}
			ot.Variables = append(ot.Variables, variable)
		}
		if len(ot.Variables) == 0 {
			return nil, fmt.Errorf("entry %d: at least one variable is required", i)
		}
		out = append(out, ot)
	}
	return out, nil
}

func parseNetCDFInputConfiguration(v *viper.Viper) (map[string]NetCDFVariable, error) {
	raw := v.Get("netcdf_input_configuration")
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a mapping")
	}
	out := make(map[string]NetCDFVariable, len(m))
	for k, item := range m {
		vm, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: expected a mapping", k)
		}
		out[os.ExpandEnv(k)] = NetCDFVariable{
			VariableName: os.ExpandEnv(cast.ToString(vm["variable_name"])),
			LatName:      os.ExpandEnv(cast.ToString(vm["lat_name"])),
			LonName:      os.ExpandEnv(cast.ToString(vm["lon_name"])),
			TimeName:     os.ExpandEnv(cast.ToString(vm["time_name"])),
		}
	}
	return out, nil
}

// getStringMapString returns a map[string]string from viper, accounting
// for the fact that it might arrive as a JSON-encoded string if it was
// set from a command-line flag rather than the config file itself,
// grounded on inmaputil/config.go's GetStringMapString.
func getStringMapString(v *viper.Viper, varName string) map[string]string {
	i := v.Get(varName)
	switch t := i.(type) {
	case nil:
		return nil
	case map[string]string:
		return t
	case map[string]interface{}:
		return cast.ToStringMapString(t)
	case string:
		if t == "" {
			return nil
		}
		b := bytes.NewBufferString(t)
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil
		}
		return o
	default:
		return nil
	}
}

func expandStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return out
}

// CheckOutputDir verifies an output_types[].path's parent directory
// exists, grounded on inmaputil/config.go's checkOutputFile.
func CheckOutputDir(path string) error {
	if path == "" {
		return fmt.Errorf("config: output path is required")
	}
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("config: output directory %s does not exist: %v", dir, err)
	}
	return nil
}

// CheckLogFile fills in a default log file path derived from the
// output config path, grounded on inmaputil/config.go's checkLogFile.
func CheckLogFile(logFile, configPath string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(configPath, filepath.Ext(configPath)) + ".log"
	}
	return logFile
}
