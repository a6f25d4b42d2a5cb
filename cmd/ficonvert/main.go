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

// Command ficonvert validates a model run configuration (structured
// YAML or legacy key=value text) and, optionally, rewrites it to the
// structured YAML layout — the configuration-side equivalent of
// wrf2inmap's one-shot input-format conversion.
package main

import (
	"flag"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/cimafoundation/firedanger/internal/config"
)

var (
	configFile = flag.String("config", "", "Path to the configuration file to validate.")
	outFile    = flag.String("out", "", "If set, write the validated configuration back out as structured YAML.")
)

func main() {
	flag.Parse()
	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "ficonvert: -config is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ficonvert: invalid configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("ficonvert: %s is valid: model_name=%s output_types=%d\n", *configFile, cfg.ModelName, len(cfg.OutputTypes))

	if *outFile == "" {
		return
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ficonvert: marshaling configuration: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outFile, b, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "ficonvert: writing %s: %v\n", *outFile, err)
		os.Exit(1)
	}
}
