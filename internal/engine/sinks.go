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
	"runtime"
	"strings"
	"sync"
	"time"
)

// Sink is the single capability C6 requires from a destination, per
// spec.md §9's Design Note: "a single capability write(time, grid,
// variable_meta, raster) -> result plus a file-lifecycle init."
type Sink interface {
	Write(t time.Time, grid Grid, meta Variable, raster []float32) error
}

// OutputType is one configured sink: a named destination with its own
// grid, format, and list of variables to project and write.
type OutputType struct {
	Name      string
	Grid      Grid
	Sink      Sink
	Variables []Variable
}

// AggregatedError joins the per-variable write failures collected during
// one FanOut call; a single variable's failure never aborts the others
// (spec.md §6/§7).
type AggregatedError struct {
	Errs []error
}

func (e *AggregatedError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d output write(s) failed: %s", len(e.Errs), strings.Join(msgs, "; "))
}

// FanOut projects and writes every variable of ot in parallel over a
// data-parallel worker pool sized to hardware parallelism, the same
// runtime.GOMAXPROCS-striding idiom the engine's driver uses for
// per-cell state updates (grounded in the teacher's run.go
// Calculations()). Returns a non-nil *AggregatedError if any variable's
// write failed; the rest still complete.
func FanOut(ot OutputType, lats, lons []float32, frame OutputFrame, t time.Time) error {
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > len(ot.Variables) {
		nprocs = len(ot.Variables)
	}
	if nprocs < 1 {
		return nil
	}

	var mu sync.Mutex
	var errs []error
	var wg sync.WaitGroup

	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < len(ot.Variables); i += nprocs {
				v := ot.Variables[i]
				var values []float32
				if v.Expr != "" {
					vals, err := EvaluateExpr(v.Expr, frame)
					if err != nil {
						mu.Lock()
						errs = append(errs, fmt.Errorf("sinks.FanOut: %q: %v", v.Name, err))
						mu.Unlock()
						continue
					}
					values = vals
				} else {
					vals, ok := ExtractArray(frame, v.Name)
					if !ok {
						mu.Lock()
						errs = append(errs, fmt.Errorf("sinks.FanOut: unknown variable %q", v.Name))
						mu.Unlock()
						continue
					}
					values = vals
				}
				raster := Project(ot.Grid, lats, lons, values, v)
				if err := ot.Sink.Write(t, ot.Grid, v, raster); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("sinks.FanOut: writing %q to %s: %v", v.Name, ot.Name, err))
					mu.Unlock()
				}
			}
		}(p)
	}
	wg.Wait()

	if len(errs) == 0 {
		return nil
	}
	return &AggregatedError{Errs: errs}
}
