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

	"github.com/Knetic/govaluate"
)

// EvaluateExpr computes a derived output_types[].variables[].expr for
// every cell in frame, generalizing spec.md §4.5's fixed derived-product
// list (VPPF, INDWI, VPPFNDVI) to an arbitrary arithmetic expression over
// any field FieldOf recognizes, the way io.go's Outputter resolves
// output_variables expressions against the model's named fields.
//
// Only the fields the expression actually references (per expr.Vars(),
// same as checkForDerivatives) are checked for NoData; a cell where any
// of those is NoData evaluates to NoData rather than invoking expr.
func EvaluateExpr(expr string, frame OutputFrame) ([]float32, error) {
	parsed, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("engine: parsing expr %q: %v", expr, err)
	}
	vars := parsed.Vars()
	for _, name := range vars {
		if _, ok := FieldOf(NewOutput(), name); !ok {
			return nil, fmt.Errorf("engine: expr %q references unknown field %q", expr, name)
		}
	}

	out := make([]float32, len(frame.Values))
	for i, rec := range frame.Values {
		params := make(map[string]interface{}, len(vars))
		noData := false
		for _, name := range vars {
			v, _ := FieldOf(rec, name)
			if IsNoData(v) {
				noData = true
				break
			}
			params[name] = float64(v)
		}
		if noData {
			out[i] = NoData
			continue
		}
		result, err := parsed.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("engine: evaluating expr %q: %v", expr, err)
		}
		f, ok := result.(float64)
		if !ok {
			return nil, fmt.Errorf("engine: expr %q did not evaluate to a number", expr)
		}
		out[i] = float32(f)
	}
	return out, nil
}
