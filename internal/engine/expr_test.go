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

import "testing"

func TestEvaluateExprComputesArithmeticOverNamedFields(t *testing.T) {
	a := NewOutput()
	a.V = 10
	a.PPF = 2
	b := NewOutput()
	b.V = 5
	b.PPF = 4
	frame := OutputFrame{Values: []Output{a, b}}

	got, err := EvaluateExpr("V * PPF", frame)
	if err != nil {
		t.Fatalf("EvaluateExpr: %v", err)
	}
	want := []float32{20, 20}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEvaluateExprPropagatesNoDataForReferencedFields(t *testing.T) {
	o := NewOutput()
	o.V = 10 // PPF left at NoData
	frame := OutputFrame{Values: []Output{o}}

	got, err := EvaluateExpr("V * PPF", frame)
	if err != nil {
		t.Fatalf("EvaluateExpr: %v", err)
	}
	if !IsNoData(got[0]) {
		t.Errorf("got %v, want NoData since PPF is NoData", got[0])
	}
}

func TestEvaluateExprIgnoresNoDataOnUnreferencedFields(t *testing.T) {
	o := NewOutput()
	o.V = 10 // every other field, including PPF, stays NoData
	frame := OutputFrame{Values: []Output{o}}

	got, err := EvaluateExpr("V * 2", frame)
	if err != nil {
		t.Fatalf("EvaluateExpr: %v", err)
	}
	if got[0] != 20 {
		t.Errorf("got %v, want 20 (PPF's NoData should not matter since it's unreferenced)", got[0])
	}
}

func TestEvaluateExprRejectsUnknownField(t *testing.T) {
	frame := OutputFrame{Values: []Output{NewOutput()}}
	if _, err := EvaluateExpr("notARealField * 2", frame); err == nil {
		t.Fatal("expected an error for an expression referencing an unrecognized field")
	}
}

func TestEvaluateExprRejectsMalformedExpression(t *testing.T) {
	frame := OutputFrame{Values: []Output{NewOutput()}}
	if _, err := EvaluateExpr("V * (", frame); err == nil {
		t.Fatal("expected an error for a malformed expression")
	}
}
