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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindWarmStateFindsExactRunDate(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "warm-")
	runDate := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	name := base + runDate.Format(warmStateFilenameLayout)
	if err := os.WriteFile(name, []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, warmTime, ok := FindWarmState(base, runDate)
	if !ok {
		t.Fatal("expected to find the exact-date warm-state file")
	}
	defer f.Close()
	if !warmTime.Equal(runDate.AddDate(0, 0, -1)) {
		t.Errorf("warmTime = %v, want %v", warmTime, runDate.AddDate(0, 0, -1))
	}
}

func TestFindWarmStateFallsBackToPriorDays(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "warm-")
	runDate := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	twoDaysBefore := runDate.AddDate(0, 0, -2)
	name := base + twoDaysBefore.Format(warmStateFilenameLayout)
	if err := os.WriteFile(name, []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, warmTime, ok := FindWarmState(base, runDate)
	if !ok {
		t.Fatal("expected to find a warm-state file within the 3-day lookback window")
	}
	defer f.Close()
	if !warmTime.Equal(twoDaysBefore.AddDate(0, 0, -1)) {
		t.Errorf("warmTime = %v, want %v", warmTime, twoDaysBefore.AddDate(0, 0, -1))
	}
}

func TestFindWarmStateNotFoundOutsideWindow(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "warm-")
	runDate := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	tooOld := runDate.AddDate(0, 0, -10)
	name := base + tooOld.Format(warmStateFilenameLayout)
	if err := os.WriteFile(name, []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, ok := FindWarmState(base, runDate); ok {
		t.Error("expected no warm-state file to be found outside the 3-day lookback window")
	}
}

func TestWarmStateRoundTripsBitEqual(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "warm-")
	checkpoint := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	w, closeFn, err := CreateWarmStateWriter(base, checkpoint)
	if err != nil {
		t.Fatalf("CreateWarmStateWriter: %v", err)
	}
	rows := [][]float32{
		{40, 0, 0, 0, 0, 0, 0, 0, 0},
		{12.5, -9999, 100, 1, 0.5, 1000, 0.25, 2000, 0.75},
	}
	for _, row := range rows {
		if err := w.WriteLine(row...); err != nil {
			t.Fatalf("WriteLine: %v", err)
		}
	}
	if err := closeFn(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	f, warmTime, ok := FindWarmState(base, checkpoint)
	if !ok {
		t.Fatal("expected to find the just-written warm-state file")
	}
	defer f.Close()
	if !warmTime.Equal(checkpoint.AddDate(0, 0, -1)) {
		t.Errorf("warmTime = %v, want %v", warmTime, checkpoint.AddDate(0, 0, -1))
	}

	scanner := NewWarmStateLineScanner(f)
	for _, want := range rows {
		fields, ok := scanner.Next()
		if !ok {
			t.Fatal("expected another warm-state line")
		}
		if len(fields) != len(want) {
			t.Fatalf("got %d fields, want %d", len(fields), len(want))
		}
		for i, wf := range want {
			if fields[i] != trimFloat(wf) {
				t.Errorf("field %d = %q, want %q (bit-exact round trip)", i, fields[i], trimFloat(wf))
			}
		}
	}
	if _, ok := scanner.Next(); ok {
		t.Error("expected no more lines after the written rows")
	}
}
