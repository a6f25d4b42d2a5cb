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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const warmStateFilenameLayout = "200601021504"

// FindWarmState locates the most recent warm-state file for base at or
// before date, trying the run date and the three preceding days (in that
// order), per spec.md §4.3. It returns the opened file and the warm-state
// timestamp (one day before the file's own date),
// or ok=false if no file was found in the window.
func FindWarmState(base string, date time.Time) (r *os.File, warmTime time.Time, ok bool) {
	for daysBefore := 0; daysBefore < 4; daysBefore++ {
		candidate := date.AddDate(0, 0, -daysBefore)
		name := base + candidate.Format(warmStateFilenameLayout)
		f, err := os.Open(name)
		if err != nil {
			continue
		}
		return f, candidate.AddDate(0, 0, -1), true
	}
	return nil, time.Time{}, false
}

// WarmStateLineScanner wraps a bufio.Scanner so per-model readers can
// pull whitespace-separated fields one cell-line at a time without each
// reimplementing the split/parse boilerplate.
type WarmStateLineScanner struct {
	scanner *bufio.Scanner
}

// NewWarmStateLineScanner wraps r for per-line cell parsing.
func NewWarmStateLineScanner(r *os.File) *WarmStateLineScanner {
	return &WarmStateLineScanner{scanner: bufio.NewScanner(r)}
}

// Next returns the whitespace-separated fields of the next line, or
// ok=false at EOF.
func (s *WarmStateLineScanner) Next() (fields []string, ok bool) {
	if !s.scanner.Scan() {
		return nil, false
	}
	return strings.Fields(s.scanner.Text()), true
}

// fileWarmStateWriter implements WarmStateWriter by writing one
// tab-separated line per call to WriteLine, matching the warm-state file
// layout in spec.md §6.
type fileWarmStateWriter struct {
	w *bufio.Writer
}

// CreateWarmStateWriter opens (truncating) the checkpoint file
// <base><checkpointDate> per spec.md §4.3's write contract, and returns a
// WarmStateWriter plus a close function the caller must invoke once all
// lines are written.
func CreateWarmStateWriter(base string, checkpoint time.Time) (WarmStateWriter, func() error, error) {
	name := base + checkpoint.Format(warmStateFilenameLayout)
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, fmt.Errorf("engine.CreateWarmStateWriter: %v", err)
	}
	bw := bufio.NewWriter(f)
	closeFn := func() error {
		if err := bw.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("engine.CreateWarmStateWriter: flush %v", err)
		}
		return f.Close()
	}
	return &fileWarmStateWriter{w: bw}, closeFn, nil
}

func (w *fileWarmStateWriter) WriteLine(fields ...float32) error {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = trimFloat(f)
	}
	_, err := fmt.Fprintln(w.w, strings.Join(parts, "\t"))
	return err
}

func trimFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
