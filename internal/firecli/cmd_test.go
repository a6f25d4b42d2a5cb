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
	"errors"
	"testing"
)

// Tests call runModel directly, bypassing cobra's flag parsing, so the
// --log-level default ("info") never gets applied; set it here so
// setupLogging doesn't fail before reaching the behavior under test.
func init() {
	logLevel = "info"
}

func TestExitCodeOfUnwrapsExitError(t *testing.T) {
	err := &exitError{code: ExitBadInput, err: errors.New("boom")}
	if got := exitCodeOf(err); got != ExitBadInput {
		t.Errorf("exitCodeOf = %d, want %d", got, ExitBadInput)
	}
}

func TestExitCodeOfDefaultsToBadConfigForPlainErrors(t *testing.T) {
	if got := exitCodeOf(errors.New("plain")); got != ExitBadConfig {
		t.Errorf("exitCodeOf(plain error) = %d, want %d", got, ExitBadConfig)
	}
}

func TestRunModelRejectsMalformedRunDate(t *testing.T) {
	err := runModel("not-a-date", "unused.yaml", "unused-dir")
	if err == nil {
		t.Fatal("expected an error for a malformed run date")
	}
	if exitCodeOf(err) != ExitBadRunDate {
		t.Errorf("exit code = %d, want ExitBadRunDate", exitCodeOf(err))
	}
}

func TestRunModelRejectsMissingConfig(t *testing.T) {
	err := runModel("202601010000", "/nonexistent/config.yaml", "unused-dir")
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if exitCodeOf(err) != ExitBadConfig {
		t.Errorf("exit code = %d, want ExitBadConfig", exitCodeOf(err))
	}
}
