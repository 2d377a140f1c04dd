/*
	Roadtrip Map
	Copyright (c) 2025 Roadtrip Map contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package tripapp

import (
	"strings"
	"testing"

	"github.com/SonnyC56/roadtrip-map/trip"
)

const validExport = `{
	"semanticSegments": [
		{
			"startTime": "2025-06-01T09:00:00Z",
			"endTime": "2025-06-01T11:00:00Z",
			"visit": {
				"probability": 0.9,
				"topCandidate": {"placeLocation": "41.8781°, -87.6298°"}
			}
		}
	]
}`

func TestReplaceDatasetSwapsWhole(t *testing.T) {
	ts := newTripState(nil)

	if err := ts.ReplaceDataset(strings.NewReader(validExport), trip.DefaultDestinations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(ts.Dataset().Segments); got != 1 {
		t.Fatalf("expected 1 segment after replacement, got %d", got)
	}
	if got := len(ts.Dataset().Destinations); got != len(trip.DefaultDestinations) {
		t.Errorf("expected destinations swapped in with the segments, got %d", got)
	}
}

func TestReplaceDatasetRejectionKeepsPrevious(t *testing.T) {
	ts := newTripState(nil)
	if err := ts.ReplaceDataset(strings.NewReader(validExport), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := ts.Dataset()

	for i, bad := range []string{
		`{"wrongKey": []}`,
		`truncated {`,
		``,
	} {
		if err := ts.ReplaceDataset(strings.NewReader(bad), nil); err == nil {
			t.Errorf("Test %d: expected error for invalid input", i)
		}
		if ts.Dataset() != before {
			t.Errorf("Test %d: expected previous dataset to remain active", i)
		}
	}
}

func TestReplaceDatasetResetsClock(t *testing.T) {
	ts := newTripState(nil)
	ts.clock.Activate()
	ts.clock.Seek(60)

	if err := ts.ReplaceDataset(strings.NewReader(validExport), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := ts.clock.Snapshot()
	if snap.State != trip.ClockIdle.String() || snap.Position != 0 {
		t.Errorf("expected clock reset to idle after dataset replacement, got %+v", snap)
	}
}

func TestRevealNowEmpty(t *testing.T) {
	ts := newTripState(nil)
	state := ts.RevealNow()
	if len(state.Segments) != 0 || state.Totals.DistanceMeters != 0 {
		t.Errorf("expected empty reveal for fresh state, got %+v", state)
	}
}
