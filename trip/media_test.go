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

package trip

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAssignSegment(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	loc := LatLng{1, 1}
	morning := testSegment(start, &loc)                    // 09:00-10:00
	afternoon := testSegment(start.Add(5*time.Hour), &loc) // 14:00-15:00
	evening := testSegment(start.Add(10*time.Hour), &loc)  // 19:00-20:00
	segments := []Segment{morning, afternoon, evening}

	for i, tc := range []struct {
		ts     time.Time
		expect uuid.UUID
	}{
		// inside a segment span wins outright
		{ts: start.Add(30 * time.Minute), expect: morning.ID},
		{ts: start.Add(5*time.Hour + 59*time.Minute), expect: afternoon.ID},
		// boundary instants are contained
		{ts: start, expect: morning.ID},
		{ts: start.Add(time.Hour), expect: morning.ID},
		// a gap falls to the nearest start time
		{ts: start.Add(3 * time.Hour), expect: afternoon.ID}, // 12:00 is 2h from 14:00, 3h from 09:00
		{ts: start.Add(12 * time.Hour), expect: evening.ID},  // 21:00, past the end
		{ts: start.Add(-48 * time.Hour), expect: morning.ID}, // long before the trip
		{ts: start.Add(500 * time.Hour), expect: evening.ID}, // long after the trip
		{ts: start.Add(6 * time.Hour), expect: afternoon.ID}, // 15:00 boundary instant
	} {
		got := AssignSegment(segments, tc.ts)
		if got != tc.expect {
			t.Errorf("Test %d: expected segment %s for %v, got %s", i, tc.expect, tc.ts, got)
		}
	}
}

func TestAssignSegmentEmpty(t *testing.T) {
	if got := AssignSegment(nil, time.Now()); got != uuid.Nil {
		t.Errorf("expected uuid.Nil for empty segment list, got %s", got)
	}
}

func TestExtractCaptureMetadataNoExif(t *testing.T) {
	// plain bytes with no EXIF must yield zero values, not an error path
	captured, loc := ExtractCaptureMetadata(strings.NewReader("definitely not a jpeg"))
	if !captured.IsZero() {
		t.Errorf("expected zero capture time, got %v", captured)
	}
	if loc != nil {
		t.Errorf("expected nil location, got %+v", loc)
	}
}
