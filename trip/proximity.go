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
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReachThresholdKm is how close a segment must come to a destination to
// count as reaching it.
const ReachThresholdKm = 50

// ProximityIndex maps a segment ID to the indices of the destinations it
// reaches. The representation is sparse: a segment near no destination has
// no entry at all, which readers must treat the same as an empty set.
type ProximityIndex map[uuid.UUID][]int

// BuildProximityIndex computes, for every segment, which destinations lie
// within thresholdKm of it. A segment reaches a destination if any of its
// visit location, first path point, or last path point qualifies; which one
// does not matter, so the scan short-circuits on the first qualifying point.
//
// This is O(segments × destinations) by design. The index is built exactly
// once per dataset load, never per frame and never incrementally; at a few
// thousand segments and a few dozen destinations it is a few hundred
// thousand haversine evaluations, which is cheap to do once.
func BuildProximityIndex(segments []Segment, destinations []Destination, thresholdKm float64) ProximityIndex {
	index := make(ProximityIndex)

	// custom datasets have no destinations; skip the scan entirely
	if len(destinations) == 0 {
		return index
	}

	start := time.Now()

	for _, seg := range segments {
		candidates := segmentCandidatePoints(seg)
		if len(candidates) == 0 {
			continue
		}

		var nearby []int
		for di, dest := range destinations {
			for _, pt := range candidates {
				if DistanceKm(pt, dest.Location) <= thresholdKm {
					nearby = append(nearby, di)
					break
				}
			}
		}
		if len(nearby) > 0 {
			index[seg.ID] = nearby
		}
	}

	Log.Named("proximity").Info("built proximity index",
		zap.Int("segments", len(segments)),
		zap.Int("destinations", len(destinations)),
		zap.Int("indexed_segments", len(index)),
		zap.Float64("threshold_km", thresholdKm),
		zap.Duration("elapsed", time.Since(start)))

	return index
}

// segmentCandidatePoints returns the points of a segment that are tested
// against destinations: the visit location and the path endpoints.
func segmentCandidatePoints(seg Segment) []LatLng {
	pts := make([]LatLng, 0, 3)
	if seg.Visit != nil {
		pts = append(pts, seg.Visit.Location)
	}
	if len(seg.Path) > 0 {
		pts = append(pts, seg.Path[0].LatLng)
		if len(seg.Path) > 1 {
			pts = append(pts, seg.Path[len(seg.Path)-1].LatLng)
		}
	}
	return pts
}
