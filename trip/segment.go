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

// Package trip implements the core of the road-trip journal: ingestion of
// Google Timeline semantic segment exports, the destination proximity
// index, the playback clock, the reveal engine, and the persistence of
// media and comments attached to the trip.
package trip

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Segment is one time-bounded slice of the trip: a visit to a place, a
// movement between two points, or a raw recorded path. Segments are
// immutable after ingestion; a dataset is only ever replaced wholesale.
type Segment struct {
	// ID is assigned at ingestion. The wire format has no unique key of
	// its own, and start times can collide, so we mint one.
	ID uuid.UUID `json:"id"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Path is the ordered GPS samples of this segment; may be empty.
	Path []PathPoint `json:"path,omitempty"`

	Visit    *Visit    `json:"visit,omitempty"`
	Activity *Activity `json:"activity,omitempty"`
}

// PathPoint is a single timestamped sample of the recorded route.
type PathPoint struct {
	LatLng
	Time time.Time `json:"time"`
}

// Visit represents a stop at a place.
type Visit struct {
	Location     LatLng  `json:"location"`
	SemanticType string  `json:"semantic_type,omitempty"`
	Probability  float64 `json:"probability"`
}

// Activity represents movement between two points.
type Activity struct {
	Start          *LatLng `json:"start,omitempty"`
	End            *LatLng `json:"end,omitempty"`
	Type           string  `json:"type,omitempty"`
	DistanceMeters float64 `json:"distance_meters"`
}

// Dataset is one fully-loaded trip: the segment list, the destination
// list, and the proximity index derived from both. A Dataset is built
// once and never mutated; replacing the trip data means building a new
// Dataset and swapping it in atomically.
type Dataset struct {
	Segments     []Segment     `json:"segments"`
	Destinations []Destination `json:"destinations"`

	TripStart time.Time `json:"trip_start"`
	TripEnd   time.Time `json:"trip_end"`

	// Index maps each segment ID to the destinations it reaches.
	// Built exactly once, in LoadDataset.
	Index ProximityIndex `json:"-"`
}

// TripDuration returns the total span of the trip. Zero for an
// empty dataset.
func (d *Dataset) TripDuration() time.Duration {
	return d.TripEnd.Sub(d.TripStart)
}

// TotalDays returns the number of (possibly partial) calendar days the
// trip spans, at least 1 for any non-empty dataset.
func (d *Dataset) TotalDays() int {
	if len(d.Segments) == 0 {
		return 0
	}
	days := int((d.TripDuration() + 24*time.Hour - 1) / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	return days
}

// PositionTimestamp converts a timeline position in [0,100] to the
// absolute time it represents within this trip.
func (d *Dataset) PositionTimestamp(position float64) time.Time {
	return d.TripStart.Add(time.Duration(position / 100 * float64(d.TripDuration())))
}

// The wire format of the location history export ("semanticSegments").
// Coordinates come as degree-marked strings; see ParseCoordinates.
type semanticSegmentsFile struct {
	SemanticSegments []semanticSegment `json:"semanticSegments"`
}

type semanticSegment struct {
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	TimelinePath []struct {
		Point string    `json:"point"`
		Time  time.Time `json:"time"`
	} `json:"timelinePath,omitempty"`
	Visit struct {
		Probability  float64 `json:"probability"`
		TopCandidate struct {
			PlaceLocation string  `json:"placeLocation"`
			SemanticType  string  `json:"semanticType"`
			Probability   float64 `json:"probability"`
		} `json:"topCandidate"`
	} `json:"visit,omitempty"`
	Activity struct {
		Start struct {
			LatLng string `json:"latLng"`
		} `json:"start"`
		End struct {
			LatLng string `json:"latLng"`
		} `json:"end"`
		DistanceMeters float64 `json:"distanceMeters"`
		TopCandidate   struct {
			Type string `json:"type"`
		} `json:"topCandidate"`
	} `json:"activity,omitempty"`
}

// LoadDataset decodes a semanticSegments export from r, validates it, and
// builds a complete Dataset including its proximity index. The input is
// either accepted whole or rejected whole: a decode or validation error
// leaves no partial state behind, so the caller's previous dataset (if
// any) remains usable. Individual malformed coordinate strings are not
// errors; the bad point simply contributes nothing.
func LoadDataset(r io.Reader, destinations []Destination) (*Dataset, error) {
	var doc semanticSegmentsFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding location history: %w", err)
	}
	if doc.SemanticSegments == nil {
		return nil, errors.New("invalid location history: missing semanticSegments array")
	}

	segments := make([]Segment, 0, len(doc.SemanticSegments))
	var badPoints int

	for _, ss := range doc.SemanticSegments {
		seg := Segment{
			ID:        uuid.New(),
			StartTime: ss.StartTime,
			EndTime:   ss.EndTime,
		}

		for _, vertex := range ss.TimelinePath {
			coord, err := ParseCoordinates(vertex.Point)
			if err != nil {
				badPoints++
				continue // a single bad sample must not invalidate the segment
			}
			seg.Path = append(seg.Path, PathPoint{LatLng: coord, Time: vertex.Time})
		}

		if ss.Visit.TopCandidate.PlaceLocation != "" {
			if coord, err := ParseCoordinates(ss.Visit.TopCandidate.PlaceLocation); err == nil {
				prob := ss.Visit.Probability
				if prob == 0 {
					prob = ss.Visit.TopCandidate.Probability
				}
				seg.Visit = &Visit{
					Location:     coord,
					SemanticType: ss.Visit.TopCandidate.SemanticType,
					Probability:  prob,
				}
			} else {
				badPoints++
			}
		}

		if ss.Activity.DistanceMeters > 0 || ss.Activity.Start.LatLng != "" {
			act := &Activity{
				Type:           ss.Activity.TopCandidate.Type,
				DistanceMeters: ss.Activity.DistanceMeters,
			}
			if coord, err := ParseCoordinates(ss.Activity.Start.LatLng); err == nil {
				act.Start = &coord
			}
			if coord, err := ParseCoordinates(ss.Activity.End.LatLng); err == nil {
				act.End = &coord
			}
			seg.Activity = act
		}

		segments = append(segments, seg)
	}

	// chronological order; ingestion is the only place that sorts, so the
	// reveal engine can assume it
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].StartTime.Before(segments[j].StartTime)
	})

	ds := &Dataset{
		Segments:     segments,
		Destinations: destinations,
	}
	for i, seg := range segments {
		if i == 0 || seg.StartTime.Before(ds.TripStart) {
			ds.TripStart = seg.StartTime
		}
		if seg.EndTime.After(ds.TripEnd) {
			ds.TripEnd = seg.EndTime
		}
	}
	ds.Index = BuildProximityIndex(segments, destinations, ReachThresholdKm)

	Log.Named("dataset").Info("loaded trip dataset",
		zap.Int("segments", len(segments)),
		zap.Int("destinations", len(destinations)),
		zap.Int("skipped_points", badPoints),
		zap.Time("trip_start", ds.TripStart),
		zap.Time("trip_end", ds.TripEnd))

	return ds, nil
}
