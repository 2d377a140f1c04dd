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
	"io"
	"time"

	"github.com/cozy/goexif2/exif"
	"github.com/google/uuid"
)

// MediaRecord is an uploaded photo or video attached to the trip. The
// file itself lives in the blob directory; this record is the document
// stored alongside it.
type MediaRecord struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"` // relative to the repo's media dir
	MediaType string    `json:"media_type"`
	Caption   string    `json:"caption,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	SegmentID uuid.UUID `json:"segment_id,omitempty"` // the trip segment this belongs to
	Location  *LatLng   `json:"location,omitempty"`   // from EXIF, when present
	Uploaded  time.Time `json:"uploaded"`
}

// CommentRecord is a visitor comment attached to a trip segment.
type CommentRecord struct {
	ID        uuid.UUID `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	SegmentID uuid.UUID `json:"segment_id,omitempty"`
}

// AssignSegment finds the trip segment a timestamped item (a media upload
// or a comment) logically belongs to: the segment whose [start, end] span
// contains the timestamp, or failing that, the segment whose start time
// is closest. Returns uuid.Nil for an empty dataset.
func AssignSegment(segments []Segment, ts time.Time) uuid.UUID {
	if len(segments) == 0 {
		return uuid.Nil
	}

	var closest uuid.UUID
	var closestDelta time.Duration = 1<<63 - 1

	for _, seg := range segments {
		if !ts.Before(seg.StartTime) && !ts.After(seg.EndTime) {
			return seg.ID
		}
		delta := seg.StartTime.Sub(ts)
		if delta < 0 {
			delta = -delta
		}
		if delta < closestDelta {
			closestDelta = delta
			closest = seg.ID
		}
	}
	return closest
}

// ExtractCaptureMetadata reads EXIF from an uploaded photo and returns its
// capture time and GPS position, as far as they are present. A file with
// no EXIF (or a video) is not an error; the zero time and nil location are
// returned and the caller falls back to the upload time.
func ExtractCaptureMetadata(r io.Reader) (time.Time, *LatLng) {
	ex, err := exif.Decode(r)
	if err != nil {
		return time.Time{}, nil
	}

	var captured time.Time
	if dt, err := ex.DateTime(); err == nil {
		captured = dt
	}

	var loc *LatLng
	if lat, lng, err := ex.LatLong(); err == nil {
		loc = &LatLng{Lat: lat, Lng: lng}
	}

	return captured, loc
}
