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
	"fmt"
	"sort"
	"time"
)

// routePalette is the fixed ordered palette used for route and legend
// rendering. Indexed by month-of-year in single-year mode and by year rank
// in multi-year mode, cycling when the index runs past the end.
var routePalette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231",
	"#911eb4", "#42d4f4", "#f032e6", "#bfef45",
	"#fabed4", "#469990", "#9a6324", "#800000",
}

// ColorBand is one colored span of the trip legend: a calendar month (or a
// whole year for multi-year trips), its color, and where it begins as a
// percentage of the trip duration.
type ColorBand struct {
	Label        string  `json:"label"` // e.g. "June 2025" or "2025"
	Color        string  `json:"color"`
	StartPercent float64 `json:"start_percent"`
}

// ColorBands computes the deterministic color assignment for the months
// (or years) present in the dataset. A trip within a single calendar year
// gets one palette color per month; as soon as more than one distinct year
// is observed, the banding degrades to year granularity so the legend
// stays readable.
func (d *Dataset) ColorBands() []ColorBand {
	if len(d.Segments) == 0 || d.TripDuration() <= 0 {
		return nil
	}

	type ym struct{ year, month int }
	seen := make(map[ym]struct{})
	years := make(map[int]struct{})
	for _, seg := range d.Segments {
		t := seg.StartTime.UTC()
		seen[ym{t.Year(), int(t.Month())}] = struct{}{}
		years[t.Year()] = struct{}{}
	}

	multiYear := len(years) > 1

	var bands []ColorBand
	if multiYear {
		yearList := make([]int, 0, len(years))
		for y := range years {
			yearList = append(yearList, y)
		}
		sort.Ints(yearList)
		for rank, y := range yearList {
			boundary := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
			bands = append(bands, ColorBand{
				Label:        fmt.Sprintf("%d", y),
				Color:        routePalette[rank%len(routePalette)],
				StartPercent: d.boundaryPercent(boundary),
			})
		}
		return bands
	}

	months := make([]ym, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})
	for _, m := range months {
		boundary := time.Date(m.year, time.Month(m.month), 1, 0, 0, 0, 0, time.UTC)
		bands = append(bands, ColorBand{
			Label:        fmt.Sprintf("%s %d", time.Month(m.month), m.year),
			Color:        routePalette[(m.month-1)%len(routePalette)],
			StartPercent: d.boundaryPercent(boundary),
		})
	}
	return bands
}

// SegmentColor returns the legend color for the month/year the segment
// starts in, using the same mode decision as ColorBands.
func (d *Dataset) SegmentColor(seg Segment) string {
	years := make(map[int]struct{})
	for _, s := range d.Segments {
		years[s.StartTime.UTC().Year()] = struct{}{}
	}
	t := seg.StartTime.UTC()
	if len(years) > 1 {
		yearList := make([]int, 0, len(years))
		for y := range years {
			yearList = append(yearList, y)
		}
		sort.Ints(yearList)
		for rank, y := range yearList {
			if y == t.Year() {
				return routePalette[rank%len(routePalette)]
			}
		}
	}
	return routePalette[(int(t.Month())-1)%len(routePalette)]
}

// boundaryPercent converts an absolute boundary timestamp to its position
// as a percentage of the trip duration, clamped to [0,100] since the first
// month's nominal start usually precedes the trip itself.
func (d *Dataset) boundaryPercent(boundary time.Time) float64 {
	pct := float64(boundary.Sub(d.TripStart)) / float64(d.TripDuration()) * 100
	return clampPosition(pct)
}
