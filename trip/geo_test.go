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
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	for i, tc := range []struct {
		a, b      LatLng
		expectKm  float64
		tolerance float64
	}{
		{
			a:        LatLng{0, 0},
			b:        LatLng{0, 0},
			expectKm: 0,
		},
		{
			// the end-to-end proximity scenario: ~15.7 km from the origin
			a:         LatLng{0, 0},
			b:         LatLng{0.1, 0.1},
			expectKm:  15.72,
			tolerance: 0.05,
		},
		{
			// Las Vegas to Los Angeles, roughly 368 km
			a:         LatLng{36.1699, -115.1398},
			b:         LatLng{34.0522, -118.2437},
			expectKm:  368,
			tolerance: 5,
		},
		{
			// antipodal-ish sanity check: half the Earth's circumference
			a:         LatLng{0, 0},
			b:         LatLng{0, 180},
			expectKm:  math.Pi * earthRadiusKm,
			tolerance: 1,
		},
	} {
		actual := DistanceKm(tc.a, tc.b)
		if math.Abs(actual-tc.expectKm) > tc.tolerance {
			t.Errorf("Test %d: expected %.2f km (±%.2f), got %.2f km",
				i, tc.expectKm, tc.tolerance, actual)
		}
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := LatLng{41.8781, -87.6298}
	b := LatLng{32.7157, -117.1611}
	if d1, d2 := DistanceKm(a, b), DistanceKm(b, a); d1 != d2 {
		t.Errorf("expected symmetric distance, got %f and %f", d1, d2)
	}
}

func TestDistanceKmNaNPropagates(t *testing.T) {
	d := DistanceKm(LatLng{math.NaN(), 0}, LatLng{1, 1})
	if !math.IsNaN(d) {
		t.Errorf("expected NaN to propagate, got %f", d)
	}
}

func TestParseCoordinates(t *testing.T) {
	for i, tc := range []struct {
		input     string
		expect    LatLng
		shouldErr bool
	}{
		{
			input:  "36.1699412°, -115.1398296°",
			expect: LatLng{36.1699412, -115.1398296},
		},
		{
			input:  "0.1, 0.1",
			expect: LatLng{0.1, 0.1},
		},
		{
			input:  "geo:37.7749,-122.4194",
			expect: LatLng{37.7749, -122.4194},
		},
		{
			input:  "  -12.5° ,  100.25°  ",
			expect: LatLng{-12.5, 100.25},
		},
		{
			input:     "garbage",
			shouldErr: true,
		},
		{
			input:     "12.3°; 45.6°", // wrong separator
			shouldErr: true,
		},
		{
			input:     "abc, 45.6",
			shouldErr: true,
		},
		{
			input:     "",
			shouldErr: true,
		},
	} {
		actual, err := ParseCoordinates(tc.input)
		if tc.shouldErr {
			if err == nil {
				t.Errorf("Test %d: expected error for %q, got %+v", i, tc.input, actual)
			}
			continue
		}
		if err != nil {
			t.Errorf("Test %d: unexpected error for %q: %v", i, tc.input, err)
			continue
		}
		if actual != tc.expect {
			t.Errorf("Test %d: expected %+v, got %+v", i, tc.expect, actual)
		}
	}
}
