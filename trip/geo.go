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
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LatLng is a coordinate pair in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm computes the great-circle distance in kilometers between two
// points on Earth using the haversine formula. NaN coordinates propagate
// as NaN; callers are expected to validate coordinates during parsing.
func DistanceKm(a, b LatLng) float64 {
	phi1 := degreesToRadians(a.Lat)
	phi2 := degreesToRadians(b.Lat)
	lambda1 := degreesToRadians(a.Lng)
	lambda2 := degreesToRadians(b.Lng)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(haversin(phi2-phi1)+math.Cos(phi1)*math.Cos(phi2)*haversin(lambda2-lambda1)))
}

func haversin(theta float64) float64 {
	return 0.5 * (1 - math.Cos(theta))
}

func degreesToRadians(d float64) float64 {
	return d * (math.Pi / 180)
}

// ParseCoordinates parses a coordinate string from a location history
// export. Points are formatted like "36.1699412°, -115.1398296°", though
// the degree markers are sometimes absent depending on the exporting
// device, so any non-numeric decoration is stripped before parsing.
func ParseCoordinates(s string) (LatLng, error) {
	s = strings.ReplaceAll(s, "°", "") // remove degree symbols
	s = strings.TrimPrefix(strings.TrimSpace(s), "geo:")
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return LatLng{}, errors.New("not a valid coordinate string: missing comma separator")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("not a valid coordinate string: bad latitude: %s: %w", latStr, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("not a valid coordinate string: bad longitude: %s: %w", lngStr, err)
	}
	return LatLng{Lat: lat, Lng: lng}, nil
}

const (
	earthRadiusKm = 6371

	kmToMeters    = 1000
	metersPerMile = 1609.34
)
