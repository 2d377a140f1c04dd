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

// Destination is a fixed point of interest the route is checked against.
// The list is static for the life of a dataset.
type Destination struct {
	Name     string `json:"name"`
	Location LatLng `json:"location"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
}

// DefaultDestinations is the compiled-in destination list for the default
// trip. Custom datasets use an empty list instead, since no hardcoded
// destinations make sense for an arbitrary uploaded trip.
var DefaultDestinations = []Destination{
	{Name: "Chicago", Location: LatLng{41.8781, -87.6298}, Category: "city", Icon: "🏙️"},
	{Name: "St. Louis", Location: LatLng{38.6270, -90.1994}, Category: "city", Icon: "🌉"},
	{Name: "Kansas City", Location: LatLng{39.0997, -94.5786}, Category: "city", Icon: "🍖"},
	{Name: "Denver", Location: LatLng{39.7392, -104.9903}, Category: "city", Icon: "🏔️"},
	{Name: "Rocky Mountain NP", Location: LatLng{40.3428, -105.6836}, Category: "park", Icon: "🌲"},
	{Name: "Moab", Location: LatLng{38.5733, -109.5498}, Category: "town", Icon: "🏜️"},
	{Name: "Arches NP", Location: LatLng{38.7331, -109.5925}, Category: "park", Icon: "🪨"},
	{Name: "Monument Valley", Location: LatLng{36.9980, -110.0985}, Category: "landmark", Icon: "🗿"},
	{Name: "Grand Canyon", Location: LatLng{36.1069, -112.1129}, Category: "park", Icon: "🏞️"},
	{Name: "Page", Location: LatLng{36.9147, -111.4558}, Category: "town", Icon: "💧"},
	{Name: "Zion NP", Location: LatLng{37.2982, -113.0263}, Category: "park", Icon: "⛰️"},
	{Name: "Bryce Canyon NP", Location: LatLng{37.5930, -112.1871}, Category: "park", Icon: "🔺"},
	{Name: "Las Vegas", Location: LatLng{36.1699, -115.1398}, Category: "city", Icon: "🎰"},
	{Name: "Death Valley NP", Location: LatLng{36.5054, -117.0794}, Category: "park", Icon: "🌡️"},
	{Name: "Yosemite NP", Location: LatLng{37.8651, -119.5383}, Category: "park", Icon: "🧗"},
	{Name: "San Francisco", Location: LatLng{37.7749, -122.4194}, Category: "city", Icon: "🌁"},
	{Name: "Big Sur", Location: LatLng{36.2704, -121.8081}, Category: "landmark", Icon: "🌊"},
	{Name: "Los Angeles", Location: LatLng{34.0522, -118.2437}, Category: "city", Icon: "🎬"},
	{Name: "Joshua Tree NP", Location: LatLng{33.8734, -115.9010}, Category: "park", Icon: "🌵"},
	{Name: "San Diego", Location: LatLng{32.7157, -117.1611}, Category: "city", Icon: "🏖️"},
}
