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
	"io"
	"sync"

	"github.com/SonnyC56/roadtrip-map/trip"
	"go.uber.org/zap"
)

// tripState is the server's view of the one open trip: the immutable
// dataset (segments + destinations + proximity index, swapped wholesale),
// the playback clock, and the document store for media and comments.
type tripState struct {
	mu      sync.RWMutex
	dataset *trip.Dataset

	clock *trip.Clock
	store *trip.Store

	log *zap.Logger
}

func newTripState(store *trip.Store) *tripState {
	return &tripState{
		dataset: &trip.Dataset{},
		clock:   trip.NewClock(),
		store:   store,
		log:     trip.Log.Named("state"),
	}
}

// Dataset returns the current dataset. The returned value is immutable;
// holders may read it freely while a replacement is swapped in.
func (ts *tripState) Dataset() *trip.Dataset {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.dataset
}

// ReplaceDataset parses a location history export and, only if it is
// valid in its entirety, swaps it in as the current dataset. A failed
// load leaves the previous dataset untouched. Concurrent replacements
// are serialized; the last write wins.
func (ts *tripState) ReplaceDataset(r io.Reader, destinations []trip.Destination) error {
	ds, err := trip.LoadDataset(r, destinations)
	if err != nil {
		return err
	}

	ts.mu.Lock()
	ts.dataset = ds
	ts.mu.Unlock()

	// a new trip invalidates the old playback position
	ts.clock.Deactivate()

	ts.log.Info("dataset replaced",
		zap.Int("segments", len(ds.Segments)),
		zap.Int("destinations", len(ds.Destinations)))
	return nil
}

// RevealNow computes the reveal state for the current dataset at the
// clock's current position.
func (ts *tripState) RevealNow() trip.RevealState {
	return trip.Reveal(ts.Dataset(), ts.clock.Snapshot())
}
