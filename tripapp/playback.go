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
	"net/http"
	"sync"
	"time"

	"github.com/SonnyC56/roadtrip-map/trip"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// playbackUpdate is one frame of the server-driven playback: the clock
// snapshot plus the reveal summary the frontend animates from. The full
// segment list is not resent per frame; clients already hold it and only
// need to know how far to draw.
type playbackUpdate struct {
	Clock         trip.ClockSnapshot `json:"clock"`
	Current       time.Time          `json:"current"`
	RevealedCount int                `json:"revealed_count"`
	Reached       []bool             `json:"reached"`
	Totals        trip.Aggregates    `json:"totals"`
	DayNumber     int                `json:"day_number"`
}

// playbackBroadcaster fans playback updates out to WebSocket subscribers.
// Like the log writer, it is best-effort: a dead conn is dropped, the
// rest keep receiving.
type playbackBroadcaster struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
	log   *zap.Logger
}

func newPlaybackBroadcaster() *playbackBroadcaster {
	return &playbackBroadcaster{
		conns: make(map[*websocket.Conn]struct{}),
		log:   trip.Log.Named("playback"),
	}
}

func (pb *playbackBroadcaster) add(conn *websocket.Conn) {
	pb.mu.Lock()
	pb.conns[conn] = struct{}{}
	pb.mu.Unlock()
}

func (pb *playbackBroadcaster) remove(conn *websocket.Conn) {
	pb.mu.Lock()
	delete(pb.conns, conn)
	pb.mu.Unlock()
}

func (pb *playbackBroadcaster) broadcast(update playbackUpdate) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	for conn := range pb.conns {
		if err := conn.WriteJSON(update); err != nil {
			// the subscribing handler removes the conn when it notices
			// the close; nothing more to do here
			pb.log.Debug("dropping playback frame", zap.Error(err))
		}
	}
}

// wirePlayback connects the clock's change notifications to the
// broadcaster. Every applied tick or (frame-coalesced) seek pushes the
// clock snapshot and reveal summary to all subscribers.
func (s *server) wirePlayback() {
	s.state.clock.OnChange(func(snap trip.ClockSnapshot) {
		ds := s.state.Dataset()
		state := trip.Reveal(ds, snap)
		s.playback.broadcast(playbackUpdate{
			Clock:         snap,
			Current:       state.Current,
			RevealedCount: len(state.Segments),
			Reached:       state.Reached,
			Totals:        state.Totals,
			DayNumber:     state.DayNumber,
		})
	})
}

func (s *server) handlePlayback(w http.ResponseWriter, r *http.Request) error {
	conn, err := s.upgradeWebSocket(w, r)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.playback.add(conn)
	defer s.playback.remove(conn)

	// greet the subscriber with the current state so it doesn't have to
	// wait for the next change
	snap := s.state.clock.Snapshot()
	state := trip.Reveal(s.state.Dataset(), snap)
	_ = conn.WriteJSON(playbackUpdate{
		Clock:         snap,
		Current:       state.Current,
		RevealedCount: len(state.Segments),
		Reached:       state.Reached,
		Totals:        state.Totals,
		DayNumber:     state.DayNumber,
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	return nil
}
