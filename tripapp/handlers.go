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
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/SonnyC56/roadtrip-map/trip"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func (s *server) handleBuildInfo(w http.ResponseWriter, _ *http.Request) error {
	bi, _ := debug.ReadBuildInfo()
	return jsonResponse(w, bi, nil)
}

// tripPayload is the full trip document the frontend renders from.
type tripPayload struct {
	Segments     []trip.Segment     `json:"segments"`
	Destinations []trip.Destination `json:"destinations"`
	TripStart    time.Time          `json:"trip_start"`
	TripEnd      time.Time          `json:"trip_end"`
	TotalDays    int                `json:"total_days"`
	ColorBands   []trip.ColorBand   `json:"color_bands"`
	Totals       trip.Aggregates    `json:"totals"`
	Clock        trip.ClockSnapshot `json:"clock"`
}

func (s *server) handleTrip(w http.ResponseWriter, _ *http.Request) error {
	ds := s.state.Dataset()
	result := tripPayload{
		Segments:     ds.Segments,
		Destinations: ds.Destinations,
		TripStart:    ds.TripStart,
		TripEnd:      ds.TripEnd,
		TotalDays:    ds.TotalDays(),
		ColorBands:   ds.ColorBands(),
		Totals:       trip.Aggregate(ds.Segments),
		Clock:        s.state.clock.Snapshot(),
	}
	return jsonResponse(w, result, nil)
}

type revealPayload struct {
	// Position, if set, computes the reveal for that position without
	// moving the clock (the slider preview case). Day, if positive,
	// returns the day view instead. Neither set means the clock's
	// current position.
	Position *float64 `json:"position,omitempty"`
	Day      int      `json:"day,omitempty"`
}

func (s *server) handleReveal(w http.ResponseWriter, r *http.Request) error {
	payload := r.Context().Value(ctxKeyPayload).(*revealPayload)
	ds := s.state.Dataset()

	if payload.Day > 0 {
		return jsonResponse(w, trip.RevealDay(ds, payload.Day), nil)
	}

	snap := s.state.clock.Snapshot()
	if payload.Position != nil {
		snap.Position = *payload.Position
	}
	return jsonResponse(w, trip.Reveal(ds, snap), nil)
}

func (s *server) handleTimelineActivate(w http.ResponseWriter, _ *http.Request) error {
	s.state.clock.Activate()
	return jsonResponse(w, s.state.clock.Snapshot(), nil)
}

func (s *server) handleTimelineDeactivate(w http.ResponseWriter, _ *http.Request) error {
	s.state.clock.Deactivate()
	return jsonResponse(w, s.state.clock.Snapshot(), nil)
}

type seekPayload struct {
	Position float64 `json:"position"`
}

func (s *server) handleSeek(w http.ResponseWriter, r *http.Request) error {
	payload := r.Context().Value(ctxKeyPayload).(*seekPayload)
	s.state.clock.Seek(payload.Position)
	return jsonResponse(w, s.state.clock.Snapshot(), nil)
}

func (s *server) handlePlay(w http.ResponseWriter, _ *http.Request) error {
	s.state.clock.Play()
	return jsonResponse(w, s.state.clock.Snapshot(), nil)
}

func (s *server) handlePause(w http.ResponseWriter, _ *http.Request) error {
	s.state.clock.Pause()
	return jsonResponse(w, s.state.clock.Snapshot(), nil)
}

type speedPayload struct {
	Speed int `json:"speed"`
}

func (s *server) handleSetSpeed(w http.ResponseWriter, r *http.Request) error {
	payload := r.Context().Value(ctxKeyPayload).(*speedPayload)
	s.state.clock.SetSpeed(payload.Speed)
	return jsonResponse(w, s.state.clock.Snapshot(), nil)
}

func (s *server) handleCycleSpeed(w http.ResponseWriter, _ *http.Request) error {
	s.state.clock.CycleSpeed()
	return jsonResponse(w, s.state.clock.Snapshot(), nil)
}

type stepPayload struct {
	Percent float64 `json:"percent,omitempty"`
}

func (s *server) handleStepForward(w http.ResponseWriter, r *http.Request) error {
	payload := r.Context().Value(ctxKeyPayload).(*stepPayload)
	s.state.clock.StepForward(payload.Percent)
	return jsonResponse(w, s.state.clock.Snapshot(), nil)
}

func (s *server) handleStepBackward(w http.ResponseWriter, r *http.Request) error {
	payload := r.Context().Value(ctxKeyPayload).(*stepPayload)
	s.state.clock.StepBackward(payload.Percent)
	return jsonResponse(w, s.state.clock.Snapshot(), nil)
}

func (s *server) handleMediaList(w http.ResponseWriter, r *http.Request) error {
	list, err := s.state.store.ListMedia(r.Context())
	return jsonResponse(w, list, err)
}

func (s *server) handleComments(w http.ResponseWriter, r *http.Request) error {
	list, err := s.state.store.ListComments(r.Context())
	return jsonResponse(w, list, err)
}

type addCommentPayload struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

func (s *server) handleAddComment(w http.ResponseWriter, r *http.Request) error {
	payload := r.Context().Value(ctxKeyPayload).(*addCommentPayload)

	author := strings.TrimSpace(payload.Author)
	body := strings.TrimSpace(payload.Body)
	if author == "" || body == "" {
		return Error{
			Err:        errors.New("missing author or body"),
			HTTPStatus: http.StatusBadRequest,
			Message:    "Comments need both a name and a message.",
		}
	}
	const maxCommentLen = 4096
	if len(body) > maxCommentLen {
		return Error{
			Err:        fmt.Errorf("comment is %d bytes", len(body)),
			HTTPStatus: http.StatusBadRequest,
			Message:    "That comment is too long.",
		}
	}

	// a comment attaches to the moment of the trip the visitor was
	// looking at, or to the nearest segment to "now" outside timeline mode
	ds := s.state.Dataset()
	attachTime := time.Now()
	if snap := s.state.clock.Snapshot(); snap.State != trip.ClockIdle.String() {
		attachTime = ds.PositionTimestamp(snap.Position)
	}

	record := trip.CommentRecord{
		ID:        uuid.New(),
		Author:    author,
		Body:      body,
		Timestamp: time.Now().UTC(),
		SegmentID: trip.AssignSegment(ds.Segments, attachTime),
	}
	if err := s.state.store.SaveComment(r.Context(), record); err != nil {
		return err
	}
	return jsonResponse(w, record, nil)
}

type idPayload struct {
	ID string `json:"id"`
}

func (p idPayload) uuid() (uuid.UUID, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return uuid.Nil, Error{
			Err:        err,
			HTTPStatus: http.StatusBadRequest,
			Log:        "parsing record ID",
			Message:    "Malformed record ID.",
		}
	}
	return id, nil
}

func (s *server) handleDeleteComment(w http.ResponseWriter, r *http.Request) error {
	payload := r.Context().Value(ctxKeyPayload).(*idPayload)
	id, err := payload.uuid()
	if err != nil {
		return err
	}
	return jsonResponse(w, nil, s.state.store.DeleteComment(r.Context(), id))
}

// uploads larger than this are rejected before buffering
const maxUploadSize = 256 << 20

func (s *server) handleUploadMedia(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		return Error{
			Err:        err,
			HTTPStatus: http.StatusBadRequest,
			Log:        "reading multipart upload",
			Message:    "The upload needs a 'file' form field.",
		}
	}
	defer file.Close()

	// buffer the whole file so EXIF can be read before it is written out
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return Error{
			Err:        err,
			HTTPStatus: http.StatusBadRequest,
			Log:        "buffering upload",
		}
	}

	mediaType := mime.TypeByExtension(filepath.Ext(header.Filename))
	if mediaType == "" {
		mediaType = header.Header.Get("Content-Type")
	}

	id := uuid.New()
	filename := id.String() + strings.ToLower(filepath.Ext(header.Filename))

	mediaDir, err := s.state.store.MediaDir()
	if err != nil {
		return fmt.Errorf("preparing media directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(mediaDir, filename), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing media file: %w", err)
	}

	// photo EXIF supplies the capture time and GPS fix when present;
	// otherwise the upload time stands in
	timestamp := time.Now().UTC()
	captured, location := trip.ExtractCaptureMetadata(bytes.NewReader(buf.Bytes()))
	if !captured.IsZero() {
		timestamp = captured
	}

	ds := s.state.Dataset()
	record := trip.MediaRecord{
		ID:        id,
		Filename:  filename,
		MediaType: mediaType,
		Caption:   r.FormValue("caption"),
		Timestamp: timestamp,
		SegmentID: trip.AssignSegment(ds.Segments, timestamp),
		Location:  location,
		Uploaded:  time.Now().UTC(),
	}
	if err := s.state.store.SaveMedia(r.Context(), record); err != nil {
		// don't leave an orphaned blob behind
		_ = os.Remove(filepath.Join(mediaDir, filename))
		return err
	}
	return jsonResponse(w, record, nil)
}

type updateMediaPayload struct {
	ID        string     `json:"id"`
	Caption   *string    `json:"caption,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (s *server) handleUpdateMedia(w http.ResponseWriter, r *http.Request) error {
	payload := r.Context().Value(ctxKeyPayload).(*updateMediaPayload)
	id, err := idPayload{ID: payload.ID}.uuid()
	if err != nil {
		return err
	}

	record, err := s.state.store.GetMedia(r.Context(), id)
	if err != nil {
		return err
	}
	if payload.Caption != nil {
		record.Caption = *payload.Caption
	}
	if payload.Timestamp != nil {
		record.Timestamp = payload.Timestamp.UTC()
		// a new timestamp can move the media to a different segment
		record.SegmentID = trip.AssignSegment(s.state.Dataset().Segments, record.Timestamp)
	}
	if err := s.state.store.SaveMedia(r.Context(), record); err != nil {
		return err
	}
	return jsonResponse(w, record, nil)
}

func (s *server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) error {
	payload := r.Context().Value(ctxKeyPayload).(*idPayload)
	id, err := payload.uuid()
	if err != nil {
		return err
	}
	return jsonResponse(w, nil, s.state.store.DeleteMedia(r.Context(), id))
}

func (s *server) handleReplaceDataset(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	// custom datasets come with no compiled-in destination list; the
	// defaults only describe the original trip
	if err := s.state.ReplaceDataset(r.Body, nil); err != nil {
		return Error{
			Err:        err,
			HTTPStatus: http.StatusBadRequest,
			Log:        "loading uploaded dataset",
			Message:    "That file doesn't look like a location history export. The previous trip is still loaded.",
		}
	}
	return jsonResponse(w, s.state.Dataset().TotalDays(), nil)
}

func (s *server) handleLogs(w http.ResponseWriter, r *http.Request) error {
	conn, err := s.upgradeWebSocket(w, r)
	if err != nil {
		return err
	}
	defer conn.Close()

	// while the client is connected, broadcast the logs to it
	trip.AddLogConn(conn)
	defer trip.RemoveLogConn(conn)

	// simply keep the connection open until the client closes it
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	return nil
}

func (s *server) upgradeWebSocket(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, Error{
			Err:        err,
			HTTPStatus: http.StatusBadRequest,
			Log:        "upgrading request to websocket",
			Message:    "This endpoint expects a WebSocket client.",
		}
	}
	return conn, nil
}

func (s *server) serveFrontend(w http.ResponseWriter, r *http.Request) error {
	s.staticFiles.ServeHTTP(w, r)
	return nil
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true }, // we check Origin earlier
}
