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
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"sort"
	"strings"
)

func (a *App) registerCommands() {
	a.commands = map[string]Endpoint{
		"build-info": {
			Handler: a.server.handleBuildInfo,
			Method:  http.MethodGet,
			Help:    "Displays information about this build.",
		},
		"trip": {
			Handler: a.server.handleTrip,
			Method:  http.MethodGet,
			Help:    "Returns the trip: segments, destinations, and color bands.",
		},
		"reveal": {
			Handler:     a.server.handleReveal,
			Method:      methodQuery,
			Payload:     revealPayload{},
			ContentType: JSON,
			Help:        "Returns the reveal state for the current position, a given position, or a given day.",
		},
		"timeline-activate": {
			Handler: a.server.handleTimelineActivate,
			Method:  http.MethodPost,
			Help:    "Turns timeline mode on, paused at the start of the trip.",
		},
		"timeline-deactivate": {
			Handler: a.server.handleTimelineDeactivate,
			Method:  http.MethodPost,
			Help:    "Turns timeline mode off; the whole trip becomes visible.",
		},
		"seek": {
			Handler: a.server.handleSeek,
			Method:  http.MethodPost,
			Payload: seekPayload{},
			Help:    "Jumps the playback position to a percentage of the trip.",
		},
		"play": {
			Handler: a.server.handlePlay,
			Method:  http.MethodPost,
			Help:    "Starts playback from the current position.",
		},
		"pause": {
			Handler: a.server.handlePause,
			Method:  http.MethodPost,
			Help:    "Pauses playback.",
		},
		"set-speed": {
			Handler: a.server.handleSetSpeed,
			Method:  http.MethodPost,
			Payload: speedPayload{},
			Help:    "Sets the playback speed multiplier (1, 2, 4, or 8).",
		},
		"cycle-speed": {
			Handler: a.server.handleCycleSpeed,
			Method:  http.MethodPost,
			Help:    "Advances to the next playback speed multiplier.",
		},
		"step-forward": {
			Handler: a.server.handleStepForward,
			Method:  http.MethodPost,
			Payload: stepPayload{},
			Help:    "Steps the position forward (default 5%).",
		},
		"step-backward": {
			Handler: a.server.handleStepBackward,
			Method:  http.MethodPost,
			Payload: stepPayload{},
			Help:    "Steps the position backward (default 5%).",
		},
		"media-list": {
			Handler: a.server.handleMediaList,
			Method:  http.MethodGet,
			Help:    "Returns all media records, ordered by timestamp.",
		},
		"comments": {
			Handler: a.server.handleComments,
			Method:  http.MethodGet,
			Help:    "Returns all comments, ordered by timestamp.",
		},
		"add-comment": {
			Handler: a.server.handleAddComment,
			Method:  http.MethodPost,
			Payload: addCommentPayload{},
			Help:    "Posts a visitor comment, attached to the nearest trip segment.",
		},
		"logs": {
			Handler: a.server.handleLogs,
			Method:  http.MethodGet,
			Help:    "Initiates a WebSocket connection to send logs.",
		},
		"playback": {
			Handler: a.server.handlePlayback,
			Method:  http.MethodGet,
			Help:    "Initiates a WebSocket connection broadcasting the playback clock.",
		},
		"login": {
			Handler: a.server.handleLogin,
			Method:  http.MethodPost,
			Payload: loginPayload{},
			Help:    "Exchanges the admin password for a session token.",
		},
		"upload-media": {
			Handler: a.server.requireAdmin(handlerFunc(a.server.handleUploadMedia)).ServeHTTP,
			Method:  http.MethodPost,
			Help:    "Uploads a photo or video to the journal (admin).",
		},
		"update-media": {
			Handler: a.server.requireAdmin(handlerFunc(a.server.handleUpdateMedia)).ServeHTTP,
			Method:  http.MethodPost,
			Payload: updateMediaPayload{},
			Help:    "Updates a media record's caption or timestamp (admin).",
		},
		"delete-media": {
			Handler: a.server.requireAdmin(handlerFunc(a.server.handleDeleteMedia)).ServeHTTP,
			Method:  http.MethodDelete,
			Payload: idPayload{},
			Help:    "Deletes a media record and its file (admin).",
		},
		"delete-comment": {
			Handler: a.server.requireAdmin(handlerFunc(a.server.handleDeleteComment)).ServeHTTP,
			Method:  http.MethodDelete,
			Payload: idPayload{},
			Help:    "Deletes a comment (admin).",
		},
		"replace-dataset": {
			Handler: a.server.requireAdmin(handlerFunc(a.server.handleReplaceDataset)).ServeHTTP,
			Method:  http.MethodPost,
			Help:    "Replaces the trip with an uploaded location history export (admin).",
		},
	}
}

type Endpoint struct {
	Method      string
	ContentType ContentType
	Payload     any
	Handler     handlerFunc
	Help        string
}

// GetContentType returns the Content-Type of the endpoint
// considering its default of JSON if method is POST, PUT, PATCH, or DELETE.
func (e Endpoint) GetContentType() ContentType {
	if e.ContentType == None && e.Payload != nil &&
		(e.Method == http.MethodPost || e.Method == http.MethodPut ||
			e.Method == http.MethodPatch || e.Method == http.MethodDelete ||
			e.Method == methodQuery) {
		return JSON
	}
	return e.ContentType
}

// GET but officially supports a request body.
const methodQuery = "QUERY"

type ctxKey string

var ctxKeyPayload ctxKey = "payload"

func (e Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if e.GetContentType() == JSON {
		payload := reflect.New(reflect.TypeOf(e.Payload)).Interface()
		if r.ContentLength > 0 {
			err := json.NewDecoder(r.Body).Decode(payload)
			if err != nil {
				return Error{
					Err:        err,
					HTTPStatus: http.StatusBadRequest,
					Log:        "decoding request body as JSON",
					Message:    "Invalid JSON in request body.",
				}
			}
		}
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyPayload, payload))
	}
	return e.Handler(w, r)
}

// CommandLineHelp renders the list of commands for the CLI usage text.
func (a *App) CommandLineHelp() string {
	commandNames := make([]string, 0, len(a.commands))
	for command := range a.commands {
		commandNames = append(commandNames, command)
	}
	sort.Strings(commandNames)

	var sb strings.Builder
	sb.WriteString(`Roadtrip Map serves a personal road-trip journal: a map of the trip that
reveals itself along a playback timeline, with photos and comments pinned
to the route.

It consists of a server, a command line client, and a web client. Commands
can be run via the web GUI, the CLI, or the HTTP JSON API; the CLI and API
are symmetric.

Usage:
  roadtrip-map [command] [--json <payload>]

Examples:
  $ roadtrip-map
  $ roadtrip-map serve
  $ roadtrip-map seek --json '{"position": 42.5}'

Available Commands:`)

	for _, command := range commandNames {
		endpoint := a.commands[command]
		sb.WriteString("\n  ")
		sb.WriteString(command)
		sb.WriteString("\n      ")
		sb.WriteString(endpoint.Help)
		sb.WriteRune('\n')
	}

	return sb.String()
}

// ContentType is an HTTP Content-Type value.
type ContentType string

// Content types that are supported.
const (
	JSON ContentType = "application/json"
	Form ContentType = "application/x-www-form-urlencoded"
	None ContentType = ""
)

const apiBasePath = "/api/"
