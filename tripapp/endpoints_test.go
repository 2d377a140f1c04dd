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
	"strings"
	"testing"
)

func TestEndpointGetContentType(t *testing.T) {
	for i, tc := range []struct {
		endpoint Endpoint
		expect   ContentType
	}{
		{Endpoint{Method: http.MethodPost, Payload: seekPayload{}}, JSON},
		{Endpoint{Method: http.MethodDelete, Payload: idPayload{}}, JSON},
		{Endpoint{Method: methodQuery, Payload: revealPayload{}}, JSON},
		{Endpoint{Method: http.MethodGet}, None},
		{Endpoint{Method: http.MethodPost}, None}, // no payload, no body
		{Endpoint{Method: http.MethodPost, Payload: "", ContentType: Form}, Form},
	} {
		if got := tc.endpoint.GetContentType(); got != tc.expect {
			t.Errorf("Test %d: expected content type %q, got %q", i, tc.expect, got)
		}
	}
}

func TestCommandPayload(t *testing.T) {
	for i, tc := range []struct {
		args      []string
		expect    string
		shouldErr bool
	}{
		{args: nil, expect: ""},
		{args: []string{"--json", `{"position": 50}`}, expect: `{"position": 50}`},
		{args: []string{`{"speed": 4}`}, expect: `{"speed": 4}`},
		{args: []string{"--json"}, shouldErr: true},
		{args: []string{"--position", "50"}, shouldErr: true},
	} {
		got, err := commandPayload(tc.args)
		if tc.shouldErr {
			if err == nil {
				t.Errorf("Test %d: expected error for args %v", i, tc.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("Test %d: unexpected error: %v", i, err)
			continue
		}
		if got != tc.expect {
			t.Errorf("Test %d: expected payload %q, got %q", i, tc.expect, got)
		}
	}
}

func TestRegisterCommands(t *testing.T) {
	a := &App{cfg: &Config{}}
	a.server = server{app: a}
	a.registerCommands()

	// every command must declare a method, a handler, and help text
	for name, endpoint := range a.commands {
		if endpoint.Method == "" {
			t.Errorf("command %s has no method", name)
		}
		if endpoint.Handler == nil {
			t.Errorf("command %s has no handler", name)
		}
		if endpoint.Help == "" {
			t.Errorf("command %s has no help text", name)
		}
	}

	for _, required := range []string{
		"trip", "reveal", "seek", "play", "pause", "set-speed",
		"step-forward", "step-backward", "timeline-activate",
		"timeline-deactivate", "media-list", "comments", "login",
		"replace-dataset", "logs", "playback",
	} {
		if _, ok := a.commands[required]; !ok {
			t.Errorf("expected command %s to be registered", required)
		}
	}
}

func TestCommandLineHelpListsCommands(t *testing.T) {
	a := &App{cfg: &Config{}}
	a.server = server{app: a}
	a.registerCommands()

	help := a.CommandLineHelp()
	for _, command := range []string{"serve", "seek", "play", "trip"} {
		if !strings.Contains(help, command) {
			t.Errorf("expected help text to mention %q", command)
		}
	}
}
