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
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// There is exactly one admin: the trip owner. Tokens are short-lived
// bearer tokens signed with the configured secret; no user database.
const (
	tokenIssuer   = "roadtrip-map"
	tokenLifetime = 24 * time.Hour
)

func (s *server) issueAdminToken() (string, error) {
	s.app.cfg.RLock()
	secret := s.app.cfg.TokenSecret
	s.app.cfg.RUnlock()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (s *server) verifyAdminToken(tokenStr string) error {
	s.app.cfg.RLock()
	secret := s.app.cfg.TokenSecret
	s.app.cfg.RUnlock()

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{},
		func(_ *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != "admin" {
		return errors.New("unexpected token claims")
	}
	return nil
}

// requireAdmin wraps next so it only runs with a valid admin bearer
// token. If no admin password is configured, admin endpoints do not
// exist at all.
func (s *server) requireAdmin(next handler) handler {
	return handlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		if s.app.cfg.adminPassword() == "" {
			return Error{
				Err:        errors.New("no admin password configured"),
				HTTPStatus: http.StatusNotFound,
				Log:        "admin endpoints disabled",
				Message:    "This server has no admin configured.",
			}
		}
		authz := r.Header.Get("Authorization")
		tokenStr, found := strings.CutPrefix(authz, "Bearer ")
		if !found || tokenStr == "" {
			return Error{
				Err:        errors.New("missing bearer token"),
				HTTPStatus: http.StatusUnauthorized,
				Log:        "no Authorization header",
				Message:    "You must be logged in as the trip owner to do that.",
			}
		}
		if err := s.verifyAdminToken(tokenStr); err != nil {
			return Error{
				Err:        err,
				HTTPStatus: http.StatusUnauthorized,
				Log:        "verifying admin token",
				Message:    "Invalid or expired session. Log in again.",
			}
		}
		return next.ServeHTTP(w, r)
	})
}

type loginPayload struct {
	Password string `json:"password"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) error {
	payload := r.Context().Value(ctxKeyPayload).(*loginPayload)

	configured := s.app.cfg.adminPassword()
	if configured == "" {
		return Error{
			Err:        errors.New("no admin password configured"),
			HTTPStatus: http.StatusNotFound,
			Log:        "admin endpoints disabled",
			Message:    "This server has no admin configured.",
		}
	}
	if subtle.ConstantTimeCompare([]byte(payload.Password), []byte(configured)) != 1 {
		return Error{
			Err:        errors.New("wrong password"),
			HTTPStatus: http.StatusUnauthorized,
			Log:        "admin login failed",
			Message:    "Wrong password.",
		}
	}

	token, err := s.issueAdminToken()
	if err != nil {
		return Error{
			Err:        err,
			HTTPStatus: http.StatusInternalServerError,
			Log:        "issuing admin token",
		}
	}
	return jsonResponse(w, map[string]string{"token": token}, nil)
}
