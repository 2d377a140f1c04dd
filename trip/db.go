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
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver
	"go.uber.org/zap"
)

// DBFilename is the name of the journal database inside a repo dir.
const DBFilename = "journal.db"

//go:embed schema.sql
var createDB string

// ErrNotFound is returned when a record keyed by ID does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the document store for media and comment records, plus the
// blob directory holding uploaded files. Everything user-contributed is
// in here; the trip track itself comes from the dataset feed.
type Store struct {
	db      *sql.DB
	repoDir string
	repoID  uuid.UUID
	log     *zap.Logger
}

// OpenStore opens (creating if necessary) the journal database in repoDir
// and provisions the schema and repo identity.
func OpenStore(ctx context.Context, repoDir string) (*Store, error) {
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating repo directory: %w", err)
	}

	dbPath := filepath.Join(repoDir, DBFilename)
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createDB); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up database: %w", err)
	}

	// assign this repo a persistent UUID for the UI and links
	repoID := uuid.New()
	_, err = db.ExecContext(ctx, `INSERT OR IGNORE INTO repo (key, value) VALUES (?, ?)`,
		"id", repoID.String())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("persisting repo UUID: %w", err)
	}
	var idStr string
	if err := db.QueryRowContext(ctx, `SELECT value FROM repo WHERE key='id'`).Scan(&idStr); err == nil {
		if existing, err := uuid.Parse(idStr); err == nil {
			repoID = existing
		}
	}

	s := &Store{
		db:      db,
		repoDir: repoDir,
		repoID:  repoID,
		log:     Log.Named("store"),
	}
	s.log.Info("opened journal store",
		zap.String("repo_dir", repoDir),
		zap.String("repo_id", repoID.String()))
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// ID returns the persistent repo UUID.
func (s *Store) ID() uuid.UUID { return s.repoID }

// Dir returns the repo directory.
func (s *Store) Dir() string { return s.repoDir }

// MediaDir returns the blob directory for uploaded files, creating it if
// needed.
func (s *Store) MediaDir() (string, error) {
	dir := filepath.Join(s.repoDir, "media")
	return dir, os.MkdirAll(dir, 0o755)
}

// SaveMedia inserts or replaces a media record.
func (s *Store) SaveMedia(ctx context.Context, m MediaRecord) error {
	var lat, lng any
	if m.Location != nil {
		lat, lng = m.Location.Lat, m.Location.Lng
	}
	var segID any
	if m.SegmentID != uuid.Nil {
		segID = m.SegmentID.String()
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO media
		(id, filename, media_type, caption, timestamp, segment_id, lat, lng, uploaded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.Filename, m.MediaType, m.Caption,
		m.Timestamp.UTC().UnixMilli(), segID, lat, lng,
		m.Uploaded.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving media record: %w", err)
	}
	return nil
}

// GetMedia loads one media record by ID.
func (s *Store) GetMedia(ctx context.Context, id uuid.UUID) (MediaRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, filename, media_type, caption,
		timestamp, segment_id, lat, lng, uploaded FROM media WHERE id=?`, id.String())
	m, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return MediaRecord{}, ErrNotFound
	}
	return m, err
}

// ListMedia returns all media records ordered by timestamp.
func (s *Store) ListMedia(ctx context.Context) ([]MediaRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, filename, media_type, caption,
		timestamp, segment_id, lat, lng, uploaded FROM media ORDER BY timestamp`)
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	defer rows.Close()

	var list []MediaRecord
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// DeleteMedia removes a media record and its blob file, if any.
func (s *Store) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	m, err := s.GetMedia(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE id=?`, id.String()); err != nil {
		return fmt.Errorf("deleting media record: %w", err)
	}
	if m.Filename != "" {
		mediaDir, err := s.MediaDir()
		if err == nil {
			if err := os.Remove(filepath.Join(mediaDir, m.Filename)); err != nil && !os.IsNotExist(err) {
				s.log.Error("removing media blob", zap.String("filename", m.Filename), zap.Error(err))
			}
		}
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

func scanMedia(row scanner) (MediaRecord, error) {
	var m MediaRecord
	var idStr string
	var caption, segID sql.NullString
	var lat, lng sql.NullFloat64
	var ts, uploaded int64
	err := row.Scan(&idStr, &m.Filename, &m.MediaType, &caption, &ts, &segID, &lat, &lng, &uploaded)
	if err != nil {
		return MediaRecord{}, err
	}
	m.ID, err = uuid.Parse(idStr)
	if err != nil {
		return MediaRecord{}, fmt.Errorf("malformed media ID %q: %w", idStr, err)
	}
	m.Caption = caption.String
	if segID.Valid {
		if sid, err := uuid.Parse(segID.String); err == nil {
			m.SegmentID = sid
		}
	}
	if lat.Valid && lng.Valid {
		m.Location = &LatLng{Lat: lat.Float64, Lng: lng.Float64}
	}
	m.Timestamp = time.UnixMilli(ts).UTC()
	m.Uploaded = time.UnixMilli(uploaded).UTC()
	return m, nil
}

// SaveComment inserts or replaces a comment record.
func (s *Store) SaveComment(ctx context.Context, c CommentRecord) error {
	var segID any
	if c.SegmentID != uuid.Nil {
		segID = c.SegmentID.String()
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO comments
		(id, author, body, timestamp, segment_id) VALUES (?, ?, ?, ?, ?)`,
		c.ID.String(), c.Author, c.Body, c.Timestamp.UTC().UnixMilli(), segID)
	if err != nil {
		return fmt.Errorf("saving comment: %w", err)
	}
	return nil
}

// ListComments returns all comments ordered by timestamp.
func (s *Store) ListComments(ctx context.Context) ([]CommentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, author, body, timestamp, segment_id
		FROM comments ORDER BY timestamp`)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var list []CommentRecord
	for rows.Next() {
		var c CommentRecord
		var idStr string
		var segID sql.NullString
		var ts int64
		if err := rows.Scan(&idStr, &c.Author, &c.Body, &ts, &segID); err != nil {
			return nil, err
		}
		c.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("malformed comment ID %q: %w", idStr, err)
		}
		if segID.Valid {
			if sid, err := uuid.Parse(segID.String); err == nil {
				c.SegmentID = sid
			}
		}
		c.Timestamp = time.UnixMilli(ts).UTC()
		list = append(list, c)
	}
	return list, rows.Err()
}

// DeleteComment removes a comment by ID.
func (s *Store) DeleteComment(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id=?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
