package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"practice-roster/internal/roster"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLite keeps timestamps as unix milliseconds and the roster as JSON text.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func toMillis(v time.Time) int64 {
	return v.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// yields a private in-process database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + filepath.Clean(path)
	}
	dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// from splitting across connections.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.db, goose.DialectSQLite3)
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func mapSQLite(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isSQLiteUniqueViolation(err):
		return ErrAlreadyExists
	default:
		return err
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const sqlitePracticeColumns = `id, date_ms, start_ms, end_ms, roster, carried_over_ms, version, created_ms`

func scanSQLitePractice(row rowScanner) (Practice, error) {
	var (
		p                               Practice
		dateMS, startMS, endMS, created int64
		raw                             string
		carried                         sql.NullInt64
	)
	if err := row.Scan(&p.ID, &dateMS, &startMS, &endMS, &raw, &carried, &p.Version, &created); err != nil {
		return Practice{}, mapSQLite(err)
	}
	if err := json.Unmarshal([]byte(raw), &p.Roster); err != nil {
		return Practice{}, fmt.Errorf("decode roster %s: %w", p.ID, err)
	}
	p.Date = fromMillis(dateMS)
	p.StartTime = fromMillis(startMS)
	p.EndTime = fromMillis(endMS)
	p.CreatedAt = fromMillis(created)
	if carried.Valid {
		t := fromMillis(carried.Int64)
		p.CarriedOverAt = &t
	}
	return p, nil
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func (s *SQLite) CreatePractice(ctx context.Context, p *Practice) error {
	raw, err := encodeRoster(p.Roster)
	if err != nil {
		return wrap("create practice", err)
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	created := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO practices (id, date_ms, start_ms, end_ms, roster, carried_over_ms, version, created_ms)
VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
		p.ID, toMillis(p.Date), toMillis(p.StartTime), toMillis(p.EndTime), string(raw), nullMillis(p.CarriedOverAt), toMillis(created))
	if err != nil {
		return wrap("create practice", mapSQLite(err))
	}
	p.Version = 1
	p.CreatedAt = fromMillis(toMillis(created))
	return nil
}

func (s *SQLite) GetPractice(ctx context.Context, id string) (Practice, error) {
	p, err := scanSQLitePractice(s.db.QueryRowContext(ctx, `SELECT `+sqlitePracticeColumns+` FROM practices WHERE id = ?`, id))
	return p, wrap("get practice", err)
}

func (s *SQLite) GetPracticeByStart(ctx context.Context, start time.Time) (Practice, error) {
	p, err := scanSQLitePractice(s.db.QueryRowContext(ctx, `
SELECT `+sqlitePracticeColumns+` FROM practices WHERE start_ms = ? ORDER BY id LIMIT 1`, toMillis(start)))
	return p, wrap("get practice by start", err)
}

func (s *SQLite) GetPracticeByDate(ctx context.Context, date time.Time) (Practice, error) {
	day := DayOf(date)
	p, err := scanSQLitePractice(s.db.QueryRowContext(ctx, `
SELECT `+sqlitePracticeColumns+` FROM practices
WHERE date_ms >= ? AND date_ms < ?
ORDER BY start_ms, id LIMIT 1`, toMillis(day), toMillis(day.Add(24*time.Hour))))
	return p, wrap("get practice by date", err)
}

func (s *SQLite) ListFuturePractices(ctx context.Context, after time.Time) ([]Practice, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+sqlitePracticeColumns+` FROM practices WHERE start_ms > ? ORDER BY start_ms, id`, toMillis(after))
	if err != nil {
		return nil, wrap("list practices", err)
	}
	defer rows.Close()
	out := []Practice{}
	for rows.Next() {
		p, err := scanSQLitePractice(rows)
		if err != nil {
			return nil, wrap("list practices", err)
		}
		out = append(out, p)
	}
	return out, wrap("list practices", rows.Err())
}

func (s *SQLite) UpdatePractice(ctx context.Context, p *Practice) error {
	raw, err := encodeRoster(p.Roster)
	if err != nil {
		return wrap("update practice", err)
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE practices
SET date_ms = ?, start_ms = ?, end_ms = ?, roster = ?, carried_over_ms = ?, version = version + 1
WHERE id = ? AND version = ?`,
		toMillis(p.Date), toMillis(p.StartTime), toMillis(p.EndTime), string(raw), nullMillis(p.CarriedOverAt), p.ID, p.Version)
	if err != nil {
		return wrap("update practice", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("update practice", err)
	}
	if n == 0 {
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM practices WHERE id = ?`, p.ID).Scan(&one)
		if err != nil {
			return wrap("update practice", mapSQLite(err))
		}
		return ErrVersionConflict
	}
	p.Version++
	return nil
}

const sqliteParticipantColumns = `id, name, email, member_id, external_handle, side, created_ms`

func scanSQLiteParticipant(row rowScanner) (Participant, error) {
	var (
		p       Participant
		side    string
		created int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.MemberID, &p.ExternalHandle, &side, &created); err != nil {
		return Participant{}, mapSQLite(err)
	}
	p.Side = roster.Side(side)
	p.CreatedAt = fromMillis(created)
	return p, nil
}

func (s *SQLite) CreateParticipant(ctx context.Context, p *Participant) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Side == "" {
		p.Side = roster.SideUnspecified
	}
	created := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO participants (id, name, name_key, email, member_id, external_handle, side, created_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, normalizeName(p.Name), p.Email, p.MemberID, p.ExternalHandle, string(p.Side), toMillis(created))
	if err != nil {
		return wrap("create participant", mapSQLite(err))
	}
	p.CreatedAt = fromMillis(toMillis(created))
	return nil
}

func (s *SQLite) UpdateParticipant(ctx context.Context, p Participant) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE participants
SET name = ?, name_key = ?, email = ?, member_id = ?, external_handle = ?, side = ?
WHERE id = ?`,
		p.Name, normalizeName(p.Name), p.Email, p.MemberID, p.ExternalHandle, string(p.Side), p.ID)
	if err != nil {
		return wrap("update participant", mapSQLite(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("update participant", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) UpdateParticipantProfile(ctx context.Context, id string, profile Profile) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE participants
SET name = ?, name_key = ?, email = ?, member_id = ?, side = ?
WHERE id = ?`,
		profile.Name, normalizeName(profile.Name), profile.Email, profile.MemberID, string(sideOrUnspecified(profile.Side)), id)
	if err != nil {
		return wrap("update participant profile", mapSQLite(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("update participant profile", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) GetParticipant(ctx context.Context, id string) (Participant, error) {
	p, err := scanSQLiteParticipant(s.db.QueryRowContext(ctx, `SELECT `+sqliteParticipantColumns+` FROM participants WHERE id = ?`, id))
	return p, wrap("get participant", err)
}

func (s *SQLite) GetParticipantByEmail(ctx context.Context, email string) (Participant, error) {
	key := normalizeEmail(email)
	if key == "" {
		return Participant{}, ErrNotFound
	}
	p, err := scanSQLiteParticipant(s.db.QueryRowContext(ctx, `
SELECT `+sqliteParticipantColumns+` FROM participants WHERE email <> '' AND lower(email) = ?`, key))
	return p, wrap("get participant by email", err)
}

func (s *SQLite) GetParticipantByHandle(ctx context.Context, handle string) (Participant, error) {
	if handle == "" {
		return Participant{}, ErrNotFound
	}
	p, err := scanSQLiteParticipant(s.db.QueryRowContext(ctx, `
SELECT `+sqliteParticipantColumns+` FROM participants WHERE external_handle = ?`, handle))
	return p, wrap("get participant by handle", err)
}

func (s *SQLite) GetParticipantByName(ctx context.Context, name string) (Participant, error) {
	key := normalizeName(name)
	if key == "" {
		return Participant{}, ErrNotFound
	}
	p, err := scanSQLiteParticipant(s.db.QueryRowContext(ctx, `
SELECT `+sqliteParticipantColumns+` FROM participants WHERE name_key = ? ORDER BY id LIMIT 1`, key))
	return p, wrap("get participant by name", err)
}

func (s *SQLite) GetImportCursor(ctx context.Context, source string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT rows_consumed FROM import_cursors WHERE source = ?`, source).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, wrap("get import cursor", err)
	}
	return n, nil
}

func (s *SQLite) SetImportCursor(ctx context.Context, source string, rows int) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO import_cursors (source, rows_consumed, updated_ms)
VALUES (?, ?, ?)
ON CONFLICT (source) DO UPDATE SET rows_consumed = excluded.rows_consumed, updated_ms = excluded.updated_ms`,
		source, rows, toMillis(s.now()))
	return wrap("set import cursor", err)
}
