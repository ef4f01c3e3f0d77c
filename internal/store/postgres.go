package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"practice-roster/internal/roster"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type Postgres struct {
	Pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{Pool: pool}, nil
}

func (s *Postgres) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

func (s *Postgres) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.Pool)
	defer db.Close()
	return Migrate(ctx, db, goose.DialectPostgres)
}

const practiceColumns = `id, date, start_time, end_time, roster, carried_over_at, version, created_at`

func scanPractice(row pgx.Row) (Practice, error) {
	var (
		p       Practice
		raw     []byte
		carried pgtype.Timestamptz
	)
	if err := row.Scan(&p.ID, &p.Date, &p.StartTime, &p.EndTime, &raw, &carried, &p.Version, &p.CreatedAt); err != nil {
		return Practice{}, mapNotFound(err)
	}
	if err := json.Unmarshal(raw, &p.Roster); err != nil {
		return Practice{}, fmt.Errorf("decode roster %s: %w", p.ID, err)
	}
	p.Date = p.Date.UTC()
	p.StartTime = p.StartTime.UTC()
	p.EndTime = p.EndTime.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.CarriedOverAt = timePtrVal(carried)
	return p, nil
}

func encodeRoster(r roster.Roster) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

func (s *Postgres) CreatePractice(ctx context.Context, p *Practice) error {
	raw, err := encodeRoster(p.Roster)
	if err != nil {
		return wrap("create practice", err)
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	err = s.Pool.QueryRow(ctx, `
INSERT INTO practices (id, date, start_time, end_time, roster, carried_over_at, version)
VALUES ($1, $2, $3, $4, $5, $6, 1)
RETURNING version, created_at`,
		p.ID, p.Date, p.StartTime, p.EndTime, raw, timeParam(p.CarriedOverAt),
	).Scan(&p.Version, &p.CreatedAt)
	if err != nil {
		return wrap("create practice", mapUnique(err))
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

func (s *Postgres) GetPractice(ctx context.Context, id string) (Practice, error) {
	p, err := scanPractice(s.Pool.QueryRow(ctx, `SELECT `+practiceColumns+` FROM practices WHERE id = $1`, id))
	return p, wrap("get practice", err)
}

func (s *Postgres) GetPracticeByStart(ctx context.Context, start time.Time) (Practice, error) {
	p, err := scanPractice(s.Pool.QueryRow(ctx, `
SELECT `+practiceColumns+` FROM practices WHERE start_time = $1 ORDER BY id LIMIT 1`, start))
	return p, wrap("get practice by start", err)
}

func (s *Postgres) GetPracticeByDate(ctx context.Context, date time.Time) (Practice, error) {
	day := DayOf(date)
	p, err := scanPractice(s.Pool.QueryRow(ctx, `
SELECT `+practiceColumns+` FROM practices
WHERE date >= $1 AND date < $2
ORDER BY start_time, id LIMIT 1`, day, day.Add(24*time.Hour)))
	return p, wrap("get practice by date", err)
}

func (s *Postgres) ListFuturePractices(ctx context.Context, after time.Time) ([]Practice, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT `+practiceColumns+` FROM practices WHERE start_time > $1 ORDER BY start_time, id`, after)
	if err != nil {
		return nil, wrap("list practices", err)
	}
	defer rows.Close()
	out := []Practice{}
	for rows.Next() {
		p, err := scanPractice(rows)
		if err != nil {
			return nil, wrap("list practices", err)
		}
		out = append(out, p)
	}
	return out, wrap("list practices", rows.Err())
}

func (s *Postgres) UpdatePractice(ctx context.Context, p *Practice) error {
	raw, err := encodeRoster(p.Roster)
	if err != nil {
		return wrap("update practice", err)
	}
	tag, err := s.Pool.Exec(ctx, `
UPDATE practices
SET date = $2, start_time = $3, end_time = $4, roster = $5, carried_over_at = $6, version = version + 1
WHERE id = $1 AND version = $7`,
		p.ID, p.Date, p.StartTime, p.EndTime, raw, timeParam(p.CarriedOverAt), p.Version)
	if err != nil {
		return wrap("update practice", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM practices WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return wrap("update practice", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	p.Version++
	return nil
}

const participantColumns = `id, name, email, member_id, external_handle, side, created_at`

func scanParticipant(row pgx.Row) (Participant, error) {
	var (
		p    Participant
		side string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.MemberID, &p.ExternalHandle, &side, &p.CreatedAt); err != nil {
		return Participant{}, mapNotFound(err)
	}
	p.Side = roster.Side(side)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func (s *Postgres) CreateParticipant(ctx context.Context, p *Participant) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Side == "" {
		p.Side = roster.SideUnspecified
	}
	err := s.Pool.QueryRow(ctx, `
INSERT INTO participants (id, name, name_key, email, member_id, external_handle, side)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`,
		p.ID, p.Name, normalizeName(p.Name), p.Email, p.MemberID, p.ExternalHandle, string(p.Side),
	).Scan(&p.CreatedAt)
	if err != nil {
		return wrap("create participant", mapUnique(err))
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

func (s *Postgres) UpdateParticipant(ctx context.Context, p Participant) error {
	tag, err := s.Pool.Exec(ctx, `
UPDATE participants
SET name = $2, name_key = $3, email = $4, member_id = $5, external_handle = $6, side = $7
WHERE id = $1`,
		p.ID, p.Name, normalizeName(p.Name), p.Email, p.MemberID, p.ExternalHandle, string(p.Side))
	if err != nil {
		return wrap("update participant", mapUnique(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) UpdateParticipantProfile(ctx context.Context, id string, profile Profile) error {
	tag, err := s.Pool.Exec(ctx, `
UPDATE participants
SET name = $2, name_key = $3, email = $4, member_id = $5, side = $6
WHERE id = $1`,
		id, profile.Name, normalizeName(profile.Name), profile.Email, profile.MemberID, string(sideOrUnspecified(profile.Side)))
	if err != nil {
		return wrap("update participant profile", mapUnique(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) GetParticipant(ctx context.Context, id string) (Participant, error) {
	p, err := scanParticipant(s.Pool.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants WHERE id = $1`, id))
	return p, wrap("get participant", err)
}

func (s *Postgres) GetParticipantByEmail(ctx context.Context, email string) (Participant, error) {
	if normalizeEmail(email) == "" {
		return Participant{}, ErrNotFound
	}
	p, err := scanParticipant(s.Pool.QueryRow(ctx, `
SELECT `+participantColumns+` FROM participants WHERE email <> '' AND lower(email) = $1`, normalizeEmail(email)))
	return p, wrap("get participant by email", err)
}

func (s *Postgres) GetParticipantByHandle(ctx context.Context, handle string) (Participant, error) {
	if handle == "" {
		return Participant{}, ErrNotFound
	}
	p, err := scanParticipant(s.Pool.QueryRow(ctx, `
SELECT `+participantColumns+` FROM participants WHERE external_handle = $1`, handle))
	return p, wrap("get participant by handle", err)
}

func (s *Postgres) GetParticipantByName(ctx context.Context, name string) (Participant, error) {
	key := normalizeName(name)
	if key == "" {
		return Participant{}, ErrNotFound
	}
	p, err := scanParticipant(s.Pool.QueryRow(ctx, `
SELECT `+participantColumns+` FROM participants
WHERE name_key = $1
ORDER BY id LIMIT 1`, key))
	return p, wrap("get participant by name", err)
}

func (s *Postgres) GetImportCursor(ctx context.Context, source string) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT rows_consumed FROM import_cursors WHERE source = $1`, source).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, wrap("get import cursor", err)
	}
	return n, nil
}

func (s *Postgres) SetImportCursor(ctx context.Context, source string, rows int) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO import_cursors (source, rows_consumed, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (source) DO UPDATE SET rows_consumed = EXCLUDED.rows_consumed, updated_at = now()`,
		source, rows)
	return wrap("set import cursor", err)
}
