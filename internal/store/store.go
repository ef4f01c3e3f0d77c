// Package store persists practices, participants and import cursors. Each
// backend (Postgres, SQLite, in-memory) satisfies the same Store contract.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("already exists")
)

type PracticeStore interface {
	// CreatePractice assigns ID (when empty), Version and CreatedAt.
	CreatePractice(ctx context.Context, p *Practice) error
	GetPractice(ctx context.Context, id string) (Practice, error)
	// GetPracticeByStart returns the practice starting at exactly start.
	GetPracticeByStart(ctx context.Context, start time.Time) (Practice, error)
	// GetPracticeByDate returns the first practice whose Date falls on the
	// same calendar day as date (UTC).
	GetPracticeByDate(ctx context.Context, date time.Time) (Practice, error)
	// ListFuturePractices returns practices with StartTime > now, ordered
	// by StartTime.
	ListFuturePractices(ctx context.Context, now time.Time) ([]Practice, error)
	// UpdatePractice writes p if the stored version still equals p.Version,
	// then bumps p.Version. A stale version yields ErrVersionConflict.
	UpdatePractice(ctx context.Context, p *Practice) error
}

// GetPreviousPractice returns the practice starting exactly one week before p.
func GetPreviousPractice(ctx context.Context, st PracticeStore, p Practice) (Practice, error) {
	return st.GetPracticeByStart(ctx, p.PriorStart())
}

type ParticipantStore interface {
	CreateParticipant(ctx context.Context, p *Participant) error
	GetParticipant(ctx context.Context, id string) (Participant, error)
	GetParticipantByEmail(ctx context.Context, email string) (Participant, error)
	GetParticipantByHandle(ctx context.Context, handle string) (Participant, error)
	GetParticipantByName(ctx context.Context, name string) (Participant, error)
	UpdateParticipant(ctx context.Context, p Participant) error
	UpdateParticipantProfile(ctx context.Context, id string, profile Profile) error
}

// CursorStore remembers how many rows of an append-only import source have
// already been consumed.
type CursorStore interface {
	GetImportCursor(ctx context.Context, source string) (int, error)
	SetImportCursor(ctx context.Context, source string, rows int) error
}

type Store interface {
	PracticeStore
	ParticipantStore
	CursorStore
	Ping(ctx context.Context) error
	Close() error
}

// StorageError wraps a backend failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
