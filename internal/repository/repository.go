package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/immxrtalbeast/planning_poker/internal/domain"
)

var (
	ErrPollNotFound = fmt.Errorf("poll %w", domain.ErrNotFound)

	// ErrSkipWrite may be returned by an UpdateFunc that decided nothing
	// needs to change. Update then returns the current poll and no error.
	ErrSkipWrite = errors.New("skip write")
)

// UpdateFunc mutates a private copy of the stored poll. Returning an error
// aborts the update and leaves storage untouched.
type UpdateFunc func(poll *domain.Poll) error

//go:generate mockgen -source=repository.go -destination=mocks/repository.go -package=mocks

type PollRepository interface {
	// Replace stores poll as the only poll of its room, dropping whatever
	// the room held before.
	Replace(ctx context.Context, poll *domain.Poll) error
	GetByRoomCode(ctx context.Context, roomCode string) (*domain.Poll, error)
	// GetLatest returns the newest open poll, or the newest poll of any
	// status when none is open.
	GetLatest(ctx context.Context) (*domain.Poll, error)
	// Update runs fn against the room's poll as one atomic
	// read-modify-write and returns the stored result.
	Update(ctx context.Context, roomCode string, fn UpdateFunc) (*domain.Poll, error)
}
