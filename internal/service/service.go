package service

import (
	"context"
	"time"

	"github.com/immxrtalbeast/planning_poker/internal/domain"
)

type CreatePollInput struct {
	Question  string
	Options   []float64
	CreatedBy string
	// RoomCode is optional; a fresh code is generated when empty.
	RoomCode string
}

type CastVoteInput struct {
	RoomCode string
	Name     string
	Value    float64
	Avatar   *domain.Avatar
}

// PollInteractor is the poll lifecycle as seen by transports. An empty
// roomCode selects the newest open poll of any room (legacy clients).
type PollInteractor interface {
	CreatePoll(ctx context.Context, in CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, roomCode string) (*domain.Poll, error)
	Results(ctx context.Context, roomCode string) ([]domain.Vote, error)
	CastVote(ctx context.Context, in CastVoteInput) (*domain.Poll, error)
	ClosePoll(ctx context.Context, roomCode, userName string) (*domain.Poll, error)
	StartTimer(ctx context.Context, roomCode string, duration time.Duration, requestedBy string) (time.Time, error)
	ReadTimer(ctx context.Context, roomCode string) (domain.TimerState, error)
	ValidateRoom(ctx context.Context, roomCode string) (string, error)
}
