package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/immxrtalbeast/planning_poker/internal/domain"
)

type InMemoryPollRepository struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Poll
}

func NewInMemoryPollRepository() *InMemoryPollRepository {
	return &InMemoryPollRepository{
		rooms: make(map[string]*domain.Poll),
	}
}

func (r *InMemoryPollRepository) Replace(ctx context.Context, poll *domain.Poll) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if poll == nil {
		return errors.New("poll is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[poll.RoomCode] = poll.Clone()
	return nil
}

func (r *InMemoryPollRepository) GetByRoomCode(ctx context.Context, roomCode string) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	poll, ok := r.rooms[roomCode]
	if !ok {
		return nil, ErrPollNotFound
	}

	return poll.Clone(), nil
}

func (r *InMemoryPollRepository) GetLatest(ctx context.Context) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var latestOpen, latest *domain.Poll
	for _, poll := range r.rooms {
		if latest == nil || poll.CreatedAt.After(latest.CreatedAt) {
			latest = poll
		}
		if poll.IsOpen() && (latestOpen == nil || poll.CreatedAt.After(latestOpen.CreatedAt)) {
			latestOpen = poll
		}
	}

	if latestOpen != nil {
		return latestOpen.Clone(), nil
	}
	if latest != nil {
		return latest.Clone(), nil
	}
	return nil, ErrPollNotFound
}

func (r *InMemoryPollRepository) Update(ctx context.Context, roomCode string, fn UpdateFunc) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.rooms[roomCode]
	if !ok {
		return nil, ErrPollNotFound
	}

	poll := current.Clone()
	if err := fn(poll); err != nil {
		if errors.Is(err, ErrSkipWrite) {
			return current.Clone(), nil
		}
		return nil, err
	}

	r.rooms[roomCode] = poll
	return poll.Clone(), nil
}
