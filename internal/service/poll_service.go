package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/planning_poker/internal/domain"
	"github.com/immxrtalbeast/planning_poker/internal/repository"
	"github.com/immxrtalbeast/planning_poker/lib/logger/sl"
)

type PollService struct {
	polls    repository.PollRepository
	log      *slog.Logger
	maxTimer time.Duration
	now      func() time.Time
}

func NewPollService(polls repository.PollRepository, maxTimer time.Duration, log *slog.Logger) *PollService {
	if log == nil {
		log = slog.Default()
	}
	return &PollService{
		polls:    polls,
		log:      log,
		maxTimer: maxTimer,
		now:      time.Now,
	}
}

func (s *PollService) CreatePoll(ctx context.Context, in CreatePollInput) (*domain.Poll, error) {
	const op = "service.poll.create"

	roomCode := domain.NormalizeRoomCode(in.RoomCode)
	if roomCode == "" {
		roomCode = domain.GenerateRoomCode()
	} else if !domain.ValidRoomCode(roomCode) {
		return nil, domain.ErrInvalidRoomCode
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("room_code", roomCode),
	)

	poll, err := domain.NewPoll(roomCode, in.Question, in.Options, in.CreatedBy, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.polls.Replace(ctx, poll); err != nil {
		log.Error("failed to store poll", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("poll created",
		"poll_id", poll.ID,
		"created_by", poll.CreatedBy,
		"options", len(poll.Options),
	)
	return poll, nil
}

func (s *PollService) GetPoll(ctx context.Context, roomCode string) (*domain.Poll, error) {
	const op = "service.poll.get"
	return s.resolve(ctx, op, roomCode)
}

func (s *PollService) Results(ctx context.Context, roomCode string) ([]domain.Vote, error) {
	const op = "service.poll.results"

	poll, err := s.resolve(ctx, op, roomCode)
	if err != nil {
		return nil, err
	}
	if !poll.IsClosed() {
		return nil, domain.ErrPollStillOpen
	}
	return poll.Votes, nil
}

func (s *PollService) CastVote(ctx context.Context, in CastVoteInput) (*domain.Poll, error) {
	const op = "service.poll.vote"

	poll, err := s.mutate(ctx, op, in.RoomCode, func(p *domain.Poll) error {
		return p.CastVote(in.Name, in.Value, in.Avatar, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("vote recorded",
		slog.String("op", op),
		slog.String("room_code", poll.RoomCode),
		slog.String("voter", in.Name),
		slog.Int("votes", len(poll.Votes)),
	)
	return poll, nil
}

func (s *PollService) ClosePoll(ctx context.Context, roomCode, userName string) (*domain.Poll, error) {
	const op = "service.poll.close"

	poll, err := s.mutate(ctx, op, roomCode, func(p *domain.Poll) error {
		return p.Close(userName)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("poll closed",
		slog.String("op", op),
		slog.String("room_code", poll.RoomCode),
		slog.String("closed_by", poll.ClosedBy),
		slog.Int("votes", len(poll.Votes)),
	)
	return poll, nil
}

func (s *PollService) StartTimer(ctx context.Context, roomCode string, duration time.Duration, requestedBy string) (time.Time, error) {
	const op = "service.poll.timer.start"

	var endTime time.Time
	poll, err := s.mutate(ctx, op, roomCode, func(p *domain.Poll) error {
		end, err := p.StartTimer(duration, s.maxTimer, requestedBy, s.now())
		if err != nil {
			return err
		}
		endTime = end
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}

	s.log.Info("timer started",
		slog.String("op", op),
		slog.String("room_code", poll.RoomCode),
		slog.Duration("duration", duration),
		slog.Time("ends_at", endTime),
	)
	return endTime, nil
}

// ReadTimer reports the timer and, when it has run out, switches it off in
// storage. There is no scheduler: expiry is only committed here, so clients
// are expected to poll at the configured refresh interval.
func (s *PollService) ReadTimer(ctx context.Context, roomCode string) (domain.TimerState, error) {
	const op = "service.poll.timer.read"

	poll, err := s.resolve(ctx, op, roomCode)
	if err != nil {
		return domain.TimerState{}, err
	}

	now := s.now()
	state := poll.Timer(now)
	if !poll.TimerActive || state.Remaining > 0 {
		return state, nil
	}

	_, err = s.polls.Update(ctx, poll.RoomCode, func(p *domain.Poll) error {
		if p.ID != poll.ID || !p.ExpireTimer(now) {
			return repository.ErrSkipWrite
		}
		return nil
	})
	if err != nil {
		return domain.TimerState{}, s.fail(op, err)
	}

	s.log.Info("timer expired",
		slog.String("op", op),
		slog.String("room_code", poll.RoomCode),
	)
	return state, nil
}

func (s *PollService) ValidateRoom(ctx context.Context, roomCode string) (string, error) {
	const op = "service.poll.validate_room"

	code := domain.NormalizeRoomCode(roomCode)
	if code == "" {
		return "", domain.ErrRoomCodeRequired
	}

	if _, err := s.polls.GetByRoomCode(ctx, code); err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			return "", domain.ErrRoomNotFound
		}
		return "", s.fail(op, err)
	}
	return code, nil
}

// resolve finds the poll of a room, or the newest poll when no room is given.
// It never falls back from a named room to another one.
func (s *PollService) resolve(ctx context.Context, op, roomCode string) (*domain.Poll, error) {
	code := domain.NormalizeRoomCode(roomCode)

	var (
		poll *domain.Poll
		err  error
	)
	if code == "" {
		poll, err = s.polls.GetLatest(ctx)
	} else {
		poll, err = s.polls.GetByRoomCode(ctx, code)
	}
	if err != nil {
		return nil, s.fail(op, err)
	}
	return poll, nil
}

func (s *PollService) mutate(ctx context.Context, op, roomCode string, fn repository.UpdateFunc) (*domain.Poll, error) {
	target, err := s.resolve(ctx, op, roomCode)
	if err != nil {
		return nil, err
	}

	poll, err := s.polls.Update(ctx, target.RoomCode, fn)
	if err != nil {
		return nil, s.fail(op, err)
	}
	return poll, nil
}

// fail passes domain errors through and wraps everything else as a
// storage failure.
func (s *PollService) fail(op string, err error) error {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, repository.ErrPollNotFound) {
		return domain.ErrNoActivePoll
	}

	s.log.Error("storage failure", slog.String("op", op), sl.Err(err))
	return fmt.Errorf("%s: %w", op, err)
}
