package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PollStatus string

const (
	PollStatusOpen   PollStatus = "open"
	PollStatusClosed PollStatus = "closed"
)

// Poll is a single estimation question living in a room.
// A room holds at most one poll; creating another one replaces it.
type Poll struct {
	ID        string
	RoomCode  string
	Question  string
	Options   []float64
	CreatedBy string
	Status    PollStatus
	ClosedBy  string
	// Votes keeps insertion order for display; lookups go by Name.
	Votes        []Vote
	TimerActive  bool
	TimerEndTime time.Time
	CreatedAt    time.Time
}

// TimerState is the timer as seen at a given instant.
type TimerState struct {
	Active    bool
	EndTime   time.Time
	Remaining time.Duration
}

// HasDeadline reports whether a timer was ever started.
func (t TimerState) HasDeadline() bool {
	return !t.EndTime.IsZero()
}

// RemainingSeconds rounds the remaining time up to whole seconds.
func (t TimerState) RemainingSeconds() int64 {
	return int64((t.Remaining + time.Second - 1) / time.Second)
}

// NewPoll validates the creation input and returns an open poll with an
// empty ledger and no timer. createdBy is kept verbatim since timer
// authorization compares it byte for byte.
func NewPoll(roomCode, question string, options []float64, createdBy string, now time.Time) (*Poll, error) {
	if strings.TrimSpace(question) == "" || options == nil || strings.TrimSpace(createdBy) == "" {
		return nil, ErrMissingPollFields
	}
	if len(options) == 0 {
		return nil, ErrEmptyOptions
	}

	seen := make(map[float64]struct{}, len(options))
	for _, o := range options {
		if math.IsNaN(o) || math.IsInf(o, 0) {
			return nil, ErrEmptyOptions
		}
		if _, ok := seen[o]; ok {
			return nil, ErrDuplicateOptions
		}
		seen[o] = struct{}{}
	}

	opts := make([]float64, len(options))
	copy(opts, options)

	return &Poll{
		ID:        uuid.New().String(),
		RoomCode:  roomCode,
		Question:  question,
		Options:   opts,
		CreatedBy: createdBy,
		Status:    PollStatusOpen,
		Votes:     []Vote{},
		CreatedAt: now.UTC(),
	}, nil
}

func (p *Poll) IsOpen() bool {
	return p.Status == PollStatusOpen
}

func (p *Poll) IsClosed() bool {
	return p.Status == PollStatusClosed
}

func (p *Poll) HasOption(value float64) bool {
	for _, o := range p.Options {
		if o == value {
			return true
		}
	}
	return false
}

// CanAcceptVotes checks the lifecycle and the timer gate.
func (p *Poll) CanAcceptVotes(now time.Time) error {
	if !p.IsOpen() {
		return ErrPollClosed
	}
	if !p.TimerEndTime.IsZero() && !p.TimerActive {
		return ErrTimerNotStarted
	}
	if p.TimerActive && !p.TimerEndTime.IsZero() && now.After(p.TimerEndTime) {
		return ErrTimerExpired
	}
	return nil
}

// CastVote upserts the vote for name. Re-voting keeps the previous avatar
// when none is supplied. The option check runs first: an unknown value is
// a validation failure whatever state the poll is in.
func (p *Poll) CastVote(name string, value float64, avatar *Avatar, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrMissingVoteFields
	}
	if !p.HasOption(value) {
		return ErrInvalidOption
	}
	if err := p.CanAcceptVotes(now); err != nil {
		return err
	}

	for i := range p.Votes {
		if p.Votes[i].Name != name {
			continue
		}
		p.Votes[i].Value = value
		if !avatar.IsZero() {
			p.Votes[i].Avatar = avatar.clone()
		}
		return nil
	}

	var a *Avatar
	if !avatar.IsZero() {
		a = avatar.clone()
	}
	p.Votes = append(p.Votes, Vote{Name: name, Value: value, Avatar: a})
	return nil
}

// Close moves the poll to its terminal state. Any participant may close.
func (p *Poll) Close(closedBy string) error {
	if p.IsClosed() {
		return ErrPollAlreadyClosed
	}
	closedBy = strings.TrimSpace(closedBy)
	if closedBy == "" {
		return ErrCloserRequired
	}
	p.Status = PollStatusClosed
	p.ClosedBy = closedBy
	return nil
}

// StartTimer starts the voting countdown. Only the creator may start it,
// and a running, unexpired timer cannot be restarted. A zero limit means
// no upper bound on d.
func (p *Poll) StartTimer(d, limit time.Duration, requestedBy string, now time.Time) (time.Time, error) {
	if !p.IsOpen() {
		return time.Time{}, ErrTimerPollClosed
	}
	if requestedBy != p.CreatedBy {
		return time.Time{}, ErrNotPollCreator
	}
	if p.TimerActive && !p.TimerEndTime.IsZero() && now.Before(p.TimerEndTime) {
		return time.Time{}, ErrTimerRunning
	}
	if d <= 0 || (limit > 0 && d > limit) {
		return time.Time{}, ErrInvalidDuration
	}

	p.TimerActive = true
	p.TimerEndTime = now.Add(d).UTC().Truncate(time.Millisecond)
	return p.TimerEndTime, nil
}

// Timer reports the timer at now, with expiry applied to the returned
// state but not to the poll.
func (p *Poll) Timer(now time.Time) TimerState {
	state := TimerState{Active: p.TimerActive, EndTime: p.TimerEndTime}
	if p.TimerEndTime.IsZero() {
		return state
	}
	if rem := p.TimerEndTime.Sub(now); rem > 0 {
		state.Remaining = rem
	}
	if state.Remaining == 0 {
		state.Active = false
	}
	return state
}

// ExpireTimer switches an elapsed timer off and reports whether anything
// changed. Calling it again is a no-op.
func (p *Poll) ExpireTimer(now time.Time) bool {
	if !p.TimerActive || p.TimerEndTime.IsZero() {
		return false
	}
	if now.Before(p.TimerEndTime) {
		return false
	}
	p.TimerActive = false
	return true
}

func (p *Poll) VoterNames() []string {
	names := make([]string, 0, len(p.Votes))
	for _, v := range p.Votes {
		names = append(names, v.Name)
	}
	return names
}

func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	c := *p
	c.Options = append([]float64(nil), p.Options...)
	c.Votes = make([]Vote, len(p.Votes))
	for i, v := range p.Votes {
		c.Votes[i] = Vote{Name: v.Name, Value: v.Value, Avatar: v.Avatar.clone()}
	}
	return &c
}
