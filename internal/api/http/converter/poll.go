package converter

import (
	"time"

	"github.com/immxrtalbeast/planning_poker/internal/domain"
)

type PollResponse struct {
	ID           string            `json:"id"`
	RoomCode     string            `json:"roomCode"`
	Question     string            `json:"question"`
	Options      []float64         `json:"options"`
	CreatedBy    string            `json:"createdBy"`
	Status       domain.PollStatus `json:"status"`
	ClosedBy     *string           `json:"closedBy"`
	TimerActive  bool              `json:"timerActive"`
	TimerEndTime *int64            `json:"timerEndTime"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// OpenPollResponse hides vote values; clients only learn who has voted.
type OpenPollResponse struct {
	*PollResponse
	VoterNames []VoterResponse `json:"voterNames"`
}

type PollWithVotesResponse struct {
	*PollResponse
	Votes []VoteResponse `json:"votes"`
}

type VoteResponse struct {
	Name   string         `json:"name"`
	Value  float64        `json:"value"`
	Avatar *domain.Avatar `json:"avatar"`
}

type VoterResponse struct {
	Name string `json:"name"`
}

type TimerResponse struct {
	TimerActive   bool   `json:"timerActive"`
	TimerEndTime  *int64 `json:"timerEndTime"`
	TimeRemaining *int64 `json:"timeRemaining"`
}

// PollToApi renders the public view of a poll: vote values stay hidden
// until the poll is closed.
func PollToApi(p *domain.Poll) any {
	if p.IsClosed() {
		return PollWithVotesToApi(p)
	}

	voters := make([]VoterResponse, 0, len(p.Votes))
	for _, v := range p.Votes {
		voters = append(voters, VoterResponse{Name: v.Name})
	}
	return &OpenPollResponse{PollResponse: pollBase(p), VoterNames: voters}
}

func PollWithVotesToApi(p *domain.Poll) *PollWithVotesResponse {
	return &PollWithVotesResponse{PollResponse: pollBase(p), Votes: VotesToApi(p.Votes)}
}

func VotesToApi(votes []domain.Vote) []VoteResponse {
	out := make([]VoteResponse, 0, len(votes))
	for _, v := range votes {
		out = append(out, VoteResponse{Name: v.Name, Value: v.Value, Avatar: v.Avatar})
	}
	return out
}

func TimerToApi(t domain.TimerState) *TimerResponse {
	resp := &TimerResponse{
		TimerActive:  t.Active,
		TimerEndTime: EpochMillis(t.EndTime),
	}
	if t.HasDeadline() {
		remaining := t.RemainingSeconds()
		resp.TimeRemaining = &remaining
	}
	return resp
}

// EpochMillis returns nil for the zero time.
func EpochMillis(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func pollBase(p *domain.Poll) *PollResponse {
	resp := &PollResponse{
		ID:           p.ID,
		RoomCode:     p.RoomCode,
		Question:     p.Question,
		Options:      p.Options,
		CreatedBy:    p.CreatedBy,
		Status:       p.Status,
		TimerActive:  p.TimerActive,
		TimerEndTime: EpochMillis(p.TimerEndTime),
		CreatedAt:    p.CreatedAt,
	}
	if p.ClosedBy != "" {
		closedBy := p.ClosedBy
		resp.ClosedBy = &closedBy
	}
	return resp
}
