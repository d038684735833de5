package converter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/immxrtalbeast/planning_poker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePoll(t *testing.T) *domain.Poll {
	t.Helper()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p, err := domain.NewPoll("ROOM01", "Story size?", []float64{1, 2, 3}, "alice", now)
	require.NoError(t, err)
	require.NoError(t, p.CastVote("bob", 2, domain.AvatarIndex(4), now))
	return p
}

func TestOpenPollHidesVoteValues(t *testing.T) {
	raw, err := json.Marshal(PollToApi(samplePoll(t)))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.NotContains(t, got, "votes")
	assert.Equal(t, []any{map[string]any{"name": "bob"}}, got["voterNames"])
	assert.Nil(t, got["closedBy"])
	assert.Nil(t, got["timerEndTime"])
	assert.Equal(t, "ROOM01", got["roomCode"])
}

func TestClosedPollShowsVotes(t *testing.T) {
	p := samplePoll(t)
	require.NoError(t, p.Close("carol"))

	raw, err := json.Marshal(PollToApi(p))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.NotContains(t, got, "voterNames")
	assert.Equal(t, "carol", got["closedBy"])
	assert.Equal(t, []any{map[string]any{"name": "bob", "value": 2.0, "avatar": 4.0}}, got["votes"])
}

func TestTimerToApi(t *testing.T) {
	end := time.UnixMilli(1_700_000_030_000).UTC()

	resp := TimerToApi(domain.TimerState{Active: true, EndTime: end, Remaining: 1500 * time.Millisecond})
	assert.True(t, resp.TimerActive)
	require.NotNil(t, resp.TimerEndTime)
	assert.Equal(t, int64(1_700_000_030_000), *resp.TimerEndTime)
	require.NotNil(t, resp.TimeRemaining)
	assert.Equal(t, int64(2), *resp.TimeRemaining)

	resp = TimerToApi(domain.TimerState{EndTime: end})
	require.NotNil(t, resp.TimeRemaining)
	assert.Zero(t, *resp.TimeRemaining)

	resp = TimerToApi(domain.TimerState{})
	assert.Nil(t, resp.TimerEndTime)
	assert.Nil(t, resp.TimeRemaining)
}
