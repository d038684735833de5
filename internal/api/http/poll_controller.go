package http

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/planning_poker/internal/api/http/converter"
	"github.com/immxrtalbeast/planning_poker/internal/domain"
	"github.com/immxrtalbeast/planning_poker/internal/service"
	"github.com/immxrtalbeast/planning_poker/lib/logger/sl"
)

// maxDurationSeconds keeps duration*time.Second inside int64.
const maxDurationSeconds = float64(math.MaxInt64 / int64(time.Second))

type PollController struct {
	polls           service.PollInteractor
	log             *slog.Logger
	refreshInterval time.Duration
	exposeDetails   bool
}

// NewPollController builds the /poll handlers. exposeDetails adds the
// underlying error to 500 responses and must stay off in production.
func NewPollController(polls service.PollInteractor, refreshInterval time.Duration, exposeDetails bool, log *slog.Logger) *PollController {
	if log == nil {
		log = slog.Default()
	}
	return &PollController{
		polls:           polls,
		log:             log,
		refreshInterval: refreshInterval,
		exposeDetails:   exposeDetails,
	}
}

func (c *PollController) CreatePoll(ctx *gin.Context) {
	type request struct {
		Question  string    `json:"question"`
		Options   []float64 `json:"options"`
		CreatedBy string    `json:"createdBy"`
		RoomCode  string    `json:"roomCode"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.badRequest(ctx, err)
		return
	}

	poll, err := c.polls.CreatePoll(ctx.Request.Context(), service.CreatePollInput{
		Question:  req.Question,
		Options:   req.Options,
		CreatedBy: req.CreatedBy,
		RoomCode:  req.RoomCode,
	})
	if err != nil {
		c.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":  true,
		"poll":     converter.PollToApi(poll),
		"roomCode": poll.RoomCode,
	})
}

func (c *PollController) GetPoll(ctx *gin.Context) {
	poll, err := c.polls.GetPoll(ctx.Request.Context(), ctx.Query("roomCode"))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, converter.PollToApi(poll))
}

func (c *PollController) Results(ctx *gin.Context) {
	votes, err := c.polls.Results(ctx.Request.Context(), ctx.Query("roomCode"))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"votes": converter.VotesToApi(votes)})
}

func (c *PollController) Vote(ctx *gin.Context) {
	type request struct {
		Name     string         `json:"name"`
		Value    *float64       `json:"value"`
		Avatar   *domain.Avatar `json:"avatar"`
		RoomCode string         `json:"roomCode"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.badRequest(ctx, err)
		return
	}
	if req.Value == nil {
		c.fail(ctx, domain.ErrMissingVoteFields)
		return
	}

	poll, err := c.polls.CastVote(ctx.Request.Context(), service.CastVoteInput{
		RoomCode: req.RoomCode,
		Name:     req.Name,
		Value:    *req.Value,
		Avatar:   req.Avatar,
	})
	if err != nil {
		c.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"poll":    converter.PollWithVotesToApi(poll),
	})
}

func (c *PollController) ClosePoll(ctx *gin.Context) {
	type request struct {
		UserName string `json:"userName"`
		RoomCode string `json:"roomCode"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.badRequest(ctx, err)
		return
	}

	poll, err := c.polls.ClosePoll(ctx.Request.Context(), req.RoomCode, req.UserName)
	if err != nil {
		c.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"poll":    converter.PollWithVotesToApi(poll),
	})
}

func (c *PollController) StartTimer(ctx *gin.Context) {
	type request struct {
		Duration  *float64 `json:"duration"`
		CreatedBy string   `json:"createdBy"`
		RoomCode  string   `json:"roomCode"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.badRequest(ctx, err)
		return
	}

	// Whole seconds only; the range check against the configured limit
	// happens in the domain after authorization.
	var duration time.Duration
	if req.Duration != nil {
		d := *req.Duration
		if d != math.Trunc(d) || math.Abs(d) > maxDurationSeconds {
			c.fail(ctx, domain.ErrInvalidDuration)
			return
		}
		duration = time.Duration(d) * time.Second
	}

	endTime, err := c.polls.StartTimer(ctx.Request.Context(), req.RoomCode, duration, req.CreatedBy)
	if err != nil {
		c.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":      true,
		"timerActive":  true,
		"timerEndTime": converter.EpochMillis(endTime),
	})
}

func (c *PollController) ReadTimer(ctx *gin.Context) {
	state, err := c.polls.ReadTimer(ctx.Request.Context(), ctx.Query("roomCode"))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, converter.TimerToApi(state))
}

func (c *PollController) ValidateRoom(ctx *gin.Context) {
	code, err := c.polls.ValidateRoom(ctx.Request.Context(), ctx.Query("roomCode"))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"exists": true, "roomCode": code})
}

func (c *PollController) Settings(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"refreshIntervalMs": c.refreshInterval.Milliseconds()})
}

func (c *PollController) badRequest(ctx *gin.Context, err error) {
	body := gin.H{"error": "invalid request body"}
	if c.exposeDetails {
		body["details"] = err.Error()
	}
	ctx.JSON(http.StatusBadRequest, body)
}

func (c *PollController) fail(ctx *gin.Context, err error) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		ctx.JSON(statusFor(domainErr), gin.H{"error": domainErr.Error()})
		return
	}

	c.log.Error("request failed",
		slog.String("method", ctx.Request.Method),
		slog.String("path", ctx.Request.URL.Path),
		sl.Err(err),
	)

	body := gin.H{"error": "internal error"}
	if c.exposeDetails {
		body["details"] = err.Error()
	}
	ctx.JSON(http.StatusInternalServerError, body)
}

// statusFor maps a domain error kind to its HTTP status. Conflicts are
// reported as 400 like every other rejected request.
func statusFor(err *domain.Error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
