package repository

import (
	"context"
	"errors"
	"time"

	"github.com/immxrtalbeast/planning_poker/internal/domain"
	"github.com/immxrtalbeast/planning_poker/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresPollRepository struct {
	db *gorm.DB
}

func NewPostgresPollRepository(db *gorm.DB) *PostgresPollRepository {
	return &PostgresPollRepository{db: db}
}

func (r *PostgresPollRepository) Replace(ctx context.Context, poll *domain.Poll) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if poll == nil {
		return errors.New("poll is nil")
	}

	pollModel := toModelPoll(poll)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []string
		if err := tx.Model(&model.Poll{}).Where("room_code = ?", pollModel.RoomCode).Pluck("id", &stale).Error; err != nil {
			return err
		}
		if len(stale) > 0 {
			if err := tx.Where("poll_id IN ?", stale).Delete(&model.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", stale).Delete(&model.Poll{}).Error; err != nil {
				return err
			}
		}

		return tx.Create(pollModel).Error
	})
}

func (r *PostgresPollRepository) GetByRoomCode(ctx context.Context, roomCode string) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var poll model.Poll
	err := r.db.WithContext(ctx).Preload("Votes", orderVotes).First(&poll, "room_code = ?", roomCode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}

	return toDomainPoll(&poll), nil
}

func (r *PostgresPollRepository) GetLatest(ctx context.Context) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)

	var poll model.Poll
	err := db.Preload("Votes", orderVotes).
		Where("status = ?", string(domain.PollStatusOpen)).
		Order("created_at DESC").
		First(&poll).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Preload("Votes", orderVotes).Order("created_at DESC").First(&poll).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}

	return toDomainPoll(&poll), nil
}

func (r *PostgresPollRepository) Update(ctx context.Context, roomCode string, fn UpdateFunc) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *domain.Poll

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Poll
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Votes", orderVotes).
			First(&current, "room_code = ?", roomCode).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPollNotFound
			}
			return err
		}

		poll := toDomainPoll(&current)
		if err := fn(poll); err != nil {
			if errors.Is(err, ErrSkipWrite) {
				result = toDomainPoll(&current)
				return nil
			}
			return err
		}

		pollModel := toModelPoll(poll)

		updates := map[string]any{
			"status":       pollModel.Status,
			"timer_active": pollModel.TimerActive,
		}
		if pollModel.ClosedBy == nil {
			updates["closed_by"] = gorm.Expr("NULL")
		} else {
			updates["closed_by"] = *pollModel.ClosedBy
		}
		if pollModel.TimerEndTime == nil {
			updates["timer_end_time"] = gorm.Expr("NULL")
		} else {
			updates["timer_end_time"] = *pollModel.TimerEndTime
		}

		if err := tx.Model(&model.Poll{}).Where("id = ?", pollModel.ID).Updates(updates).Error; err != nil {
			return err
		}

		if len(pollModel.Votes) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "poll_id"}, {Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "avatar_index", "avatar_label", "position"}),
			}).Create(&pollModel.Votes).Error
			if err != nil {
				return err
			}
		}

		result = poll
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func orderVotes(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func toModelPoll(poll *domain.Poll) *model.Poll {
	var closedBy *string
	if poll.ClosedBy != "" {
		c := poll.ClosedBy
		closedBy = &c
	}

	var timerEnd *time.Time
	if !poll.TimerEndTime.IsZero() {
		t := poll.TimerEndTime.UTC()
		timerEnd = &t
	}

	votes := make([]model.Vote, 0, len(poll.Votes))
	for i, v := range poll.Votes {
		vote := model.Vote{
			PollID:   poll.ID,
			Name:     v.Name,
			Value:    v.Value,
			Position: i,
		}
		if idx, ok := v.Avatar.Index(); ok {
			vote.AvatarIndex = &idx
		} else if label := v.Avatar.Label(); label != "" {
			vote.AvatarLabel = &label
		}
		votes = append(votes, vote)
	}

	return &model.Poll{
		ID:           poll.ID,
		RoomCode:     poll.RoomCode,
		Question:     poll.Question,
		Options:      append([]float64(nil), poll.Options...),
		CreatedBy:    poll.CreatedBy,
		Status:       string(poll.Status),
		ClosedBy:     closedBy,
		TimerActive:  poll.TimerActive,
		TimerEndTime: timerEnd,
		CreatedAt:    poll.CreatedAt.UTC(),
		Votes:        votes,
	}
}

func toDomainPoll(poll *model.Poll) *domain.Poll {
	votes := make([]domain.Vote, 0, len(poll.Votes))
	for _, v := range poll.Votes {
		vote := domain.Vote{Name: v.Name, Value: v.Value}
		switch {
		case v.AvatarIndex != nil:
			vote.Avatar = domain.AvatarIndex(*v.AvatarIndex)
		case v.AvatarLabel != nil && *v.AvatarLabel != "":
			vote.Avatar = domain.AvatarLabel(*v.AvatarLabel)
		}
		votes = append(votes, vote)
	}

	var closedBy string
	if poll.ClosedBy != nil {
		closedBy = *poll.ClosedBy
	}

	var timerEnd time.Time
	if poll.TimerEndTime != nil {
		timerEnd = poll.TimerEndTime.UTC()
	}

	return &domain.Poll{
		ID:           poll.ID,
		RoomCode:     poll.RoomCode,
		Question:     poll.Question,
		Options:      append([]float64(nil), poll.Options...),
		CreatedBy:    poll.CreatedBy,
		Status:       domain.PollStatus(poll.Status),
		ClosedBy:     closedBy,
		Votes:        votes,
		TimerActive:  poll.TimerActive,
		TimerEndTime: timerEnd,
		CreatedAt:    poll.CreatedAt.UTC(),
	}
}
