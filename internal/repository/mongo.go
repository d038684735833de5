package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/immxrtalbeast/planning_poker/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	pollsCollection = "polls"
	maxCASAttempts  = 8
)

var ErrConcurrentUpdate = errors.New("poll was modified concurrently")

// pollDocument keeps the field names of the polls collection so documents
// written by other clients of the same database stay readable.
type pollDocument struct {
	ID           string         `bson:"id"`
	RoomCode     string         `bson:"roomCode"`
	Question     string         `bson:"question"`
	Options      []float64      `bson:"options"`
	CreatedBy    string         `bson:"createdBy"`
	Votes        []voteDocument `bson:"votes"`
	Status       string         `bson:"status"`
	ClosedBy     *string        `bson:"closedBy"`
	TimerActive  bool           `bson:"timerActive"`
	TimerEndTime *int64         `bson:"timerEndTime"` // unix millis
	CreatedAt    time.Time      `bson:"createdAt"`
	Revision     int64          `bson:"revision"`
}

type voteDocument struct {
	Name   string  `bson:"name"`
	Value  float64 `bson:"value"`
	Avatar any     `bson:"avatar"`
}

type MongoPollRepository struct {
	polls *mongo.Collection
}

func NewMongoPollRepository(db *mongo.Database) *MongoPollRepository {
	return &MongoPollRepository{polls: db.Collection(pollsCollection)}
}

// EnsureIndexes creates the lookup indexes used by room and latest-poll
// resolution. It is safe to call on every start.
func (r *MongoPollRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.polls.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "roomCode", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "id", Value: 1}}},
	})
	return err
}

func (r *MongoPollRepository) Replace(ctx context.Context, poll *domain.Poll) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if poll == nil {
		return errors.New("poll is nil")
	}

	if _, err := r.polls.DeleteMany(ctx, bson.M{"roomCode": poll.RoomCode}); err != nil {
		return err
	}

	_, err := r.polls.InsertOne(ctx, toPollDocument(poll, 0))
	return err
}

func (r *MongoPollRepository) GetByRoomCode(ctx context.Context, roomCode string) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := r.findNewest(ctx, bson.M{"roomCode": roomCode})
	if err != nil {
		return nil, err
	}
	return toDomainFromDocument(doc), nil
}

func (r *MongoPollRepository) GetLatest(ctx context.Context) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := r.findNewest(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	return toDomainFromDocument(doc), nil
}

// Update is a compare-and-swap on the revision field, retried a bounded
// number of times when another writer got there first.
func (r *MongoPollRepository) Update(ctx context.Context, roomCode string, fn UpdateFunc) (*domain.Poll, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := r.findNewest(ctx, bson.M{"roomCode": roomCode})
		if err != nil {
			return nil, err
		}

		poll := toDomainFromDocument(doc)
		if err := fn(poll); err != nil {
			if errors.Is(err, ErrSkipWrite) {
				return toDomainFromDocument(doc), nil
			}
			return nil, err
		}

		filter := bson.M{"id": doc.ID, "revision": doc.Revision}
		if doc.Revision == 0 {
			// documents created without a revision field
			filter["revision"] = bson.M{"$in": bson.A{0, nil}}
		}

		res, err := r.polls.ReplaceOne(ctx, filter, toPollDocument(poll, doc.Revision+1))
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return poll, nil
		}
	}

	return nil, fmt.Errorf("room %s: %w", roomCode, ErrConcurrentUpdate)
}

// findNewest prefers the newest open poll matching filter and falls back
// to the newest poll of any status.
func (r *MongoPollRepository) findNewest(ctx context.Context, filter bson.M) (*pollDocument, error) {
	newest := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	openFilter := bson.M{"status": string(domain.PollStatusOpen)}
	for k, v := range filter {
		openFilter[k] = v
	}

	var doc pollDocument
	err := r.polls.FindOne(ctx, openFilter, newest).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = r.polls.FindOne(ctx, filter, newest).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}

	return &doc, nil
}

func toPollDocument(poll *domain.Poll, revision int64) *pollDocument {
	var closedBy *string
	if poll.ClosedBy != "" {
		c := poll.ClosedBy
		closedBy = &c
	}

	var timerEnd *int64
	if !poll.TimerEndTime.IsZero() {
		ms := poll.TimerEndTime.UnixMilli()
		timerEnd = &ms
	}

	votes := make([]voteDocument, 0, len(poll.Votes))
	for _, v := range poll.Votes {
		vote := voteDocument{Name: v.Name, Value: v.Value}
		if idx, ok := v.Avatar.Index(); ok {
			vote.Avatar = int64(idx)
		} else if label := v.Avatar.Label(); label != "" {
			vote.Avatar = label
		}
		votes = append(votes, vote)
	}

	return &pollDocument{
		ID:           poll.ID,
		RoomCode:     poll.RoomCode,
		Question:     poll.Question,
		Options:      append([]float64(nil), poll.Options...),
		CreatedBy:    poll.CreatedBy,
		Votes:        votes,
		Status:       string(poll.Status),
		ClosedBy:     closedBy,
		TimerActive:  poll.TimerActive,
		TimerEndTime: timerEnd,
		CreatedAt:    poll.CreatedAt.UTC(),
		Revision:     revision,
	}
}

func toDomainFromDocument(doc *pollDocument) *domain.Poll {
	votes := make([]domain.Vote, 0, len(doc.Votes))
	for _, v := range doc.Votes {
		votes = append(votes, domain.Vote{
			Name:   v.Name,
			Value:  v.Value,
			Avatar: avatarFromBSON(v.Avatar),
		})
	}

	var closedBy string
	if doc.ClosedBy != nil {
		closedBy = *doc.ClosedBy
	}

	var timerEnd time.Time
	if doc.TimerEndTime != nil {
		timerEnd = time.UnixMilli(*doc.TimerEndTime).UTC()
	}

	return &domain.Poll{
		ID:           doc.ID,
		RoomCode:     doc.RoomCode,
		Question:     doc.Question,
		Options:      append([]float64(nil), doc.Options...),
		CreatedBy:    doc.CreatedBy,
		Status:       domain.PollStatus(doc.Status),
		ClosedBy:     closedBy,
		Votes:        votes,
		TimerActive:  doc.TimerActive,
		TimerEndTime: timerEnd,
		CreatedAt:    doc.CreatedAt.UTC(),
	}
}

func avatarFromBSON(v any) *domain.Avatar {
	switch a := v.(type) {
	case int32:
		return domain.AvatarIndex(int(a))
	case int64:
		return domain.AvatarIndex(int(a))
	case float64:
		if a == math.Trunc(a) && a >= 0 {
			return domain.AvatarIndex(int(a))
		}
	case string:
		if a != "" {
			return domain.AvatarLabel(a)
		}
	}
	return nil
}
