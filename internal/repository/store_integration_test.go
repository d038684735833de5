package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/immxrtalbeast/planning_poker/internal/domain"
	"github.com/immxrtalbeast/planning_poker/internal/repository/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The persistent stores are exercised against live servers only when
// their connection strings are provided.
const (
	postgresDSNEnv = "POKER_TEST_POSTGRES_DSN"
	mongoURIEnv    = "POKER_TEST_MONGO_URI"
)

func setupPostgres(t *testing.T) PollRepository {
	t.Helper()

	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", postgresDSNEnv)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&model.Vote{}, &model.Poll{}))
	require.NoError(t, db.AutoMigrate(&model.Poll{}, &model.Vote{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewPostgresPollRepository(db)
}

func setupMongo(t *testing.T) PollRepository {
	t.Helper()

	uri := os.Getenv(mongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set", mongoURIEnv)
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("planning_poker_test")
	require.NoError(t, db.Collection(pollsCollection).Drop(ctx))

	repo := NewMongoPollRepository(db)
	require.NoError(t, repo.EnsureIndexes(ctx))

	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return repo
}

func TestPersistentStores(t *testing.T) {
	stores := map[string]func(*testing.T) PollRepository{
		"postgres": setupPostgres,
		"mongo":    setupMongo,
	}

	for name, setup := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("round trip", func(t *testing.T) {
				testRoundTrip(t, setup(t))
			})
			t.Run("replace", func(t *testing.T) {
				testReplace(t, setup(t))
			})
			t.Run("concurrent votes", func(t *testing.T) {
				testConcurrentVotes(t, setup(t))
			})
		})
	}
}

func testRoundTrip(t *testing.T, repo PollRepository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, repo.Replace(ctx, newPoll(t, "ROOM01", now)))

	_, err := repo.Update(ctx, "ROOM01", func(p *domain.Poll) error {
		if _, err := p.StartTimer(30*time.Second, 0, "alice", now); err != nil {
			return err
		}
		if err := p.CastVote("bob", 2, domain.AvatarIndex(0), now); err != nil {
			return err
		}
		if err := p.CastVote("carol", 5, domain.AvatarLabel("🦉"), now); err != nil {
			return err
		}
		return p.CastVote("bob", 3, nil, now)
	})
	require.NoError(t, err)

	_, err = repo.Update(ctx, "ROOM01", func(p *domain.Poll) error { return p.Close("carol") })
	require.NoError(t, err)

	got, err := repo.GetByRoomCode(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, domain.PollStatusClosed, got.Status)
	assert.Equal(t, "carol", got.ClosedBy)
	assert.True(t, got.TimerActive)
	assert.True(t, now.Add(30*time.Second).Equal(got.TimerEndTime))
	require.Len(t, got.Votes, 2)
	assert.Equal(t, "bob", got.Votes[0].Name)
	assert.Equal(t, 3.0, got.Votes[0].Value)
	idx, ok := got.Votes[0].Avatar.Index()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "🦉", got.Votes[1].Avatar.Label())

	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, got.ID, latest.ID)
}

func testReplace(t *testing.T, repo PollRepository) {
	ctx := context.Background()
	now := time.Now().UTC()

	first := newPoll(t, "ROOM01", now)
	require.NoError(t, repo.Replace(ctx, first))
	_, err := repo.Update(ctx, "ROOM01", func(p *domain.Poll) error {
		return p.CastVote("bob", 2, nil, now)
	})
	require.NoError(t, err)

	second := newPoll(t, "ROOM01", now.Add(time.Second))
	require.NoError(t, repo.Replace(ctx, second))

	got, err := repo.GetByRoomCode(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Empty(t, got.Votes)

	_, err = repo.GetByRoomCode(ctx, "ROOM02")
	assert.ErrorIs(t, err, ErrPollNotFound)
}

func testConcurrentVotes(t *testing.T, repo PollRepository) {
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, repo.Replace(ctx, newPoll(t, "ROOM01", now)))

	voters := []string{"ann", "ben", "cat", "dan", "eve", "fay"}

	var wg sync.WaitGroup
	errs := make(chan error, len(voters))
	for _, name := range voters {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := repo.Update(ctx, "ROOM01", func(p *domain.Poll) error {
				return p.CastVote(name, 5, nil, time.Now())
			})
			errs <- err
		}(name)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.GetByRoomCode(ctx, "ROOM01")
	require.NoError(t, err)
	assert.ElementsMatch(t, voters, got.VoterNames())
}
