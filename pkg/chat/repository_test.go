package chat

import (
	"context"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/weekstatus/weekstatus/internal/event_bus"
	"github.com/weekstatus/weekstatus/internal/test_utils"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, *pgxpool.Pool) {
	if testing.Short() {
		t.Skip("repository tests need PostgreSQL")
	}
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, pgContainer.Restore(ctx))
	})
	return ctx, NewRepository(db), db
}

func TestRepositoryImpl_UpsertUser(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	seen := time.Date(2025, time.February, 8, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertUser(ctx, User{UserId: 1, ChatId: 1, FullName: "Old", Username: "old", LastSeenAt: seen}))

	// when
	err := repo.UpsertUser(ctx, User{UserId: 1, ChatId: 1, FullName: "New", LastSeenAt: seen.Add(time.Hour)})

	// then
	require.NoError(t, err)
	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var fullName string
	var username *string
	var lastSeen time.Time
	err = db.QueryRow(ctx, "SELECT full_name, username, last_seen_at FROM users WHERE user_id = 1").
		Scan(&fullName, &username, &lastSeen)
	require.NoError(t, err)
	assert.Equal(t, "New", fullName)
	assert.Nil(t, username)
	assert.True(t, seen.Add(time.Hour).Equal(lastSeen))
}

func TestRepositoryImpl_TargetIds(t *testing.T) {
	// given
	ctx, repo, _ := setupTestRepository(t)
	now := time.Now()
	require.NoError(t, repo.UpsertUser(ctx, User{UserId: 2, ChatId: 20, FullName: "B", LastSeenAt: now}))
	require.NoError(t, repo.UpsertUser(ctx, User{UserId: 1, ChatId: 10, FullName: "A", LastSeenAt: now}))
	require.NoError(t, repo.UpsertGroup(ctx, Group{GroupId: -100, Name: "G1", LastSeenAt: now}))
	require.NoError(t, repo.UpsertGroup(ctx, Group{GroupId: -100, Name: "G1 renamed", LastSeenAt: now}))

	// when
	users, err := repo.TargetIds(ctx, Users)
	require.NoError(t, err)
	groups, err := repo.TargetIds(ctx, Groups)
	require.NoError(t, err)
	groupCount, err := repo.CountGroups(ctx)
	require.NoError(t, err)

	// then
	assert.Equal(t, []int64{10, 20}, users)
	assert.Equal(t, []int64{-100}, groups)
	assert.Equal(t, 1, groupCount)

	_, err = repo.TargetIds(ctx, Kind("channels"))
	assert.Error(t, err)
}

func TestRepositoryImpl_LogUsage(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)

	// when
	err := repo.LogUsage(ctx, event_bus.CommandUsed{UserId: 5, FirstName: "Ali", ChatType: "private", ChatId: 5})

	// then
	require.NoError(t, err)
	var command string
	var lastName *string
	require.NoError(t, db.QueryRow(ctx, "SELECT command, last_name FROM bot_usage WHERE user_id = 5").Scan(&command, &lastName))
	assert.Equal(t, "unknown_action", command)
	assert.Nil(t, lastName)
}
