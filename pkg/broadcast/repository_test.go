package broadcast

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

func TestRepositoryImpl_Lifecycle(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	created := time.Date(2025, time.February, 8, 9, 0, 0, 0, time.UTC)

	// when
	id, err := repo.Create(ctx, Broadcast{
		AdminMessageId: 55, AdminChatId: 1000, Method: Copy, TargetDescription: AllUsers.Description(), CreatedAt: created,
	})
	require.NoError(t, err)
	require.NoError(t, repo.MarkSending(ctx, id, 77))
	require.NoError(t, repo.LogDelivery(ctx, Delivery{BroadcastId: id, RecipientChatId: 1, SentMessageId: 9, Status: Sent}))
	require.NoError(t, repo.LogDelivery(ctx, Delivery{BroadcastId: id, RecipientChatId: 2, Status: Failed, FailureReason: "blocked"}))
	require.NoError(t, repo.Finish(ctx, id, Report{BroadcastId: id, Total: 2, Succeeded: 1, Failed: 1}))

	// then
	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompletedWithErrors, stored.Status)
	assert.Equal(t, 77, stored.FinalReportMessageId)
	assert.Equal(t, 1, stored.SuccessCount)
	assert.Equal(t, 1, stored.FailCount)
	assert.Equal(t, Copy, stored.Method)
	assert.True(t, created.Equal(stored.CreatedAt))

	var failedReason string
	var sentId *int
	err = db.QueryRow(ctx, `SELECT failure_reason, sent_message_id FROM broadcast_messages
		WHERE broadcast_id = $1 AND recipient_chat_id = 2`, id).Scan(&failedReason, &sentId)
	require.NoError(t, err)
	assert.Equal(t, "blocked", failedReason)
	assert.Nil(t, sentId)
}

func TestRepositoryImpl_MarkSendingWithoutReport(t *testing.T) {
	ctx, repo, _ := setupTestRepository(t)
	id, err := repo.Create(ctx, Broadcast{AdminMessageId: 1, AdminChatId: 1, Method: Forward, TargetDescription: "x", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, repo.MarkSending(ctx, id, 0))

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusSending, stored.Status)
	assert.Zero(t, stored.FinalReportMessageId)
}
