package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weekstatus/weekstatus/internal/config"
	"github.com/weekstatus/weekstatus/internal/event_bus"
	"github.com/weekstatus/weekstatus/internal/utils"
	"github.com/weekstatus/weekstatus/pkg/chat"
	"github.com/weekstatus/weekstatus/pkg/telegram"
)

const adminId int64 = 1000

type recipientsStub map[chat.Kind][]int64

func (r recipientsStub) TargetIds(ctx context.Context, kind chat.Kind) ([]int64, error) {
	if ids, ok := r[kind]; ok {
		return ids, nil
	}
	return nil, errors.New("registry unavailable")
}

type fixture struct {
	service   *ServiceImpl
	repo      *RepositoryStub
	messenger *telegram.MessengerStub
	bus       *event_bus.EventBus
}

func setup(recipients Recipients, batchSize int) fixture {
	repo := NewRepositoryStub()
	messenger := telegram.NewMessengerStub()
	bus := event_bus.NewEventBus()
	clock := &utils.MockClock{FixedNow: time.Date(2025, time.February, 8, 9, 0, 0, 0, time.UTC)}
	service := NewService(repo, recipients, messenger, bus, clock, config.Broadcast{BatchSize: batchSize})
	return fixture{service: service, repo: repo, messenger: messenger, bus: bus}
}

func TestServiceImpl_Execute(t *testing.T) {
	t.Run("should deduplicate targets and count outcomes", func(t *testing.T) {
		// given
		f := setup(recipientsStub{chat.Users: {1, 2, 3}, chat.Groups: {3, -100}}, 2)
		f.messenger.FailFor[2] = errors.New("Forbidden: bot was blocked by the user")
		var finished []event_bus.BroadcastFinished
		event_bus.SubscribeTyped[event_bus.BroadcastFinished](f.bus, event_bus.BroadcastFinishedType,
			func(e event_bus.EventT[event_bus.BroadcastFinished]) error {
				finished = append(finished, e.Data)
				return nil
			})

		// when
		report, err := f.service.Execute(context.Background(), Request{
			AdminId: adminId, Method: Copy, Target: AllBoth, ContentChatId: adminId, ContentMessageId: 55,
		})
		f.bus.Wait()

		// then
		require.NoError(t, err)
		assert.Equal(t, Report{BroadcastId: 1, Total: 4, Succeeded: 3, Failed: 1}, report)

		stored, err := f.repo.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, StatusCompletedWithErrors, stored.Status)
		assert.Equal(t, 3, stored.SuccessCount)
		assert.Equal(t, 1, stored.FailCount)
		assert.Equal(t, "همه کاربران و گروه‌ها", stored.TargetDescription)
		assert.NotZero(t, stored.FinalReportMessageId)

		deliveries := f.repo.Deliveries()
		require.Len(t, deliveries, 4)
		assert.Equal(t, []int64{1, 2, 3, -100}, []int64{
			deliveries[0].RecipientChatId, deliveries[1].RecipientChatId,
			deliveries[2].RecipientChatId, deliveries[3].RecipientChatId,
		})
		assert.Equal(t, Failed, deliveries[1].Status)
		assert.Contains(t, deliveries[1].FailureReason, "blocked")
		assert.Zero(t, deliveries[1].SentMessageId)
		assert.Equal(t, Sent, deliveries[0].Status)
		assert.NotZero(t, deliveries[0].SentMessageId)

		_, edited, relayed := f.messenger.Snapshot()
		assert.Len(t, relayed, 3)
		for _, r := range relayed {
			assert.Equal(t, "copy", r.Method)
			assert.Equal(t, 55, r.MessageId)
		}
		// progress after 2 and 4 recipients, then the final report
		require.Len(t, edited, 3)
		assert.Contains(t, edited[0].Text, "50٪")
		assert.Contains(t, edited[1].Text, "100٪")
		assert.Contains(t, edited[2].Text, "#1")

		require.Len(t, finished, 1)
		assert.Equal(t, 1, finished[0].Failed)
	})

	t.Run("should forward and complete without errors", func(t *testing.T) {
		f := setup(recipientsStub{chat.Groups: {-1, -2}}, 25)

		report, err := f.service.Execute(context.Background(), Request{
			AdminId: adminId, Method: Forward, Target: AllGroups, ContentChatId: adminId, ContentMessageId: 7,
		})
		f.bus.Wait()

		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, report.Status())
		stored, _ := f.repo.Get(context.Background(), report.BroadcastId)
		assert.Equal(t, StatusCompleted, stored.Status)
		assert.Equal(t, Forward, stored.Method)
		_, _, relayed := f.messenger.Snapshot()
		assert.Equal(t, "forward", relayed[0].Method)
	})

	t.Run("should tell the admin when nobody is registered", func(t *testing.T) {
		f := setup(recipientsStub{chat.Users: {}}, 25)

		report, err := f.service.Execute(context.Background(), Request{AdminId: adminId, Method: Copy, Target: AllUsers})

		require.NoError(t, err)
		assert.Zero(t, report.BroadcastId)
		last, ok := f.messenger.LastSent(adminId)
		require.True(t, ok)
		assert.Contains(t, last.Text, "هیچ گیرنده‌ای")
		_, err = f.repo.Get(context.Background(), 1)
		assert.Error(t, err)
	})

	t.Run("should fail when recipients cannot be loaded", func(t *testing.T) {
		f := setup(recipientsStub{}, 25)

		_, err := f.service.Execute(context.Background(), Request{AdminId: adminId, Method: Copy, Target: AllUsers})

		assert.Error(t, err)
		_, ok := f.messenger.LastSent(adminId)
		assert.True(t, ok)
	})

	t.Run("should report a database failure", func(t *testing.T) {
		f := setup(recipientsStub{chat.Users: {1}}, 25)
		f.repo.FailWith(errors.New("db down"))

		_, err := f.service.Execute(context.Background(), Request{AdminId: adminId, Method: Copy, Target: AllUsers})

		assert.Error(t, err)
		_, _, relayed := f.messenger.Snapshot()
		assert.Empty(t, relayed)
	})
}

func TestServiceImpl_ExecutePacesBatches(t *testing.T) {
	repo := NewRepositoryStub()
	messenger := telegram.NewMessengerStub()
	clock := &utils.MockClock{FixedNow: time.Now()}
	service := NewService(repo, recipientsStub{chat.Users: {1, 2, 3}}, messenger, event_bus.NewEventBus(), clock,
		config.Broadcast{BatchSize: 1, BatchDelay: 30 * time.Millisecond})

	start := time.Now()
	report, err := service.Execute(context.Background(), Request{AdminId: adminId, Method: Copy, Target: AllUsers})

	require.NoError(t, err)
	assert.Equal(t, 3, report.Succeeded)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestParseMethodAndTarget(t *testing.T) {
	m, err := ParseMethod("forward")
	require.NoError(t, err)
	assert.Equal(t, Forward, m)
	_, err = ParseMethod("email")
	assert.ErrorIs(t, err, ErrInvalidMethod)

	target, err := ParseTarget("all_groups")
	require.NoError(t, err)
	assert.Equal(t, []chat.Kind{chat.Groups}, target.Kinds())
	_, err = ParseTarget("everyone")
	assert.ErrorIs(t, err, ErrInvalidTarget)
}
