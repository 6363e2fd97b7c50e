package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/weekstatus/weekstatus/internal/kv"
	"github.com/weekstatus/weekstatus/pkg/broadcast"
	"github.com/weekstatus/weekstatus/pkg/schedule"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

type StateName string

const (
	AwaitingLessonDetails         StateName = "awaiting_lesson_details"
	BroadcastStarted              StateName = "broadcast_started"
	BroadcastMethodSelected       StateName = "broadcast_method_selected"
	BroadcastAwaitingContent      StateName = "broadcast_awaiting_content"
	BroadcastAwaitingConfirmation StateName = "broadcast_awaiting_confirmation"
)

// State is what the bot expects next from a user. Only the fields of the current step are set.
type State struct {
	Name StateName `json:"name"`

	WeekType week_parity.Parity `json:"weekType,omitempty"`
	Day      schedule.DayKey    `json:"day,omitempty"`

	Method           broadcast.Method `json:"method,omitempty"`
	Target           broadcast.Target `json:"targetType,omitempty"`
	ContentMessageId int              `json:"content_message_id,omitempty"`
	ContentChatId    int64            `json:"content_chat_id,omitempty"`
}

// StateStore keeps one State per user under state:<userId>.
type StateStore struct {
	store kv.Store
	ttl   time.Duration
}

// NewStateStore expires broadcast states after ttl. Lesson-detail states do not expire.
func NewStateStore(store kv.Store, ttl time.Duration) *StateStore {
	return &StateStore{store: store, ttl: ttl}
}

func stateKey(userId int64) string {
	return "state:" + strconv.FormatInt(userId, 10)
}

func (s *StateStore) Get(ctx context.Context, userId int64) (State, bool, error) {
	var state State
	found, err := s.store.Get(ctx, stateKey(userId), &state)
	if err != nil {
		return State{}, false, fmt.Errorf("failed to read state of user %d: %w", userId, err)
	}
	return state, found, nil
}

func (s *StateStore) Set(ctx context.Context, userId int64, state State) error {
	var ttl time.Duration
	if state.Name != AwaitingLessonDetails {
		ttl = s.ttl
	}
	if err := s.store.Set(ctx, stateKey(userId), state, ttl); err != nil {
		return fmt.Errorf("failed to store state of user %d: %w", userId, err)
	}
	return nil
}

func (s *StateStore) Clear(ctx context.Context, userId int64) error {
	if err := s.store.Delete(ctx, stateKey(userId)); err != nil {
		return fmt.Errorf("failed to clear state of user %d: %w", userId, err)
	}
	return nil
}
