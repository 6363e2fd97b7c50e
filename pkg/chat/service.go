package chat

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/internal/event_bus"
	"github.com/weekstatus/weekstatus/internal/utils"
)

type Service interface {
	// RegisterUser records the sender of a private-chat message or callback.
	RegisterUser(ctx context.Context, user *tgbotapi.User, chat *tgbotapi.Chat) error
	// RegisterGroup records a group or supergroup; other chat types are ignored.
	RegisterGroup(ctx context.Context, chat *tgbotapi.Chat) error
	Stats(ctx context.Context) (Stats, error)
	TargetIds(ctx context.Context, kind Kind) ([]int64, error)
}

type ServiceImpl struct {
	repo  Repository
	clock utils.Clock
}

func NewService(repo Repository, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, clock: clock}
}

func (s *ServiceImpl) RegisterUser(ctx context.Context, user *tgbotapi.User, chat *tgbotapi.Chat) error {
	if user == nil || chat == nil {
		return nil
	}
	u := userFromTelegram(user, chat, s.clock.Now())
	if err := s.repo.UpsertUser(ctx, u); err != nil {
		return err
	}
	log.Debugf("User %d (%s) added/updated", u.UserId, u.FullName)
	return nil
}

func (s *ServiceImpl) RegisterGroup(ctx context.Context, chat *tgbotapi.Chat) error {
	if !IsGroupChat(chat) {
		return nil
	}
	g := groupFromTelegram(chat, s.clock.Now())
	if err := s.repo.UpsertGroup(ctx, g); err != nil {
		return err
	}
	log.Debugf("Group %d (%s) added/updated", g.GroupId, g.Name)
	return nil
}

func (s *ServiceImpl) Stats(ctx context.Context) (Stats, error) {
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count users: %w", err)
	}
	groups, err := s.repo.CountGroups(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count groups: %w", err)
	}
	return Stats{Users: users, Groups: groups}, nil
}

func (s *ServiceImpl) TargetIds(ctx context.Context, kind Kind) ([]int64, error) {
	return s.repo.TargetIds(ctx, kind)
}

// SubscribeUsageLog stores every CommandUsed event as a bot_usage row. Failures are logged by the bus
// and never reach the user.
func (s *ServiceImpl) SubscribeUsageLog(bus *event_bus.EventBus) func() {
	return event_bus.SubscribeTyped[event_bus.CommandUsed](bus, event_bus.CommandUsedType,
		func(e event_bus.EventT[event_bus.CommandUsed]) error {
			return s.repo.LogUsage(e.Context(), e.Data)
		})
}
