package broadcast

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/internal/config"
	"github.com/weekstatus/weekstatus/internal/event_bus"
	"github.com/weekstatus/weekstatus/internal/utils"
	"github.com/weekstatus/weekstatus/pkg/chat"
	"github.com/weekstatus/weekstatus/pkg/telegram"
	"golang.org/x/time/rate"
)

// Recipients resolves the chat ids of a registry.
type Recipients interface {
	TargetIds(ctx context.Context, kind chat.Kind) ([]int64, error)
}

type Service interface {
	// Execute delivers the request's message to every recipient and reports to the admin.
	Execute(ctx context.Context, req Request) (Report, error)
}

type ServiceImpl struct {
	repo       Repository
	recipients Recipients
	messenger  telegram.Messenger
	bus        *event_bus.EventBus
	clock      utils.Clock
	batchSize  int
	batchDelay time.Duration
}

func NewService(
	repo Repository,
	recipients Recipients,
	messenger telegram.Messenger,
	bus *event_bus.EventBus,
	clock utils.Clock,
	cfg config.Broadcast,
) *ServiceImpl {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 25
	}
	return &ServiceImpl{
		repo:       repo,
		recipients: recipients,
		messenger:  messenger,
		bus:        bus,
		clock:      clock,
		batchSize:  batchSize,
		batchDelay: cfg.BatchDelay,
	}
}

func (s *ServiceImpl) Execute(ctx context.Context, req Request) (Report, error) {
	log.Infof("Executing broadcast: method=%s target=%s content=%d/%d", req.Method, req.Target, req.ContentChatId, req.ContentMessageId)

	targets, err := s.resolveTargets(ctx, req.Target)
	if err != nil {
		s.notify(ctx, req.AdminId, "❌ خطا در دریافت لیست گیرندگان.")
		return Report{}, err
	}
	if len(targets) == 0 {
		s.notify(ctx, req.AdminId, "⚠️ هیچ گیرنده‌ای برای ارسال یافت نشد. عملیات لغو شد.")
		return Report{}, nil
	}

	id, err := s.repo.Create(ctx, Broadcast{
		AdminMessageId:    req.ContentMessageId,
		AdminChatId:       req.ContentChatId,
		Method:            req.Method,
		TargetDescription: req.Target.Description(),
		CreatedAt:         s.clock.Now(),
	})
	if err != nil {
		s.notify(ctx, req.AdminId, "❌ خطای سیستمی: امکان ثبت عملیات در دیتابیس وجود ندارد.")
		return Report{}, err
	}

	report := Report{BroadcastId: id, Total: len(targets)}
	progressId, err := s.messenger.SendMessage(ctx, req.AdminId, fmt.Sprintf("🚀 در حال ارسال پیام به %d گیرنده... (0٪)", len(targets)), nil)
	if err != nil {
		log.Warnf("Could not send broadcast progress message: %v", err)
	}
	if err := s.repo.MarkSending(ctx, id, progressId); err != nil {
		log.Errorf("Failed to mark broadcast %d as sending: %v", id, err)
	}

	// one token per batch; a zero delay means rate.Inf
	limiter := rate.NewLimiter(rate.Every(s.batchDelay), 1)
	_ = limiter.Wait(ctx)

	for i, target := range targets {
		s.deliver(ctx, id, req, target, &report)

		done := i + 1
		if done%s.batchSize != 0 && done != len(targets) {
			continue
		}
		if progressId != 0 {
			progress := done * 100 / len(targets)
			text := fmt.Sprintf("🚀 در حال ارسال... (%d٪)\n\n✅ موفق: %d\n❌ ناموفق: %d", progress, report.Succeeded, report.Failed)
			if err := s.messenger.EditMessage(ctx, req.AdminId, progressId, text, nil); err != nil {
				log.Warnf("Could not edit progress message: %v", err)
			}
		}
		if done < len(targets) {
			if err := limiter.Wait(ctx); err != nil {
				log.Warnf("Broadcast %d interrupted after %d recipients: %v", id, done, err)
				s.failRemaining(ctx, id, targets[done:], err, &report)
				break
			}
		}
	}

	if err := s.repo.Finish(ctx, id, report); err != nil {
		log.Errorf("Failed to finish broadcast %d: %v", id, err)
	}

	final := fmt.Sprintf("🏁 *گزارش نهایی ارسال همگانی #%d*\n\n🎯 کل گیرندگان: %d\n✅ ارسال موفق: %d\n❌ ارسال ناموفق: %d",
		id, report.Total, report.Succeeded, report.Failed)
	if progressId != 0 {
		if err := s.messenger.EditMessage(ctx, req.AdminId, progressId, final, nil); err != nil {
			log.Warnf("Could not edit final report: %v", err)
		}
	} else {
		s.notify(ctx, req.AdminId, final)
	}

	s.bus.PublishAsync(event_bus.NewEvent(ctx, event_bus.BroadcastFinishedType, event_bus.BroadcastFinished{
		BroadcastId: id,
		Method:      string(req.Method),
		Total:       report.Total,
		Succeeded:   report.Succeeded,
		Failed:      report.Failed,
	}))
	log.Infof("Broadcast %d finished: %d sent, %d failed", id, report.Succeeded, report.Failed)
	return report, nil
}

func (s *ServiceImpl) deliver(ctx context.Context, id int, req Request, target int64, report *Report) {
	var sentId int
	var err error
	if req.Method == Forward {
		sentId, err = s.messenger.ForwardMessage(ctx, target, req.ContentChatId, req.ContentMessageId)
	} else {
		sentId, err = s.messenger.CopyMessage(ctx, target, req.ContentChatId, req.ContentMessageId)
	}

	delivery := Delivery{BroadcastId: id, RecipientChatId: target}
	if err != nil {
		report.Failed++
		delivery.Status = Failed
		delivery.FailureReason = err.Error()
	} else {
		report.Succeeded++
		delivery.Status = Sent
		delivery.SentMessageId = sentId
	}
	if err := s.repo.LogDelivery(ctx, delivery); err != nil {
		log.Errorf("Failed to log broadcast delivery: %v", err)
	}
}

func (s *ServiceImpl) failRemaining(ctx context.Context, id int, targets []int64, cause error, report *Report) {
	for _, target := range targets {
		report.Failed++
		if err := s.repo.LogDelivery(ctx, Delivery{BroadcastId: id, RecipientChatId: target, Status: Failed, FailureReason: cause.Error()}); err != nil {
			log.Errorf("Failed to log broadcast delivery: %v", err)
		}
	}
}

// resolveTargets merges the target's registries, keeping the first occurrence of each chat id.
func (s *ServiceImpl) resolveTargets(ctx context.Context, target Target) ([]int64, error) {
	kinds := target.Kinds()
	if kinds == nil {
		return nil, ErrInvalidTarget
	}
	seen := make(map[int64]struct{})
	targets := make([]int64, 0)
	for _, kind := range kinds {
		ids, err := s.recipients.TargetIds(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", kind, err)
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			targets = append(targets, id)
		}
	}
	return targets, nil
}

func (s *ServiceImpl) notify(ctx context.Context, chatId int64, text string) {
	if _, err := s.messenger.SendMessage(ctx, chatId, text, nil); err != nil {
		log.Errorf("Failed to notify admin: %v", err)
	}
}
