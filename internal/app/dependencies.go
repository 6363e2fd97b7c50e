package app

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/weekstatus/weekstatus/internal/config"
	"github.com/weekstatus/weekstatus/internal/event_bus"
	"github.com/weekstatus/weekstatus/internal/kv"
	"github.com/weekstatus/weekstatus/internal/metrics"
	"github.com/weekstatus/weekstatus/internal/utils"
	"github.com/weekstatus/weekstatus/pkg/bot"
	"github.com/weekstatus/weekstatus/pkg/broadcast"
	"github.com/weekstatus/weekstatus/pkg/chat"
	"github.com/weekstatus/weekstatus/pkg/export"
	"github.com/weekstatus/weekstatus/pkg/schedule"
	"github.com/weekstatus/weekstatus/pkg/telegram"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Metrics  *metrics.Metrics
	Clock    utils.Clock

	ChatRepo    *chat.RepositoryImpl
	ChatService *chat.ServiceImpl

	ScheduleRepo    schedule.Repository
	ScheduleService *schedule.ServiceImpl
	PdfExport       *export.PdfScheduleRendererImpl
	CsvExport       *export.CsvScheduleRendererImpl

	BroadcastRepo    *broadcast.RepositoryImpl
	BroadcastService *broadcast.ServiceImpl

	Messenger      *telegram.MessengerImpl
	States         *bot.StateStore
	Bot            *bot.Bot
	WebhookHandler *bot.WebhookHandler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, store kv.Store, clock utils.Clock, reference week_parity.Reference, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Metrics = metrics.New()
	deps.Metrics.Subscribe(deps.EventBus)
	deps.Clock = clock

	deps.ChatRepo = chat.NewRepository(db)
	deps.ChatService = chat.NewService(deps.ChatRepo, deps.Clock)
	deps.ChatService.SubscribeUsageLog(deps.EventBus)

	deps.ScheduleRepo = schedule.NewRepository(db)
	deps.ScheduleService = schedule.NewService(deps.ScheduleRepo, deps.Clock)
	deps.PdfExport = export.NewPdfScheduleRenderer()
	deps.CsvExport = export.NewCsvScheduleRenderer()

	api := telegram.NewBotAPI(cfg.Telegram.Token, &http.Client{Timeout: telegramClientTimeout}, "")
	deps.Messenger = telegram.NewMessenger(api, store)

	deps.BroadcastRepo = broadcast.NewRepository(db)
	deps.BroadcastService = broadcast.NewService(deps.BroadcastRepo, deps.ChatService, deps.Messenger, deps.EventBus, deps.Clock, cfg.Broadcast)

	deps.States = bot.NewStateStore(store, cfg.Broadcast.StateTTL)
	deps.Bot = bot.NewBot(bot.Options{
		Messenger:  deps.Messenger,
		Chats:      deps.ChatService,
		Schedules:  deps.ScheduleService,
		Broadcasts: deps.BroadcastService,
		Renderers:  map[export.Format]export.Renderer{export.Pdf: deps.PdfExport, export.Csv: deps.CsvExport},
		States:     deps.States,
		Bus:        deps.EventBus,
		Clock:      deps.Clock,
		Reference:  reference,
		AdminId:    cfg.Telegram.AdminChatId,
	})
	deps.WebhookHandler = bot.NewWebhookHandler(deps.Bot, cfg.Telegram.WebhookSecret, deps.Metrics)

	return deps
}

// telegramClientTimeout bounds a single Bot API call.
const telegramClientTimeout = 30 * time.Second
