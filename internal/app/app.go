package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/internal/config"
	"github.com/weekstatus/weekstatus/internal/database"
	"github.com/weekstatus/weekstatus/internal/kv"
	"github.com/weekstatus/weekstatus/internal/utils"
	"github.com/weekstatus/weekstatus/pkg/jalali"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

// Application wires configuration, storage, router, and server lifecycle.
type Application struct {
	cfg   config.Application
	deps  *Dependencies
	db    *pgxpool.Pool
	store *kv.RedisStore
	srv   *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	reference, err := loadReference(cfg.Week)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Week.Location()
	if err != nil {
		return nil, err
	}
	log.Infof("Week reference: %s is a %s week (%s)", cfg.Week.ReferenceDate, reference.Parity.Label(), loc)

	// DB + migrations
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		db.Close()
		return nil, err
	}

	store, err := kv.Open(ctx, cfg.Redis)
	if err != nil {
		db.Close()
		return nil, err
	}

	deps := BuildDependencies(db, store, utils.NewSystemClock(loc), reference, cfg)

	r := mux.NewRouter()
	SetupMiddleware(r, deps)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Host,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, deps: deps, db: db, store: store, srv: srv}, nil
}

func loadReference(cfg config.Week) (week_parity.Reference, error) {
	date, err := jalali.Parse(cfg.ReferenceDate)
	if err != nil {
		return week_parity.Reference{}, fmt.Errorf("invalid week reference date %q: %w", cfg.ReferenceDate, err)
	}
	parity, err := week_parity.ParseParity(cfg.ReferenceParity)
	if err != nil {
		return week_parity.Reference{}, fmt.Errorf("invalid week reference parity: %w", err)
	}
	return week_parity.NewReference(date, parity)
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	a.announce(ctx)

	select {
	case err := <-errs:
		a.close()
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.srv.Shutdown(shutdownCtx)
	a.deps.Bot.Wait()
	a.deps.EventBus.Wait()
	a.close()
	return err
}

// announce registers the webhook and greets the admin, both optional.
func (a *Application) announce(ctx context.Context) {
	tg := a.cfg.Telegram
	if tg.WebhookUrl != "" {
		if err := a.deps.Messenger.SetWebhook(ctx, tg.WebhookUrl, tg.WebhookSecret); err != nil {
			log.Errorf("Failed to set webhook: %v", err)
		}
	}
	if !tg.NotifyOnStartup {
		return
	}
	info := a.deps.Messenger.BotInfo(ctx)
	text := fmt.Sprintf("✅ ربات @%s با موفقیت روشن شد.", strings.ReplaceAll(info.Username, "_", "\\_"))
	if _, err := a.deps.Messenger.SendMessage(ctx, tg.AdminChatId, text, nil); err != nil {
		log.Warnf("Failed to send startup notice: %v", err)
	}
}

func (a *Application) close() {
	if err := a.store.Close(); err != nil {
		log.Warnf("Failed to close redis: %v", err)
	}
	a.db.Close()
}
