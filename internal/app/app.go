package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hackbot/internal/auth"
	"hackbot/internal/broadcast"
	"hackbot/internal/config"
	"hackbot/internal/db"
	"hackbot/internal/hackathon"
	httpx "hackbot/internal/http"
	"hackbot/internal/reminder"
	"hackbot/internal/telegram"
)

type App struct {
	cfg       config.Config
	log       *zap.Logger
	bot       *tgbotapi.BotAPI
	gdb       *gorm.DB
	httpSrv   *http.Server
	router    *telegram.Router
	scheduler *reminder.Scheduler
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	adminIDs, _ := cfg.AdminIDs()
	loc, _ := cfg.Location()
	svc := &hackathon.Service{DB: gdb, AdminIDs: adminIDs}
	notifier := telegram.NewNotifier(bot)

	scheduler, err := NewScheduler(cfg, gdb, notifier, log)
	if err != nil {
		return nil, err
	}
	bc := broadcast.NewService(svc, &reminder.Store{DB: gdb}, notifier, log)

	handler := httpx.NewRouter(cfg, httpx.Deps{
		Hackathons: svc,
		Accounts:   &auth.Accounts{DB: gdb},
		Broadcast:  bc,
		Reminders:  scheduler,
		JWT:        auth.NewJWT(cfg.JWTSecret),
		Log:        log,
	})

	return &App{
		cfg: cfg,
		log: log,
		bot: bot,
		gdb: gdb,
		httpSrv: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		router:    telegram.NewRouter(bot, log, svc, bc, loc),
		scheduler: scheduler,
	}, nil
}

// NewScheduler wires the reminder pipeline over the database and the given notifier.
func NewScheduler(cfg config.Config, gdb *gorm.DB, notifier reminder.Notifier, log *zap.Logger) (*reminder.Scheduler, error) {
	offsets, err := cfg.Offsets()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store := &reminder.Store{DB: gdb}
	assembler := reminder.NewAssembler(store, store, store, offsets)
	dispatcher := reminder.NewDispatcher(notifier, store, log, loc)
	return reminder.NewScheduler(store, assembler, dispatcher, log), nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting hackbot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("http", a.cfg.HTTPAddr),
		zap.Duration("reminder_interval", a.cfg.ReminderInterval),
	)

	if _, err := a.bot.Request(telegram.Commands()); err != nil {
		a.log.Warn("set bot commands failed", zap.Error(err))
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.scheduler.Start(ctx, a.cfg.ReminderInterval)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd, ok := <-updCh:
			if !ok {
				a.shutdown()
				return errors.New("telegram updates channel closed")
			}
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	a.bot.StopReceivingUpdates()
	a.scheduler.Stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if err := db.Close(a.gdb); err != nil {
		a.log.Warn("db close error", zap.Error(err))
	}
}
