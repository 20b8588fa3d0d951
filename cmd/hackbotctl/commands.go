package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hackbot/internal/app"
	"hackbot/internal/auth"
	"hackbot/internal/config"
	"hackbot/internal/db"
	"hackbot/internal/hackathon"
	"hackbot/internal/logger"
	"hackbot/internal/telegram"
)

type env struct {
	cfg config.Config
	log *zap.Logger
	gdb *gorm.DB
}

func open(migrate bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.AutoMigrateAndIndexes(gdb); err != nil {
			_ = db.Close(gdb)
			return nil, err
		}
	}
	return &env{cfg: cfg, log: log, gdb: gdb}, nil
}

func (e *env) close() {
	_ = db.Close(e.gdb)
	_ = e.log.Sync()
}

func (e *env) hackathons() *hackathon.Service {
	ids, _ := e.cfg.AdminIDs()
	return &hackathon.Service{DB: e.gdb, AdminIDs: ids}
}

func dbPing(cctx *cli.Context) error {
	e, err := open(false)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(cctx.Context, 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx, e.gdb); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	fmt.Fprintln(cctx.App.Writer, "ok")
	return nil
}

func migrate(cctx *cli.Context) error {
	e, err := open(true)
	if err != nil {
		return err
	}
	defer e.close()
	fmt.Fprintln(cctx.App.Writer, "migrations applied")
	return nil
}

func createHackathon(cctx *cli.Context) error {
	f, err := os.Open(cctx.String("config"))
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := hackathon.DecodeConfig(f)
	if err != nil {
		return err
	}

	e, err := open(true)
	if err != nil {
		return err
	}
	defer e.close()

	h, err := e.hackathons().CreateFromConfig(cctx.Context, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "created hackathon %q (id=%d, code=%s, events=%d, faq=%d)\n",
		h.Name, h.ID, h.Code, len(cfg.Events), len(cfg.FAQ))
	return nil
}

func finishHackathon(cctx *cli.Context) error {
	id, err := strconv.ParseUint(cctx.Args().First(), 10, 64)
	if err != nil {
		return errors.New("usage: hackbotctl finish-hackathon <id>")
	}

	e, err := open(false)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.hackathons().Finish(cctx.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "hackathon %d finished\n", id)
	return nil
}

func listHackathons(cctx *cli.Context) error {
	e, err := open(false)
	if err != nil {
		return err
	}
	defer e.close()

	hs, err := e.hackathons().ListHackathons(cctx.Context, !cctx.Bool("all"))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cctx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tNAME\tSTART\tEND\tACTIVE")
	for _, h := range hs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n",
			h.ID, h.Code, h.Name, h.StartAt.UTC().Format(time.RFC3339), h.EndAt.UTC().Format(time.RFC3339), h.IsActive)
	}
	return tw.Flush()
}

func grantOrganizer(cctx *cli.Context) error {
	tgID, err := strconv.ParseInt(cctx.Args().First(), 10, 64)
	if err != nil {
		return errors.New("usage: hackbotctl grant-organizer <telegram_id>")
	}
	role := hackathon.RoleOrganizer
	if cctx.Bool("revoke") {
		role = hackathon.RoleParticipant
	}

	e, err := open(false)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.hackathons().SetRole(cctx.Context, tgID, role); err != nil {
		if errors.Is(err, hackathon.ErrNotFound) {
			return fmt.Errorf("telegram user %d has not started the bot yet", tgID)
		}
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "user %d is now %s\n", tgID, role)
	return nil
}

func createAdmin(cctx *cli.Context) error {
	e, err := open(true)
	if err != nil {
		return err
	}
	defer e.close()

	adm, err := (&auth.Accounts{DB: e.gdb}).Create(cctx.Context, cctx.String("email"), cctx.String("password"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "admin %s created (id=%d)\n", adm.Email, adm.ID)
	return nil
}

func remindOnce(cctx *cli.Context) error {
	e, err := open(true)
	if err != nil {
		return err
	}
	defer e.close()

	if e.cfg.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	bot, err := tgbotapi.NewBotAPI(e.cfg.BotToken)
	if err != nil {
		return err
	}

	s, err := app.NewScheduler(e.cfg, e.gdb, telegram.NewNotifier(bot), e.log)
	if err != nil {
		return err
	}
	st := s.Tick(cctx.Context)
	fmt.Fprintf(cctx.App.Writer, "sent=%d failed=%d\n", st.Sent, st.Failed)
	return nil
}
