package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/puzpuzpuz/xsync"
	"go.uber.org/zap"

	"hackbot/internal/broadcast"
	"hackbot/internal/hackathon"
)

const (
	cbBroadcastConfirm = "broadcast:confirm"
	cbBroadcastCancel  = "broadcast:cancel"
)

// draft is a broadcast waiting for the organizer's confirmation.
type draft struct {
	code string
	text string
}

// Router dispatches Telegram updates to the hackathon use cases.
type Router struct {
	bot       Bot
	log       *zap.Logger
	svc       *hackathon.Service
	broadcast *broadcast.Service
	loc       *time.Location
	drafts    *xsync.MapOf[string, draft] // chat id -> pending broadcast
}

func NewRouter(bot Bot, log *zap.Logger, svc *hackathon.Service, bc *broadcast.Service, loc *time.Location) *Router {
	if loc == nil {
		loc = time.UTC
	}
	return &Router{
		bot:       bot,
		log:       log,
		svc:       svc,
		broadcast: bc,
		loc:       loc,
		drafts:    xsync.NewMapOf[draft](),
	}
}

// HandleUpdate routes a single update.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		r.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		r.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		r.handleStart(ctx, chatID, msg.From, args)
	case "help":
		r.sendText(chatID, helpText)
	case "hackathons":
		r.handleHackathons(ctx, chatID)
	case "hackathon":
		r.handleHackathon(ctx, chatID, userID, args)
	case "schedule":
		r.handleSchedule(ctx, chatID, userID)
	case "rules":
		r.handleRules(ctx, chatID, userID)
	case "faq":
		r.handleFAQ(ctx, chatID, userID)
	case "notify_on":
		r.handleNotify(ctx, chatID, userID, true)
	case "notify_off":
		r.handleNotify(ctx, chatID, userID, false)
	case "admin_stats":
		r.handleAdminStats(ctx, chatID, userID)
	case "admin_broadcast":
		r.handleAdminBroadcast(ctx, chatID, userID, args)
	default:
		r.sendText(chatID, "Unknown command. Send /help.")
	}
}

func (r *Router) handleStart(ctx context.Context, chatID int64, from *tgbotapi.User, code string) {
	u, err := r.svc.StartUser(ctx, hackathon.Profile{
		TelegramID: from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	})
	if err != nil {
		r.log.Error("StartUser failed", zap.Error(err), zap.Int64("telegram_id", from.ID))
		r.sendText(chatID, internalErrorText)
		return
	}

	var joined *hackathon.Hackathon
	if code != "" {
		joined, err = r.svc.SelectHackathon(ctx, u.TelegramID, code)
		if err != nil {
			r.replyError(chatID, "SelectHackathon", err)
		}
	}
	r.sendText(chatID, welcomeText(from.FirstName, joined))
}

func (r *Router) handleHackathons(ctx context.Context, chatID int64) {
	hs, err := r.svc.ListHackathons(ctx, true)
	if err != nil {
		r.replyError(chatID, "ListHackathons", err)
		return
	}
	r.sendText(chatID, formatHackathons(hs, r.loc))
}

func (r *Router) handleHackathon(ctx context.Context, chatID, userID int64, code string) {
	if code != "" {
		if _, err := r.svc.SelectHackathon(ctx, userID, code); err != nil {
			r.replyError(chatID, "SelectHackathon", err)
			return
		}
	}

	info, err := r.svc.Info(ctx, userID)
	if errors.Is(err, hackathon.ErrNoHackathon) {
		r.handleHackathons(ctx, chatID)
		return
	}
	if err != nil {
		r.replyError(chatID, "Info", err)
		return
	}
	r.sendText(chatID, formatInfo(info, r.loc))
}

func (r *Router) handleSchedule(ctx context.Context, chatID, userID int64) {
	events, err := r.svc.Schedule(ctx, userID)
	if err != nil {
		r.replyError(chatID, "Schedule", err)
		return
	}
	r.sendText(chatID, formatSchedule(events, r.loc))
}

func (r *Router) handleRules(ctx context.Context, chatID, userID int64) {
	rules, err := r.svc.Rules(ctx, userID)
	if errors.Is(err, hackathon.ErrNotFound) {
		rules, err = nil, nil
	}
	if err != nil {
		r.replyError(chatID, "Rules", err)
		return
	}
	r.sendText(chatID, formatRules(rules))
}

func (r *Router) handleFAQ(ctx context.Context, chatID, userID int64) {
	items, err := r.svc.FAQ(ctx, userID)
	if err != nil {
		r.replyError(chatID, "FAQ", err)
		return
	}
	r.sendText(chatID, formatFAQ(items))
}

func (r *Router) handleNotify(ctx context.Context, chatID, userID int64, enabled bool) {
	if _, err := r.svc.SetNotifications(ctx, userID, enabled); err != nil {
		r.replyError(chatID, "SetNotifications", err)
		return
	}
	r.sendText(chatID, formatNotifications(enabled))
}

func (r *Router) handleAdminStats(ctx context.Context, chatID, userID int64) {
	if !r.organizer(ctx, chatID, userID, nil) {
		return
	}
	st, err := r.svc.Stats(ctx)
	if err != nil {
		r.replyError(chatID, "Stats", err)
		return
	}
	r.sendText(chatID, formatStats(st))
}

// handleAdminBroadcast stores a draft and asks for confirmation before anything is sent.
func (r *Router) handleAdminBroadcast(ctx context.Context, chatID, userID int64, args string) {
	code, text, ok := strings.Cut(args, " ")
	text = strings.TrimSpace(text)
	if !ok || code == "" || text == "" {
		r.sendText(chatID, broadcastUsageText)
		return
	}

	h, recipients, err := r.broadcast.Recipients(ctx, code)
	if err != nil {
		r.replyError(chatID, "broadcast.Recipients", err)
		return
	}
	if !r.organizer(ctx, chatID, userID, h) {
		return
	}

	r.drafts.Store(draftKey(chatID), draft{code: h.Code, text: text})

	msg := tgbotapi.NewMessage(chatID, formatBroadcastPreview(h, len(recipients), text))
	msg.ReplyMarkup = broadcastConfirmKeyboard()
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send preview failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	if err := r.answerCallback(cb.ID, ""); err != nil {
		r.log.Warn("answer callback failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}

	switch cb.Data {
	case cbBroadcastConfirm:
		d, ok := r.drafts.LoadAndDelete(draftKey(chatID))
		if !ok {
			r.sendText(chatID, "Nothing to send: the broadcast draft has expired.")
			return
		}
		h, err := r.svc.HackathonByCode(ctx, d.code)
		if err != nil {
			r.replyError(chatID, "HackathonByCode", err)
			return
		}
		if !r.organizer(ctx, chatID, cb.From.ID, h) {
			return
		}
		res, err := r.broadcast.Send(ctx, d.code, d.text)
		if err != nil {
			r.replyError(chatID, "broadcast.Send", err)
			return
		}
		r.sendText(chatID, formatBroadcastResult(res))
	case cbBroadcastCancel:
		r.drafts.Delete(draftKey(chatID))
		r.sendText(chatID, "❌ Broadcast cancelled.")
	}
}

func (r *Router) organizer(ctx context.Context, chatID, userID int64, h *hackathon.Hackathon) bool {
	ok, err := r.svc.IsOrganizer(ctx, userID, h)
	if err != nil {
		r.replyError(chatID, "IsOrganizer", err)
		return false
	}
	if !ok {
		r.sendText(chatID, organizerOnlyText)
	}
	return ok
}

// replyError maps use case errors to user texts; unexpected ones are logged.
func (r *Router) replyError(chatID int64, op string, err error) {
	switch {
	case errors.Is(err, hackathon.ErrNoHackathon):
		r.sendText(chatID, noHackathonText)
	case errors.Is(err, hackathon.ErrInactive):
		r.sendText(chatID, inactiveText)
	case errors.Is(err, hackathon.ErrNotFound):
		if op == "SelectHackathon" || op == "broadcast.Recipients" || op == "HackathonByCode" {
			r.sendText(chatID, notFoundCodeText)
		} else {
			r.sendText(chatID, notRegisteredText)
		}
	case errors.Is(err, broadcast.ErrEmptyText):
		r.sendText(chatID, broadcastUsageText)
	default:
		r.log.Error(op+" failed", zap.Error(err), zap.Int64("chat_id", chatID))
		r.sendText(chatID, internalErrorText)
	}
}

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send message failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

func draftKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
