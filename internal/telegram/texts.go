package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hackbot/internal/broadcast"
	"hackbot/internal/hackathon"
)

const (
	helpText = "ℹ️ Commands:\n\n" +
		"/start [code] — register, optionally joining a hackathon\n" +
		"/hackathons — active hackathons\n" +
		"/hackathon [code] — current hackathon, or switch to another\n" +
		"/schedule — event schedule\n" +
		"/rules — rules and judging criteria\n" +
		"/faq — frequently asked questions\n" +
		"/notify_on — turn event reminders on\n" +
		"/notify_off — turn event reminders off\n" +
		"/help — this message"

	noHackathonText    = "You have not picked a hackathon yet. Send /hackathons to see the list, then /hackathon <code>."
	notFoundCodeText   = "No hackathon with this code."
	inactiveText       = "This hackathon is already over."
	notRegisteredText  = "Please send /start first."
	internalErrorText  = "Something went wrong. Please try again later."
	organizerOnlyText  = "❌ This command is available to organizers only."
	broadcastUsageText = "Usage: /admin_broadcast <hackathon_code> <message text>"

	scheduleDescLimit = 100
)

func welcomeText(name string, h *hackathon.Hackathon) string {
	if name == "" {
		name = "friend"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👋 Hi, %s!\n\n", name)
	b.WriteString("I am the hackathon assistant. I can show the schedule, rules and FAQ, and remind you about upcoming events.\n\n")
	if h != nil {
		fmt.Fprintf(&b, "You joined %s.\n", h.Name)
	} else {
		b.WriteString("Pick your hackathon with /hackathons.\n")
	}
	b.WriteString("Send /help for the list of commands.")
	return b.String()
}

func formatHackathons(hs []hackathon.Hackathon, loc *time.Location) string {
	if len(hs) == 0 {
		return "There are no active hackathons right now."
	}
	var b strings.Builder
	b.WriteString("🏆 Active hackathons:\n\n")
	for _, h := range hs {
		fmt.Fprintf(&b, "• %s — code %s (%s)\n", h.Name, h.Code, h.StartAt.In(loc).Format("02.01.2006"))
	}
	b.WriteString("\nSend /hackathon <code> to join.")
	return b.String()
}

func formatInfo(info *hackathon.Info, loc *time.Location) string {
	h := info.Hackathon
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 %s\n\n", h.Name)
	if h.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", h.Description)
	}
	fmt.Fprintf(&b, "📅 Dates: %s – %s\n", h.StartAt.In(loc).Format("02.01.2006 15:04"), h.EndAt.In(loc).Format("02.01.2006 15:04"))
	if h.Location != "" {
		fmt.Fprintf(&b, "📍 Location: %s\n", h.Location)
	}
	fmt.Fprintf(&b, "🔑 Code: %s\n", h.Code)
	if info.Subscribed {
		b.WriteString("\n🔔 Reminders: on")
	} else {
		b.WriteString("\n🔔 Reminders: off")
	}
	return b.String()
}

// formatSchedule groups events by local day.
func formatSchedule(events []hackathon.Event, loc *time.Location) string {
	if len(events) == 0 {
		return "📅 The schedule is empty for now."
	}
	var b strings.Builder
	b.WriteString("📅 Schedule:\n")
	day := ""
	for _, e := range events {
		start, end := e.StartsAt.In(loc), e.EndsAt.In(loc)
		if d := start.Format("02.01.2006"); d != day {
			day = d
			fmt.Fprintf(&b, "\n📆 %s\n", day)
		}
		fmt.Fprintf(&b, "• %s (%s–%s)\n", e.Title, start.Format("15:04"), end.Format("15:04"))
		if e.Location != "" {
			fmt.Fprintf(&b, "   📍 %s\n", e.Location)
		}
		if e.Description != "" {
			fmt.Fprintf(&b, "   📝 %s\n", truncate(e.Description, scheduleDescLimit))
		}
	}
	return b.String()
}

func formatFAQ(items []hackathon.FAQItem) string {
	if len(items) == 0 {
		return "❓ No FAQ for this hackathon yet."
	}
	var b strings.Builder
	b.WriteString("❓ Frequently asked questions:\n\n")
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, it.Question, it.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRules(r *hackathon.Rules) string {
	if r == nil || strings.TrimSpace(r.Content) == "" {
		return "📋 Rules for this hackathon are not published yet."
	}
	return "📋 Rules:\n\n" + r.Content
}

func formatStats(st hackathon.Stats) string {
	return fmt.Sprintf("📊 Users: %d\nParticipants: %d\nOrganizers: %d\nSubscribed to reminders: %d",
		st.TotalUsers, st.Participants, st.Organizers, st.Subscribed)
}

func formatNotifications(enabled bool) string {
	if enabled {
		return "✅ Reminders are on. I will ping you before events start."
	}
	return "🔕 Reminders are off."
}

func formatBroadcastPreview(h *hackathon.Hackathon, recipients int, text string) string {
	return fmt.Sprintf("📨 Broadcast to %s\n👥 Recipients: %d\n\n%s\n\nSend it?", h.Name, recipients, text)
}

func formatBroadcastResult(r broadcast.Result) string {
	return fmt.Sprintf("📨 Broadcast finished\n\n✅ Sent: %d\n❌ Failed: %d\n📊 Total: %d\n📈 Success: %.1f%%",
		r.Sent, r.Failed, r.Total, r.SuccessRate*100)
}

func broadcastConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Send", cbBroadcastConfirm),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cbBroadcastCancel),
		),
	)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Commands is the menu shown by Telegram clients.
func Commands() tgbotapi.SetMyCommandsConfig {
	return tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Register and pick a hackathon"},
		tgbotapi.BotCommand{Command: "hackathons", Description: "Active hackathons"},
		tgbotapi.BotCommand{Command: "hackathon", Description: "Current hackathon"},
		tgbotapi.BotCommand{Command: "schedule", Description: "Event schedule"},
		tgbotapi.BotCommand{Command: "rules", Description: "Rules and judging criteria"},
		tgbotapi.BotCommand{Command: "faq", Description: "Frequently asked questions"},
		tgbotapi.BotCommand{Command: "notify_on", Description: "Turn reminders on"},
		tgbotapi.BotCommand{Command: "notify_off", Description: "Turn reminders off"},
		tgbotapi.BotCommand{Command: "help", Description: "Help"},
	)
}
