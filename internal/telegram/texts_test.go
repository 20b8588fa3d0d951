package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hackbot/internal/broadcast"
	"hackbot/internal/hackathon"
)

func TestFormatSchedule_GroupsByLocalDay(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	day := time.Date(2030, 5, 20, 0, 0, 0, 0, time.UTC)

	events := []hackathon.Event{
		{Title: "Opening", StartsAt: day.Add(7 * time.Hour), EndsAt: day.Add(8 * time.Hour), Location: "Hall A"},
		{Title: "Night coding", StartsAt: day.Add(22 * time.Hour), EndsAt: day.Add(23 * time.Hour), Description: strings.Repeat("x", 150)},
	}
	got := formatSchedule(events, msk)

	assert.Contains(t, got, "📆 20.05.2030")
	assert.Contains(t, got, "• Opening (10:00–11:00)")
	assert.Contains(t, got, "📍 Hall A")
	// 22:00 UTC is already the next day in Moscow
	assert.Contains(t, got, "📆 21.05.2030")
	assert.Contains(t, got, "• Night coding (01:00–02:00)")
	assert.Contains(t, got, strings.Repeat("x", scheduleDescLimit)+"...")
	assert.NotContains(t, got, strings.Repeat("x", scheduleDescLimit+1))

	assert.Equal(t, "📅 The schedule is empty for now.", formatSchedule(nil, msk))
}

func TestFormatters(t *testing.T) {
	assert.Contains(t, welcomeText("", nil), "Hi, friend!")
	assert.Contains(t, welcomeText("Ann", &hackathon.Hackathon{Name: "Spring Hack"}), "You joined Spring Hack.")

	assert.Equal(t, "There are no active hackathons right now.", formatHackathons(nil, time.UTC))
	assert.Contains(t, formatHackathons([]hackathon.Hackathon{{Name: "Spring Hack", Code: "spring"}}, time.UTC), "code spring")

	assert.Contains(t, formatRules(nil), "not published")
	assert.Equal(t, "📋 Rules:\n\nBe nice.", formatRules(&hackathon.Rules{Content: "Be nice."}))

	faq := formatFAQ([]hackathon.FAQItem{{Question: "Q1", Answer: "A1"}, {Question: "Q2", Answer: "A2"}})
	assert.Contains(t, faq, "1. Q1\nA1")
	assert.Contains(t, faq, "2. Q2\nA2")
	assert.False(t, strings.HasSuffix(faq, "\n"))

	assert.Contains(t, formatBroadcastResult(broadcast.Result{Total: 4, Sent: 3, Failed: 1, SuccessRate: 0.75}), "75.0%")
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "abc", truncate("abc", 3))
}
