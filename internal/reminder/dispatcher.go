package reminder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Dispatcher struct {
	notifier   Notifier
	deliveries DeliveryLog
	log        *zap.Logger
	loc        *time.Location
}

func NewDispatcher(notifier Notifier, deliveries DeliveryLog, log *zap.Logger, loc *time.Location) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{notifier: notifier, deliveries: deliveries, log: log, loc: loc}
}

// Dispatch sends every pile to every recipient. A pile is sent only by whoever claims
// its (event, offset) pair first, and a failed recipient never stops the rest of the
// batch. Cancellation is honoured between piles only, so a started pile is always finished.
func (d *Dispatcher) Dispatch(ctx context.Context, piles []Pile) Stats {
	var total Stats
	for i, p := range piles {
		if ctx.Err() != nil {
			d.log.Info("dispatch interrupted", zap.Int("piles_left", len(piles)-i))
			break
		}
		total.Add(d.dispatchPile(context.WithoutCancel(ctx), p))
	}
	return total
}

func (d *Dispatcher) dispatchPile(ctx context.Context, p Pile) Stats {
	var st Stats
	if p.Event.ID == 0 {
		d.log.Error("skipping malformed pile: no event id",
			zap.Uint64("hackathon_id", p.HackathonID),
			zap.Int("recipients", len(p.Recipients)),
		)
		st.Failed = len(p.Recipients)
		return st
	}

	if d.deliveries != nil {
		claimed, err := d.deliveries.Claim(ctx, p.Event.ID, p.Offset)
		if err != nil {
			d.log.Error("claim delivery failed", zap.Error(err), zap.Uint64("event_id", p.Event.ID))
			return st
		}
		if !claimed {
			d.log.Info("reminder already claimed", zap.Uint64("event_id", p.Event.ID), zap.Duration("offset", p.Offset))
			return st
		}
	}

	text := FormatReminder(p, d.loc)
	for _, r := range p.Recipients {
		if d.send(ctx, p, r, text) {
			st.Sent++
		} else {
			st.Failed++
		}
	}

	if d.deliveries != nil {
		if err := d.deliveries.Complete(ctx, p.Event.ID, p.Offset, st); err != nil {
			d.log.Error("complete delivery failed", zap.Error(err), zap.Uint64("event_id", p.Event.ID))
		}
	}

	d.log.Info("reminder pile dispatched",
		zap.Uint64("hackathon_id", p.HackathonID),
		zap.Uint64("event_id", p.Event.ID),
		zap.Duration("offset", p.Offset),
		zap.Int("sent", st.Sent),
		zap.Int("failed", st.Failed),
	)
	return st
}

func (d *Dispatcher) send(ctx context.Context, p Pile, r Recipient, text string) bool {
	if r.ChatID == 0 {
		d.log.Error("skipping recipient without chat id", zap.Uint64("user_id", r.UserID), zap.Uint64("event_id", p.Event.ID))
		return false
	}

	outcome, err := d.notifier.Send(ctx, r.ChatID, text)
	if err != nil {
		d.log.Error("reminder send error", zap.Error(err), zap.Uint64("user_id", r.UserID), zap.Int64("chat_id", r.ChatID))
		return false
	}
	switch outcome {
	case Delivered:
		return true
	case Blocked:
		d.log.Warn("user blocked the bot", zap.Uint64("user_id", r.UserID))
	case ChatNotFound:
		d.log.Warn("chat not found", zap.Uint64("user_id", r.UserID), zap.Int64("chat_id", r.ChatID))
	default:
		d.log.Warn("reminder not delivered", zap.Uint64("user_id", r.UserID), zap.Stringer("outcome", outcome))
	}
	return false
}

// FormatReminder renders the reminder text for a pile in the given location.
func FormatReminder(p Pile, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("🔔 Reminder\n\nStarting in less than %s:\n📌 %s\n🕐 %s",
		HumanDuration(p.Offset),
		p.Event.Title,
		p.Event.StartsAt.In(loc).Format("Mon 02 Jan 15:04"),
	)
}

// HumanDuration prints 2h, 15m or 1h30m.
func HumanDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
