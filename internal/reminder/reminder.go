// Package reminder sends "event starts soon" messages to subscribed hackathon participants.
//
// Every tick the Scheduler walks the active hackathons; for each one the Assembler turns
// upcoming events and enabled subscribers into piles, and the Dispatcher delivers them
// through a Notifier, counting failures per recipient without aborting the batch.
package reminder

import (
	"context"
	"time"
)

// Hackathon identifies an active hackathon to run a cycle for.
type Hackathon struct {
	ID uint64
}

// Event is an upcoming schedule slot that may need a reminder.
type Event struct {
	ID       uint64
	Title    string
	StartsAt time.Time
}

// Recipient pairs the internal user id with the Telegram chat to deliver to.
type Recipient struct {
	UserID uint64
	ChatID int64
}

// Pile is one event together with everyone to remind about it during a single tick.
type Pile struct {
	HackathonID uint64
	Offset      time.Duration
	Event       Event
	Recipients  []Recipient
}

// Outcome is the result of delivering one message to one chat.
type Outcome int

const (
	Delivered Outcome = iota
	Blocked
	ChatNotFound
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Blocked:
		return "blocked"
	case ChatNotFound:
		return "chat_not_found"
	default:
		return "failed"
	}
}

// Stats counts per-recipient deliveries.
type Stats struct {
	Sent   int
	Failed int
}

func (s *Stats) Add(o Stats) {
	s.Sent += o.Sent
	s.Failed += o.Failed
}

func (s Stats) Total() int { return s.Sent + s.Failed }

// HackathonLister returns the hackathons whose reminders are still running.
type HackathonLister interface {
	ListActive(ctx context.Context) ([]Hackathon, error)
}

// EventSource returns events of a hackathon starting within [now, now+horizon], earliest first.
type EventSource interface {
	Upcoming(ctx context.Context, hackathonID uint64, now time.Time, horizon time.Duration) ([]Event, error)
}

// SubscriberSource returns users with reminders enabled for a hackathon, each at most once.
type SubscriberSource interface {
	EnabledSubscribers(ctx context.Context, hackathonID uint64) ([]Recipient, error)
}

// DeliveryLog remembers which (event, offset) reminders were already dispatched.
// Claim reserves the pair before anything is sent and reports false when another
// tick or process holds it already; Complete stores the final counts.
type DeliveryLog interface {
	Delivered(ctx context.Context, eventID uint64, offset time.Duration) (bool, error)
	Claim(ctx context.Context, eventID uint64, offset time.Duration) (bool, error)
	Complete(ctx context.Context, eventID uint64, offset time.Duration, st Stats) error
}

// Notifier delivers one text to one chat. Expected delivery failures are reported
// through the Outcome; the error is reserved for unexpected ones.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) (Outcome, error)
}
