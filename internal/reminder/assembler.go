package reminder

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Assembler builds the piles for one hackathon.
//
// An event is due at the tightest configured offset that still covers the time left until
// it starts. Each (event, offset) pair is reminded once: pairs found in the delivery log are
// skipped, so with offsets 2h and 15m an event gets at most two reminders in its lifetime
// and at most one per tick.
type Assembler struct {
	events      EventSource
	subscribers SubscriberSource
	deliveries  DeliveryLog
	offsets     []time.Duration // ascending
}

func NewAssembler(events EventSource, subscribers SubscriberSource, deliveries DeliveryLog, offsets []time.Duration) *Assembler {
	sorted := make([]time.Duration, 0, len(offsets))
	for _, o := range offsets {
		if o > 0 {
			sorted = append(sorted, o)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &Assembler{
		events:      events,
		subscribers: subscribers,
		deliveries:  deliveries,
		offsets:     sorted,
	}
}

// Horizon is the widest lookahead window.
func (a *Assembler) Horizon() time.Duration {
	if len(a.offsets) == 0 {
		return 0
	}
	return a.offsets[len(a.offsets)-1]
}

func (a *Assembler) Assemble(ctx context.Context, hackathonID uint64, now time.Time) ([]Pile, error) {
	if len(a.offsets) == 0 {
		return nil, nil
	}

	events, err := a.events.Upcoming(ctx, hackathonID, now, a.Horizon())
	if err != nil {
		return nil, fmt.Errorf("upcoming events: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	type dueEvent struct {
		event  Event
		offset time.Duration
	}
	var due []dueEvent
	seen := make(map[uint64]struct{}, len(events))
	for _, ev := range events {
		if _, ok := seen[ev.ID]; ok {
			continue
		}
		seen[ev.ID] = struct{}{}

		offset, ok := a.offsetFor(ev.StartsAt.Sub(now))
		if !ok {
			continue
		}
		if a.deliveries != nil {
			done, err := a.deliveries.Delivered(ctx, ev.ID, offset)
			if err != nil {
				return nil, fmt.Errorf("delivery log: %w", err)
			}
			if done {
				continue
			}
		}
		due = append(due, dueEvent{event: ev, offset: offset})
	}
	if len(due) == 0 {
		return nil, nil
	}

	recipients, err := a.subscribers.EnabledSubscribers(ctx, hackathonID)
	if err != nil {
		return nil, fmt.Errorf("enabled subscribers: %w", err)
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	sort.SliceStable(due, func(i, j int) bool { return due[i].event.StartsAt.Before(due[j].event.StartsAt) })

	piles := make([]Pile, 0, len(due))
	for _, d := range due {
		piles = append(piles, Pile{
			HackathonID: hackathonID,
			Offset:      d.offset,
			Event:       d.event,
			Recipients:  recipients,
		})
	}
	return piles, nil
}

func (a *Assembler) offsetFor(until time.Duration) (time.Duration, bool) {
	if until < 0 {
		return 0, false
	}
	for _, o := range a.offsets {
		if until <= o {
			return o, true
		}
	}
	return 0, false
}
