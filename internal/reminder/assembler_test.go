package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow     = time.Date(2030, 3, 14, 12, 0, 0, 0, time.UTC)
	testOffsets = []time.Duration{2 * time.Hour, 15 * time.Minute}
)

func newTestAssembler(events *fakeEvents, subs *fakeSubscribers, log *fakeDeliveries) *Assembler {
	return NewAssembler(events, subs, log, testOffsets)
}

func TestNewAssembler_SortsAndDropsInvalidOffsets(t *testing.T) {
	a := NewAssembler(nil, nil, nil, []time.Duration{2 * time.Hour, 0, -time.Minute, 15 * time.Minute})
	assert.Equal(t, []time.Duration{15 * time.Minute, 2 * time.Hour}, a.offsets)
	assert.Equal(t, 2*time.Hour, a.Horizon())
}

func TestAssemble(t *testing.T) {
	alice := Recipient{UserID: 1, ChatID: 101}
	bob := Recipient{UserID: 2, ChatID: 102}

	tests := []struct {
		name       string
		events     []Event
		recipients []Recipient
		wantPiles  int
		wantOffset time.Duration
	}{
		{
			name:       "event in ten minutes uses the short offset",
			events:     []Event{{ID: 1, Title: "Checkpoint", StartsAt: testNow.Add(10 * time.Minute)}},
			recipients: []Recipient{alice, bob},
			wantPiles:  1,
			wantOffset: 15 * time.Minute,
		},
		{
			name:       "event in one hour uses the long offset",
			events:     []Event{{ID: 1, Title: "Lecture", StartsAt: testNow.Add(time.Hour)}},
			recipients: []Recipient{alice},
			wantPiles:  1,
			wantOffset: 2 * time.Hour,
		},
		{
			name:       "event exactly at the offset boundary is due",
			events:     []Event{{ID: 1, Title: "Deadline", StartsAt: testNow.Add(15 * time.Minute)}},
			recipients: []Recipient{alice},
			wantPiles:  1,
			wantOffset: 15 * time.Minute,
		},
		{
			name:       "event beyond the horizon is ignored",
			events:     []Event{{ID: 1, Title: "Demo day", StartsAt: testNow.Add(3 * time.Hour)}},
			recipients: []Recipient{alice},
		},
		{
			name:       "event that already started is ignored",
			events:     []Event{{ID: 1, Title: "Opening", StartsAt: testNow.Add(-time.Minute)}},
			recipients: []Recipient{alice},
		},
		{
			name:   "no subscribers means no piles",
			events: []Event{{ID: 1, Title: "Checkpoint", StartsAt: testNow.Add(5 * time.Minute)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &fakeEvents{byHack: map[uint64][]Event{7: tt.events}}
			subs := &fakeSubscribers{byHack: map[uint64][]Recipient{7: tt.recipients}}
			a := newTestAssembler(events, subs, newFakeDeliveries())

			piles, err := a.Assemble(context.Background(), 7, testNow)
			require.NoError(t, err)
			require.Len(t, piles, tt.wantPiles)
			for _, p := range piles {
				assert.Equal(t, uint64(7), p.HackathonID)
				assert.Equal(t, tt.wantOffset, p.Offset)
				assert.Equal(t, tt.recipients, p.Recipients)
			}
		})
	}
}

func TestAssemble_OrdersPilesByStartAndDedupesEvents(t *testing.T) {
	late := Event{ID: 2, Title: "Late", StartsAt: testNow.Add(90 * time.Minute)}
	early := Event{ID: 1, Title: "Early", StartsAt: testNow.Add(5 * time.Minute)}
	events := &fakeEvents{byHack: map[uint64][]Event{1: {late, early, late}}}
	subs := &fakeSubscribers{byHack: map[uint64][]Recipient{1: {{UserID: 1, ChatID: 11}}}}

	piles, err := newTestAssembler(events, subs, newFakeDeliveries()).Assemble(context.Background(), 1, testNow)
	require.NoError(t, err)
	require.Len(t, piles, 2)
	assert.Equal(t, uint64(1), piles[0].Event.ID)
	assert.Equal(t, 15*time.Minute, piles[0].Offset)
	assert.Equal(t, uint64(2), piles[1].Event.ID)
	assert.Equal(t, 2*time.Hour, piles[1].Offset)
}

func TestAssemble_SkipsDeliveredOffsetButNotTheNextOne(t *testing.T) {
	ev := Event{ID: 5, Title: "Mentor session", StartsAt: testNow.Add(100 * time.Minute)}
	events := &fakeEvents{byHack: map[uint64][]Event{1: {ev}}}
	subs := &fakeSubscribers{byHack: map[uint64][]Recipient{1: {{UserID: 1, ChatID: 11}}}}
	log := newFakeDeliveries()
	a := newTestAssembler(events, subs, log)
	ctx := context.Background()

	piles, err := a.Assemble(ctx, 1, testNow)
	require.NoError(t, err)
	require.Len(t, piles, 1)
	claimed, err := log.Claim(ctx, ev.ID, piles[0].Offset)
	require.NoError(t, err)
	require.True(t, claimed)

	// the next tick inside the same window finds nothing to do
	piles, err = a.Assemble(ctx, 1, testNow.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, piles)

	// once the event is within 15 minutes the short reminder fires
	piles, err = a.Assemble(ctx, 1, testNow.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, piles, 1)
	assert.Equal(t, 15*time.Minute, piles[0].Offset)
}

func TestAssemble_AvoidsSubscriberQueryWhenNothingIsDue(t *testing.T) {
	ctx := context.Background()

	t.Run("no upcoming events", func(t *testing.T) {
		events := &fakeEvents{}
		subs := &fakeSubscribers{}
		piles, err := newTestAssembler(events, subs, newFakeDeliveries()).Assemble(ctx, 1, testNow)
		require.NoError(t, err)
		assert.Nil(t, piles)
		assert.Equal(t, 1, events.Calls())
		assert.Zero(t, subs.Calls())
	})

	t.Run("everything already delivered", func(t *testing.T) {
		ev := Event{ID: 3, StartsAt: testNow.Add(10 * time.Minute)}
		events := &fakeEvents{byHack: map[uint64][]Event{1: {ev}}}
		subs := &fakeSubscribers{}
		log := newFakeDeliveries()
		_, err := log.Claim(ctx, ev.ID, 15*time.Minute)
		require.NoError(t, err)

		piles, err := newTestAssembler(events, subs, log).Assemble(ctx, 1, testNow)
		require.NoError(t, err)
		assert.Nil(t, piles)
		assert.Zero(t, subs.Calls())
	})
}

func TestAssemble_PropagatesSourceErrors(t *testing.T) {
	ctx := context.Background()

	events := &fakeEvents{err: map[uint64]error{1: errBoom}}
	_, err := newTestAssembler(events, &fakeSubscribers{}, newFakeDeliveries()).Assemble(ctx, 1, testNow)
	require.ErrorIs(t, err, errBoom)

	events = &fakeEvents{byHack: map[uint64][]Event{1: {{ID: 1, StartsAt: testNow.Add(time.Minute)}}}}
	_, err = newTestAssembler(events, &fakeSubscribers{err: errBoom}, newFakeDeliveries()).Assemble(ctx, 1, testNow)
	require.ErrorIs(t, err, errBoom)
}
