package reminder

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeEvents struct {
	mu     sync.Mutex
	byHack map[uint64][]Event
	err    map[uint64]error
	panics map[uint64]bool
	calls  int
}

func (f *fakeEvents) Upcoming(_ context.Context, hackathonID uint64, now time.Time, horizon time.Duration) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panics[hackathonID] {
		panic("event source exploded")
	}
	if err := f.err[hackathonID]; err != nil {
		return nil, err
	}
	var out []Event
	for _, e := range f.byHack[hackathonID] {
		if !e.StartsAt.Before(now) && !e.StartsAt.After(now.Add(horizon)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSubscribers struct {
	mu     sync.Mutex
	byHack map[uint64][]Recipient
	err    error
	calls  int
}

func (f *fakeSubscribers) EnabledSubscribers(_ context.Context, hackathonID uint64) ([]Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byHack[hackathonID], nil
}

func (f *fakeSubscribers) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type deliveryKey struct {
	eventID uint64
	offset  time.Duration
}

type fakeDeliveries struct {
	mu      sync.Mutex
	records map[deliveryKey]Stats
}

func newFakeDeliveries() *fakeDeliveries {
	return &fakeDeliveries{records: map[deliveryKey]Stats{}}
}

func (f *fakeDeliveries) Delivered(_ context.Context, eventID uint64, offset time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[deliveryKey{eventID, offset}]
	return ok, nil
}

func (f *fakeDeliveries) Claim(_ context.Context, eventID uint64, offset time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[deliveryKey{eventID, offset}]; ok {
		return false, nil
	}
	f.records[deliveryKey{eventID, offset}] = Stats{}
	return true, nil
}

func (f *fakeDeliveries) Complete(_ context.Context, eventID uint64, offset time.Duration, st Stats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[deliveryKey{eventID, offset}] = st
	return nil
}

func (f *fakeDeliveries) Get(eventID uint64, offset time.Duration) Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[deliveryKey{eventID, offset}]
}

func (f *fakeDeliveries) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type sent struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []sent
	outcomes map[int64]Outcome
	errs     map[int64]error
	onSend   func(chatID int64)
	delay    time.Duration
}

func (f *fakeNotifier) Send(_ context.Context, chatID int64, text string) (Outcome, error) {
	f.mu.Lock()
	f.sent = append(f.sent, sent{chatID: chatID, text: text})
	hook := f.onSend
	outcome, ok := f.outcomes[chatID]
	err := f.errs[chatID]
	f.mu.Unlock()

	if hook != nil {
		hook(chatID)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err != nil {
		return Failed, err
	}
	if ok {
		return outcome, nil
	}
	return Delivered, nil
}

func (f *fakeNotifier) Sent() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

type fakeLister struct {
	mu         sync.Mutex
	hackathons []Hackathon
	err        error
	calls      int
}

func (f *fakeLister) ListActive(context.Context) ([]Hackathon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.hackathons, f.err
}

func (f *fakeLister) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errBoom = errors.New("boom")
