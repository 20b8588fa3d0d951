package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type schedulerFixture struct {
	lister *fakeLister
	events *fakeEvents
	subs   *fakeSubscribers
	log    *fakeDeliveries
	notify *fakeNotifier
	s      *Scheduler
}

func newSchedulerFixture() *schedulerFixture {
	f := &schedulerFixture{
		lister: &fakeLister{hackathons: []Hackathon{{ID: 1}, {ID: 2}, {ID: 3}}},
		events: &fakeEvents{
			byHack: map[uint64][]Event{
				1: {{ID: 11, Title: "Kickoff", StartsAt: testNow.Add(10 * time.Minute)}},
				2: {{ID: 21, Title: "Checkpoint", StartsAt: testNow.Add(time.Hour)}},
				3: {{ID: 31, Title: "Demo", StartsAt: testNow.Add(5 * time.Minute)}},
			},
			err:    map[uint64]error{},
			panics: map[uint64]bool{},
		},
		subs: &fakeSubscribers{byHack: map[uint64][]Recipient{
			1: recipients(100, 101),
			2: recipients(200),
			3: recipients(300, 301, 302),
		}},
		log:    newFakeDeliveries(),
		notify: &fakeNotifier{},
	}
	nop := zap.NewNop()
	a := NewAssembler(f.events, f.subs, f.log, testOffsets)
	d := NewDispatcher(f.notify, f.log, nop, time.UTC)
	f.s = NewScheduler(f.lister, a, d, nop)
	f.s.now = func() time.Time { return testNow }
	return f
}

func TestTick_AggregatesAllHackathons(t *testing.T) {
	f := newSchedulerFixture()

	st := f.s.Tick(context.Background())
	assert.Equal(t, Stats{Sent: 6}, st)
	assert.Len(t, f.notify.Sent(), 6)

	// same instant again: every (event, offset) pair is already logged
	st = f.s.Tick(context.Background())
	assert.Zero(t, st.Total())
	assert.Len(t, f.notify.Sent(), 6)
}

func TestTick_ConcurrentTicksRemindOnce(t *testing.T) {
	f := newSchedulerFixture()
	f.lister.hackathons = []Hackathon{{ID: 1}}
	f.notify.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.s.Tick(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, f.notify.Sent(), 2)
	assert.Equal(t, Stats{Sent: 2}, f.log.Get(11, 15*time.Minute))
}

func TestTick_IsolatesFailingHackathon(t *testing.T) {
	f := newSchedulerFixture()
	f.events.err[2] = errBoom
	f.events.panics[3] = true

	st := f.s.Tick(context.Background())
	assert.Equal(t, Stats{Sent: 2}, st)
	assert.Len(t, f.notify.Sent(), 2)
}

func TestTick_ListErrorAndCancelledContext(t *testing.T) {
	f := newSchedulerFixture()
	f.lister.err = errBoom
	assert.Zero(t, f.s.Tick(context.Background()).Total())

	f = newSchedulerFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, f.s.Tick(ctx).Total())
	assert.Zero(t, f.lister.Calls())
}

func TestScheduler_StartRunsImmediatelyAndStopWaits(t *testing.T) {
	f := newSchedulerFixture()

	f.s.Start(context.Background(), time.Hour)
	require.Eventually(t, func() bool { return len(f.notify.Sent()) == 6 }, time.Second, 5*time.Millisecond)
	assert.True(t, f.s.Running())

	f.s.Stop()
	assert.False(t, f.s.Running())
	assert.Equal(t, 1, f.lister.Calls())
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	f := newSchedulerFixture()

	f.s.Start(context.Background(), time.Hour)
	f.s.Start(context.Background(), time.Hour)
	require.Eventually(t, func() bool { return f.lister.Calls() >= 1 }, time.Second, 5*time.Millisecond)
	f.s.Stop()

	assert.Equal(t, 1, f.lister.Calls(), "a second Start must not launch another loop")
}

func TestScheduler_NoTicksAfterStop(t *testing.T) {
	f := newSchedulerFixture()

	f.s.Start(context.Background(), 5*time.Millisecond)
	require.Eventually(t, func() bool { return f.lister.Calls() >= 3 }, time.Second, time.Millisecond)
	f.s.Stop()

	calls := f.lister.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, f.lister.Calls())

	// Stop is safe to repeat, and the scheduler can be started again
	f.s.Stop()
	f.s.Start(context.Background(), time.Hour)
	require.Eventually(t, func() bool { return f.lister.Calls() > calls }, time.Second, 5*time.Millisecond)
	f.s.Stop()
}

func TestScheduler_StopsWhenParentContextIsCancelled(t *testing.T) {
	f := newSchedulerFixture()
	ctx, cancel := context.WithCancel(context.Background())

	f.s.Start(ctx, time.Hour)
	require.Eventually(t, func() bool { return f.lister.Calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	require.Eventually(t, func() bool { return !f.s.Running() }, time.Second, 5*time.Millisecond)
	f.s.Stop()
}
