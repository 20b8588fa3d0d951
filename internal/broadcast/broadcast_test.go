package broadcast

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hackbot/internal/hackathon"
	"hackbot/internal/reminder"
)

type fakeFinder map[string]*hackathon.Hackathon

func (f fakeFinder) HackathonByCode(_ context.Context, code string) (*hackathon.Hackathon, error) {
	h, ok := f[code]
	if !ok {
		return nil, hackathon.ErrNotFound
	}
	return h, nil
}

type fakeSubscribers map[uint64][]reminder.Recipient

func (f fakeSubscribers) EnabledSubscribers(_ context.Context, id uint64) ([]reminder.Recipient, error) {
	return f[id], nil
}

type fakeNotifier struct {
	texts    map[int64]string
	outcomes map[int64]reminder.Outcome
	errs     map[int64]error
}

func (f *fakeNotifier) Send(_ context.Context, chatID int64, text string) (reminder.Outcome, error) {
	if f.texts == nil {
		f.texts = map[int64]string{}
	}
	f.texts[chatID] = text
	if err := f.errs[chatID]; err != nil {
		return reminder.Failed, err
	}
	if o, ok := f.outcomes[chatID]; ok {
		return o, nil
	}
	return reminder.Delivered, nil
}

func newTestService(t *testing.T, n *fakeNotifier) *Service {
	finder := fakeFinder{"spring": {ID: 1, Code: "spring", Name: "Spring Hack"}, "empty": {ID: 2, Code: "empty"}}
	subs := fakeSubscribers{1: {{UserID: 1, ChatID: 10}, {UserID: 2, ChatID: 20}, {UserID: 3, ChatID: 30}, {UserID: 4, ChatID: 40}}}
	return NewService(finder, subs, n, zaptest.NewLogger(t))
}

func TestSend_CountsPerRecipient(t *testing.T) {
	n := &fakeNotifier{
		outcomes: map[int64]reminder.Outcome{20: reminder.Blocked},
		errs:     map[int64]error{30: assert.AnError},
	}
	res, err := newTestService(t, n).Send(context.Background(), "spring", "  Pizza is here  ")
	require.NoError(t, err)

	assert.Equal(t, Result{Total: 4, Sent: 2, Failed: 2, SuccessRate: 0.5}, res)
	assert.Len(t, n.texts, 4)
	assert.Equal(t, "Pizza is here", n.texts[10])
}

func TestSend_Errors(t *testing.T) {
	svc := newTestService(t, &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.Send(ctx, "spring", "   ")
	require.ErrorIs(t, err, ErrEmptyText)

	_, err = svc.Send(ctx, "nope", "hi")
	require.ErrorIs(t, err, hackathon.ErrNotFound)
}

func TestSend_NoRecipients(t *testing.T) {
	res, err := newTestService(t, &fakeNotifier{}).Send(context.Background(), "empty", "hi")
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestSend_TruncatesLongText(t *testing.T) {
	n := &fakeNotifier{}
	_, err := newTestService(t, n).Send(context.Background(), "spring", strings.Repeat("я", MaxTextLen+10))
	require.NoError(t, err)
	assert.Equal(t, MaxTextLen, utf8.RuneCountInString(n.texts[10]))
	assert.True(t, utf8.ValidString(n.texts[10]))
}

func TestRecipients(t *testing.T) {
	h, rs, err := newTestService(t, &fakeNotifier{}).Recipients(context.Background(), "spring")
	require.NoError(t, err)
	assert.Equal(t, "Spring Hack", h.Name)
	assert.Len(t, rs, 4)
}
