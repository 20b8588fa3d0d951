// Package broadcast delivers an organizer's message to everyone subscribed to a hackathon.
package broadcast

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"hackbot/internal/hackathon"
	"hackbot/internal/reminder"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxTextLen = 4096

var ErrEmptyText = errors.New("broadcast text is empty")

type HackathonFinder interface {
	HackathonByCode(ctx context.Context, code string) (*hackathon.Hackathon, error)
}

type Result struct {
	Total       int     `json:"total_recipients"`
	Sent        int     `json:"sent"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

type Service struct {
	hackathons  HackathonFinder
	subscribers reminder.SubscriberSource
	notifier    reminder.Notifier
	log         *zap.Logger
}

func NewService(hackathons HackathonFinder, subscribers reminder.SubscriberSource, notifier reminder.Notifier, log *zap.Logger) *Service {
	return &Service{hackathons: hackathons, subscribers: subscribers, notifier: notifier, log: log}
}

// Recipients returns the enabled subscribers of the hackathon with the given code.
func (s *Service) Recipients(ctx context.Context, code string) (*hackathon.Hackathon, []reminder.Recipient, error) {
	h, err := s.hackathons.HackathonByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	rs, err := s.subscribers.EnabledSubscribers(ctx, h.ID)
	if err != nil {
		return nil, nil, err
	}
	return h, rs, nil
}

// Send delivers text to every enabled subscriber; single failures are counted, not returned.
func (s *Service) Send(ctx context.Context, code, text string) (Result, error) {
	var res Result
	text = strings.TrimSpace(text)
	if text == "" {
		return res, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		text = string([]rune(text)[:MaxTextLen])
	}

	h, recipients, err := s.Recipients(ctx, code)
	if err != nil {
		return res, err
	}

	log := s.log.With(zap.String("broadcast_id", uuid.NewString()), zap.Uint64("hackathon_id", h.ID))
	res.Total = len(recipients)
	for _, r := range recipients {
		outcome, err := s.notifier.Send(ctx, r.ChatID, text)
		switch {
		case err != nil:
			log.Error("broadcast send error", zap.Error(err), zap.Uint64("user_id", r.UserID))
			res.Failed++
		case outcome != reminder.Delivered:
			log.Warn("broadcast not delivered", zap.Uint64("user_id", r.UserID), zap.Stringer("outcome", outcome))
			res.Failed++
		default:
			res.Sent++
		}
	}
	if res.Total > 0 {
		res.SuccessRate = float64(res.Sent) / float64(res.Total)
	}

	log.Info("broadcast finished", zap.Int("total", res.Total), zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	return res, nil
}
