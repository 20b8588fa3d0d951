package reminder

import (
	"context"
	"time"

	"hackbot/internal/hackathon"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements the pipeline's read sources and delivery log on top of gorm.
type Store struct {
	DB *gorm.DB
}

func (s *Store) ListActive(ctx context.Context) ([]Hackathon, error) {
	var ids []uint64
	err := s.DB.WithContext(ctx).
		Model(&hackathon.Hackathon{}).
		Where("is_active = ?", true).
		Order("id asc").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}

	out := make([]Hackathon, 0, len(ids))
	for _, id := range ids {
		out = append(out, Hackathon{ID: id})
	}
	return out, nil
}

func (s *Store) Upcoming(ctx context.Context, hackathonID uint64, now time.Time, horizon time.Duration) ([]Event, error) {
	now = now.UTC()
	var rows []hackathon.Event
	err := s.DB.WithContext(ctx).
		Where("hackathon_id = ? AND starts_at >= ? AND starts_at <= ?", hackathonID, now, now.Add(horizon)).
		Order("starts_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(rows))
	for _, e := range rows {
		out = append(out, Event{ID: e.ID, Title: e.Title, StartsAt: e.StartsAt})
	}
	return out, nil
}

func (s *Store) EnabledSubscribers(ctx context.Context, hackathonID uint64) ([]Recipient, error) {
	var out []Recipient
	err := s.DB.WithContext(ctx).
		Table("reminder_subscriptions AS s").
		Select("u.id AS user_id, u.telegram_id AS chat_id").
		Joins("JOIN users u ON u.id = s.user_id").
		Where("s.hackathon_id = ? AND s.enabled = ?", hackathonID, true).
		Order("u.id asc").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delivered(ctx context.Context, eventID uint64, offset time.Duration) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&hackathon.ReminderDelivery{}).
		Where("event_id = ? AND offset_sec = ?", eventID, int64(offset/time.Second)).
		Count(&n).Error
	return n > 0, err
}

// Claim inserts the delivery row; only the caller whose insert lands may send the pile.
func (s *Store) Claim(ctx context.Context, eventID uint64, offset time.Duration) (bool, error) {
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&hackathon.ReminderDelivery{
			EventID:   eventID,
			OffsetSec: int64(offset / time.Second),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) Complete(ctx context.Context, eventID uint64, offset time.Duration, st Stats) error {
	return s.DB.WithContext(ctx).
		Model(&hackathon.ReminderDelivery{}).
		Where("event_id = ? AND offset_sec = ?", eventID, int64(offset/time.Second)).
		Updates(map[string]any{"sent": st.Sent, "failed": st.Failed}).Error
}
