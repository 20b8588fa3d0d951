package hackathon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNoHackathon   = errors.New("no hackathon selected")
	ErrInactive      = errors.New("hackathon is not active")
	ErrAlreadyExists = errors.New("hackathon code already exists")
	ErrInvalid       = errors.New("invalid hackathon config")
)

type Service struct {
	DB *gorm.DB
	// AdminIDs are Telegram ids treated as organizers everywhere.
	AdminIDs []int64
}

type Profile struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

type Info struct {
	Hackathon  Hackathon
	Subscribed bool
}

type Stats struct {
	TotalUsers   int64 `json:"total_users"`
	Participants int64 `json:"participants"`
	Organizers   int64 `json:"organizers"`
	Subscribed   int64 `json:"subscribed_users"`
}

// StartUser registers a Telegram user or refreshes the stored names.
func (s *Service) StartUser(ctx context.Context, p Profile) (*User, error) {
	var u User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("telegram_id = ?", p.TelegramID).First(&u).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			u = User{
				TelegramID: p.TelegramID,
				Username:   p.Username,
				FirstName:  p.FirstName,
				LastName:   p.LastName,
				Role:       RoleParticipant,
			}
			return tx.Create(&u).Error
		case err != nil:
			return err
		}

		u.Username, u.FirstName, u.LastName = p.Username, p.FirstName, p.LastName
		return tx.Save(&u).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SelectHackathon binds the user to the active hackathon with the given code.
func (s *Service) SelectHackathon(ctx context.Context, telegramID int64, code string) (*Hackathon, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	h, err := s.HackathonByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !h.IsActive {
		return nil, ErrInactive
	}

	if err := s.DB.WithContext(ctx).Model(u).Update("current_hackathon_id", h.ID).Error; err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) ListHackathons(ctx context.Context, activeOnly bool) ([]Hackathon, error) {
	q := s.DB.WithContext(ctx).Model(&Hackathon{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []Hackathon
	if err := q.Order("start_at asc, id asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) HackathonByCode(ctx context.Context, code string) (*Hackathon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}
	var h Hackathon
	if err := s.DB.WithContext(ctx).Where("code = ?", code).First(&h).Error; err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

func (s *Service) HackathonByID(ctx context.Context, id uint64) (*Hackathon, error) {
	var h Hackathon
	if err := s.DB.WithContext(ctx).First(&h, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

// Schedule returns the events of the user's current hackathon ordered by start time.
func (s *Service) Schedule(ctx context.Context, telegramID int64) ([]Event, error) {
	u, err := s.userWithHackathon(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	var out []Event
	err = s.DB.WithContext(ctx).
		Where("hackathon_id = ?", *u.CurrentHackathonID).
		Order("starts_at asc, id asc").
		Find(&out).Error
	return out, err
}

func (s *Service) FAQ(ctx context.Context, telegramID int64) ([]FAQItem, error) {
	u, err := s.userWithHackathon(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	var out []FAQItem
	err = s.DB.WithContext(ctx).
		Where("hackathon_id = ?", *u.CurrentHackathonID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

func (s *Service) Rules(ctx context.Context, telegramID int64) (*Rules, error) {
	u, err := s.userWithHackathon(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	var r Rules
	if err := s.DB.WithContext(ctx).Where("hackathon_id = ?", *u.CurrentHackathonID).First(&r).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// Info returns the user's current hackathon and whether reminders are on for it.
func (s *Service) Info(ctx context.Context, telegramID int64) (*Info, error) {
	u, err := s.userWithHackathon(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	h, err := s.HackathonByID(ctx, *u.CurrentHackathonID)
	if err != nil {
		return nil, err
	}

	var sub Subscription
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND hackathon_id = ?", u.ID, h.ID).
		First(&sub).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &Info{Hackathon: *h, Subscribed: err == nil && sub.Enabled}, nil
}

// SetNotifications switches reminders for the user's current hackathon.
func (s *Service) SetNotifications(ctx context.Context, telegramID int64, enabled bool) (*Subscription, error) {
	u, err := s.userWithHackathon(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	sub := Subscription{UserID: u.ID, HackathonID: *u.CurrentHackathonID, Enabled: enabled}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "hackathon_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled"}),
	}).Create(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.DB.WithContext(ctx)
	if err := db.Model(&User{}).Count(&st.TotalUsers).Error; err != nil {
		return st, err
	}
	if err := db.Model(&User{}).Where("role = ?", RoleParticipant).Count(&st.Participants).Error; err != nil {
		return st, err
	}
	if err := db.Model(&User{}).Where("role = ?", RoleOrganizer).Count(&st.Organizers).Error; err != nil {
		return st, err
	}
	if err := db.Model(&Subscription{}).Where("enabled = ?", true).Count(&st.Subscribed).Error; err != nil {
		return st, err
	}
	return st, nil
}

// Finish deactivates a hackathon and switches off all of its subscriptions.
func (s *Service) Finish(ctx context.Context, id uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Hackathon{}).Where("id = ?", id).Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&Subscription{}).
			Where("hackathon_id = ?", id).
			Update("enabled", false).Error
	})
}

func (s *Service) SetRole(ctx context.Context, telegramID int64, role Role) error {
	if role != RoleParticipant && role != RoleOrganizer {
		return fmt.Errorf("unknown role %q", role)
	}
	res := s.DB.WithContext(ctx).Model(&User{}).Where("telegram_id = ?", telegramID).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsOrganizer reports whether the Telegram user may administer h (or any hackathon when h is nil).
func (s *Service) IsOrganizer(ctx context.Context, telegramID int64, h *Hackathon) (bool, error) {
	for _, id := range s.AdminIDs {
		if id == telegramID {
			return true, nil
		}
	}
	if h != nil && h.OrganizerIDs.Contains(telegramID) {
		return true, nil
	}

	u, err := s.user(ctx, telegramID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsOrganizer(), nil
}

func (s *Service) user(ctx context.Context, telegramID int64) (*User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Service) userWithHackathon(ctx context.Context, telegramID int64) (*User, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u.CurrentHackathonID == nil {
		return nil, ErrNoHackathon
	}
	return u, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
