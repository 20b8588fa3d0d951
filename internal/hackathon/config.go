package hackathon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

// Config describes a hackathon with its schedule, rules and FAQ, as loaded from JSON.
type Config struct {
	Name        string        `json:"name" validate:"required,max=255"`
	Code        string        `json:"code" validate:"required,max=50"`
	Description string        `json:"description"`
	Location    string        `json:"location" validate:"max=255"`
	StartAt     time.Time     `json:"start_at" validate:"required"`
	EndAt       time.Time     `json:"end_at" validate:"required,gtfield=StartAt"`
	IsActive    *bool         `json:"is_active"`
	Organizers  []int64       `json:"organizers"`
	Events      []EventConfig `json:"events" validate:"dive"`
	Rules       *RulesConfig  `json:"rules"`
	FAQ         []FAQConfig   `json:"faq" validate:"dive"`
}

type EventConfig struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Type        EventType `json:"type" validate:"omitempty,oneof=checkpoint deadline meetup lecture other"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Location    string    `json:"location" validate:"max=255"`
	Description string    `json:"description"`
}

type RulesConfig struct {
	Content string `json:"content" validate:"required"`
}

type FAQConfig struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// DecodeConfig reads either a flat config or one nested as
// {"hackathon": {...}, "events": [...], "rules": {...}, "faq": [...]}.
func DecodeConfig(r io.Reader) (Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}

	var nested struct {
		Hackathon *Config       `json:"hackathon"`
		Events    []EventConfig `json:"events"`
		Rules     *RulesConfig  `json:"rules"`
		FAQ       []FAQConfig   `json:"faq"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if nested.Hackathon != nil {
		cfg := *nested.Hackathon
		cfg.Events, cfg.Rules, cfg.FAQ = nested.Events, nested.Rules, nested.FAQ
		return cfg, nil
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.Code = strings.TrimSpace(c.Code)
	c.Name = strings.TrimSpace(c.Name)
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// CreateFromConfig stores a hackathon together with its events, rules and FAQ in one transaction.
func (s *Service) CreateFromConfig(ctx context.Context, cfg Config) (*Hackathon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := Hackathon{
		Code:         cfg.Code,
		Name:         cfg.Name,
		Description:  cfg.Description,
		Location:     cfg.Location,
		StartAt:      cfg.StartAt.UTC(),
		EndAt:        cfg.EndAt.UTC(),
		IsActive:     cfg.IsActive == nil || *cfg.IsActive,
		OrganizerIDs: TelegramIDs(cfg.Organizers),
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Hackathon
		err := tx.Where("code = ?", h.Code).First(&existing).Error
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&h).Error; err != nil {
			return err
		}

		if len(cfg.Events) > 0 {
			events := make([]Event, 0, len(cfg.Events))
			for _, e := range cfg.Events {
				typ := e.Type
				if typ == "" {
					typ = EventOther
				}
				events = append(events, Event{
					HackathonID: h.ID,
					Title:       e.Title,
					Type:        typ,
					StartsAt:    e.StartsAt.UTC(),
					EndsAt:      e.EndsAt.UTC(),
					Location:    e.Location,
					Description: e.Description,
				})
			}
			if err := tx.Create(&events).Error; err != nil {
				return err
			}
		}

		if cfg.Rules != nil {
			if err := tx.Create(&Rules{HackathonID: h.ID, Content: cfg.Rules.Content}).Error; err != nil {
				return err
			}
		}

		if len(cfg.FAQ) > 0 {
			items := make([]FAQItem, 0, len(cfg.FAQ))
			for _, f := range cfg.FAQ {
				items = append(items, FAQItem{HackathonID: h.ID, Question: f.Question, Answer: f.Answer})
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}
