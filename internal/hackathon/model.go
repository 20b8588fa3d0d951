package hackathon

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
)

type EventType string

const (
	EventCheckpoint EventType = "checkpoint"
	EventDeadline   EventType = "deadline"
	EventMeetup     EventType = "meetup"
	EventLecture    EventType = "lecture"
	EventOther      EventType = "other"
)

// User is a Telegram account known to the bot.
type User struct {
	ID                 uint64  `gorm:"primaryKey"`
	TelegramID         int64   `gorm:"uniqueIndex;not null"`
	Username           string  `gorm:"size:255;not null;default:''"`
	FirstName          string  `gorm:"size:255;not null;default:''"`
	LastName           string  `gorm:"size:255;not null;default:''"`
	Role               Role    `gorm:"size:32;not null;default:'participant'"`
	CurrentHackathonID *uint64 `gorm:"index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (u *User) IsOrganizer() bool { return u.Role == RoleOrganizer }

type Hackathon struct {
	ID           uint64      `gorm:"primaryKey"`
	Code         string      `gorm:"size:50;uniqueIndex;not null"`
	Name         string      `gorm:"size:255;not null"`
	Description  string      `gorm:"type:text;not null;default:''"`
	Location     string      `gorm:"size:255;not null;default:''"`
	StartAt      time.Time   `gorm:"not null"`
	EndAt        time.Time   `gorm:"not null"`
	IsActive     bool        `gorm:"index;not null"`
	OrganizerIDs TelegramIDs `gorm:"not null"`
	CreatedAt    time.Time
}

// Event is one slot of a hackathon schedule. StartsAt is always before EndsAt.
type Event struct {
	ID          uint64    `gorm:"primaryKey"`
	HackathonID uint64    `gorm:"index;not null"`
	Title       string    `gorm:"size:255;not null"`
	Type        EventType `gorm:"size:32;not null;default:'other'"`
	StartsAt    time.Time `gorm:"index;not null"`
	EndsAt      time.Time `gorm:"not null"`
	Location    string    `gorm:"size:255;not null;default:''"`
	Description string    `gorm:"type:text;not null;default:''"`
}

type FAQItem struct {
	ID          uint64 `gorm:"primaryKey"`
	HackathonID uint64 `gorm:"index;not null"`
	Question    string `gorm:"type:text;not null"`
	Answer      string `gorm:"type:text;not null"`
}

func (FAQItem) TableName() string { return "faq_items" }

type Rules struct {
	ID          uint64 `gorm:"primaryKey"`
	HackathonID uint64 `gorm:"uniqueIndex;not null"`
	Content     string `gorm:"type:text;not null"`
}

func (Rules) TableName() string { return "rules" }

// Subscription is the per (user, hackathon) reminder switch.
type Subscription struct {
	ID          uint64 `gorm:"primaryKey"`
	UserID      uint64 `gorm:"uniqueIndex:uq_subscription_user_hackathon;not null"`
	HackathonID uint64 `gorm:"uniqueIndex:uq_subscription_user_hackathon;index;not null"`
	Enabled     bool   `gorm:"not null"`
}

func (Subscription) TableName() string { return "reminder_subscriptions" }

// ReminderDelivery marks that the reminder for an event at a given offset was dispatched.
type ReminderDelivery struct {
	ID        uint64 `gorm:"primaryKey"`
	EventID   uint64 `gorm:"uniqueIndex:uq_delivery_event_offset;not null"`
	OffsetSec int64  `gorm:"uniqueIndex:uq_delivery_event_offset;not null"`
	Sent      int    `gorm:"not null;default:0"`
	Failed    int    `gorm:"not null;default:0"`
	CreatedAt time.Time
}

// TelegramIDs is stored as bigint[] on Postgres and as the same array literal in text elsewhere.
type TelegramIDs []int64

func (ids TelegramIDs) Value() (driver.Value, error) {
	if len(ids) == 0 {
		return "{}", nil
	}
	return pq.Int64Array(ids).Value()
}

func (ids *TelegramIDs) Scan(src any) error {
	return (*pq.Int64Array)(ids).Scan(src)
}

func (TelegramIDs) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "bigint[]"
	}
	return "text"
}

func (ids TelegramIDs) Contains(id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Models lists every table owned by the bot, in migration order.
func Models() []any {
	return []any{
		&Hackathon{},
		&User{},
		&Event{},
		&FAQItem{},
		&Rules{},
		&Subscription{},
		&ReminderDelivery{},
	}
}
