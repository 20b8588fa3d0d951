package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already used")
)

// Admin is an account allowed to use the admin HTTP API.
type Admin struct {
	ID           uint64 `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

type Accounts struct {
	DB *gorm.DB
}

func (a *Accounts) Create(ctx context.Context, email, password string) (*Admin, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < 8 {
		return nil, errors.New("email required and password must be at least 8 characters")
	}

	var n int64
	if err := a.DB.WithContext(ctx).Model(&Admin{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	adm := Admin{Email: email, PasswordHash: hash}
	if err := a.DB.WithContext(ctx).Create(&adm).Error; err != nil {
		return nil, err
	}
	return &adm, nil
}

// Authenticate returns the admin matching email and password.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (*Admin, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var adm Admin
	if err := a.DB.WithContext(ctx).Where("email = ?", email).First(&adm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !ComparePassword(adm.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &adm, nil
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
