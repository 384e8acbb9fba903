package model

import "time"

type Session struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Token     string    `gorm:"size:64;uniqueIndex;not null"`
	UserID    string    `gorm:"column:user_id;size:36;index;not null"`
	User      User      `gorm:"foreignKey:UserID"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
