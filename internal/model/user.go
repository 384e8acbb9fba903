package model

import "time"

type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

type User struct {
	ID           string     `gorm:"primaryKey;size:36"`
	Username     string     `gorm:"size:24;uniqueIndex;not null"`
	DisplayName  *string    `gorm:"size:64"`
	Bio          *string    `gorm:"size:500"`
	PasswordHash *string    `gorm:"size:128"`
	DiscordID    *string    `gorm:"column:discord_id;size:32;uniqueIndex"`
	Role         UserRole   `gorm:"size:16;not null;default:USER"`
	IsBanned     bool       `gorm:"not null;default:false"`
	BanReason    *string    `gorm:"size:255"`
	BannedAt     *time.Time `gorm:"column:banned_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
