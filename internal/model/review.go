package model

import "time"

// Review is upserted per (target, author) pair: one review per reviewer.
type Review struct {
	ID           string    `gorm:"primaryKey;size:36"`
	TargetUserID string    `gorm:"column:target_user_id;size:36;not null;uniqueIndex:idx_reviews_target_author"`
	AuthorID     string    `gorm:"column:author_id;size:36;not null;uniqueIndex:idx_reviews_target_author"`
	Author       User      `gorm:"foreignKey:AuthorID"`
	Rating       int       `gorm:"not null"`
	Comment      string    `gorm:"size:300;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Review) TableName() string {
	return "reviews"
}
