package model

import "time"

type Listing struct {
	ID          string    `gorm:"primaryKey;size:36"`
	OwnerID     string    `gorm:"column:owner_id;size:36;index;not null"`
	Owner       User      `gorm:"foreignKey:OwnerID"`
	Title       string    `gorm:"size:80;not null"`
	Description string    `gorm:"type:text;not null"`
	Category    string    `gorm:"size:40;not null"`
	ImageURL    string    `gorm:"column:image_url;type:mediumtext"`
	PriceAr     int       `gorm:"column:price_ar;not null"`
	IsArchived  bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Listing) TableName() string {
	return "listings"
}
