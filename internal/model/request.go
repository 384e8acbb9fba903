package model

import "time"

// RequestStatus is the closed set of purchase request lifecycle states.
type RequestStatus string

const (
	RequestStatusOpen                  RequestStatus = "OPEN"
	RequestStatusClaimed               RequestStatus = "CLAIMED"
	RequestStatusAwaitingBuyerConfirm  RequestStatus = "AWAITING_BUYER_CONFIRM"
	RequestStatusDisputed              RequestStatus = "DISPUTED"
	RequestStatusCompleted             RequestStatus = "COMPLETED"
	RequestStatusCancelled             RequestStatus = "CANCELLED"
)

// Terminal states are never left once entered.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// Active statuses are the ones shown on the public board by default.
func (s RequestStatus) Active() bool {
	return s == RequestStatusOpen || s == RequestStatusClaimed
}

type PurchaseRequest struct {
	ID                string        `gorm:"primaryKey;size:36"`
	ItemID            string        `gorm:"column:item_id;size:64;not null"`
	ItemName          string        `gorm:"size:120;not null"`
	Quantity          int           `gorm:"not null"`
	OfferedPriceAr    int           `gorm:"column:offered_price_ar;not null"`
	ListingID         *string       `gorm:"column:listing_id;size:36;index"`
	CreatorID         string        `gorm:"column:creator_id;size:36;index;not null"`
	Creator           User          `gorm:"foreignKey:CreatorID"`
	ClaimerID         *string       `gorm:"column:claimer_id;size:36;index"`
	Claimer           *User         `gorm:"foreignKey:ClaimerID"`
	PreferredSellerID *string       `gorm:"column:preferred_seller_id;size:36;index"`
	PreferredSeller   *User         `gorm:"foreignKey:PreferredSellerID"`
	Status            RequestStatus `gorm:"size:32;not null;index"`
	SellerConfirmedAt *time.Time    `gorm:"column:seller_confirmed_at"`
	BuyerConfirmedAt  *time.Time    `gorm:"column:buyer_confirmed_at"`
	DisputedAt        *time.Time    `gorm:"column:disputed_at"`
	DisputeComment    *string       `gorm:"size:280"`
	CreatedAt         time.Time     `gorm:"autoCreateTime"`
	UpdatedAt         time.Time     `gorm:"autoUpdateTime"`
}

func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}
