package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Business is an owner's listing of a finite pool of shares.
type Business struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	SharesAvailable int64     `json:"shares_available"`
	OwnerID         int64     `json:"owner_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Available reports whether the business still lists shares for sale.
func (b *Business) Available() bool {
	return b.SharesAvailable > 0
}

// OwnedBy reports whether user is the owner of the business.
func (b *Business) OwnedBy(user *User) bool {
	return user != nil && b.OwnerID == user.ID
}

// CanFill reports whether an order of quantity shares fits the inventory.
// shares_available is never decremented, so this is a check against the
// listing size rather than the remaining stock.
func (b *Business) CanFill(quantity decimal.Decimal) bool {
	return quantity.LessThanOrEqual(decimal.NewFromInt(b.SharesAvailable))
}
