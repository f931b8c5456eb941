package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type orderParams struct {
	Quantity *decimal.Decimal `json:"quantity" swaggertype:"integer"`
	Price    *decimal.Decimal `json:"price"    swaggertype:"number"`

	members int
}

func (p *orderParams) UnmarshalJSON(data []byte) error {
	type plain orderParams
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	p.members = memberCount(data)
	return nil
}

type orderRequest struct {
	Order *orderParams `json:"order" validate:"required"`
}

func (r *orderRequest) blank() bool { return r.Order.members == 0 }

type orderResponse struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id"`
	BuyerID    int64     `json:"buyer_id"`
	Quantity   int64     `json:"quantity"`
	Price      string    `json:"price"  example:"50.0"`
	Status     string    `json:"status" example:"pending"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// orderListItem is the row shown to owners listing a business's orders.
type orderListItem struct {
	ID            int64  `json:"id"`
	Quantity      int64  `json:"quantity"`
	Price         string `json:"price"`
	Status        string `json:"status"`
	BuyerUsername string `json:"buyer_username"`
}
