package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// errorResponse is the standard error envelope returned on 4xx/5xx responses
// other than validation failures.
type errorResponse struct {
	Error string `json:"error"`
}

// validationErrorResponse maps each invalid field to its messages.
type validationErrorResponse map[string][]string

type businessParams struct {
	Name            string           `json:"name"`
	SharesAvailable *decimal.Decimal `json:"shares_available" swaggertype:"integer"`

	members int
}

func (p *businessParams) UnmarshalJSON(data []byte) error {
	type plain businessParams
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	p.members = memberCount(data)
	return nil
}

type createBusinessRequest struct {
	Business *businessParams `json:"business" validate:"required"`
}

func (r *createBusinessRequest) blank() bool { return r.Business.members == 0 }

type businessResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	SharesAvailable int64     `json:"shares_available"`
	OwnerID         int64     `json:"owner_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
