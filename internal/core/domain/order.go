package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. The numeric values are the
// persisted representation.
type OrderStatus uint8

const (
	StatusPending  OrderStatus = 0
	StatusAccepted OrderStatus = 1
	StatusRejected OrderStatus = 2
)

// MsgInsufficientShares is reported on the quantity field when an order asks
// for more shares than the business lists.
const MsgInsufficientShares = "Shares available is less than order quantity"

// PriceScale is the number of fractional digits a price is stored with.
const PriceScale = 4

// PriceLimit bounds prices from above (exclusive); NUMERIC(14,4) holds at
// most ten integer digits.
var PriceLimit = decimal.New(1, 10)

// validTransitions lists, per state, the states an order may move to.
// rejected -> rejected is allowed and leaves the order unchanged.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:  {StatusAccepted, StatusRejected},
	StatusRejected: {StatusRejected},
}

func (s OrderStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// ParseOrderStatus converts a lowercase state name into an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "accepted":
		return StatusAccepted, nil
	case "rejected":
		return StatusRejected, nil
	}
	return 0, fmt.Errorf("unknown order status %q", s)
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *OrderStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseOrderStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionError explains why s cannot move to next, or returns nil when the
// transition is valid.
func (s OrderStatus) TransitionError(next OrderStatus) error {
	if s.CanTransitionTo(next) {
		return nil
	}
	switch {
	case s == StatusAccepted && next == StatusRejected:
		return ErrAcceptedOrderNotRejectable
	case s == StatusAccepted:
		return ErrOrderAlreadyAccepted
	case s == StatusRejected && next == StatusAccepted:
		return ErrRejectedOrderNotAcceptable
	default:
		return fmt.Errorf("%w: %s to %s", ErrStatusConflict, s, next)
	}
}

// Editable reports whether quantity and price may still change.
func (s OrderStatus) Editable() bool {
	return s != StatusAccepted
}

// Order is a buyer's request for a quantity of a business's shares.
type Order struct {
	ID         int64           `json:"id"`
	BusinessID int64           `json:"business_id"`
	BuyerID    int64           `json:"buyer_id"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Status     OrderStatus     `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OrderWithBuyer is an order joined with its buyer's username, as listed to
// business owners.
type OrderWithBuyer struct {
	Order
	BuyerUsername string
}

// OrderEvent is an audit record of an order entering a state. From is nil on
// creation.
type OrderEvent struct {
	OrderID    int64
	From       *OrderStatus
	To         OrderStatus
	ActorID    int64
	OccurredAt time.Time
}
