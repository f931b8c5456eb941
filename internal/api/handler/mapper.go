package handler

import (
	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

// --- Request → Service input ---

func toCreateBusinessInput(req createBusinessRequest, owner *domain.User) ports.CreateBusinessInput {
	return ports.CreateBusinessInput{
		Owner:           owner,
		Name:            req.Business.Name,
		SharesAvailable: req.Business.SharesAvailable,
	}
}

func toCreateOrderInput(req orderRequest, buyer *domain.User, businessID int64, idempotencyKey string) ports.CreateOrderInput {
	return ports.CreateOrderInput{
		Buyer:          buyer,
		BusinessID:     businessID,
		Quantity:       req.Order.Quantity,
		Price:          req.Order.Price,
		IdempotencyKey: idempotencyKey,
	}
}

func toUpdateOrderInput(req orderRequest, buyer *domain.User, orderID int64) ports.UpdateOrderInput {
	return ports.UpdateOrderInput{
		Buyer:    buyer,
		OrderID:  orderID,
		Quantity: req.Order.Quantity,
		Price:    req.Order.Price,
	}
}

// --- Domain → Response ---

func toBusinessResponse(b *domain.Business) businessResponse {
	return businessResponse{
		ID:              b.ID,
		Name:            b.Name,
		SharesAvailable: b.SharesAvailable,
		OwnerID:         b.OwnerID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBusinessResponses(list []*domain.Business) []businessResponse {
	out := make([]businessResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBusinessResponse(b))
	}
	return out
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:         o.ID,
		BusinessID: o.BusinessID,
		BuyerID:    o.BuyerID,
		Quantity:   o.Quantity,
		Price:      o.Price.String(),
		Status:     o.Status.String(),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func toOrderResponses(list []*domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func toOrderListItems(list []*domain.OrderWithBuyer) []orderListItem {
	out := make([]orderListItem, 0, len(list))
	for _, o := range list {
		out = append(out, orderListItem{
			ID:            o.ID,
			Quantity:      o.Quantity,
			Price:         o.Price.String(),
			Status:        o.Status.String(),
			BuyerUsername: o.BuyerUsername,
		})
	}
	return out
}
