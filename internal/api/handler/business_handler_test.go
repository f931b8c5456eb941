package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

type stubBusinessService struct {
	createFn  func(ctx context.Context, in ports.CreateBusinessInput) (*domain.Business, error)
	listFn    func(ctx context.Context) ([]*domain.Business, error)
	historyFn func(ctx context.Context, businessID int64) ([]*domain.Order, error)
}

func (s *stubBusinessService) CreateBusiness(ctx context.Context, in ports.CreateBusinessInput) (*domain.Business, error) {
	return s.createFn(ctx, in)
}

func (s *stubBusinessService) ListAvailableBusinesses(ctx context.Context) ([]*domain.Business, error) {
	return s.listFn(ctx)
}

func (s *stubBusinessService) OrderHistory(ctx context.Context, businessID int64) ([]*domain.Order, error) {
	return s.historyFn(ctx, businessID)
}

func TestBusinessHandler_Create_Success(t *testing.T) {
	stub := &stubBusinessService{
		createFn: func(_ context.Context, in ports.CreateBusinessInput) (*domain.Business, error) {
			if in.Owner != owner || in.Name != "Acme" || in.SharesAvailable == nil || !in.SharesAvailable.Equal(decimal.NewFromInt(100)) {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Business{ID: 9, Name: in.Name, SharesAvailable: 100, OwnerID: owner.ID, CreatedAt: time.Now()}, nil
		},
	}
	c, rec := newContext(newEcho(), http.MethodPost, "/businesses", `{"business":{"name":"Acme","shares_available":100}}`, owner)

	if err := NewBusinessHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["name"] != "Acme" || resp["shares_available"] != float64(100) || resp["owner_id"] != float64(1) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestBusinessHandler_Create_MissingEnvelope(t *testing.T) {
	stub := &stubBusinessService{
		createFn: func(context.Context, ports.CreateBusinessInput) (*domain.Business, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	for _, body := range []string{`{"name":"Acme"}`, `{"business":`, ""} {
		c, _ := newContext(newEcho(), http.MethodPost, "/businesses", body, owner)
		err := NewBusinessHandler(stub).Create(c)
		assertHTTPError(t, err, http.StatusBadRequest, "param is missing or the value is empty: business")
	}
}

func TestBusinessHandler_Create_EmptyEnvelope(t *testing.T) {
	stub := &stubBusinessService{
		createFn: func(context.Context, ports.CreateBusinessInput) (*domain.Business, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	for _, body := range []string{`{"business":{}}`, `{"business":null}`, `{"business":"Acme"}`} {
		c, _ := newContext(newEcho(), http.MethodPost, "/businesses", body, owner)
		err := NewBusinessHandler(stub).Create(c)
		assertHTTPError(t, err, http.StatusBadRequest, "param is missing or the value is empty: business")
	}
}

func TestBusinessHandler_Create_BlankNameReachesService(t *testing.T) {
	validation := &domain.ValidationError{}
	validation.Add("name", "can't be blank")
	stub := &stubBusinessService{
		createFn: func(_ context.Context, in ports.CreateBusinessInput) (*domain.Business, error) {
			if in.Name != "" || in.SharesAvailable != nil {
				t.Fatalf("unexpected input: %+v", in)
			}
			return nil, validation
		},
	}
	c, _ := newContext(newEcho(), http.MethodPost, "/businesses", `{"business":{"name":""}}`, owner)

	err := NewBusinessHandler(stub).Create(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || !ve.Has("name") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBusinessHandler_List(t *testing.T) {
	stub := &stubBusinessService{
		listFn: func(context.Context) ([]*domain.Business, error) {
			return []*domain.Business{{ID: 1, Name: "Acme", SharesAvailable: 5}}, nil
		},
	}
	c, rec := newContext(newEcho(), http.MethodGet, "/businesses", "", buyer)

	if err := NewBusinessHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0]["name"] != "Acme" {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestBusinessHandler_List_EmptyIsArray(t *testing.T) {
	stub := &stubBusinessService{
		listFn: func(context.Context) ([]*domain.Business, error) { return nil, nil },
	}
	c, rec := newContext(newEcho(), http.MethodGet, "/businesses", "", buyer)

	if err := NewBusinessHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty array, got %q", got)
	}
}

func TestBusinessHandler_OrderHistory(t *testing.T) {
	stub := &stubBusinessService{
		historyFn: func(_ context.Context, id int64) ([]*domain.Order, error) {
			if id != 7 {
				t.Fatalf("unexpected business id %d", id)
			}
			return []*domain.Order{{ID: 2, BusinessID: 7, Quantity: 3, Price: decimal.RequireFromString("12.5"), Status: domain.StatusAccepted}}, nil
		},
	}
	c, rec := newContext(newEcho(), http.MethodGet, "/businesses/7/order_history", "", owner, "id", "7")

	if err := NewBusinessHandler(stub).OrderHistory(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0]["status"] != "accepted" || resp[0]["price"] != "12.5" {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestBusinessHandler_OrderHistory_BadID(t *testing.T) {
	stub := &stubBusinessService{}
	c, _ := newContext(newEcho(), http.MethodGet, "/businesses/x/order_history", "", owner, "id", "x")

	if err := NewBusinessHandler(stub).OrderHistory(c); !errors.Is(err, domain.ErrBusinessNotFound) {
		t.Fatalf("expected ErrBusinessNotFound, got %v", err)
	}
}
