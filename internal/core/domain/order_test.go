package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     error
	}{
		{StatusPending, StatusAccepted, nil},
		{StatusPending, StatusRejected, nil},
		{StatusRejected, StatusRejected, nil},
		{StatusAccepted, StatusAccepted, ErrOrderAlreadyAccepted},
		{StatusAccepted, StatusRejected, ErrAcceptedOrderNotRejectable},
		{StatusRejected, StatusAccepted, ErrRejectedOrderNotAcceptable},
	}

	for _, tc := range cases {
		err := tc.from.TransitionError(tc.to)
		if !errors.Is(err, tc.want) && !(err == nil && tc.want == nil) {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, err)
		}
		if got := tc.from.CanTransitionTo(tc.to); got != (tc.want == nil) {
			t.Errorf("%s -> %s: CanTransitionTo = %v", tc.from, tc.to, got)
		}
	}
}

func TestOrderStatus_PendingIsNotReachable(t *testing.T) {
	for _, s := range []OrderStatus{StatusPending, StatusAccepted, StatusRejected} {
		if s.CanTransitionTo(StatusPending) {
			t.Errorf("%s must not transition back to pending", s)
		}
	}
}

func TestOrderStatus_Editable(t *testing.T) {
	if !StatusPending.Editable() || !StatusRejected.Editable() {
		t.Error("pending and rejected orders must be editable")
	}
	if StatusAccepted.Editable() {
		t.Error("accepted orders must not be editable")
	}
}

func TestOrderStatus_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Status OrderStatus `json:"status"`
	}{StatusAccepted})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"status":"accepted"}` {
		t.Fatalf("unexpected json: %s", b)
	}

	var out struct {
		Status OrderStatus `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"status":"rejected"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", out.Status)
	}

	if err := json.Unmarshal([]byte(`{"status":"shipped"}`), &out); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("owner"); err != nil || r != RoleOwner {
		t.Fatalf("expected owner, got %v %v", r, err)
	}
	if r, err := ParseRole("buyer"); err != nil || r != RoleBuyer {
		t.Fatalf("expected buyer, got %v %v", r, err)
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestBusiness_CanFill(t *testing.T) {
	b := &Business{SharesAvailable: 40}
	if !b.CanFill(decimal.NewFromInt(40)) {
		t.Error("quantity equal to shares_available must fit")
	}
	if b.CanFill(decimal.NewFromInt(41)) {
		t.Error("quantity above shares_available must not fit")
	}
	if b.CanFill(decimal.RequireFromString("18446744073709551611")) {
		t.Error("quantity beyond int64 must not fit")
	}
	if !b.Available() {
		t.Error("business with shares must be available")
	}
	if (&Business{}).Available() {
		t.Error("business without shares must not be available")
	}
}

func TestBusiness_OwnedBy(t *testing.T) {
	b := &Business{OwnerID: 7}
	if !b.OwnedBy(&User{ID: 7}) {
		t.Error("expected owner match")
	}
	if b.OwnedBy(&User{ID: 8}) || b.OwnedBy(nil) {
		t.Error("expected owner mismatch")
	}
}

func TestValidationError(t *testing.T) {
	var v ValidationError
	if v.OrNil() != nil {
		t.Fatal("empty validation error must be nil")
	}
	v.Add("quantity", MsgInsufficientShares)
	v.Add("price", "must be greater than 0")

	err := v.OrNil()
	if err == nil {
		t.Fatal("expected error")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || !ve.Has("quantity") || !ve.Has("price") {
		t.Fatalf("unexpected fields: %+v", ve)
	}
	if got := err.Error(); got != "validation failed: price must be greater than 0; quantity "+MsgInsufficientShares {
		t.Fatalf("unexpected message: %s", got)
	}
}
