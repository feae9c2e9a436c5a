package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"cafepos/internal/domain"
	"cafepos/internal/receipt"
	"cafepos/internal/receipt/mock"
)

func TestRegister_CartFlow(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	reg := NewRegister(f.store, f.orders, f.receipts)

	cv := reg.Open(f.ali.ID)
	if cv.ID == "" || len(cv.Lines) != 0 || !cv.Total.IsZero() {
		t.Fatalf("unexpected new cart: %+v", cv)
	}
	for _, id := range []int64{f.cafe.ID, f.cafe.ID, f.jus.ID} {
		if _, err := reg.Add(ctx, cv.ID, id); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	got, _ := reg.Get(cv.ID)
	if !got.Total.Equal(decimal.NewFromInt(32)) || len(got.Lines) != 2 {
		t.Fatalf("unexpected cart: %+v", got)
	}

	got, err := reg.Remove(cv.ID, f.cafe.ID)
	if err != nil || got.Lines[0].Quantity != 1 {
		t.Fatalf("remove should decrement: %+v %v", got, err)
	}
	got, err = reg.Discard(cv.ID, f.jus.ID)
	if err != nil || len(got.Lines) != 1 {
		t.Fatalf("discard should drop line: %+v %v", got, err)
	}
	if _, err := reg.Discard(cv.ID, f.jus.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := reg.Add(ctx, cv.ID, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected unknown product, got %v", err)
	}

	if err := reg.Cancel(cv.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := reg.Get(cv.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cancelled cart still open: %v", err)
	}
}

func TestRegister_Pay(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	sink := mock.NewMockSink(ctrl)
	f := setup(t, sink)
	reg := NewRegister(f.store, f.orders, f.receipts)

	cv := reg.Open(f.ali.ID)
	_, _ = reg.Add(ctx, cv.ID, f.cafe.ID)

	sink.EXPECT().Emit(gomock.Any(), int64(1), gomock.Any()).Return(receipt.Result{Path: "ticket_1.txt"}, nil)
	pay, err := reg.Pay(ctx, cv.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if pay.OrderID != 1 || pay.Receipt.Path != "ticket_1.txt" || pay.ReceiptError != "" {
		t.Fatalf("unexpected payment: %+v", pay)
	}
	if reg.Len() != 0 {
		t.Fatalf("paid cart must be closed")
	}
}

func TestRegister_PayEmptyKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	reg := NewRegister(f.store, f.orders, f.receipts)
	cv := reg.Open(f.ali.ID)
	if _, err := reg.Pay(ctx, cv.ID); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := reg.Get(cv.ID); err != nil {
		t.Fatalf("cart must stay open: %v", err)
	}
}

func TestRegister_EmitFailureKeepsOrder(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	sink := mock.NewMockSink(ctrl)
	f := setup(t, sink)
	reg := NewRegister(f.store, f.orders, f.receipts)
	cv := reg.Open(f.ali.ID)
	_, _ = reg.Add(ctx, cv.ID, f.jus.ID)

	sink.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any()).Return(receipt.Result{}, errors.New("read-only filesystem"))
	pay, err := reg.Pay(ctx, cv.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if pay.ReceiptError == "" {
		t.Fatalf("receipt error must be reported")
	}
	if _, err := f.orders.GetOrder(ctx, pay.OrderID); err != nil {
		t.Fatalf("order must be committed: %v", err)
	}
}

func TestRegister_PayDoesNotBlockOtherCarts(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	sink := mock.NewMockSink(ctrl)
	f := setup(t, sink)
	reg := NewRegister(f.store, f.orders, f.receipts)
	paying := reg.Open(f.ali.ID)
	other := reg.Open(f.ali.ID)
	_, _ = reg.Add(ctx, paying.ID, f.cafe.ID)

	// a slow printer: while the ticket is being emitted another cart is edited
	sink.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, orderID int64, text string) (receipt.Result, error) {
			done := make(chan error, 1)
			go func() {
				_, err := reg.Add(ctx, other.ID, f.jus.ID)
				done <- err
			}()
			select {
			case err := <-done:
				if err != nil {
					t.Errorf("add during emit: %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Errorf("register locked while the receipt is emitted")
			}
			return receipt.Result{Printed: true}, nil
		})
	if _, err := reg.Pay(ctx, paying.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	cv, err := reg.Get(other.ID)
	if err != nil || len(cv.Lines) != 1 {
		t.Fatalf("other cart: %+v %v", cv, err)
	}
}
