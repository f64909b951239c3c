package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/state"
	"github.com/langchou/sparkreach/pkg/ws"
)

func draftRequest(slot string) CreateBookingRequest {
	return CreateBookingRequest{
		ChargerID: "1",
		Date:      tomorrow(),
		Slot:      slot,
		Duration:  3,
		Name:      "Rahul Mehta",
		Phone:     "9876543210",
	}
}

func TestCreate_PricesAndHoldsSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, created, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, state.StateIdle, b.Payment.State)
	assert.Equal(t, 540, b.TotalPrice)
	assert.Equal(t, 27, b.PlatformFee)
	assert.Equal(t, 567, b.FinalTotal)
	assert.Equal(t, 56700, b.Payment.Amount)
	assert.Equal(t, 1, env.events.count(ws.MsgTypeBookingUpdate))

	_, _, err = env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, CodeSlotTaken, ConflictCode(err))
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(r *CreateBookingRequest)
		want   error
	}{
		{"missing name", func(r *CreateBookingRequest) { r.Name = " " }, ErrValidation},
		{"missing phone", func(r *CreateBookingRequest) { r.Phone = "" }, ErrValidation},
		{"unknown charger", func(r *CreateBookingRequest) { r.ChargerID = "99" }, ErrNotFound},
		{"duration too long", func(r *CreateBookingRequest) { r.Duration = 9 }, ErrValidation},
		{"negative duration", func(r *CreateBookingRequest) { r.Duration = -1 }, ErrValidation},
		{"bad date", func(r *CreateBookingRequest) { r.Date = "01/02/2025" }, ErrValidation},
		{"past date", func(r *CreateBookingRequest) { r.Date = "2020-01-01" }, ErrValidation},
		{"unknown slot", func(r *CreateBookingRequest) { r.Slot = "23:00-01:00" }, ErrValidation},
		{"unavailable slot", func(r *CreateBookingRequest) { r.Slot = "08:00-10:00" }, ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := draftRequest("12:00-14:00")
			tt.mutate(&req)
			_, _, err := env.bookings.Create(ctx, req, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreate_PrefillsFromProfile(t *testing.T) {
	env := newTestEnv(t)

	req := draftRequest("12:00-14:00")
	req.Name, req.Phone = "", ""
	profile := &models.UserProfile{Name: "Anjali Rao", Email: "anjali@example.com", Phone: "9811122233"}

	b, _, err := env.bookings.Create(context.Background(), req, profile)
	require.NoError(t, err)
	assert.Equal(t, "Anjali Rao", b.UserName)
	assert.Equal(t, "9811122233", b.Phone)
	assert.Equal(t, "anjali@example.com", b.UserEmail)
}

func TestCreate_IncompatibleNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	profile := &models.UserProfile{
		Name:      "Karan Kapoor",
		Email:     "karan@example.com",
		Phone:     "9988776655",
		EVDetails: &models.EVDetails{CompatibleChargers: []string{models.ChargerTypeType2}},
	}

	_, _, err := env.bookings.Create(ctx, draftRequest("12:00-14:00"), profile)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, CodeIncompatibleCharger, ConflictCode(err))

	req := draftRequest("12:00-14:00")
	req.ConfirmIncompatible = true
	_, created, err := env.bookings.Create(ctx, req, profile)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCreate_IdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := draftRequest("14:00-16:00")
	req.IdempotencyKey = "idem-1"

	first, created, err := env.bookings.Create(ctx, req, nil)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := env.bookings.Create(ctx, req, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestCreate_IdempotencyKeyScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := &models.UserProfile{Name: "Anjali Rao", Email: "anjali@example.com", Phone: "9811122233"}
	req := draftRequest("14:00-16:00")
	req.IdempotencyKey = "idem-owner"

	first, created, err := env.bookings.Create(ctx, req, owner)
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := env.bookings.Create(ctx, req, &models.UserProfile{Email: "ANJALI@example.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	other := draftRequest("16:00-18:00")
	other.IdempotencyKey = "idem-owner"
	for _, p := range []*models.UserProfile{nil, {Name: "Karan Kapoor", Email: "karan@example.com"}} {
		b, _, err := env.bookings.Create(ctx, other, p)
		require.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, CodeIdempotencyKey, ConflictCode(err))
		assert.Nil(t, b)
	}
}

func TestDemoPayment_AlwaysSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)

	processing, err := env.bookings.StartDemo(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StateProcessing, processing.Payment.State)
	assert.Equal(t, models.PaymentModeDemo, processing.Payment.Mode)

	require.Eventually(t, func() bool {
		got, err := env.bookings.Get(ctx, b.ID)
		return err == nil && got.Payment.State == state.StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	got, err := env.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusUpcoming, got.Status)
	assert.NotNil(t, got.Payment.CompletedAt)
	assert.Equal(t, 2, env.events.count(ws.MsgTypePaymentUpdate))
}

func TestDemoPayment_IgnoresDismissAndFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)
	_, err = env.bookings.StartDemo(ctx, b.ID)
	require.NoError(t, err)

	_, err = env.bookings.Dismiss(ctx, b.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, CodePaymentState, ConflictCode(err))
	_, err = env.bookings.ReportFailure(ctx, b.ID, "BAD_REQUEST_ERROR", "closed")
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, CodePaymentState, ConflictCode(err))

	require.Eventually(t, func() bool {
		got, err := env.bookings.Get(ctx, b.ID)
		return err == nil && got.Payment.State == state.StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	got, err := env.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusUpcoming, got.Status)
	assert.Empty(t, got.Payment.FailureCode)
}

func TestDemoPayment_RejectsDuplicateStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)

	_, err = env.bookings.StartDemo(ctx, b.ID)
	require.NoError(t, err)
	_, err = env.bookings.StartDemo(ctx, b.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, CodePaymentState, ConflictCode(err))
}

func TestTerminalStates_RejectEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)
	_, err = env.bookings.CreateOrder(ctx, b.ID)
	require.NoError(t, err)
	_, err = env.bookings.Dismiss(ctx, b.ID)
	require.NoError(t, err)

	_, err = env.bookings.StartDemo(ctx, b.ID)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = env.bookings.ReportFailure(ctx, b.ID, "x", "y")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = env.bookings.CreateOrder(ctx, b.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGatewayPayment_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)

	order, err := env.bookings.CreateOrder(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Payment.Amount, order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "rzp_test_key", order.KeyID)

	got, err := env.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StateProcessing, got.Payment.State)
	assert.Equal(t, order.OrderID, got.Payment.OrderID)

	paid, err := env.bookings.VerifyPayment(ctx, VerifyPaymentRequest{
		BookingID: b.ID,
		OrderID:   order.OrderID,
		PaymentID: "pay_123",
		Signature: "good",
	})
	require.NoError(t, err)
	assert.Equal(t, state.StateSucceeded, paid.Payment.State)
	assert.Equal(t, models.BookingStatusUpcoming, paid.Status)
	assert.Equal(t, "pay_123", paid.Payment.PaymentID)

	data, name, err := env.bookings.Receipt(ctx, b.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, name, b.ID)
}

func TestGatewayPayment_SignatureMismatchFailsAndReleasesSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)
	order, err := env.bookings.CreateOrder(ctx, b.ID)
	require.NoError(t, err)

	_, err = env.bookings.VerifyPayment(ctx, VerifyPaymentRequest{
		BookingID: b.ID,
		OrderID:   order.OrderID,
		PaymentID: "pay_123",
		Signature: "forged",
	})
	require.ErrorIs(t, err, ErrValidation)

	got, err := env.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StateFailed, got.Payment.State)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)
	assert.Equal(t, FailureSignatureMismatch, got.Payment.FailureCode)

	// 时段已释放
	_, created, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestGatewayPayment_OrderErrorFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.gateway.err = errors.New("gateway down")

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)

	_, err = env.bookings.CreateOrder(ctx, b.ID)
	require.ErrorIs(t, err, ErrGateway)

	got, err := env.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StateFailed, got.Payment.State)
	assert.Equal(t, FailureOrderCreation, got.Payment.FailureCode)
}

func TestGatewayPayment_OrderDiscardedAfterDismiss(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.gateway.hold = make(chan struct{})

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := env.bookings.CreateOrder(ctx, b.ID)
		done <- err
	}()
	require.Eventually(t, func() bool { return env.gateway.requestCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err = env.bookings.Dismiss(ctx, b.ID)
	require.NoError(t, err)
	close(env.gateway.hold)

	err = <-done
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, CodePaymentState, ConflictCode(err))

	got, err := env.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StateCancelled, got.Payment.State)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)
	assert.Empty(t, got.Payment.OrderID)
}

func TestGatewayPayment_VerifyRequiresMatchingOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)
	_, err = env.bookings.CreateOrder(ctx, b.ID)
	require.NoError(t, err)

	_, err = env.bookings.VerifyPayment(ctx, VerifyPaymentRequest{
		BookingID: b.ID,
		OrderID:   "order_other",
		PaymentID: "pay_1",
		Signature: "good",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDismiss_CancelsAndReleasesSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)
	_, err = env.bookings.CreateOrder(ctx, b.ID)
	require.NoError(t, err)

	got, err := env.bookings.Dismiss(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StateCancelled, got.Payment.State)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)

	_, _, err = env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	assert.NoError(t, err)
}

func TestReceipt_RequiresPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)

	_, _, err = env.bookings.Receipt(ctx, b.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, CodePaymentIncomplete, ConflictCode(err))
}

func TestCancelStaleDrafts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	idle, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)
	processing, _, err := env.bookings.Create(ctx, draftRequest("12:00-14:00"), nil)
	require.NoError(t, err)
	_, err = env.bookings.CreateOrder(ctx, processing.ID)
	require.NoError(t, err)
	fresh, _, err := env.bookings.Create(ctx, draftRequest("14:00-16:00"), nil)
	require.NoError(t, err)

	// 让前两个草稿过期
	for _, id := range []string{idle.ID, processing.ID} {
		b, err := env.stores.Bookings.GetByID(ctx, id)
		require.NoError(t, err)
		b.CreatedAt = time.Now().Add(-time.Hour)
		require.NoError(t, env.stores.Bookings.Update(ctx, b))
	}

	n, err := env.bookings.CancelStaleDrafts(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{idle.ID, processing.ID} {
		b, err := env.bookings.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, b.Status)
		assert.Equal(t, state.StateCancelled, b.Payment.State)
		assert.Equal(t, FailureDraftExpired, b.Payment.FailureCode)
	}
	// checkout、dismiss、expire 都经过状态机
	assert.Equal(t, 3, env.events.count(ws.MsgTypePaymentUpdate))

	again, err := env.bookings.CancelStaleDrafts(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, again)
	b, err := env.bookings.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, b.Status)
}

func TestCompletePast(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, _, err := env.bookings.Create(ctx, draftRequest("10:00-12:00"), nil)
	require.NoError(t, err)
	_, err = env.bookings.CreateOrder(ctx, b.ID)
	require.NoError(t, err)
	_, err = env.bookings.VerifyPayment(ctx, VerifyPaymentRequest{BookingID: b.ID, OrderID: "order_" + b.ID[:8], PaymentID: "p", Signature: "good"})
	require.NoError(t, err)

	// 两天后时段已结束
	env.bookings.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	n, err := env.bookings.CompletePast(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	got, err := env.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, got.Status)
}
