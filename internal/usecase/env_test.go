package usecase

import (
	"context"
	"testing"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/dto/request"
	"talent-escrow/internal/dto/response"
	"talent-escrow/internal/fee"
	"talent-escrow/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testHold = 72 * time.Hour

type testEnv struct {
	store    *memStore
	events   *recorder
	clock    *fakeClock
	provider *providerService
	booking  *bookingService
	escrow   *escrowService
	earnings *earningsService

	admin      utils.Actor
	client     utils.Actor
	talent     utils.Actor
	providerID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, store := newMemRepo()
	events := &recorder{}
	clk := newFakeClock()
	log := zap.NewNop()

	env := &testEnv{
		store:    store,
		events:   events,
		clock:    clk,
		provider: NewProviderService(repo, log).(*providerService),
		booking:  NewBookingService(repo, events, log).(*bookingService),
		escrow: NewEscrowService(repo, utils.EscrowConfig{
			HoldPeriod:         testHold,
			FeeScheduleVersion: fee.CurrentVersion,
		}, events, log).(*escrowService),
		earnings:   NewEarningsService(repo, log).(*earningsService),
		providerID: uuid.New(),
	}
	env.provider.now = clk.Now
	env.booking.now = clk.Now
	env.escrow.now = clk.Now
	env.earnings.now = clk.Now

	env.admin = utils.Actor{ID: uuid.NewString(), Role: utils.RoleAdmin}
	env.client = utils.Actor{ID: uuid.NewString(), Role: utils.RoleClient}
	env.talent = utils.Actor{ID: env.providerID.String(), Role: utils.RoleProvider}

	active := true
	_, err := env.provider.UpsertTerms(context.Background(), env.admin, env.providerID.String(), &request.UpsertProviderRequest{
		DisplayName:      "Rhea Quartet",
		MinBookingAmount: fee.MustParse("100.00"),
		MinHours:         1,
		IsActive:         &active,
	})
	require.NoError(t, err)

	return env
}

func (e *testEnv) scheduledDate() string {
	return e.clock.Now().AddDate(0, 0, 7).Format("2006-01-02")
}

func (e *testEnv) createBooking(t *testing.T, price string) *response.BookingResponse {
	t.Helper()
	b, err := e.booking.CreateBooking(context.Background(), e.client, &request.CreateBookingRequest{
		ProviderID:    e.providerID.String(),
		QuotedPrice:   fee.MustParse(price),
		Hours:         2,
		ScheduledDate: e.scheduledDate(),
	})
	require.NoError(t, err)
	return b
}

func (e *testEnv) createPayment(t *testing.T, price string) (*response.BookingResponse, *response.PaymentResponse) {
	t.Helper()
	b := e.createBooking(t, price)
	p, err := e.escrow.CreatePayment(context.Background(), e.client, b.ID, &request.CreatePaymentRequest{
		Amount:        fee.MustParse(price),
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	return b, p
}

func (e *testEnv) verifiedPayment(t *testing.T, price string) (*response.BookingResponse, *response.PaymentResponse) {
	t.Helper()
	b, p := e.createPayment(t, price)
	p, err := e.escrow.Verify(context.Background(), e.admin, p.ID, &request.VerifyPaymentRequest{Reference: "psp-1"})
	require.NoError(t, err)
	return b, p
}

func (e *testEnv) releasedPayment(t *testing.T, price string) (*response.BookingResponse, *response.PaymentResponse) {
	t.Helper()
	b, p := e.verifiedPayment(t, price)
	p, err := e.escrow.Release(context.Background(), e.admin, p.ID, entity.ReleaseTriggerDeliveryConfirmed)
	require.NoError(t, err)
	return b, p
}

func (e *testEnv) bookingStatus(t *testing.T, id string) entity.BookingStatus {
	t.Helper()
	return e.store.booking(uuid.MustParse(id)).Status
}
