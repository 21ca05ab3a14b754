package usecase

import (
	"context"
	"testing"

	"talent-escrow/internal/dto/request"
	"talent-escrow/internal/fee"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertTerms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	got, err := env.provider.GetProvider(ctx, env.providerID.String())
	require.NoError(t, err)
	assert.Equal(t, fee.MustParse("100.00"), got.MinBookingAmount)
	assert.True(t, got.IsActive)

	active := true
	updated, err := env.provider.UpsertTerms(ctx, env.admin, env.providerID.String(), &request.UpsertProviderRequest{
		DisplayName:      "Rhea Quintet",
		MinBookingAmount: fee.MustParse("250.00"),
		MinHours:         2,
		IsActive:         &active,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rhea Quintet", updated.DisplayName)
	assert.Equal(t, fee.MustParse("250.00"), updated.MinBookingAmount)
}

func TestUpsertTerms_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	active := true

	_, err := env.provider.UpsertTerms(ctx, env.talent, env.providerID.String(), &request.UpsertProviderRequest{
		DisplayName: "Self Service", IsActive: &active,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.provider.UpsertTerms(ctx, env.admin, env.providerID.String(), &request.UpsertProviderRequest{
		DisplayName: "No Flag",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.provider.UpsertTerms(ctx, env.admin, env.providerID.String(), &request.UpsertProviderRequest{
		DisplayName: "Negative", MinBookingAmount: -1, IsActive: &active,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetProvider_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.provider.GetProvider(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
