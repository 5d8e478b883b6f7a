package repository

import (
	"context"
	"testing"

	"parity-app/internal/domain/billing"
	"parity-app/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents_RecordIsIdempotent(t *testing.T) {
	r := NewEvents(testutil.NewDB(t))
	ctx := context.Background()

	seen, err := r.Seen(ctx, billing.ProviderStripe, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, r.Record(ctx, billing.ProviderStripe, "evt_1", "customer.subscription.created", []byte(`{"id":"evt_1"}`)))
	require.NoError(t, r.Record(ctx, billing.ProviderStripe, "evt_1", "customer.subscription.created", nil))

	seen, err = r.Seen(ctx, billing.ProviderStripe, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = r.Seen(ctx, billing.ProviderClerk, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen, "ids are scoped per provider")
}
