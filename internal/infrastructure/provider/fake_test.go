package provider

import (
	"context"
	"testing"
	"time"

	"ratesync-service/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestFake_QuotesFixedPrice(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &Fake{price: 1600, clock: clockwork.NewFakeClockAt(at)}

	q, err := f.Get(context.Background(), "USD/ARS")
	require.NoError(t, err)
	require.Equal(t, domain.Quote{Pair: "USD/ARS", Price: 1600, UpdatedAt: at}, q)
}

func TestFake_RejectsBadPair(t *testing.T) {
	_, err := NewFake(1600).Get(context.Background(), "USD-ARS")
	require.ErrorIs(t, err, domain.ErrUnsupportedPair)
}

func TestFake_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFake(1600).Get(ctx, "USD/ARS")
	require.ErrorIs(t, err, context.Canceled)
}
