package pg_test

import (
	"context"
	"testing"
	"time"

	"ratesync-service/internal/domain"
	"ratesync-service/internal/infrastructure/pg"

	"github.com/stretchr/testify/require"
)

func TestHistoryRepo_AppendAndList(t *testing.T) {
	db := withPostgres(t)
	repo := pg.NewHistoryRepo(db)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, price := range []float64{1600, 1601, 1602} {
		require.NoError(t, repo.AppendHistory(ctx, domain.QuoteHistory{
			Pair:     domain.DefaultPair,
			Price:    price,
			QuotedAt: base.Add(time.Duration(i) * time.Hour),
			Source:   "test",
		}))
	}
	// duplicate observation is ignored
	require.NoError(t, repo.AppendHistory(ctx, domain.QuoteHistory{
		Pair: domain.DefaultPair, Price: 1600, QuotedAt: base, Source: "test",
	}))

	got, err := repo.ListHistory(ctx, string(domain.DefaultPair), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.InDelta(t, 1602.0, got[0].Price, 1e-9)
	require.InDelta(t, 1601.0, got[1].Price, 1e-9)
	require.Equal(t, domain.DefaultPair, got[0].Pair)

	all, err := repo.ListHistory(ctx, string(domain.DefaultPair), 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestHistoryRepo_EmptyPair(t *testing.T) {
	db := withPostgres(t)
	got, err := pg.NewHistoryRepo(db).ListHistory(context.Background(), "EUR/USD", 10)
	require.NoError(t, err)
	require.Empty(t, got)
}
