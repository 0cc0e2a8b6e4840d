package historyrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/flat-price/internal/domain/valuation"
)

func recordWithPostcode(id string, postcode float64, at time.Time) valuation.Record {
	features := make(valuation.Features, len(valuation.FeatureNames))
	features[0] = &postcode
	return valuation.Record{ID: id, Features: features, CreatedAt: at}
}

func TestMemoryRepositoryRecentNewestFirst(t *testing.T) {
	repo := NewMemoryRepository(2)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, recordWithPostcode("a", 1011, base)))
	require.NoError(t, repo.Record(ctx, recordWithPostcode("b", 1051, base.Add(time.Minute))))
	require.NoError(t, repo.Record(ctx, recordWithPostcode("c", 1134, base.Add(2*time.Minute))))

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "c", recent[0].ID)
	require.Equal(t, "b", recent[1].ID)
}

func TestMemoryRepositoryNearest(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, repo.Record(ctx, recordWithPostcode("far", 2000, now)))
	require.NoError(t, repo.Record(ctx, recordWithPostcode("near", 1100, now)))
	require.NoError(t, repo.Record(ctx, recordWithPostcode("exact", 1134, now)))

	query := recordWithPostcode("q", 1134, now).Features.Vector()
	matches, err := repo.Nearest(ctx, query, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "exact", matches[0].Record.ID)
	require.Equal(t, 0.0, matches[0].Distance)
	require.Equal(t, "near", matches[1].Record.ID)
	require.InDelta(t, 34.0, matches[1].Distance, 1e-6)
}
