package reconciliation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofledger/scopediff/internal/domain"
	"github.com/roofledger/scopediff/internal/metrics"
	"github.com/roofledger/scopediff/internal/repository"
)

func item(desc, qty, price, total string) domain.LineItem {
	return domain.LineItem{
		Description: desc,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
		Total:       decimal.RequireFromString(total),
	}
}

type fixture struct {
	svc       *Service
	estimates *repository.EstimateRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	estimates := repository.NewEstimateRepo(db)
	svc := NewService(
		estimates,
		repository.NewComparisonRepo(db),
		metrics.New(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return fixture{svc: svc, estimates: estimates}
}

func (f fixture) addEstimate(t *testing.T, id, claim string, party domain.Party, at time.Time, items ...domain.LineItem) {
	t.Helper()
	require.NoError(t, f.estimates.Insert(context.Background(), &domain.Estimate{
		ID: id, ClaimID: claim, Party: party, Format: "csv",
		FileHash: id, Items: items, IngestedAt: at,
	}))
}

func TestCompare(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Compare(
		[]domain.LineItem{item("Shingles - 30yr", "10", "100", "1000")},
		[]domain.LineItem{
			item("shingles -  30YR", "12", "120", "1440"),
			item("Ridge Vent", "1", "300", "300"),
		},
	)

	require.Len(t, res.Variances, 3)
	assert.Equal(t, 3, res.Stats.TotalVariances)
	assert.Equal(t, "1180", res.Stats.TotalDelta.String())
	assert.Equal(t, 1, res.Stats.MissingItems)
}

func TestReconcile_MissingSide(t *testing.T) {
	f := newFixture(t)
	f.addEstimate(t, "adj-1", "CLM-1", domain.PartyAdjuster, time.Now(),
		item("Felt", "10", "30", "300"))

	_, err := f.svc.Reconcile(context.Background(), "CLM-1")
	assert.ErrorIs(t, err, ErrEstimateMissing)

	_, err = f.svc.Reconcile(context.Background(), "CLM-none")
	assert.ErrorIs(t, err, ErrEstimateMissing)
}

func TestReconcile_UsesLatestEstimates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	f.addEstimate(t, "adj-1", "CLM-9", domain.PartyAdjuster, base,
		item("Shingles - 30yr", "10", "100", "1000"))
	f.addEstimate(t, "con-old", "CLM-9", domain.PartyContractor, base,
		item("Tear Off", "1", "9000", "9000"))
	f.addEstimate(t, "con-new", "CLM-9", domain.PartyContractor, base.Add(time.Hour),
		item("shingles -  30YR", "12", "120", "1440"),
		item("Ridge Vent", "1", "300", "300"))

	cmp, err := f.svc.Reconcile(ctx, "CLM-9")
	require.NoError(t, err)
	assert.Equal(t, "adj-1", cmp.AdjusterEstimateID)
	assert.Equal(t, "con-new", cmp.ContractorEstimateID)
	require.Len(t, cmp.Variances, 3)

	latest, err := f.svc.LatestComparison(ctx, "CLM-9")
	require.NoError(t, err)
	assert.Equal(t, cmp.ID, latest.ID)
	require.Len(t, latest.Variances, 3)
	for i := range cmp.Variances {
		assert.Equal(t, cmp.Variances[i].Kind, latest.Variances[i].Kind)
		assert.True(t, cmp.Variances[i].DeltaTotal.Equal(latest.Variances[i].DeltaTotal))
	}

	sum, err := f.svc.Summary(ctx, "CLM-9")
	require.NoError(t, err)
	assert.Equal(t, cmp.Stats.TotalVariances, sum.TotalVariances)
	assert.True(t, cmp.Stats.TotalDelta.Equal(sum.TotalDelta))
	assert.Equal(t, 1, sum.QtyMismatches)
	assert.Equal(t, 1, sum.UnderpaidItems)
}

func TestLatestComparison_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.LatestComparison(context.Background(), "CLM-404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
