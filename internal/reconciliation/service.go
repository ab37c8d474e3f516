package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roofledger/scopediff/internal/delta"
	"github.com/roofledger/scopediff/internal/domain"
	"github.com/roofledger/scopediff/internal/metrics"
	"github.com/roofledger/scopediff/internal/repository"
)

// ErrEstimateMissing is returned when a claim lacks an adjuster or a
// contractor estimate.
var ErrEstimateMissing = errors.New("claim needs both an adjuster and a contractor estimate")

// Result is the outcome of a stateless comparison.
type Result struct {
	Variances []domain.Variance `json:"variances"`
	Stats     domain.Stats      `json:"stats"`
}

// Service runs the delta engine against a claim's estimates.
type Service struct {
	estimates   *repository.EstimateRepo
	comparisons *repository.ComparisonRepo
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates a new reconciliation service.
func NewService(
	estimates *repository.EstimateRepo,
	comparisons *repository.ComparisonRepo,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		estimates:   estimates,
		comparisons: comparisons,
		metrics:     m,
		logger:      logger.With("component", "reconciliation"),
		now:         time.Now,
	}
}

// Compare runs the engine on caller-supplied scopes without persisting
// anything.
func (s *Service) Compare(adjuster, contractor []domain.LineItem) Result {
	start := time.Now()
	vs := delta.ComputeDelta(adjuster, contractor)
	s.metrics.ObserveComparison("stateless", time.Since(start), vs)

	return Result{Variances: vs, Stats: delta.ComputeStats(vs)}
}

// Reconcile compares the latest adjuster and contractor estimates of a claim
// and stores the comparison with its variances.
func (s *Service) Reconcile(ctx context.Context, claimID string) (*domain.Comparison, error) {
	adj, err := s.latest(ctx, claimID, domain.PartyAdjuster)
	if err != nil {
		return nil, err
	}
	con, err := s.latest(ctx, claimID, domain.PartyContractor)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	vs := delta.ComputeDelta(adj.Items, con.Items)
	s.metrics.ObserveComparison("claim", time.Since(start), vs)

	cmp := &domain.Comparison{
		ID:                   uuid.NewString(),
		ClaimID:              claimID,
		AdjusterEstimateID:   adj.ID,
		ContractorEstimateID: con.ID,
		Stats:                delta.ComputeStats(vs),
		Variances:            vs,
		CreatedAt:            s.now(),
	}
	if err := s.comparisons.Insert(ctx, cmp); err != nil {
		return nil, fmt.Errorf("store comparison: %w", err)
	}

	st := cmp.Stats
	s.logger.Info("reconciled claim",
		"claim_id", claimID, "comparison_id", cmp.ID,
		"variances", st.TotalVariances, "total_delta", st.TotalDelta.StringFixed(2),
		"missing", st.MissingItems, "underpaid", st.UnderpaidItems,
		"qty_mismatches", st.QtyMismatches, "high", st.HighSeverity)

	return cmp, nil
}

// LatestComparison returns the newest comparison of a claim with all of its
// variances.
func (s *Service) LatestComparison(ctx context.Context, claimID string) (*domain.Comparison, error) {
	cmp, err := s.comparisons.LatestForClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	cmp.Variances, err = s.comparisons.Variances(ctx, cmp.ID)
	if err != nil {
		return nil, fmt.Errorf("load variances: %w", err)
	}
	return cmp, nil
}

// LatestComparisonHeader returns the newest comparison of a claim without
// loading its variances.
func (s *Service) LatestComparisonHeader(ctx context.Context, claimID string) (*domain.Comparison, error) {
	return s.comparisons.LatestForClaim(ctx, claimID)
}

// ListVariances returns one filtered page of a comparison's variances.
func (s *Service) ListVariances(ctx context.Context, f repository.VarianceFilter) ([]domain.Variance, int, error) {
	return s.comparisons.ListVariances(ctx, f)
}

// Summary recomputes statistics over the stored variances of the claim's
// latest comparison.
func (s *Service) Summary(ctx context.Context, claimID string) (*domain.Stats, error) {
	cmp, err := s.LatestComparison(ctx, claimID)
	if err != nil {
		return nil, err
	}
	st := delta.ComputeStats(cmp.Variances)
	return &st, nil
}

func (s *Service) latest(ctx context.Context, claimID string, party domain.Party) (*domain.Estimate, error) {
	est, err := s.estimates.LatestForClaim(ctx, claimID, party)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: no %s estimate for %s", ErrEstimateMissing, party, claimID)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s estimate: %w", party, err)
	}
	return est, nil
}
