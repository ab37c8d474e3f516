package ingestion

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roofledger/scopediff/internal/domain"
	"github.com/roofledger/scopediff/internal/metrics"
	"github.com/roofledger/scopediff/internal/reconciliation"
)

// Supported estimate file formats.
const (
	FormatCSV  = "csv"
	FormatXact = "xact"
	FormatJSON = "json"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidParty      = errors.New("party must be adjuster or contractor")
	ErrEmptyEstimate     = errors.New("estimate has no line items")
)

// Parse dispatches to the parser for format and returns the items and the
// estimate reference if the format carries one.
func Parse(data []byte, format string) ([]domain.LineItem, string, error) {
	var items []domain.LineItem
	var ref string
	var err error

	switch format {
	case FormatCSV:
		items, err = ParseCSV(data)
	case FormatXact:
		items, err = ParseXact(data)
	case FormatJSON:
		items, ref, err = ParseJSON(data)
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", format, err)
	}
	return items, ref, nil
}

// IngestResult is returned from a successful ingestion.
type IngestResult struct {
	EstimateID        string `json:"estimate_id"`
	ClaimID           string `json:"claim_id"`
	Party             string `json:"party"`
	ItemsIngested     int    `json:"items_ingested"`
	AlreadyIngested   bool   `json:"already_ingested"`
	ComparisonID      string `json:"comparison_id,omitempty"`
	VariancesDetected int    `json:"variances_detected"`
}

type estimateStore interface {
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	Insert(ctx context.Context, e *domain.Estimate) error
}

type reconciler interface {
	Reconcile(ctx context.Context, claimID string) (*domain.Comparison, error)
}

// Service handles ingestion of estimate files for both parties of a claim.
type Service struct {
	estimates estimateStore
	reconSvc  reconciler
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new ingestion service.
func NewService(estimates estimateStore, reconSvc reconciler, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		estimates: estimates,
		reconSvc:  reconSvc,
		metrics:   m,
		logger:    logger.With("component", "ingestion"),
		now:       time.Now,
	}
}

// IngestEstimate parses an estimate file, stores it against the claim and,
// when the claim now has both scopes, runs a reconciliation.
//
// format must be one of: csv, xact, json
func (s *Service) IngestEstimate(ctx context.Context, claimID string, party domain.Party, format string, data []byte) (*IngestResult, error) {
	if !party.Valid() {
		return nil, ErrInvalidParty
	}

	items, ref, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyEstimate
	}

	// The same export may legitimately be attached to another claim or side.
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00", claimID, party)
	h.Write(data)
	hash := fmt.Sprintf("%x", h.Sum(nil))

	exists, err := s.estimates.ExistsByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if exists {
		return &IngestResult{
			EstimateID:      "already-ingested",
			ClaimID:         claimID,
			Party:           string(party),
			AlreadyIngested: true,
		}, nil
	}

	est := &domain.Estimate{
		ID:         uuid.NewString(),
		ClaimID:    claimID,
		Party:      party,
		Format:     format,
		Reference:  ref,
		FileHash:   hash,
		Items:      items,
		IngestedAt: s.now(),
	}
	if err := s.estimates.Insert(ctx, est); err != nil {
		return nil, fmt.Errorf("insert estimate: %w", err)
	}
	s.metrics.ObserveIngest(party, len(items))

	s.logger.Info("ingested estimate",
		"estimate_id", est.ID, "claim_id", claimID, "party", party,
		"format", format, "items", len(items))

	result := &IngestResult{
		EstimateID:    est.ID,
		ClaimID:       claimID,
		Party:         string(party),
		ItemsIngested: len(items),
	}

	cmp, err := s.reconSvc.Reconcile(ctx, claimID)
	switch {
	case errors.Is(err, reconciliation.ErrEstimateMissing):
		// Waiting on the other party's scope.
	case err != nil:
		// Do not fail ingestion if reconciliation has issues.
		s.logger.Warn("reconciliation failed", "claim_id", claimID, "error", err)
	default:
		result.ComparisonID = cmp.ID
		result.VariancesDetected = cmp.Stats.TotalVariances
	}

	return result, nil
}
