package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roofledger/scopediff/internal/domain"
)

// timeLayout sorts lexically in chronological order, unlike RFC3339Nano.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

type EstimateRepo struct {
	db *sql.DB
}

func NewEstimateRepo(db *sql.DB) *EstimateRepo {
	return &EstimateRepo{db: db}
}

// ExistsByHash checks whether a file with the given hash has already been
// ingested (idempotency check).
func (r *EstimateRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM estimates WHERE file_hash = ?", hash,
	).Scan(&count)
	return count > 0, err
}

// Insert stores the estimate and its line items in one transaction. Item
// order is preserved through the position column.
func (r *EstimateRepo) Insert(ctx context.Context, e *domain.Estimate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO estimates
		(id, claim_id, party, format, reference, file_hash, item_count, ingested_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		e.ID, e.ClaimID, string(e.Party), e.Format, e.Reference, e.FileHash,
		len(e.Items), formatTime(e.IngestedAt),
	)
	if err != nil {
		return fmt.Errorf("insert estimate: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO line_items
		(estimate_id, position, code, description, quantity, unit, unit_price, total)
		VALUES (?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range e.Items {
		it := &e.Items[i]
		if _, err := stmt.ExecContext(ctx,
			e.ID, i, it.Code, it.Description, it.Quantity, it.Unit, it.UnitPrice, it.Total,
		); err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	e.ItemCount = len(e.Items)
	return nil
}

const estimateColumns = "id, claim_id, party, format, reference, file_hash, item_count, ingested_at"

// GetByID returns the estimate with its line items.
func (r *EstimateRepo) GetByID(ctx context.Context, id string) (*domain.Estimate, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+estimateColumns+" FROM estimates WHERE id = ?", id,
	)
	return r.loadWithItems(ctx, row)
}

// LatestForClaim returns the most recently ingested estimate for one party
// of a claim, with its line items.
func (r *EstimateRepo) LatestForClaim(ctx context.Context, claimID string, party domain.Party) (*domain.Estimate, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+estimateColumns+` FROM estimates
		WHERE claim_id = ? AND party = ?
		ORDER BY ingested_at DESC, id DESC LIMIT 1`,
		claimID, string(party),
	)
	return r.loadWithItems(ctx, row)
}

// ListByClaim returns the claim's estimates, newest first, without items.
func (r *EstimateRepo) ListByClaim(ctx context.Context, claimID string) ([]domain.Estimate, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+estimateColumns+" FROM estimates WHERE claim_id = ? ORDER BY ingested_at DESC, id DESC",
		claimID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var estimates []domain.Estimate
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, *e)
	}
	return estimates, rows.Err()
}

// Items returns the estimate's line items in their original order.
func (r *EstimateRepo) Items(ctx context.Context, estimateID string) ([]domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, description, quantity, unit, unit_price, total
		FROM line_items WHERE estimate_id = ? ORDER BY position`,
		estimateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var it domain.LineItem
		if err := rows.Scan(
			&it.Code, &it.Description, &it.Quantity, &it.Unit, &it.UnitPrice, &it.Total,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *EstimateRepo) loadWithItems(ctx context.Context, row *sql.Row) (*domain.Estimate, error) {
	e, err := scanEstimate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	e.Items, err = r.Items(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEstimate(row rowScanner) (*domain.Estimate, error) {
	var e domain.Estimate
	var party, ingestedAt string

	if err := row.Scan(
		&e.ID, &e.ClaimID, &party, &e.Format, &e.Reference, &e.FileHash,
		&e.ItemCount, &ingestedAt,
	); err != nil {
		return nil, err
	}

	e.Party = domain.Party(party)
	e.IngestedAt = parseTime(ingestedAt)
	return &e, nil
}
