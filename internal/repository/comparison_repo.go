package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roofledger/scopediff/internal/domain"
)

type ComparisonRepo struct {
	db *sql.DB
}

func NewComparisonRepo(db *sql.DB) *ComparisonRepo {
	return &ComparisonRepo{db: db}
}

// Insert stores the comparison header and its variances, keeping the
// engine's order in the position column.
func (r *ComparisonRepo) Insert(ctx context.Context, c *domain.Comparison) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	st := c.Stats
	_, err = tx.ExecContext(ctx,
		`INSERT INTO comparisons
		(id, claim_id, adjuster_estimate_id, contractor_estimate_id, total_variances,
		 total_delta, high_severity, medium_severity, low_severity, missing_items,
		 underpaid_items, qty_mismatches, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.ClaimID, c.AdjusterEstimateID, c.ContractorEstimateID, st.TotalVariances,
		st.TotalDelta, st.HighSeverity, st.MediumSeverity, st.LowSeverity, st.MissingItems,
		st.UnderpaidItems, st.QtyMismatches, formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert comparison: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO variances
		(comparison_id, position, kind, description, adjuster_item, contractor_item,
		 delta_total, severity)
		VALUES (?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range c.Variances {
		v := &c.Variances[i]
		adj, err := marshalItem(v.Adjuster)
		if err != nil {
			return fmt.Errorf("variance %d adjuster: %w", i, err)
		}
		con, err := marshalItem(v.Contractor)
		if err != nil {
			return fmt.Errorf("variance %d contractor: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, i, string(v.Kind), v.Description, adj, con, v.DeltaTotal, string(v.Severity),
		); err != nil {
			return fmt.Errorf("insert variance %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const comparisonColumns = `id, claim_id, adjuster_estimate_id, contractor_estimate_id,
	total_variances, total_delta, high_severity, medium_severity, low_severity,
	missing_items, underpaid_items, qty_mismatches, created_at`

// GetByID returns the comparison header without variances.
func (r *ComparisonRepo) GetByID(ctx context.Context, id string) (*domain.Comparison, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+comparisonColumns+" FROM comparisons WHERE id = ?", id,
	)
	return scanComparison(row)
}

// LatestForClaim returns the newest comparison header for a claim.
func (r *ComparisonRepo) LatestForClaim(ctx context.Context, claimID string) (*domain.Comparison, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+comparisonColumns+` FROM comparisons
		WHERE claim_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		claimID,
	)
	return scanComparison(row)
}

// MaxVarianceLimit caps the page size of ListVariances.
const MaxVarianceLimit = 500

type VarianceFilter struct {
	ComparisonID string
	Kind         string
	Severity     string
	Page         int
	Limit        int
}

// ListVariances returns one page of a comparison's variances in engine
// order, plus the total count matching the filter.
func (r *ComparisonRepo) ListVariances(ctx context.Context, f VarianceFilter) ([]domain.Variance, int, error) {
	where, args := buildVarianceWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM variances"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	f.Limit = min(f.Limit, MaxVarianceLimit)
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	q := "SELECT " + varianceColumns + " FROM variances" + where + " ORDER BY position LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	vs, err := scanVariances(rows)
	return vs, total, err
}

// Variances returns every variance of a comparison in engine order.
func (r *ComparisonRepo) Variances(ctx context.Context, comparisonID string) ([]domain.Variance, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+varianceColumns+" FROM variances WHERE comparison_id = ? ORDER BY position",
		comparisonID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVariances(rows)
}

// --- helpers ---

const varianceColumns = "kind, description, adjuster_item, contractor_item, delta_total, severity"

func buildVarianceWhere(f VarianceFilter) (string, []any) {
	clauses := []string{"comparison_id = ?"}
	args := []any{f.ComparisonID}

	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, f.Severity)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func marshalItem(it *domain.LineItem) (any, error) {
	if it == nil {
		return nil, nil
	}
	b, err := json.Marshal(it)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalItem(s sql.NullString) (*domain.LineItem, error) {
	if !s.Valid {
		return nil, nil
	}
	var it domain.LineItem
	if err := json.Unmarshal([]byte(s.String), &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func scanVariances(rows *sql.Rows) ([]domain.Variance, error) {
	var vs []domain.Variance
	for rows.Next() {
		var v domain.Variance
		var kind, sev string
		var adj, con sql.NullString

		if err := rows.Scan(&kind, &v.Description, &adj, &con, &v.DeltaTotal, &sev); err != nil {
			return nil, err
		}

		v.Kind = domain.VarianceKind(kind)
		v.Severity = domain.Severity(sev)

		var err error
		if v.Adjuster, err = unmarshalItem(adj); err != nil {
			return nil, fmt.Errorf("decode adjuster item: %w", err)
		}
		if v.Contractor, err = unmarshalItem(con); err != nil {
			return nil, fmt.Errorf("decode contractor item: %w", err)
		}
		vs = append(vs, v)
	}
	return vs, rows.Err()
}

func scanComparison(row *sql.Row) (*domain.Comparison, error) {
	var c domain.Comparison
	var createdAt string
	st := &c.Stats

	err := row.Scan(
		&c.ID, &c.ClaimID, &c.AdjusterEstimateID, &c.ContractorEstimateID,
		&st.TotalVariances, &st.TotalDelta, &st.HighSeverity, &st.MediumSeverity,
		&st.LowSeverity, &st.MissingItems, &st.UnderpaidItems, &st.QtyMismatches,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}
