package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/jask/cashledger/internal/ledger"
)

// FeeBandRepo stores the fee band table.
type FeeBandRepo struct{ db *sql.DB }

func NewFeeBandRepo(db *sql.DB) *FeeBandRepo { return &FeeBandRepo{db: db} }

// List returns the bands ordered by range start; bands with equal starts
// keep the order they were authored in.
func (r *FeeBandRepo) List(ctx context.Context) ([]ledger.FeeBand, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT range_start, range_end, fixed_fee FROM fee_bands ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.FeeBand
	for rows.Next() {
		var b ledger.FeeBand
		if err := rows.Scan(&b.RangeStart, &b.RangeEnd, &b.FixedFee); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RangeStart.LessThan(out[j].RangeStart) })
	return out, nil
}

// Replace swaps the whole table for bands.
func (r *FeeBandRepo) Replace(ctx context.Context, bands []ledger.FeeBand) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fee_bands`); err != nil {
			return fmt.Errorf("clear fee bands: %w", err)
		}
		for _, b := range bands {
			if _, err := tx.ExecContext(ctx, `INSERT INTO fee_bands(range_start, range_end, fixed_fee) VALUES(?, ?, ?)`,
				b.RangeStart.String(), b.RangeEnd.String(), b.FixedFee.String()); err != nil {
				return fmt.Errorf("insert fee band: %w", err)
			}
		}
		return nil
	})
}

func (r *FeeBandRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fee_bands`).Scan(&n)
	return n, err
}
