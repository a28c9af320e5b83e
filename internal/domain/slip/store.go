package slip

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Upsert writes slips keyed by profile and period start. Paid slips are
// never overwritten; the count is the number of rows written.
func (s *Store) Upsert(ctx context.Context, tenantID string, slips []Slip) (int, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	written := 0
	for _, sl := range slips {
		breakdown, err := json.Marshal(sl.Breakdown)
		if err != nil {
			return 0, err
		}
		tag, err := tx.Exec(ctx, `
      INSERT INTO salary_slips (tenant_id, basic_profile_id, from_date, to_date, total_amount, deduction, status, remarks, currency, breakdown_json)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
      ON CONFLICT (tenant_id, basic_profile_id, from_date) DO UPDATE
      SET to_date = EXCLUDED.to_date, total_amount = EXCLUDED.total_amount, deduction = EXCLUDED.deduction,
          remarks = EXCLUDED.remarks, currency = EXCLUDED.currency, breakdown_json = EXCLUDED.breakdown_json,
          updated_at = now()
      WHERE salary_slips.status <> 'paid'
    `, tenantID, sl.BasicProfile, sl.FromDate, sl.ToDate, sl.TotalAmount, sl.Deduction, sl.Status, sl.Remarks, sl.Currency, breakdown)
		if err != nil {
			return 0, err
		}
		written += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return written, nil
}

const slipSelect = `
    SELECT id, basic_profile_id, to_char(from_date, 'YYYY-MM-DD'), to_char(to_date, 'YYYY-MM-DD'),
           total_amount, deduction, status, remarks, currency, updated_at, breakdown_json
    FROM salary_slips
    WHERE tenant_id = $1`

func scanSlip(row pgx.Row) (Slip, error) {
	var sl Slip
	var breakdown []byte
	if err := row.Scan(&sl.ID, &sl.BasicProfile, &sl.FromDate, &sl.ToDate, &sl.TotalAmount, &sl.Deduction,
		&sl.Status, &sl.Remarks, &sl.Currency, &sl.UpdatedAt, &breakdown); err != nil {
		return Slip{}, err
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &sl.Breakdown); err != nil {
			return Slip{}, err
		}
	}
	return sl, nil
}

func (s *Store) List(ctx context.Context, tenantID string) ([]Slip, error) {
	rows, err := s.DB.Query(ctx, slipSelect+" ORDER BY from_date DESC, updated_at DESC", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Slip{}
	for rows.Next() {
		sl, err := scanSlip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, tenantID, id string) (Slip, error) {
	sl, err := scanSlip(s.DB.QueryRow(ctx, slipSelect+" AND id::text = $2", tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Slip{}, ErrNotFound
	}
	return sl, err
}

func (s *Store) MarkPaid(ctx context.Context, tenantID, id string) (Slip, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE salary_slips SET status = 'paid', updated_at = now()
    WHERE tenant_id = $1 AND id::text = $2 AND status <> 'paid'
  `, tenantID, id)
	if err != nil {
		return Slip{}, err
	}
	current, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return Slip{}, err
	}
	if tag.RowsAffected() == 0 {
		return current, ErrAlreadyPaid
	}
	return current, nil
}
