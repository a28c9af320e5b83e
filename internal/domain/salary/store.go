package salary

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"unifiedpro/internal/domain/catalog"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateStructure(ctx context.Context, tenantID string, rec StructureRecord) error {
	return s.write(ctx, tenantID, rec, false)
}

func (s *Store) ReplaceStructure(ctx context.Context, tenantID string, rec StructureRecord) error {
	return s.write(ctx, tenantID, rec, true)
}

func (s *Store) write(ctx context.Context, tenantID string, rec StructureRecord, replace bool) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The profile row lock serialises writers of the same structure.
	var lockedID string
	err = tx.QueryRow(ctx, `
    SELECT id FROM basic_profiles WHERE tenant_id = $1 AND id = $2
    FOR UPDATE
  `, tenantID, rec.ProfileID).Scan(&lockedID)
	var pgErr *pgconn.PgError
	if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == pgInvalidText) {
		return ErrProfileNotFound
	}
	if err != nil {
		return err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM salary_structure_settings WHERE tenant_id = $1 AND basic_profile_id = $2
    )
  `, tenantID, rec.ProfileID).Scan(&exists); err != nil {
		return err
	}
	switch {
	case replace && !exists:
		return ErrStructureNotFound
	case !replace && exists:
		return ErrStructureExists
	}

	if replace {
		if _, err := tx.Exec(ctx, `
      UPDATE salary_structure_settings
      SET pay_grade_id = $3, pay_frequency_id = $4, currency = $5, catalog_version = $6, updated_at = now()
      WHERE tenant_id = $1 AND basic_profile_id = $2
    `, tenantID, rec.ProfileID, rec.PayGradeID, rec.PayFrequencyID, rec.Currency, rec.CatalogVersion); err != nil {
			return mapWriteError(err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM salary_structures WHERE tenant_id = $1 AND basic_profile_id = $2", tenantID, rec.ProfileID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM salary_structure_deductions WHERE tenant_id = $1 AND basic_profile_id = $2", tenantID, rec.ProfileID); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(ctx, `
      INSERT INTO salary_structure_settings (tenant_id, basic_profile_id, pay_grade_id, pay_frequency_id, currency, catalog_version)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, tenantID, rec.ProfileID, rec.PayGradeID, rec.PayFrequencyID, rec.Currency, rec.CatalogVersion); err != nil {
			return mapWriteError(err)
		}
	}

	for i, c := range rec.Components {
		if _, err := tx.Exec(ctx, `
      INSERT INTO salary_structures (tenant_id, basic_profile_id, component_id, pay_amount, position)
      VALUES ($1,$2,$3,$4,$5)
    `, tenantID, rec.ProfileID, c.ID, c.Amount, i); err != nil {
			return mapWriteError(err)
		}
	}
	for _, id := range rec.DeductionIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO salary_structure_deductions (tenant_id, basic_profile_id, deduction_id)
      VALUES ($1,$2,$3)
      ON CONFLICT DO NOTHING
    `, tenantID, rec.ProfileID, id); err != nil {
			return mapWriteError(err)
		}
	}

	return tx.Commit(ctx)
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrStructureExists
		case pgForeignKeyViolation:
			return fmt.Errorf("structure references a missing catalog entry: %w", ErrUnknownComponent)
		}
	}
	return err
}

func (s *Store) DeleteStructure(ctx context.Context, tenantID, profileID string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM salary_structure_settings WHERE tenant_id = $1 AND basic_profile_id = $2
  `, tenantID, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStructureNotFound
	}
	return nil
}

const structureSelect = `
    SELECT s.basic_profile_id, e.id, e.first_name || ' ' || e.last_name,
           s.pay_grade_id, g.name, s.pay_frequency_id, f.name,
           s.currency, s.catalog_version, s.updated_at
    FROM salary_structure_settings s
    JOIN basic_profiles b ON b.id = s.basic_profile_id
    JOIN employees e ON e.id = b.employee_id
    JOIN pay_grades g ON g.id = s.pay_grade_id
    JOIN pay_frequencies f ON f.id = s.pay_frequency_id
    WHERE s.tenant_id = $1`

func scanStructure(row pgx.Row) (Structure, error) {
	var st Structure
	err := row.Scan(&st.ProfileID, &st.EmployeeID, &st.EmployeeName, &st.PayGradeID, &st.PayGradeName,
		&st.PayFrequencyID, &st.PayFrequencyName, &st.Currency, &st.CatalogVersion, &st.UpdatedAt)
	return st, err
}

func (s *Store) GetStructure(ctx context.Context, tenantID, profileID string) (Structure, error) {
	st, err := scanStructure(s.DB.QueryRow(ctx, structureSelect+" AND s.basic_profile_id = $2", tenantID, profileID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Structure{}, ErrStructureNotFound
	}
	if err != nil {
		return Structure{}, err
	}
	lines, deductions, err := s.details(ctx, tenantID, profileID)
	if err != nil {
		return Structure{}, err
	}
	st.Components = lines[st.ProfileID]
	st.Deductions = deductions[st.ProfileID]
	return st, nil
}

func (s *Store) ListStructures(ctx context.Context, tenantID string) ([]Structure, error) {
	rows, err := s.DB.Query(ctx, structureSelect+" ORDER BY e.last_name, e.first_name", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Structure
	for rows.Next() {
		st, err := scanStructure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, deductions, err := s.details(ctx, tenantID, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Components = lines[out[i].ProfileID]
		out[i].Deductions = deductions[out[i].ProfileID]
	}
	return out, nil
}

// details loads component lines and deductions keyed by profile. An empty
// profileID loads the whole tenant.
func (s *Store) details(ctx context.Context, tenantID, profileID string) (map[string][]StructureLine, map[string][]catalog.Deduction, error) {
	lines := map[string][]StructureLine{}
	rows, err := s.DB.Query(ctx, `
    SELECT l.basic_profile_id, l.component_id, c.name, c.category, l.pay_amount
    FROM salary_structures l
    JOIN salary_components c ON c.id = l.component_id
    WHERE l.tenant_id = $1 AND ($2 = '' OR l.basic_profile_id::text = $2)
    ORDER BY l.basic_profile_id, l.position
  `, tenantID, profileID)
	if err != nil {
		return nil, nil, err
	}
	for rows.Next() {
		var owner string
		var line StructureLine
		if err := rows.Scan(&owner, &line.ComponentID, &line.Name, &line.Category, &line.Amount); err != nil {
			rows.Close()
			return nil, nil, err
		}
		lines[owner] = append(lines[owner], line)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	deductions := map[string][]catalog.Deduction{}
	rows, err = s.DB.Query(ctx, `
    SELECT sd.basic_profile_id, d.id, d.name, d.percentage, d.type
    FROM salary_structure_deductions sd
    JOIN deductions d ON d.id = sd.deduction_id
    WHERE sd.tenant_id = $1 AND ($2 = '' OR sd.basic_profile_id::text = $2)
    ORDER BY sd.basic_profile_id, d.name
  `, tenantID, profileID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var owner string
		var d catalog.Deduction
		if err := rows.Scan(&owner, &d.ID, &d.Name, &d.Percentage, &d.Type); err != nil {
			return nil, nil, err
		}
		deductions[owner] = append(deductions[owner], d)
	}
	return lines, deductions, rows.Err()
}
