package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// table describes one tenant-scoped catalog table. $1 is always the tenant;
// updates bind the row id as $2.
type table[T, In any] struct {
	name     string
	selects  string
	writable []string
	order    string
	scan     func(row pgx.Row) (T, error)
	values   func(in In) []any
}

func listRows[T, In any](ctx context.Context, db *pgxpool.Pool, t table[T, In], tenantID string) ([]T, error) {
	rows, err := db.Query(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = $1 ORDER BY %s", t.selects, t.name, t.order), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func getRow[T, In any](ctx context.Context, db *pgxpool.Pool, t table[T, In], tenantID, id string) (T, error) {
	item, err := t.scan(db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = $1 AND id::text = $2", t.selects, t.name), tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return item, ErrNotFound
	}
	return item, err
}

func insertRow[T, In any](ctx context.Context, db *pgxpool.Pool, t table[T, In], tenantID string, in In) (T, error) {
	placeholders := make([]string, len(t.writable))
	for i := range t.writable {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
	}
	query := fmt.Sprintf("INSERT INTO %s (tenant_id, %s) VALUES ($1, %s) RETURNING %s",
		t.name, strings.Join(t.writable, ", "), strings.Join(placeholders, ", "), t.selects)

	var item T
	err := mutate(ctx, db, tenantID, func(tx pgx.Tx) error {
		var err error
		item, err = t.scan(tx.QueryRow(ctx, query, append([]any{tenantID}, t.values(in)...)...))
		return err
	})
	return item, err
}

func updateRow[T, In any](ctx context.Context, db *pgxpool.Pool, t table[T, In], tenantID, id string, in In) (T, error) {
	sets := make([]string, len(t.writable))
	for i, col := range t.writable {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+3)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE tenant_id = $1 AND id::text = $2 RETURNING %s",
		t.name, strings.Join(sets, ", "), t.selects)

	var item T
	err := mutate(ctx, db, tenantID, func(tx pgx.Tx) error {
		var err error
		item, err = t.scan(tx.QueryRow(ctx, query, append([]any{tenantID, id}, t.values(in)...)...))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	})
	return item, err
}

func deleteRow[T, In any](ctx context.Context, db *pgxpool.Pool, t table[T, In], tenantID, id string) error {
	return mutate(ctx, db, tenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE tenant_id = $1 AND id::text = $2", t.name), tenantID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// mutate runs fn and bumps the catalog version in the same transaction.
func mutate(ctx context.Context, db *pgxpool.Pool, tenantID string, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return mapWriteError(err)
	}
	if _, err := bumpVersion(ctx, tx, tenantID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrInUse
		}
	}
	return err
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func bumpVersion(ctx context.Context, q querier, tenantID string) (int64, error) {
	var version int64
	err := q.QueryRow(ctx, `
    INSERT INTO catalog_versions (tenant_id, version, updated_at)
    VALUES ($1, 1, now())
    ON CONFLICT (tenant_id) DO UPDATE
    SET version = catalog_versions.version + 1, updated_at = now()
    RETURNING version
  `, tenantID).Scan(&version)
	return version, err
}

func (s *Store) Version(ctx context.Context, tenantID string) (int64, error) {
	var version int64
	err := s.DB.QueryRow(ctx, "SELECT version FROM catalog_versions WHERE tenant_id = $1", tenantID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

func (s *Store) BumpVersion(ctx context.Context, tenantID string) (int64, error) {
	return bumpVersion(ctx, s.DB, tenantID)
}

func (s *Store) Currency(ctx context.Context, tenantID string) (string, error) {
	var currency string
	err := s.DB.QueryRow(ctx, "SELECT currency FROM tenants WHERE id = $1", tenantID).Scan(&currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return currency, err
}

func (s *Store) ProfileSummaries(ctx context.Context, tenantID string) ([]ProfileSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT b.id, e.id, e.first_name || ' ' || e.last_name, d.name, j.name,
           EXISTS (SELECT 1 FROM salary_structure_settings s WHERE s.basic_profile_id = b.id)
    FROM basic_profiles b
    JOIN employees e ON e.id = b.employee_id
    JOIN departments d ON d.id = b.department_id
    JOIN job_types j ON j.id = b.job_type_id
    WHERE b.tenant_id = $1
    ORDER BY e.last_name, e.first_name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ProfileSummary{}
	for rows.Next() {
		var p ProfileSummary
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.EmployeeName, &p.Department, &p.JobType, &p.HasStructure); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var payGrades = table[PayGrade, PayGradeInput]{
	name:     "pay_grades",
	selects:  "id, name, description, minimum_salary, maximum_salary, created_at",
	writable: []string{"name", "description", "minimum_salary", "maximum_salary"},
	order:    "minimum_salary, name",
	scan: func(row pgx.Row) (PayGrade, error) {
		var p PayGrade
		err := row.Scan(&p.ID, &p.Name, &p.Description, &p.MinimumSalary, &p.MaximumSalary, &p.CreatedAt)
		p.Range = FormatRange(p.MinimumSalary, p.MaximumSalary)
		return p, err
	},
	values: func(in PayGradeInput) []any {
		return []any{strings.TrimSpace(in.Name), in.Description, in.MinimumSalary, in.MaximumSalary}
	},
}

var components = table[Component, ComponentInput]{
	name:     "salary_components",
	selects:  "id, name, category, minimum_salary, maximum_salary, created_at",
	writable: []string{"name", "category", "minimum_salary", "maximum_salary"},
	order:    "created_at, name",
	scan: func(row pgx.Row) (Component, error) {
		var c Component
		err := row.Scan(&c.ID, &c.Name, &c.Category, &c.MinimumSalary, &c.MaximumSalary, &c.CreatedAt)
		return c, err
	},
	values: func(in ComponentInput) []any {
		return []any{strings.TrimSpace(in.Name), strings.TrimSpace(in.Category), in.MinimumSalary, in.MaximumSalary}
	},
}

var payFrequencies = table[PayFrequency, PayFrequencyInput]{
	name:     "pay_frequencies",
	selects:  "id, name",
	writable: []string{"name"},
	order:    "name",
	scan: func(row pgx.Row) (PayFrequency, error) {
		var f PayFrequency
		err := row.Scan(&f.ID, &f.Name)
		return f, err
	},
	values: func(in PayFrequencyInput) []any {
		return []any{strings.TrimSpace(in.Name)}
	},
}

var deductions = table[Deduction, DeductionInput]{
	name:     "deductions",
	selects:  "id, name, percentage, type",
	writable: []string{"name", "percentage", "type"},
	order:    "name",
	scan: func(row pgx.Row) (Deduction, error) {
		var d Deduction
		err := row.Scan(&d.ID, &d.Name, &d.Percentage, &d.Type)
		return d, err
	},
	values: func(in DeductionInput) []any {
		return []any{strings.TrimSpace(in.Name), in.Percentage, strings.TrimSpace(in.Type)}
	},
}

var jobTypes = table[JobType, JobTypeInput]{
	name:     "job_types",
	selects:  "id, name, description, created_at",
	writable: []string{"name", "description"},
	order:    "name",
	scan: func(row pgx.Row) (JobType, error) {
		var j JobType
		err := row.Scan(&j.ID, &j.Name, &j.Description, &j.CreatedAt)
		return j, err
	},
	values: func(in JobTypeInput) []any {
		return []any{strings.TrimSpace(in.Name), strings.TrimSpace(in.Description)}
	},
}

var departments = table[Department, DepartmentInput]{
	name:     "departments",
	selects:  "id, name, created_at",
	writable: []string{"name"},
	order:    "name",
	scan: func(row pgx.Row) (Department, error) {
		var d Department
		err := row.Scan(&d.ID, &d.Name, &d.CreatedAt)
		return d, err
	},
	values: func(in DepartmentInput) []any {
		return []any{strings.TrimSpace(in.Name)}
	},
}

func (s *Store) ListPayGrades(ctx context.Context, tenantID string) ([]PayGrade, error) {
	return listRows(ctx, s.DB, payGrades, tenantID)
}

func (s *Store) GetPayGrade(ctx context.Context, tenantID, id string) (PayGrade, error) {
	return getRow(ctx, s.DB, payGrades, tenantID, id)
}

func (s *Store) CreatePayGrade(ctx context.Context, tenantID string, in PayGradeInput) (PayGrade, error) {
	return insertRow(ctx, s.DB, payGrades, tenantID, in)
}

func (s *Store) UpdatePayGrade(ctx context.Context, tenantID, id string, in PayGradeInput) (PayGrade, error) {
	return updateRow(ctx, s.DB, payGrades, tenantID, id, in)
}

func (s *Store) DeletePayGrade(ctx context.Context, tenantID, id string) error {
	return deleteRow(ctx, s.DB, payGrades, tenantID, id)
}

func (s *Store) ListComponents(ctx context.Context, tenantID string) ([]Component, error) {
	return listRows(ctx, s.DB, components, tenantID)
}

func (s *Store) GetComponent(ctx context.Context, tenantID, id string) (Component, error) {
	return getRow(ctx, s.DB, components, tenantID, id)
}

func (s *Store) CreateComponent(ctx context.Context, tenantID string, in ComponentInput) (Component, error) {
	return insertRow(ctx, s.DB, components, tenantID, in)
}

func (s *Store) UpdateComponent(ctx context.Context, tenantID, id string, in ComponentInput) (Component, error) {
	return updateRow(ctx, s.DB, components, tenantID, id, in)
}

func (s *Store) DeleteComponent(ctx context.Context, tenantID, id string) error {
	return deleteRow(ctx, s.DB, components, tenantID, id)
}

func (s *Store) ListPayFrequencies(ctx context.Context, tenantID string) ([]PayFrequency, error) {
	return listRows(ctx, s.DB, payFrequencies, tenantID)
}

func (s *Store) GetPayFrequency(ctx context.Context, tenantID, id string) (PayFrequency, error) {
	return getRow(ctx, s.DB, payFrequencies, tenantID, id)
}

func (s *Store) CreatePayFrequency(ctx context.Context, tenantID string, in PayFrequencyInput) (PayFrequency, error) {
	return insertRow(ctx, s.DB, payFrequencies, tenantID, in)
}

func (s *Store) UpdatePayFrequency(ctx context.Context, tenantID, id string, in PayFrequencyInput) (PayFrequency, error) {
	return updateRow(ctx, s.DB, payFrequencies, tenantID, id, in)
}

func (s *Store) DeletePayFrequency(ctx context.Context, tenantID, id string) error {
	return deleteRow(ctx, s.DB, payFrequencies, tenantID, id)
}

func (s *Store) ListDeductions(ctx context.Context, tenantID string) ([]Deduction, error) {
	return listRows(ctx, s.DB, deductions, tenantID)
}

func (s *Store) GetDeduction(ctx context.Context, tenantID, id string) (Deduction, error) {
	return getRow(ctx, s.DB, deductions, tenantID, id)
}

func (s *Store) CreateDeduction(ctx context.Context, tenantID string, in DeductionInput) (Deduction, error) {
	return insertRow(ctx, s.DB, deductions, tenantID, in)
}

func (s *Store) UpdateDeduction(ctx context.Context, tenantID, id string, in DeductionInput) (Deduction, error) {
	return updateRow(ctx, s.DB, deductions, tenantID, id, in)
}

func (s *Store) DeleteDeduction(ctx context.Context, tenantID, id string) error {
	return deleteRow(ctx, s.DB, deductions, tenantID, id)
}

func (s *Store) ListJobTypes(ctx context.Context, tenantID string) ([]JobType, error) {
	return listRows(ctx, s.DB, jobTypes, tenantID)
}

func (s *Store) GetJobType(ctx context.Context, tenantID, id string) (JobType, error) {
	return getRow(ctx, s.DB, jobTypes, tenantID, id)
}

func (s *Store) CreateJobType(ctx context.Context, tenantID string, in JobTypeInput) (JobType, error) {
	return insertRow(ctx, s.DB, jobTypes, tenantID, in)
}

func (s *Store) UpdateJobType(ctx context.Context, tenantID, id string, in JobTypeInput) (JobType, error) {
	return updateRow(ctx, s.DB, jobTypes, tenantID, id, in)
}

func (s *Store) DeleteJobType(ctx context.Context, tenantID, id string) error {
	return deleteRow(ctx, s.DB, jobTypes, tenantID, id)
}

func (s *Store) ListDepartments(ctx context.Context, tenantID string) ([]Department, error) {
	return listRows(ctx, s.DB, departments, tenantID)
}

func (s *Store) GetDepartment(ctx context.Context, tenantID, id string) (Department, error) {
	return getRow(ctx, s.DB, departments, tenantID, id)
}

func (s *Store) CreateDepartment(ctx context.Context, tenantID string, in DepartmentInput) (Department, error) {
	return insertRow(ctx, s.DB, departments, tenantID, in)
}

func (s *Store) UpdateDepartment(ctx context.Context, tenantID, id string, in DepartmentInput) (Department, error) {
	return updateRow(ctx, s.DB, departments, tenantID, id, in)
}

func (s *Store) DeleteDepartment(ctx context.Context, tenantID, id string) error {
	return deleteRow(ctx, s.DB, departments, tenantID, id)
}
