package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"unifiedpro/internal/domain/catalog"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicate
		case "23503":
			return ErrInvalidReference
		}
	}
	return err
}

const employeeColumns = "id, first_name, last_name, email, status, created_at"

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Status, &e.CreatedAt)
	return e, err
}

func (s *Store) ListEmployees(ctx context.Context, tenantID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+employeeColumns+" FROM employees WHERE tenant_id = $1 ORDER BY last_name, first_name", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, id string) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE tenant_id = $1 AND id::text = $2", tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func (s *Store) CreateEmployee(ctx context.Context, tenantID string, in EmployeeInput) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, `
    INSERT INTO employees (tenant_id, first_name, last_name, email, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+employeeColumns,
		tenantID, strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName), strings.ToLower(strings.TrimSpace(in.Email)), statusOrActive(in.Status)))
	if err != nil {
		return Employee{}, mapWriteError(err)
	}
	return e, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, tenantID, id string, in EmployeeInput) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees SET first_name = $3, last_name = $4, email = $5, status = $6, updated_at = now()
    WHERE tenant_id = $1 AND id::text = $2
    RETURNING `+employeeColumns,
		tenantID, id, strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName), strings.ToLower(strings.TrimSpace(in.Email)), statusOrActive(in.Status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, mapWriteError(err)
	}
	return e, nil
}

func statusOrActive(status string) string {
	if status == "" {
		return "active"
	}
	return status
}

const basicProfileSelect = `
    SELECT b.id, e.id, e.first_name || ' ' || e.last_name, d.id, d.name, j.id, j.name,
           EXISTS (SELECT 1 FROM salary_structure_settings s WHERE s.basic_profile_id = b.id),
           b.created_at
    FROM basic_profiles b
    JOIN employees e ON e.id = b.employee_id
    JOIN departments d ON d.id = b.department_id
    JOIN job_types j ON j.id = b.job_type_id
    WHERE b.tenant_id = $1`

func scanBasicProfile(row pgx.Row) (BasicProfile, error) {
	var b BasicProfile
	err := row.Scan(&b.ID, &b.EmployeeID, &b.EmployeeName, &b.DepartmentID, &b.DepartmentName,
		&b.JobTypeID, &b.JobTypeName, &b.HasStructure, &b.CreatedAt)
	return b, err
}

func (s *Store) ListBasicProfiles(ctx context.Context, tenantID string) ([]BasicProfile, error) {
	rows, err := s.DB.Query(ctx, basicProfileSelect+" ORDER BY e.last_name, e.first_name", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []BasicProfile{}
	for rows.Next() {
		b, err := scanBasicProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBasicProfile(ctx context.Context, tenantID, id string) (BasicProfile, error) {
	b, err := scanBasicProfile(s.DB.QueryRow(ctx, basicProfileSelect+" AND b.id::text = $2", tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return BasicProfile{}, ErrNotFound
	}
	return b, err
}

func (s *Store) CreateBasicProfile(ctx context.Context, tenantID string, in BasicProfileInput) (BasicProfile, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO basic_profiles (tenant_id, employee_id, department_id, job_type_id)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, tenantID, in.EmployeeID, in.DepartmentID, in.JobTypeID).Scan(&id); err != nil {
		return BasicProfile{}, mapWriteError(err)
	}
	return s.GetBasicProfile(ctx, tenantID, id)
}

func (s *Store) DeleteBasicProfile(ctx context.Context, tenantID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM basic_profiles WHERE tenant_id = $1 AND id::text = $2", tenantID, id)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Detailed loads a basic profile with its structure lines and deductions.
// Each line repeats the structure's pay grade and pay frequency.
func (s *Store) Detailed(ctx context.Context, tenantID, id string) (DetailedProfile, error) {
	var d DetailedProfile
	err := s.DB.QueryRow(ctx, `
    SELECT b.id, e.id, e.first_name, e.last_name, e.email, e.status, e.created_at,
           dep.id, dep.name, dep.created_at, j.id, j.name, j.description, j.created_at,
           COALESCE(st.currency, t.currency, '')
    FROM basic_profiles b
    JOIN employees e ON e.id = b.employee_id
    JOIN departments dep ON dep.id = b.department_id
    JOIN job_types j ON j.id = b.job_type_id
    JOIN tenants t ON t.id = b.tenant_id
    LEFT JOIN salary_structure_settings st ON st.basic_profile_id = b.id
    WHERE b.tenant_id = $1 AND b.id::text = $2
  `, tenantID, id).Scan(&d.ID, &d.Employee.ID, &d.Employee.FirstName, &d.Employee.LastName, &d.Employee.Email,
		&d.Employee.Status, &d.Employee.CreatedAt, &d.Department.ID, &d.Department.Name, &d.Department.CreatedAt,
		&d.JobType.ID, &d.JobType.Name, &d.JobType.Description, &d.JobType.CreatedAt, &d.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return DetailedProfile{}, ErrNotFound
	}
	if err != nil {
		return DetailedProfile{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.name, c.category, c.minimum_salary, c.maximum_salary, c.created_at, l.pay_amount,
           g.id, g.name, g.description, g.minimum_salary, g.maximum_salary, g.created_at,
           f.id, f.name
    FROM salary_structures l
    JOIN salary_components c ON c.id = l.component_id
    JOIN salary_structure_settings st ON st.basic_profile_id = l.basic_profile_id
    JOIN pay_grades g ON g.id = st.pay_grade_id
    JOIN pay_frequencies f ON f.id = st.pay_frequency_id
    WHERE l.tenant_id = $1 AND l.basic_profile_id::text = $2
    ORDER BY l.position
  `, tenantID, id)
	if err != nil {
		return DetailedProfile{}, err
	}
	for rows.Next() {
		var line StructureLine
		var grade catalog.PayGrade
		var freq catalog.PayFrequency
		c := &line.SalaryComponent
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.MinimumSalary, &c.MaximumSalary, &c.CreatedAt, &line.PayAmount,
			&grade.ID, &grade.Name, &grade.Description, &grade.MinimumSalary, &grade.MaximumSalary, &grade.CreatedAt,
			&freq.ID, &freq.Name); err != nil {
			rows.Close()
			return DetailedProfile{}, err
		}
		grade.Range = catalog.FormatRange(grade.MinimumSalary, grade.MaximumSalary)
		line.PayGrade = &grade
		line.PayFrequency = &freq
		d.SalaryStructures = append(d.SalaryStructures, line)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return DetailedProfile{}, err
	}

	rows, err = s.DB.Query(ctx, `
    SELECT d.id, d.name, d.percentage, d.type
    FROM salary_structure_deductions sd
    JOIN deductions d ON d.id = sd.deduction_id
    WHERE sd.tenant_id = $1 AND sd.basic_profile_id::text = $2
    ORDER BY d.name
  `, tenantID, id)
	if err != nil {
		return DetailedProfile{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var ded catalog.Deduction
		if err := rows.Scan(&ded.ID, &ded.Name, &ded.Percentage, &ded.Type); err != nil {
			return DetailedProfile{}, err
		}
		d.Deductions = append(d.Deductions, ded)
	}
	return d, rows.Err()
}
