package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/platform/config"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// DefaultCatalog is the catalog a fresh tenant starts with.
type DefaultCatalog struct {
	PayGrades      []catalog.PayGradeInput     `yaml:"pay_grades"`
	Components     []catalog.ComponentInput    `yaml:"components"`
	PayFrequencies []catalog.PayFrequencyInput `yaml:"pay_frequencies"`
	Deductions     []catalog.DeductionInput    `yaml:"deductions"`
	JobTypes       []catalog.JobTypeInput      `yaml:"job_types"`
	Departments    []catalog.DepartmentInput   `yaml:"departments"`
}

func LoadDefaultCatalog(data []byte) (DefaultCatalog, error) {
	var out DefaultCatalog
	if err := yaml.Unmarshal(data, &out); err != nil {
		return DefaultCatalog{}, fmt.Errorf("default catalog: %w", err)
	}
	return out, nil
}

// Seed makes sure the configured tenant, its roles and admin user exist.
// The default catalog is written only when the tenant has no components yet.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName, cfg.SeedCurrency)
	if err != nil {
		return "", fmt.Errorf("seed tenant: %w", err)
	}

	roleIDs, err := ensureRoles(ctx, pool, tenantID)
	if err != nil {
		return "", fmt.Errorf("seed roles: %w", err)
	}

	created, err := ensureAdminUser(ctx, pool, tenantID, roleIDs[auth.RoleHR], cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	if err != nil {
		return "", fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Info("seeded admin user", zap.String("email", cfg.SeedAdminEmail))
	}

	if cfg.SeedCatalog {
		defaults, err := LoadDefaultCatalog(defaultCatalogYAML)
		if err != nil {
			return "", err
		}
		seeded, err := seedCatalog(ctx, catalog.NewStore(pool), tenantID, defaults)
		if err != nil {
			return "", fmt.Errorf("seed catalog: %w", err)
		}
		if seeded {
			logger.Info("seeded default catalog", zap.String("tenant_id", tenantID))
		}
	}

	return tenantID, nil
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name, currency string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = pool.QueryRow(ctx, "INSERT INTO tenants (name, currency) VALUES ($1, $2) RETURNING id", name, strings.ToUpper(currency)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool, tenantID string) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName := range auth.RolePermissions {
		var id string
		err := pool.QueryRow(ctx, `
      INSERT INTO roles (tenant_id, name) VALUES ($1, $2)
      ON CONFLICT (tenant_id, name) DO UPDATE SET name = EXCLUDED.name
      RETURNING id
    `, tenantID, roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, tenantID, roleID, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return false, nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND email = $2", tenantID, email).Scan(&id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}

	_, err = pool.Exec(ctx, "INSERT INTO users (tenant_id, email, password_hash, role_id) VALUES ($1, $2, $3, $4)", tenantID, email, hash, roleID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// catalogWriter is the slice of the catalog store the seed needs.
type catalogWriter interface {
	ListComponents(ctx context.Context, tenantID string) ([]catalog.Component, error)
	CreatePayGrade(ctx context.Context, tenantID string, in catalog.PayGradeInput) (catalog.PayGrade, error)
	CreateComponent(ctx context.Context, tenantID string, in catalog.ComponentInput) (catalog.Component, error)
	CreatePayFrequency(ctx context.Context, tenantID string, in catalog.PayFrequencyInput) (catalog.PayFrequency, error)
	CreateDeduction(ctx context.Context, tenantID string, in catalog.DeductionInput) (catalog.Deduction, error)
	CreateJobType(ctx context.Context, tenantID string, in catalog.JobTypeInput) (catalog.JobType, error)
	CreateDepartment(ctx context.Context, tenantID string, in catalog.DepartmentInput) (catalog.Department, error)
}

func seedCatalog(ctx context.Context, store catalogWriter, tenantID string, defaults DefaultCatalog) (bool, error) {
	existing, err := store.ListComponents(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, in := range defaults.PayGrades {
		if _, err := store.CreatePayGrade(ctx, tenantID, in); err != nil && !errors.Is(err, catalog.ErrDuplicate) {
			return false, err
		}
	}
	for _, in := range defaults.Components {
		if _, err := store.CreateComponent(ctx, tenantID, in); err != nil && !errors.Is(err, catalog.ErrDuplicate) {
			return false, err
		}
	}
	for _, in := range defaults.PayFrequencies {
		if _, err := store.CreatePayFrequency(ctx, tenantID, in); err != nil && !errors.Is(err, catalog.ErrDuplicate) {
			return false, err
		}
	}
	for _, in := range defaults.Deductions {
		if _, err := store.CreateDeduction(ctx, tenantID, in); err != nil && !errors.Is(err, catalog.ErrDuplicate) {
			return false, err
		}
	}
	for _, in := range defaults.JobTypes {
		if _, err := store.CreateJobType(ctx, tenantID, in); err != nil && !errors.Is(err, catalog.ErrDuplicate) {
			return false, err
		}
	}
	for _, in := range defaults.Departments {
		if _, err := store.CreateDepartment(ctx, tenantID, in); err != nil && !errors.Is(err, catalog.ErrDuplicate) {
			return false, err
		}
	}
	return true, nil
}
