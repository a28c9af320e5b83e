package db

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/platform/validation"
)

func TestMigrationFilesSortedSQLOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_slips.sql":   {Data: []byte("SELECT 2;")},
		"0001_init.sql":    {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("notes")},
		"archive/0000.sql": {Data: []byte("SELECT 0;")},
	}

	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if len(files) != 2 || files[0] != "0001_init.sql" || files[1] != "0002_slips.sql" {
		t.Fatalf("expected sorted sql files, got %v", files)
	}
}

func TestMigrationsDirectoryParses(t *testing.T) {
	files, err := migrationFiles(os.DirFS("../../../migrations"))
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected at least one migration")
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	defaults, err := LoadDefaultCatalog(defaultCatalogYAML)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(defaults.PayGrades) == 0 || len(defaults.Components) == 0 || len(defaults.PayFrequencies) == 0 ||
		len(defaults.Deductions) == 0 || len(defaults.JobTypes) == 0 || len(defaults.Departments) == 0 {
		t.Fatalf("expected every catalog list to be seeded, got %+v", defaults)
	}

	var inputs []any
	for _, in := range defaults.PayGrades {
		inputs = append(inputs, in)
	}
	for _, in := range defaults.Components {
		inputs = append(inputs, in)
	}
	for _, in := range defaults.Deductions {
		inputs = append(inputs, in)
	}
	for _, in := range inputs {
		if err := validation.Struct(in); err != nil {
			t.Fatalf("invalid default %+v: %v", in, err)
		}
	}
	if defaults.PayGrades[0].MinimumSalary != 20000 || defaults.Deductions[0].Percentage != 5 {
		t.Fatalf("unexpected numeric values: %+v %+v", defaults.PayGrades[0], defaults.Deductions[0])
	}
}

func TestLoadDefaultCatalogRejectsBadYAML(t *testing.T) {
	if _, err := LoadDefaultCatalog([]byte("pay_grades: [")); err == nil {
		t.Fatal("expected yaml error")
	}
}

type recordingWriter struct {
	existing []catalog.Component
	created  []string
}

func (w *recordingWriter) ListComponents(ctx context.Context, tenantID string) ([]catalog.Component, error) {
	return w.existing, nil
}

func (w *recordingWriter) CreatePayGrade(ctx context.Context, tenantID string, in catalog.PayGradeInput) (catalog.PayGrade, error) {
	w.created = append(w.created, "grade:"+in.Name)
	return catalog.PayGrade{}, nil
}

func (w *recordingWriter) CreateComponent(ctx context.Context, tenantID string, in catalog.ComponentInput) (catalog.Component, error) {
	w.created = append(w.created, "component:"+in.Name)
	return catalog.Component{}, catalog.ErrDuplicate
}

func (w *recordingWriter) CreatePayFrequency(ctx context.Context, tenantID string, in catalog.PayFrequencyInput) (catalog.PayFrequency, error) {
	w.created = append(w.created, "frequency:"+in.Name)
	return catalog.PayFrequency{}, nil
}

func (w *recordingWriter) CreateDeduction(ctx context.Context, tenantID string, in catalog.DeductionInput) (catalog.Deduction, error) {
	w.created = append(w.created, "deduction:"+in.Name)
	return catalog.Deduction{}, nil
}

func (w *recordingWriter) CreateJobType(ctx context.Context, tenantID string, in catalog.JobTypeInput) (catalog.JobType, error) {
	w.created = append(w.created, "job:"+in.Name)
	return catalog.JobType{}, nil
}

func (w *recordingWriter) CreateDepartment(ctx context.Context, tenantID string, in catalog.DepartmentInput) (catalog.Department, error) {
	w.created = append(w.created, "department:"+in.Name)
	return catalog.Department{}, nil
}

func TestSeedCatalogWritesEveryListOnce(t *testing.T) {
	w := &recordingWriter{}
	defaults := DefaultCatalog{
		PayGrades:      []catalog.PayGradeInput{{Name: "A"}},
		Components:     []catalog.ComponentInput{{Name: "Basic"}},
		PayFrequencies: []catalog.PayFrequencyInput{{Name: "Monthly"}},
		Deductions:     []catalog.DeductionInput{{Name: "Tax"}},
		JobTypes:       []catalog.JobTypeInput{{Name: "Full Time"}},
		Departments:    []catalog.DepartmentInput{{Name: "Engineering"}},
	}

	seeded, err := seedCatalog(context.Background(), w, "t1", defaults)
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}
	if !seeded {
		t.Fatal("expected catalog to be seeded")
	}
	want := []string{"grade:A", "component:Basic", "frequency:Monthly", "deduction:Tax", "job:Full Time", "department:Engineering"}
	if len(w.created) != len(want) {
		t.Fatalf("expected %v, got %v", want, w.created)
	}
	for i := range want {
		if w.created[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, w.created)
		}
	}
}

func TestSeedCatalogSkipsPopulatedTenant(t *testing.T) {
	w := &recordingWriter{existing: []catalog.Component{{ID: "c1"}}}

	seeded, err := seedCatalog(context.Background(), w, "t1", DefaultCatalog{PayGrades: []catalog.PayGradeInput{{Name: "A"}}})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}
	if seeded || len(w.created) != 0 {
		t.Fatalf("expected no writes, got %v", w.created)
	}
}
