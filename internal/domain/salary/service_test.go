package salary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"unifiedpro/internal/domain/catalog"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateStructure(ctx context.Context, tenantID string, rec StructureRecord) error {
	return m.Called(ctx, tenantID, rec).Error(0)
}

func (m *mockStore) ReplaceStructure(ctx context.Context, tenantID string, rec StructureRecord) error {
	return m.Called(ctx, tenantID, rec).Error(0)
}

func (m *mockStore) DeleteStructure(ctx context.Context, tenantID, profileID string) error {
	return m.Called(ctx, tenantID, profileID).Error(0)
}

func (m *mockStore) GetStructure(ctx context.Context, tenantID, profileID string) (Structure, error) {
	args := m.Called(ctx, tenantID, profileID)
	return args.Get(0).(Structure), args.Error(1)
}

func (m *mockStore) ListStructures(ctx context.Context, tenantID string) ([]Structure, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]Structure), args.Error(1)
}

type stubSource struct {
	snapshot    catalog.Catalog
	err         error
	invalidated int
}

func (s *stubSource) Snapshot(ctx context.Context, tenantID string) (catalog.Catalog, error) {
	return s.snapshot, s.err
}

func (s *stubSource) Invalidate(ctx context.Context, tenantID string) error {
	s.invalidated++
	return nil
}

func validRequest() SubmitRequest {
	return SubmitRequest{
		ProfileID:      "p1",
		Components:     []ComponentAmount{{ID: "c1", Amount: 25000}, {ID: "c2", Amount: 15000}},
		PayGrade:       "g1",
		PayFrequency:   "monthly",
		Deductions:     []string{"tax", "pf", "tax"},
		CatalogVersion: 4,
	}
}

func TestServiceCreate(t *testing.T) {
	store := &mockStore{}
	source := &stubSource{snapshot: testCatalog()}
	svc := NewService(store, source, nil)

	store.On("CreateStructure", mock.Anything, "t1", mock.MatchedBy(func(rec StructureRecord) bool {
		return rec.ProfileID == "p1" && len(rec.Components) == 2 && len(rec.DeductionIDs) == 2 && rec.Currency == "PKR" && rec.CatalogVersion == 4
	})).Return(nil).Once()

	res, err := svc.Create(context.Background(), "t1", validRequest())
	require.NoError(t, err)
	assert.Equal(t, MessageCreated, res.Message)
	assert.False(t, res.Stale)
	assert.Equal(t, 40000.0, res.Totals.Gross)
	assert.Equal(t, 2800.0, res.Totals.TotalDeductions)
	assert.Equal(t, int64(93), res.Totals.TakeHomePercent)
	assert.Equal(t, 1, source.invalidated)
	store.AssertExpectations(t)
}

func TestServiceFlagsStaleCatalog(t *testing.T) {
	store := &mockStore{}
	snapshot := testCatalog()
	snapshot.Version = 7
	svc := NewService(store, &stubSource{snapshot: snapshot}, nil)
	store.On("ReplaceStructure", mock.Anything, "t1", mock.Anything).Return(nil).Once()

	res, err := svc.UpdateBulk(context.Background(), "t1", validRequest())
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, int64(7), res.CatalogVersion)
	assert.Equal(t, MessageUpdated, res.Message)
}

func TestServiceRejectsBeforeStore(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *SubmitRequest)
		want   error
	}{
		{name: "gate", mutate: func(req *SubmitRequest) { req.PayGrade = "" }, want: ErrNoPayGrade},
		{name: "unknown profile", mutate: func(req *SubmitRequest) { req.ProfileID = "ghost" }, want: ErrUnknownEmployee},
		{name: "unknown grade", mutate: func(req *SubmitRequest) { req.PayGrade = "g9" }, want: ErrUnknownPayGrade},
		{name: "unknown frequency", mutate: func(req *SubmitRequest) { req.PayFrequency = "hourly" }, want: ErrUnknownPayFrequency},
		{name: "unknown component", mutate: func(req *SubmitRequest) { req.Components[1].ID = "c9" }, want: ErrUnknownComponent},
		{name: "duplicate component", mutate: func(req *SubmitRequest) { req.Components[1].ID = "c1" }, want: ErrUnknownComponent},
		{name: "unknown deduction", mutate: func(req *SubmitRequest) { req.Deductions = []string{"vat"} }, want: ErrUnknownDeduction},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			store := &mockStore{}
			svc := NewService(store, &stubSource{snapshot: testCatalog()}, nil)
			req := validRequest()
			tc.mutate(&req)

			_, err := svc.Create(context.Background(), "t1", req)
			require.ErrorIs(t, err, tc.want)
			store.AssertNotCalled(t, "CreateStructure", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestServiceNegativeAmountIsValidationError(t *testing.T) {
	svc := NewService(&mockStore{}, &stubSource{snapshot: testCatalog()}, nil)
	req := validRequest()
	req.Components[0].Amount = -1

	_, err := svc.Create(context.Background(), "t1", req)
	require.Error(t, err)
	var fieldErr *FieldError
	assert.False(t, errors.As(err, &fieldErr))
}

func TestServiceStoreConflict(t *testing.T) {
	store := &mockStore{}
	source := &stubSource{snapshot: testCatalog()}
	svc := NewService(store, source, nil)
	store.On("CreateStructure", mock.Anything, "t1", mock.Anything).Return(ErrStructureExists).Once()

	_, err := svc.Create(context.Background(), "t1", validRequest())
	require.ErrorIs(t, err, ErrStructureExists)
	assert.Equal(t, 0, source.invalidated)
}

func TestServicePreviewSkipsGate(t *testing.T) {
	svc := NewService(&mockStore{}, &stubSource{snapshot: testCatalog()}, nil)

	totals, err := svc.Preview(context.Background(), "t1", SubmitRequest{
		Components: []ComponentAmount{{ID: "c3", Amount: 1000}},
		Deductions: []string{"tax"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, totals.Gross)
	assert.Equal(t, 950.0, totals.Net)
}

func TestServiceGetComputesTotals(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, &stubSource{snapshot: testCatalog()}, nil)
	store.On("GetStructure", mock.Anything, "t1", "p1").Return(Structure{
		ProfileID:  "p1",
		Components: []StructureLine{{ComponentID: "c1", Name: "Basic Salary", Category: "Basic", Amount: 10000}},
		Deductions: []catalog.Deduction{{ID: "tax", Name: "Tax", Percentage: 10}},
	}, nil).Once()

	st, err := svc.Get(context.Background(), "t1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 9000.0, st.Totals.Net)
	assert.Equal(t, int64(90), st.Totals.TakeHomePercent)
}

func TestServiceDeleteInvalidates(t *testing.T) {
	store := &mockStore{}
	source := &stubSource{snapshot: testCatalog()}
	svc := NewService(store, source, nil)
	store.On("DeleteStructure", mock.Anything, "t1", "p1").Return(nil).Once()
	store.On("DeleteStructure", mock.Anything, "t1", "p2").Return(ErrStructureNotFound).Once()

	require.NoError(t, svc.Delete(context.Background(), "t1", "p1"))
	require.ErrorIs(t, svc.Delete(context.Background(), "t1", "p2"), ErrStructureNotFound)
	assert.Equal(t, 1, source.invalidated)
}
