package salary

import "context"

type StoreAPI interface {
	CreateStructure(ctx context.Context, tenantID string, rec StructureRecord) error
	ReplaceStructure(ctx context.Context, tenantID string, rec StructureRecord) error
	DeleteStructure(ctx context.Context, tenantID, profileID string) error
	GetStructure(ctx context.Context, tenantID, profileID string) (Structure, error)
	ListStructures(ctx context.Context, tenantID string) ([]Structure, error)
}
