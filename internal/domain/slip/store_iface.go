package slip

import "context"

type StoreAPI interface {
	Upsert(ctx context.Context, tenantID string, slips []Slip) (int, error)
	List(ctx context.Context, tenantID string) ([]Slip, error)
	Get(ctx context.Context, tenantID, id string) (Slip, error)
	MarkPaid(ctx context.Context, tenantID, id string) (Slip, error)
}
