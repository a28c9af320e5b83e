package jobs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRecorder keeps job runs in the job_runs table.
type PGRecorder struct {
	DB *pgxpool.Pool
}

func (r PGRecorder) Begin(ctx context.Context, tenantID, jobType string) (string, error) {
	runID := ""
	err := r.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, tenantID, jobType, StatusRunning).Scan(&runID)
	return runID, err
}

func (r PGRecorder) Finish(ctx context.Context, runID, status string, details []byte) error {
	_, err := r.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	return err
}
