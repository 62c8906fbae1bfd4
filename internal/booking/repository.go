package booking

import (
	"context"
	"database/sql"
	"time"
)

// QueueRepository is the persistence contract for the manual sync queue.
// Entries are created externally; the engine only reads pending ones and
// drives them to a terminal status.
type QueueRepository interface {
	// ListPending returns up to limit pending requests, oldest first.
	ListPending(ctx context.Context, limit int) ([]ManualSyncRequest, error)

	SetStatus(ctx context.Context, callID, status string, bookingID, errorMessage *string) error
}

// LogRepository is the persistence contract for the sync audit log.
type LogRepository interface {
	// Upsert atomically inserts or replaces the single live row for
	// e.CallLogID.
	Upsert(ctx context.Context, e SyncLogEntry) error
}

// PostgresQueueRepo implements QueueRepository on manual_sync_requests.
type PostgresQueueRepo struct {
	db *sql.DB
}

func NewPostgresQueueRepo(db *sql.DB) *PostgresQueueRepo { return &PostgresQueueRepo{db: db} }

func (p *PostgresQueueRepo) ListPending(ctx context.Context, limit int) ([]ManualSyncRequest, error) {
	const q = `
SELECT call_id, status, zt_booking_id, error_message, created_at, updated_at
FROM manual_sync_requests
WHERE status = $1
ORDER BY created_at ASC
LIMIT $2
`
	rows, err := p.db.QueryContext(ctx, q, SyncPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ManualSyncRequest
	for rows.Next() {
		var r ManualSyncRequest
		if err := rows.Scan(&r.CallID, &r.Status, &r.BookingID, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresQueueRepo) SetStatus(ctx context.Context, callID, status string, bookingID, errorMessage *string) error {
	const q = `
UPDATE manual_sync_requests
SET status = $1, zt_booking_id = $2, error_message = $3, updated_at = $4
WHERE call_id = $5
`
	_, err := p.db.ExecContext(ctx, q, status, bookingID, errorMessage, time.Now().UTC(), callID)
	return err
}

// Enqueue creates a pending request, or re-arms a terminal one back to
// pending. This is the external re-enqueue path; the engine itself never
// moves a request out of a terminal status.
func (p *PostgresQueueRepo) Enqueue(ctx context.Context, callID string) error {
	now := time.Now().UTC()
	const q = `
INSERT INTO manual_sync_requests (call_id, status, zt_booking_id, error_message, created_at, updated_at)
VALUES ($1,$2,NULL,NULL,$3,$3)
ON CONFLICT (call_id)
DO UPDATE SET status = EXCLUDED.status,
              zt_booking_id = NULL,
              error_message = NULL,
              updated_at = EXCLUDED.updated_at
`
	_, err := p.db.ExecContext(ctx, q, callID, SyncPending, now)
	return err
}

// PostgresLogRepo implements LogRepository on sync_logs.
//
// NOTE: upsert is a single atomic ON CONFLICT statement, not check-then-act;
// concurrent writers cannot produce duplicate rows for one call.
type PostgresLogRepo struct {
	db *sql.DB
}

func NewPostgresLogRepo(db *sql.DB) *PostgresLogRepo { return &PostgresLogRepo{db: db} }

func (p *PostgresLogRepo) Upsert(ctx context.Context, e SyncLogEntry) error {
	const q = `
INSERT INTO sync_logs (call_log_id, status, zt_booking_id, error_message, sync_date, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (call_log_id)
DO UPDATE SET status = EXCLUDED.status,
              zt_booking_id = EXCLUDED.zt_booking_id,
              error_message = EXCLUDED.error_message,
              sync_date = EXCLUDED.sync_date,
              updated_at = EXCLUDED.updated_at
`
	_, err := p.db.ExecContext(ctx, q, e.CallLogID, e.Status, e.BookingID, e.ErrorMessage, e.SyncDate, e.UpdatedAt)
	return err
}
