package booking

import "time"

// Sync statuses shared by the queue and the audit log. A request never
// returns from a terminal status to pending on its own; retry requires an
// external re-enqueue.
const (
	SyncPending = "pending"
	SyncSuccess = "success"
	SyncFailed  = "failed"
)

// ManualSyncRequest is one externally-enqueued unit of booking-sync work,
// keyed by call id.
type ManualSyncRequest struct {
	CallID       string  `json:"call_id" db:"call_id"`
	Status       string  `json:"status" db:"status"`
	BookingID    *string `json:"zt_booking_id,omitempty" db:"zt_booking_id"`
	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SyncLogEntry is the durable audit row mirroring queue transitions, at most
// one live row per call.
//
// Invariant: the audit row is written before the queue entry's status is
// updated, so the trail reflects attempts even when the queue write fails.
type SyncLogEntry struct {
	CallLogID    string  `json:"call_log_id" db:"call_log_id"`
	Status       string  `json:"status" db:"status"`
	BookingID    *string `json:"zt_booking_id,omitempty" db:"zt_booking_id"`
	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	SyncDate  time.Time `json:"sync_date" db:"sync_date"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
