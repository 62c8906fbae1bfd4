package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("calls: record not found")

// Repository is the persistence contract for call records.
//
// Implementations must treat every write as atomic on its own; the pipelines
// provide no cross-call transaction.
type Repository interface {
	Get(ctx context.Context, callID string) (CallRecord, error)

	// StatusByIDs resolves call_id -> call_status for every id that exists.
	// Missing ids are simply absent from the map.
	StatusByIDs(ctx context.Context, ids []string) (map[string]string, error)

	// UpsertBatch inserts or replaces records, conflicting on call_id.
	UpsertBatch(ctx context.Context, recs []CallRecord) error

	// ListPendingEnrichment returns up to limit ended calls with a transcript
	// still awaiting extraction.
	ListPendingEnrichment(ctx context.Context, limit int) ([]CallRecord, error)

	SetEnrichmentStatusBatch(ctx context.Context, ids []string, st EnrichmentStatus) error
	SetEnrichmentStatus(ctx context.Context, callID string, st EnrichmentStatus) error

	// ApplyEnrichment fills columns from u, touching only columns that are
	// still NULL (first-writer-wins).
	ApplyEnrichment(ctx context.Context, callID string, u FieldUpdate) error
}

// PostgresRepo implements Repository against the call_records table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const callColumns = `call_id, agent_id, call_status, processed, gpt_status,
       transcript, recording_url, summary, quick_summary, intent, lead_type,
       job_description, job_type, notes, manual_notes, call_analysis, email_sent,
       client_name, client_address, client_email, from_number,
       appointment_date, appointment_time, appointment_start, appointment_end, appointment_status,
       start_timestamp, end_timestamp, created_at, updated_at`

func scanCallRecord(row interface{ Scan(...any) error }) (CallRecord, error) {
	var r CallRecord
	err := row.Scan(
		&r.CallID, &r.AgentID, &r.CallStatus, &r.Processed, &r.GPTStatus,
		&r.Transcript, &r.RecordingURL, &r.Summary, &r.QuickSummary, &r.Intent, &r.LeadType,
		&r.JobDescription, &r.JobType, &r.Notes, &r.ManualNotes, &r.CallAnalysis, &r.EmailSent,
		&r.ClientName, &r.ClientAddress, &r.ClientEmail, &r.FromNumber,
		&r.AppointmentDate, &r.AppointmentTime, &r.AppointmentStart, &r.AppointmentEnd, &r.AppointmentStatus,
		&r.StartTimestamp, &r.EndTimestamp, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (p *PostgresRepo) Get(ctx context.Context, callID string) (CallRecord, error) {
	q := `SELECT ` + callColumns + ` FROM call_records WHERE call_id = $1`
	r, err := scanCallRecord(p.db.QueryRowContext(ctx, q, callID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, ErrNotFound
		}
		return CallRecord{}, err
	}
	return r, nil
}

func (p *PostgresRepo) StatusByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const q = `SELECT call_id, call_status FROM call_records WHERE call_id = ANY($1)`
	rows, err := p.db.QueryContext(ctx, q, pgTextArray(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		out[id] = status
	}
	return out, rows.Err()
}

func (p *PostgresRepo) UpsertBatch(ctx context.Context, recs []CallRecord) error {
	if len(recs) == 0 {
		return nil
	}

	const cols = 30
	var (
		b    strings.Builder
		args = make([]any, 0, len(recs)*cols)
	)
	b.WriteString(`INSERT INTO call_records (` + callColumns + `) VALUES `)
	for i, r := range recs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(")
		for j := 0; j < cols; j++ {
			if j > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "$%d", i*cols+j+1)
		}
		b.WriteString(")")
		args = append(args,
			r.CallID, r.AgentID, r.CallStatus, r.Processed, r.GPTStatus,
			r.Transcript, r.RecordingURL, r.Summary, r.QuickSummary, r.Intent, r.LeadType,
			r.JobDescription, r.JobType, r.Notes, r.ManualNotes, r.CallAnalysis, r.EmailSent,
			r.ClientName, r.ClientAddress, r.ClientEmail, r.FromNumber,
			r.AppointmentDate, r.AppointmentTime, r.AppointmentStart, r.AppointmentEnd, r.AppointmentStatus,
			r.StartTimestamp, r.EndTimestamp, r.CreatedAt, r.UpdatedAt,
		)
	}
	b.WriteString(`
ON CONFLICT (call_id) DO UPDATE SET
  agent_id = EXCLUDED.agent_id,
  call_status = EXCLUDED.call_status,
  processed = EXCLUDED.processed,
  gpt_status = EXCLUDED.gpt_status,
  transcript = EXCLUDED.transcript,
  recording_url = EXCLUDED.recording_url,
  summary = EXCLUDED.summary,
  quick_summary = EXCLUDED.quick_summary,
  intent = EXCLUDED.intent,
  lead_type = EXCLUDED.lead_type,
  job_description = EXCLUDED.job_description,
  job_type = EXCLUDED.job_type,
  notes = EXCLUDED.notes,
  manual_notes = EXCLUDED.manual_notes,
  call_analysis = EXCLUDED.call_analysis,
  email_sent = EXCLUDED.email_sent,
  client_name = EXCLUDED.client_name,
  client_address = EXCLUDED.client_address,
  client_email = EXCLUDED.client_email,
  from_number = EXCLUDED.from_number,
  appointment_date = EXCLUDED.appointment_date,
  appointment_time = EXCLUDED.appointment_time,
  appointment_start = EXCLUDED.appointment_start,
  appointment_end = EXCLUDED.appointment_end,
  appointment_status = EXCLUDED.appointment_status,
  start_timestamp = EXCLUDED.start_timestamp,
  end_timestamp = EXCLUDED.end_timestamp,
  updated_at = EXCLUDED.updated_at
`)

	_, err := p.db.ExecContext(ctx, b.String(), args...)
	return err
}

func (p *PostgresRepo) ListPendingEnrichment(ctx context.Context, limit int) ([]CallRecord, error) {
	q := `
SELECT ` + callColumns + `
FROM call_records
WHERE gpt_status = $1
  AND call_status = $2
  AND transcript IS NOT NULL
ORDER BY created_at ASC
LIMIT $3
`
	rows, err := p.db.QueryContext(ctx, q, EnrichmentPending, CallStatusEnded, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		r, err := scanCallRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresRepo) SetEnrichmentStatusBatch(ctx context.Context, ids []string, st EnrichmentStatus) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `UPDATE call_records SET gpt_status = $1, updated_at = $2 WHERE call_id = ANY($3)`
	_, err := p.db.ExecContext(ctx, q, st, time.Now().UTC(), pgTextArray(ids))
	return err
}

func (p *PostgresRepo) SetEnrichmentStatus(ctx context.Context, callID string, st EnrichmentStatus) error {
	const q = `UPDATE call_records SET gpt_status = $1, updated_at = $2 WHERE call_id = $3`
	_, err := p.db.ExecContext(ctx, q, st, time.Now().UTC(), callID)
	return err
}

func (p *PostgresRepo) ApplyEnrichment(ctx context.Context, callID string, u FieldUpdate) error {
	if u.IsEmpty() {
		return nil
	}

	// COALESCE(existing, new) keeps already-set columns untouched even if a
	// concurrent writer filled them after the caller's read.
	set := []string{}
	args := []any{}
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		set = append(set, fmt.Sprintf("%s = COALESCE(%s, $%d)", col, col, len(args)))
	}
	add("client_name", u.ClientName)
	add("client_email", u.ClientEmail)
	add("client_address", u.ClientAddress)
	add("appointment_date", u.AppointmentDate)
	add("appointment_time", u.AppointmentTime)
	add("appointment_start", u.AppointmentStart)
	add("appointment_end", u.AppointmentEnd)
	add("summary", u.Summary)
	add("quick_summary", u.QuickSummary)
	add("intent", u.Intent)
	add("lead_type", u.LeadType)
	add("job_description", u.JobDescription)
	add("job_type", u.JobType)

	args = append(args, time.Now().UTC())
	set = append(set, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, callID)

	q := fmt.Sprintf("UPDATE call_records SET %s WHERE call_id = $%d", strings.Join(set, ", "), len(args))
	_, err := p.db.ExecContext(ctx, q, args...)
	return err
}

// pgTextArray renders ids as a Postgres text[] literal so ANY($1) works
// through the database/sql driver without array support.
func pgTextArray(ids []string) string {
	esc := make([]string, len(ids))
	for i, id := range ids {
		esc[i] = `"` + strings.ReplaceAll(strings.ReplaceAll(id, `\`, `\\`), `"`, `\"`) + `"`
	}
	return "{" + strings.Join(esc, ",") + "}"
}
