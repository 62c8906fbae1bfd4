// Package directory resolves agent ownership and stored platform credentials.
package directory

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("directory: not found")

// Credentials are externally-managed login secrets for the scheduling
// platform, keyed by the owning account's user id.
type Credentials struct {
	UserID   string `json:"user_id" db:"user_id"`
	Username string `json:"username" db:"username"`
	Password string `json:"password" db:"password"`
}

// Usable reports whether the credentials can be used for a login attempt.
func (c Credentials) Usable() bool { return c.Username != "" && c.Password != "" }

// Directory lists accounts and maps between user ids and external agent ids.
type Directory interface {
	// AgentIDs returns every distinct non-null external agent identifier.
	AgentIDs(ctx context.Context) ([]string, error)

	// UserIDsByAgentID returns all account user ids mapped to an agent.
	UserIDsByAgentID(ctx context.Context, agentID string) ([]string, error)
}

// CredentialStore looks up scheduling-platform credentials per account.
type CredentialStore interface {
	// ByUserID returns the stored credentials, or ErrNotFound.
	ByUserID(ctx context.Context, userID string) (Credentials, error)
}

// PostgresDirectory implements Directory and CredentialStore against the
// accounts and platform_credentials tables.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory { return &PostgresDirectory{db: db} }

func (p *PostgresDirectory) AgentIDs(ctx context.Context) ([]string, error) {
	const q = `
SELECT DISTINCT agent_id
FROM accounts
WHERE agent_id IS NOT NULL AND agent_id <> ''
ORDER BY agent_id
`
	rows, err := p.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (p *PostgresDirectory) UserIDsByAgentID(ctx context.Context, agentID string) ([]string, error) {
	const q = `SELECT user_id FROM accounts WHERE agent_id = $1`
	rows, err := p.db.QueryContext(ctx, q, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (p *PostgresDirectory) ByUserID(ctx context.Context, userID string) (Credentials, error) {
	const q = `
SELECT user_id, username, password
FROM platform_credentials
WHERE user_id = $1
LIMIT 1
`
	var c Credentials
	if err := p.db.QueryRowContext(ctx, q, userID).Scan(&c.UserID, &c.Username, &c.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Credentials{}, ErrNotFound
		}
		return Credentials{}, err
	}
	return c, nil
}
