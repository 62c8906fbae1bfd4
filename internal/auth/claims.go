package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for the ops API.
// Role gates which ops endpoints a token may call.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}

// Ops roles. Viewer may read summaries; operator may also trigger runs and
// enqueue sync requests.
const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
)
