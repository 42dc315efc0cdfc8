package domain

// Role names carried in the "role" claim
const (
	RoleUser     = "user"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// Principal is the caller identified by a bearer token
type Principal struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// IsOperator reports whether the principal may run fleet-wide operations
func (p *Principal) IsOperator() bool {
	return p.Role == RoleOperator || p.Role == RoleAdmin
}

// CanAccessUser reports whether the principal may read data owned by userID
func (p *Principal) CanAccessUser(userID string) bool {
	return p.UserID == userID || p.IsOperator()
}
