package domain

const RoleAdmin = "admin"

// Identity is the caller as vouched for by the upstream gateway.
type Identity struct {
	UserID string
	Role   string
	Name   string
	Email  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
