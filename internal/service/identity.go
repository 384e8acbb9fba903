package service

import "github.com/wind-smp/market-backend/internal/model"

// Identity is the immutable per-call snapshot of the authenticated caller.
// The auth middleware builds it; the engine never touches account state.
type Identity struct {
	ID       string
	Username string
	Role     model.UserRole
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

func IdentityOf(u *model.User) Identity {
	return Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}
