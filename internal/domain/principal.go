package domain

type Role string

const (
	RoleUser   Role = "User"
	RoleSeller Role = "Seller"
	RoleAdmin  Role = "Admin"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) CanCheckout() bool {
	return p.ID != "" && (p.Role == RoleUser || p.Role == RoleSeller)
}
