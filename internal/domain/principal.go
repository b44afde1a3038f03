package domain

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanCancel reports whether p may cancel the order: admins always, customers only their own.
func (p Principal) CanCancel(o Order) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleCustomer && p.ID == o.UserID
}

// Account is a stored principal with its password hash.
type Account struct {
	Principal
	PasswordHash []byte `json:"-"`
}
