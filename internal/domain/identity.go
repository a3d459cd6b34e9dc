package domain

// Capability names an administrative permission granted through a role.
type Capability string

const (
	CapManageOrders   Capability = "manage_orders"
	CapManageProducts Capability = "manage_products"
)

var roleCapabilities = map[Role][]Capability{
	RoleCustomer: nil,
	RoleAdmin:    {CapManageOrders, CapManageProducts},
}

// Identity is the authenticated caller, resolved once per request and passed
// explicitly into every service call.
type Identity struct {
	UserID   uint64
	Email    string
	UserName string
	Role     Role
}

type Authorizer interface {
	Can(c Capability) bool
}

var _ Authorizer = Identity{}

func (id Identity) Can(c Capability) bool {
	for _, granted := range roleCapabilities[id.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

func (id Identity) Authenticated() bool {
	return id.UserID != 0
}

func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, Email: u.Email, UserName: u.UserName, Role: u.Role}
}
