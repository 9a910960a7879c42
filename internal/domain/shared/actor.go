package shared

// ActorRole identifies which kind of user is issuing a mutation.
// Role checks in the state machines are scoped to these values.
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleSeller   ActorRole = "seller"
	RoleSupport  ActorRole = "support"
	RoleAdmin    ActorRole = "admin"
)

// IsValid checks if the role is a known ActorRole
func (r ActorRole) IsValid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleSupport, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of ActorRole
func (r ActorRole) String() string {
	return string(r)
}

// IsStaff returns true for roles allowed to act on behalf of the store
func (r ActorRole) IsStaff() bool {
	return r == RoleSupport || r == RoleAdmin
}
