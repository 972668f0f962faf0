package domain

// Actor is the capability value passed into every lifecycle operation:
// who is acting and in what role. Operations check it explicitly
// instead of reading ambient session state.
type Actor struct {
	ID   string
	Role Role
}

// Is reports whether the actor holds the given role.
func (a Actor) Is(role Role) bool {
	return a.Role == role
}
