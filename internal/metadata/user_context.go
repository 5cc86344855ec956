package metadata

// UserContext represents the logged-in console user, set by the session middleware.
type UserContext struct {
	ID        string `json:"id"`
	SessionID string `json:"-"`
	Remember  bool   `json:"remember"`
}

// IsGuest reports whether the request carries no identified user.
func (u *UserContext) IsGuest() bool {
	return u == nil || u.ID == "" || u.ID == "Guest"
}

// Key returns a stable identifier for per-user state.
func (u *UserContext) Key() string {
	if u.IsGuest() {
		return "Guest"
	}
	return u.ID
}
