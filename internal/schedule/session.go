package schedule

import "github.com/google/uuid"

type Role string

const (
	RolePatient      Role = "patient"
	RoleNutritionist Role = "nutritionist"
	RoleAdmin        Role = "admin"
)

// Session is the caller's authenticated identity, passed explicitly into
// every service operation. Token verification happens upstream; by the
// time a Session exists the identity is trusted.
type Session struct {
	UserID uuid.UUID
	Role   Role
}

func (s Session) Authenticated() bool {
	return s.UserID != uuid.Nil
}

// CanManageSchedule reports whether the session may act on another
// user's appointments (complete them, read a whole day's schedule).
func (s Session) CanManageSchedule() bool {
	return s.Role == RoleNutritionist || s.Role == RoleAdmin
}
