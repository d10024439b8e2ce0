package models

import "github.com/golang-jwt/jwt/v5"

// Role governs what an actor may do with reports.
type Role string

const (
	RoleResident  Role = "resident"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Default display names for sessions started without a name and for
// anonymous requests.
const (
	DefaultResidentName = "Vecino/a"
	GuestName           = "Invitado"
	GuestID             = "guest"
)

var roleLabels = map[Role]string{
	RoleResident:  "Resident",
	RoleModerator: "Community moderator",
	RoleAdmin:     "Administrator",
}

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the human label, falling back to the raw value.
func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}

// CanManageStatus reports whether the role may change report status.
func (r Role) CanManageStatus() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Actor is a value snapshot of who performed an action. Role is empty for
// system actors such as the community board in seed data.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role,omitempty"`
}

// GuestActor is used for requests that carry no session token.
func GuestActor() Actor {
	return Actor{ID: GuestID, Name: GuestName, Role: RoleResident}
}

// ActorClaims are the JWT claims of a session token.
type ActorClaims struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts the claims into an actor snapshot.
func (c *ActorClaims) Actor() Actor {
	if c == nil {
		return GuestActor()
	}
	return Actor{ID: c.ActorID, Name: c.Name, Role: c.Role}
}
