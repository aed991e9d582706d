package model

// Roles carried by authenticated users.
const (
	RoleAdmin   = "admin"
	RoleCreator = "creator"
	RoleBuyer   = "buyer"
)

// User is the account behind an admin or marketplace session.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// AuthResult is returned by login, register and refresh endpoints.
type AuthResult struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
	User      User   `json:"user"`
}
