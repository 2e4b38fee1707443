package user

import "time"

// User is an account. PasswordHash is a bcrypt hash and never leaves the
// process; Ref is the only shape serialized into API responses.
type User struct {
	ID           string    `yaml:"id"`
	Username     string    `yaml:"username"`
	PasswordHash string    `yaml:"password_hash"`
	CreatedAt    time.Time `yaml:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// Ref is the externally-safe representation of a user.
type Ref struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (u *User) Ref() Ref {
	return Ref{ID: u.ID, Username: u.Username}
}
