package models

import (
	"strings"
	"time"
)

// User is an employee account. The password hash is never loaded.
type User struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	AvatarURL *string   `db:"avatar_url" json:"avatarUrl,omitempty"`
	Emoji     *string   `db:"emoji" json:"emoji,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// IsAdmin reports whether the user may see other users' records.
func (u User) IsAdmin() bool {
	return strings.EqualFold(u.Role, "admin") || strings.EqualFold(u.Role, "administrator")
}
