package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal. Its role lives in user_roles and is looked up per request.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPublic is User with its role and without sensitive fields, for API responses.
type UserPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic(role Role) UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      role,
		CreatedAt: u.CreatedAt,
	}
}

// OperatorPermission grants one operator access to one section.
type OperatorPermission struct {
	UserID    uuid.UUID `json:"user_id"`
	Section   Section   `json:"section"`
	GrantedAt time.Time `json:"granted_at"`
}
