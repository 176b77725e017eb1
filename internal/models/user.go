package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a row of the "users" table.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	MiddleName   *string    `json:"middle_name,omitempty"`
	LastName     string     `json:"last_name"`
	PasswordHash string     `json:"-"` // don't expose hash
	Gender       *string    `json:"gender,omitempty"`
	Birthdate    *time.Time `json:"birthdate,omitempty"`
	PhoneNumber  *string    `json:"phone_number,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsSuperuser  bool       `json:"is_superuser"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// UserUpdate carries a partial update; nil fields are left untouched.
type UserUpdate struct {
	Username    *string    `json:"username,omitempty"`
	Email       *string    `json:"email,omitempty"`
	FirstName   *string    `json:"first_name,omitempty"`
	MiddleName  *string    `json:"middle_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	Password    *string    `json:"password,omitempty"`
	Gender      *string    `json:"gender,omitempty"`
	Birthdate   *time.Time `json:"birthdate,omitempty"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}
