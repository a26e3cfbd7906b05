package models

import (
	"time"

	"gorm.io/gorm"
)

// User is either a company (recruiter) or a student account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:254" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsCompany    bool      `gorm:"not null;default:false" json:"is_company"`
	RegisterIP   string    `gorm:"size:45" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role returns the account role name used in responses and tokens.
func (u User) Role() string {
	if u.IsCompany {
		return RoleCompany
	}
	return RoleStudent
}

const (
	RoleCompany = "company"
	RoleStudent = "student"
)

// BeforeUpdate keeps the role flag out of updates; it is fixed at registration.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("IsCompany") {
		return ErrRoleImmutable
	}
	return nil
}
