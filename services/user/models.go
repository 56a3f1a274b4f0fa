package user

import (
	"strings"
	"time"
)

const EmailIndex = "idx_users_email"

type User struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:100;not null"`
	Email         string `gorm:"size:254;not null;uniqueIndex:idx_users_email"`
	PasswordHash  string `gorm:"size:255;not null"`
	EmailVerified bool   `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Private is what the account owner sees about themselves.
type Private struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Public is what anyone may see about a user.
type Public struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (u *User) Private() Private {
	return Private{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}
}

func (u *User) Public() Public {
	return Public{ID: u.ID, Name: u.Name}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
