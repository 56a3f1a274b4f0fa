package recipe

import (
	"time"

	"github.com/tech-arch1tect/recipemanager/services/user"
)

const (
	MaxTitleLength        = 255
	MaxCookingTimeMinutes = 3 * 24 * 60
)

type Recipe struct {
	ID                 uint      `gorm:"primaryKey"`
	UserID             uint      `gorm:"not null;index"`
	User               user.User `gorm:"constraint:OnDelete:CASCADE"`
	Title              string    `gorm:"size:255;not null"`
	CookingTimeMinutes int       `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Patch holds the fields of a partial update; nil fields are left unchanged.
type Patch struct {
	Title              *string
	CookingTimeMinutes *int
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.CookingTimeMinutes == nil
}

func (p Patch) fields() map[string]any {
	fields := make(map[string]any, 2)
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.CookingTimeMinutes != nil {
		fields["cooking_time_minutes"] = *p.CookingTimeMinutes
	}
	return fields
}

// WithOwner is a recipe together with its owner's public profile.
type WithOwner struct {
	Recipe
	Owner user.Public
}
