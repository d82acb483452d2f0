package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:100"`
	Roles        string    `gorm:"size:120"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) Identity() Identity {
	return Identity{Name: strings.ToLower(u.Email), Roles: ParseRoles(u.Roles)}
}
