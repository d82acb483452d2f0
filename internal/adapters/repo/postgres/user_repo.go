package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/catering/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, domain.ErrNotFound
	}
	if err := r.db.WithContext(ctx).First(&u, "LOWER(email) = ?", e).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// Save inserts the user or refreshes password and roles of an existing
// account with the same email.
func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "roles", "updated_at"}),
	}).Create(u).Error
	return mapError(err)
}
