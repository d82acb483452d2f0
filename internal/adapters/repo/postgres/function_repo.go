package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/catering/internal/domain"
)

type FunctionRepo struct{ db *gorm.DB }

func NewFunctionRepo(db *gorm.DB) *FunctionRepo { return &FunctionRepo{db: db} }

func (r *FunctionRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Function, error) {
	var list []domain.Function
	err := r.db.WithContext(ctx).
		Preload("FunctionType").Preload("MealType").
		Where("customer_id = ?", customerID).
		Order("start_time asc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *FunctionRepo) Create(ctx context.Context, f *domain.Function) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return mapError(r.db.WithContext(ctx).Omit("FunctionType", "MealType").Create(f).Error)
}

// FunctionType returns the lookup row with the given name, creating it on
// first use.
func (r *FunctionRepo) FunctionType(ctx context.Context, name string) (*domain.FunctionType, error) {
	ft := domain.FunctionType{ID: uuid.New(), Name: name}
	err := r.db.WithContext(ctx).Where(domain.FunctionType{Name: name}).FirstOrCreate(&ft).Error
	if err != nil {
		return nil, err
	}
	return &ft, nil
}

func (r *FunctionRepo) MealType(ctx context.Context, name string) (*domain.MealType, error) {
	mt := domain.MealType{ID: uuid.New(), Name: name}
	err := r.db.WithContext(ctx).Where(domain.MealType{Name: name}).FirstOrCreate(&mt).Error
	if err != nil {
		return nil, err
	}
	return &mt, nil
}
