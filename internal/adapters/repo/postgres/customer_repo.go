package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/catering/internal/domain"
)

type CustomerRepo struct{ db *gorm.DB }

func NewCustomerRepo(db *gorm.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// thumbnailMeta preloads the thumbnail row without its bytes; list pages only
// need to know whether one exists.
func thumbnailMeta(db *gorm.DB) *gorm.DB {
	return db.Select("id", "customer_id", "mime_type")
}

func ordered(q *gorm.DB, s domain.SortState) *gorm.DB {
	for _, o := range s.OrderBy() {
		q = q.Order(o)
	}
	return q.Order("id")
}

func (r *CustomerRepo) List(ctx context.Context, q domain.CustomerQuery) ([]domain.Customer, error) {
	var list []domain.Customer
	tx := ordered(r.db.WithContext(ctx).Model(&domain.Customer{}), q.Sort).
		Preload("Thumbnail", thumbnailMeta)
	if q.Limit > 0 {
		tx = tx.Offset(q.Offset).Limit(q.Limit)
	}
	if err := tx.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CustomerRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Customer{}).Count(&n).Error
	return n, err
}

func (r *CustomerRepo) ListAll(ctx context.Context, s domain.SortState) ([]domain.Customer, error) {
	var list []domain.Customer
	if err := ordered(r.db.WithContext(ctx), s).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CustomerRepo) FindByID(ctx context.Context, id uuid.UUID, load domain.CustomerLoad) (*domain.Customer, error) {
	var c domain.Customer
	q := r.db.WithContext(ctx)
	if load&domain.LoadPhoto != 0 {
		q = q.Preload("Photo")
	}
	if load&domain.LoadThumbnail != 0 {
		q = q.Preload("Thumbnail")
	} else {
		q = q.Preload("Thumbnail", thumbnailMeta)
	}
	if load&domain.LoadFunctions != 0 {
		q = q.Preload("Functions", func(db *gorm.DB) *gorm.DB { return db.Order("start_time") }).
			Preload("Functions.FunctionType").Preload("Functions.MealType")
	}
	if err := q.First(&c, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// Create inserts the customer and its picture pair in one transaction.
func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Version = 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		return savePictures(tx, c)
	})
	return mapError(err)
}

// Update writes the editable columns only when the stored version still
// equals expected, then applies op to the picture pair.
func (r *CustomerRepo) Update(ctx context.Context, c *domain.Customer, expected int, op domain.PictureOp) error {
	var email any
	if c.Email != nil {
		email = *c.Email
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Customer{}).
			Where("id = ? AND version = ?", c.ID, expected).
			Updates(map[string]any{
				"first_name":    c.FirstName,
				"middle_name":   c.MiddleName,
				"last_name":     c.LastName,
				"company_name":  c.CompanyName,
				"phone":         c.Phone,
				"customer_code": c.CustomerCode,
				"email":         email,
				"updated_by":    c.UpdatedBy,
				"updated_at":    time.Now(),
				"version":       gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&domain.Customer{}).Where("id = ?", c.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return domain.ErrNotFound
			}
			return domain.ErrStaleVersion
		}
		switch op {
		case domain.PictureReplace:
			return savePictures(tx, c)
		case domain.PictureClear:
			if err := tx.Where("customer_id = ?", c.ID).Delete(&domain.CustomerPhoto{}).Error; err != nil {
				return err
			}
			return tx.Where("customer_id = ?", c.ID).Delete(&domain.CustomerThumbnail{}).Error
		}
		return nil
	})
	if err != nil {
		return mapError(err)
	}
	c.Version = expected + 1
	return nil
}

func savePictures(tx *gorm.DB, c *domain.Customer) error {
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "mime_type"}),
	}
	if c.Photo != nil {
		c.Photo.CustomerID = c.ID
		if c.Photo.ID == uuid.Nil {
			c.Photo.ID = uuid.New()
		}
		if err := tx.Clauses(upsert).Create(c.Photo).Error; err != nil {
			return err
		}
	}
	if c.Thumbnail != nil {
		c.Thumbnail.CustomerID = c.ID
		if c.Thumbnail.ID == uuid.Nil {
			c.Thumbnail.ID = uuid.New()
		}
		if err := tx.Clauses(upsert).Create(c.Thumbnail).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the customer; pictures go with it through the cascade and
// booked functions block it with ErrReferenced.
func (r *CustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Customer{}, "id = ?", id)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) ListAddressable(ctx context.Context) ([]domain.Customer, error) {
	var list []domain.Customer
	err := ordered(r.db.WithContext(ctx), domain.DefaultSort).
		Where("email IS NOT NULL AND email <> ''").
		Find(&list).Error
	return list, err
}

func (r *CustomerRepo) FindAddressable(ctx context.Context, ids []uuid.UUID) ([]domain.Customer, error) {
	if len(ids) == 0 {
		return []domain.Customer{}, nil
	}
	var list []domain.Customer
	err := ordered(r.db.WithContext(ctx), domain.DefaultSort).
		Where("id IN ? AND email IS NOT NULL AND email <> ''", ids).
		Find(&list).Error
	return list, err
}

// Exists reports whether a customer code is already taken.
func (r *CustomerRepo) Exists(ctx context.Context, code string) (bool, error) {
	var c domain.Customer
	err := r.db.WithContext(ctx).Select("id").First(&c, "customer_code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}
