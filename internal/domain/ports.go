package domain

import (
	"context"

	"github.com/google/uuid"
)

// CustomerLoad selects which picture relations FindByID preloads.
type CustomerLoad int

const (
	LoadPhoto CustomerLoad = 1 << iota
	LoadThumbnail
	LoadFunctions

	LoadPlain CustomerLoad = 0
)

type CustomerRepo interface {
	List(ctx context.Context, q CustomerQuery) ([]Customer, error)
	Count(ctx context.Context) (int64, error)
	ListAll(ctx context.Context, sort SortState) ([]Customer, error)
	FindByID(ctx context.Context, id uuid.UUID, load CustomerLoad) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer, expectedVersion int, op PictureOp) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAddressable(ctx context.Context) ([]Customer, error)
	FindAddressable(ctx context.Context, ids []uuid.UUID) ([]Customer, error)
}

type UserRepo interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) error
}

type FunctionRepo interface {
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Function, error)
	Create(ctx context.Context, f *Function) error
}

// PageSizeStore remembers a user's page size per list.
type PageSizeStore interface {
	PageSize(ctx context.Context, user, list string) (int, bool)
	SetPageSize(ctx context.Context, user, list string, size int) error
}
