package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/phenrril/catering/internal/domain"
)

type CustomerUC struct {
	Customers domain.CustomerRepo
	Functions domain.FunctionRepo
	Pictures  *PictureUC
}

type ListRequest struct {
	Sort     domain.SortState
	Button   string
	Page     int
	PageSize int
}

// List applies a heading click to the sort state, clamps the page and
// returns one ordered page of customers with their thumbnails.
func (uc *CustomerUC) List(ctx context.Context, req ListRequest) (*domain.CustomerPage, error) {
	sort, reset := req.Sort.Apply(req.Button)
	page := req.Page
	if reset {
		page = 1
	}
	total, err := uc.Customers.Count(ctx)
	if err != nil {
		return nil, err
	}
	info := domain.Paging(total, page, req.PageSize)
	items := []domain.Customer{}
	if total > 0 {
		items, err = uc.Customers.List(ctx, domain.CustomerQuery{Sort: sort, Offset: info.Offset(), Limit: info.PageSize})
		if err != nil {
			return nil, err
		}
	}
	return &domain.CustomerPage{Items: items, PageInfo: info, Sort: sort}, nil
}

func (uc *CustomerUC) Get(ctx context.Context, id uuid.UUID, load domain.CustomerLoad) (*domain.Customer, error) {
	if id == uuid.Nil {
		return nil, domain.ErrNotFound
	}
	return uc.Customers.FindByID(ctx, id, load)
}

func (uc *CustomerUC) Details(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, err := uc.Get(ctx, id, domain.LoadPhoto)
	if err != nil {
		return nil, err
	}
	if uc.Functions != nil {
		fns, err := uc.Functions.ListByCustomer(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Functions = fns
	}
	return c, nil
}

// Create returns the unsaved customer alongside any error so the form can be
// shown again with what was typed.
func (uc *CustomerUC) Create(ctx context.Context, who domain.Identity, in domain.CustomerInput, up *domain.Upload) (*domain.Customer, error) {
	in = in.Normalize()
	c := &domain.Customer{ID: uuid.New(), Version: 1, CreatedBy: who.Name, UpdatedBy: who.Name}
	in.ApplyTo(c)
	if err := domain.Authorize(domain.ActionCreate, nil, who); err != nil {
		return c, err
	}
	if err := validateStruct(in); err != nil {
		return c, err
	}
	if _, err := uc.Pictures.Attach(c, up); err != nil {
		return c, err
	}
	if err := uc.Customers.Create(ctx, c); err != nil {
		return c, err
	}
	return c, nil
}

// EditForm loads a customer for editing. A *domain.ForbiddenError comes
// back with the customer so it can be shown read-only.
func (uc *CustomerUC) EditForm(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Customer, error) {
	c, err := uc.Get(ctx, id, domain.LoadPhoto)
	if err != nil {
		return nil, err
	}
	return c, domain.Authorize(domain.ActionEdit, c, who)
}

type UpdateRequest struct {
	ID          uuid.UUID
	Version     int
	Input       domain.CustomerInput
	RemoveImage bool
	Upload      *domain.Upload
}

// Update applies the allow-listed fields and the picture change in one
// gateway call guarded by the version the caller last saw.
func (uc *CustomerUC) Update(ctx context.Context, who domain.Identity, req UpdateRequest) (*domain.Customer, error) {
	c, err := uc.Get(ctx, req.ID, domain.LoadPhoto|domain.LoadThumbnail)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.ActionEdit, c, who); err != nil {
		return c, err
	}
	in := req.Input.Normalize()
	in.ApplyTo(c)
	if err := validateStruct(in); err != nil {
		return c, err
	}

	op := domain.PictureKeep
	if req.RemoveImage {
		if c.HasPicture() {
			op = domain.PictureClear
		}
		uc.Pictures.Clear(c)
	} else {
		attached, err := uc.Pictures.Attach(c, req.Upload)
		if err != nil {
			return c, err
		}
		if attached {
			op = domain.PictureReplace
		}
	}

	c.UpdatedBy = who.Name
	if err := uc.Customers.Update(ctx, c, req.Version, op); err != nil {
		if errors.Is(err, domain.ErrStaleVersion) {
			if fresh, ferr := uc.Get(ctx, req.ID, domain.LoadPlain); ferr == nil {
				c.Version = fresh.Version
			}
		}
		return c, err
	}
	return c, nil
}

func (uc *CustomerUC) Delete(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Customer, error) {
	c, err := uc.Get(ctx, id, domain.LoadPlain)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.ActionDelete, c, who); err != nil {
		return c, err
	}
	if err := uc.Customers.Delete(ctx, c.ID); err != nil {
		return c, err
	}
	return c, nil
}

func (uc *CustomerUC) Export(ctx context.Context, sort domain.SortState) ([]domain.Customer, error) {
	return uc.Customers.ListAll(ctx, sort)
}
