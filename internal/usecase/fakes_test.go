package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/phenrril/catering/internal/domain"
)

// memCustomers mimics the postgres gateway: unique customer code, version
// checks and restrict-on-delete when functions reference a customer.
type memCustomers struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]domain.Customer
	functions map[uuid.UUID]int
	failWith  error
}

func newMemCustomers(cs ...domain.Customer) *memCustomers {
	m := &memCustomers{rows: map[uuid.UUID]domain.Customer{}, functions: map[uuid.UUID]int{}}
	for _, c := range cs {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.Version == 0 {
			c.Version = 1
		}
		m.rows[c.ID] = c
	}
	return m
}

func (m *memCustomers) sorted(s domain.SortState) []domain.Customer {
	out := make([]domain.Customer, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return s.Less(out[i], out[j]) })
	return out
}

func (m *memCustomers) List(_ context.Context, q domain.CustomerQuery) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(q.Sort)
	if q.Offset >= len(all) {
		return []domain.Customer{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[q.Offset:end], nil
}

func (m *memCustomers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memCustomers) ListAll(_ context.Context, s domain.SortState) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(s), nil
}

func (m *memCustomers) FindByID(_ context.Context, id uuid.UUID, load domain.CustomerLoad) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if load&domain.LoadPhoto == 0 {
		c.Photo = nil
	}
	if load&domain.LoadThumbnail == 0 {
		c.Thumbnail = nil
	}
	return &c, nil
}

func (m *memCustomers) codeTaken(code string, except uuid.UUID) bool {
	for id, c := range m.rows {
		if id != except && c.CustomerCode == code {
			return true
		}
	}
	return false
}

func (m *memCustomers) Create(_ context.Context, c *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if m.codeTaken(c.CustomerCode, c.ID) {
		return &domain.ConflictError{Field: "CustomerCode", Value: c.CustomerCode}
	}
	c.Version = 1
	m.rows[c.ID] = *c
	return nil
}

func (m *memCustomers) Update(_ context.Context, c *domain.Customer, expected int, op domain.PictureOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expected {
		return domain.ErrStaleVersion
	}
	if m.codeTaken(c.CustomerCode, c.ID) {
		return &domain.ConflictError{Field: "CustomerCode", Value: c.CustomerCode}
	}
	next := *c
	switch op {
	case domain.PictureKeep:
		next.Photo, next.Thumbnail = cur.Photo, cur.Thumbnail
	case domain.PictureClear:
		next.Photo, next.Thumbnail = nil, nil
	}
	next.Version = expected + 1
	c.Version = next.Version
	m.rows[c.ID] = next
	return nil
}

func (m *memCustomers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	if m.functions[id] > 0 {
		return domain.ErrReferenced
	}
	delete(m.rows, id)
	return nil
}

func (m *memCustomers) ListAddressable(ctx context.Context) ([]domain.Customer, error) {
	all, _ := m.ListAll(ctx, domain.DefaultSort)
	out := []domain.Customer{}
	for _, c := range all {
		if c.EmailAddress() != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCustomers) FindAddressable(ctx context.Context, ids []uuid.UUID) ([]domain.Customer, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	all, _ := m.ListAddressable(ctx)
	out := []domain.Customer{}
	for _, c := range all {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

type memFunctions struct {
	byCustomer map[uuid.UUID][]domain.Function
}

func (f *memFunctions) ListByCustomer(_ context.Context, id uuid.UUID) ([]domain.Function, error) {
	return f.byCustomer[id], nil
}

func (f *memFunctions) Create(_ context.Context, fn *domain.Function) error {
	f.byCustomer[fn.CustomerID] = append(f.byCustomer[fn.CustomerID], *fn)
	return nil
}

// fakeResizer encodes the requested size so tests can tell variants apart.
type fakeResizer struct {
	fail bool
}

func (r fakeResizer) Resize(data []byte, w, h int) ([]byte, error) {
	if r.fail || strings.HasPrefix(string(data), "garbage") {
		return nil, errors.New("decode")
	}
	return []byte{byte(w), byte(h)}, nil
}

func (fakeResizer) MimeType() string { return "image/jpeg" }

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendOne(ctx context.Context, name, address, subject, body string) error {
	args := m.Called(ctx, name, address, subject, body)
	return args.Error(0)
}

func (m *MockMailer) SendMany(ctx context.Context, msg domain.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type memUsers struct {
	byEmail map[string]domain.User
}

func (u *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	usr, ok := u.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &usr, nil
}

func (u *memUsers) Save(_ context.Context, usr *domain.User) error {
	u.byEmail[usr.Email] = *usr
	return nil
}

func strPtr(s string) *string { return &s }

var (
	admin      = domain.Identity{Name: "admin@example.com", Roles: []domain.Role{domain.RoleAdmin}}
	supervisor = domain.Identity{Name: "super@example.com", Roles: []domain.Role{domain.RoleSupervisor}}
	staff      = domain.Identity{Name: "staff@example.com", Roles: []domain.Role{domain.RoleStaff}}
	security   = domain.Identity{Name: "guard@example.com", Roles: []domain.Role{domain.RoleSecurity}}
)
